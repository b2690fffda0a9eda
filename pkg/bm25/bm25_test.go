package bm25

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixdb/helix/pkg/codec"
	"github.com/helixdb/helix/pkg/kv"
)

func newStore(t *testing.T) *kv.Store {
	s, err := kv.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestTokenizeLowercasesAndSplits(t *testing.T) {
	cfg := DefaultConfig()
	toks := Tokenize(cfg, "The Quick-Brown Fox! Fox.")
	assert.Equal(t, []string{"the", "quick", "brown", "fox", "fox"}, toks)
}

func TestTokenizeDropsStopwordsAndLongTokens(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Stopwords = map[string]struct{}{"the": {}}
	long := make([]byte, 100)
	for i := range long {
		long[i] = 'a'
	}
	toks := Tokenize(cfg, "the cat "+string(long))
	assert.Equal(t, []string{"cat"}, toks)
}

func TestSearchRanksByRelevance(t *testing.T) {
	s := newStore(t)
	cfg := DefaultConfig()
	relevant := codec.NewID()
	irrelevant := codec.NewID()

	require.NoError(t, s.Update(func(w *kv.WriteTxn) error {
		if err := InsertDoc(w, cfg, relevant, "graph database vector search graph"); err != nil {
			return err
		}
		return InsertDoc(w, cfg, irrelevant, "completely unrelated document about cooking")
	}))

	require.NoError(t, s.View(func(r *kv.ReadTxn) error {
		results, err := Search(r, cfg, "graph database", 10)
		require.NoError(t, err)
		require.NotEmpty(t, results)
		assert.Equal(t, relevant, results[0].DocID)
		return nil
	}))
}

func TestDeleteDocRemovesFromSearch(t *testing.T) {
	s := newStore(t)
	cfg := DefaultConfig()
	doc := codec.NewID()

	require.NoError(t, s.Update(func(w *kv.WriteTxn) error {
		return InsertDoc(w, cfg, doc, "graph database")
	}))
	require.NoError(t, s.Update(func(w *kv.WriteTxn) error {
		return DeleteDoc(w, doc)
	}))

	require.NoError(t, s.View(func(r *kv.ReadTxn) error {
		results, err := Search(r, cfg, "graph database", 10)
		require.NoError(t, err)
		assert.Empty(t, results)
		count, err := DocCount(r)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), count)
		return nil
	}))
}

func TestDeleteDocMissingIsNoOp(t *testing.T) {
	s := newStore(t)
	err := s.Update(func(w *kv.WriteTxn) error {
		return DeleteDoc(w, codec.NewID())
	})
	assert.NoError(t, err)
}

func TestUpdateDocReplacesContent(t *testing.T) {
	s := newStore(t)
	cfg := DefaultConfig()
	doc := codec.NewID()

	require.NoError(t, s.Update(func(w *kv.WriteTxn) error {
		return InsertDoc(w, cfg, doc, "original content about cats")
	}))
	require.NoError(t, s.Update(func(w *kv.WriteTxn) error {
		return UpdateDoc(w, cfg, doc, "new content about dogs")
	}))

	require.NoError(t, s.View(func(r *kv.ReadTxn) error {
		catResults, err := Search(r, cfg, "cats", 10)
		require.NoError(t, err)
		assert.Empty(t, catResults)

		dogResults, err := Search(r, cfg, "dogs", 10)
		require.NoError(t, err)
		require.Len(t, dogResults, 1)
		assert.Equal(t, doc, dogResults[0].DocID)
		return nil
	}))
}

func TestSearchEmptyIndexReturnsNil(t *testing.T) {
	s := newStore(t)
	cfg := DefaultConfig()
	require.NoError(t, s.View(func(r *kv.ReadTxn) error {
		results, err := Search(r, cfg, "anything", 10)
		require.NoError(t, err)
		assert.Empty(t, results)
		return nil
	}))
}
