package helix

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixdb/helix/pkg/bm25"
	"github.com/helixdb/helix/pkg/codec"
	"github.com/helixdb/helix/pkg/config"
	"github.com/helixdb/helix/pkg/graph"
	"github.com/helixdb/helix/pkg/hybrid"
	"github.com/helixdb/helix/pkg/traversal"
	"github.com/helixdb/helix/pkg/vector"
)

func openTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := OpenInMemory(config.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestEngineGraphRoundTrip(t *testing.T) {
	e := openTestEngine(t)

	wh, err := e.Txns.BeginWrite()
	require.NoError(t, err)
	id, err := graph.AddN(wh.Write(), "User", map[string]codec.Value{"name": codec.String("ada")}, nil)
	require.NoError(t, err)
	require.NoError(t, wh.Commit())

	rh, err := e.Txns.BeginRead()
	require.NoError(t, err)
	defer rh.Close()
	n, err := graph.NFromID(rh.Read(), id)
	require.NoError(t, err)
	assert.Equal(t, "User", n.Label)
}

func TestEngineAbortedWriteIsInvisible(t *testing.T) {
	e := openTestEngine(t)

	wh, err := e.Txns.BeginWrite()
	require.NoError(t, err)
	id, err := graph.AddN(wh.Write(), "User", map[string]codec.Value{"name": codec.String("ada")}, nil)
	require.NoError(t, err)
	wh.Abort()

	rh, err := e.Txns.BeginRead()
	require.NoError(t, err)
	defer rh.Close()
	_, err = graph.NFromID(rh.Read(), id)
	require.Error(t, err)
}

func TestEngineTraversalOverGraphAndWriteHandle(t *testing.T) {
	e := openTestEngine(t)

	wh, err := e.Txns.BeginWrite()
	require.NoError(t, err)
	a, err := graph.AddN(wh.Write(), "User", map[string]codec.Value{"name": codec.String("ada")}, nil)
	require.NoError(t, err)
	b, err := graph.AddN(wh.Write(), "User", map[string]codec.Value{"name": codec.String("bob")}, nil)
	require.NoError(t, err)
	_, err = graph.AddE(wh.Write(), "Follows", a, b, nil, nil)
	require.NoError(t, err)
	require.NoError(t, wh.Commit())

	rh, err := e.Txns.BeginRead()
	require.NoError(t, err)
	defer rh.Close()

	neighbors, err := graph.Out(rh.Read(), a, "Follows")
	require.NoError(t, err)
	require.Len(t, neighbors, 1)

	vals := make([]traversal.TraversalVal, len(neighbors))
	for i, n := range neighbors {
		vals[i] = traversal.NodeVal(n)
	}
	tit := traversal.FromSlice(vals)
	v, ok := tit.Next(context.Background())
	require.True(t, ok)
	id, ok := v.ID()
	require.True(t, ok)
	assert.Equal(t, b, id)
}

func TestEngineHybridSearchWiresVectorAndBM25Config(t *testing.T) {
	e := openTestEngine(t)

	docA := codec.NewID()
	docB := codec.NewID()

	wh, err := e.Txns.BeginWrite()
	require.NoError(t, err)
	require.NoError(t, bm25.InsertDoc(wh.Write(), e.BM25Config, docA, "graph database engine"))
	require.NoError(t, bm25.InsertDoc(wh.Write(), e.BM25Config, docB, "unrelated baking recipe"))
	require.NoError(t, vector.Insert(wh.Write(), e.VectorConfig, "Doc", docA, []float64{1, 0}))
	require.NoError(t, vector.Insert(wh.Write(), e.VectorConfig, "Doc", docB, []float64{0, 1}))
	require.NoError(t, wh.Commit())

	rh, err := e.Txns.BeginRead()
	require.NoError(t, err)
	defer rh.Close()

	results, err := hybrid.Search(rh.Read(), e.BM25Config, e.VectorConfig, "Doc", "graph database", []float64{1, 0}, 0.5, 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, docA, results[0].ID)
}
