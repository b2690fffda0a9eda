package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixdb/helix/pkg/codec"
	"github.com/helixdb/helix/pkg/helixerr"
	"github.com/helixdb/helix/pkg/kv"
)

func newStore(t *testing.T) *kv.Store {
	s, err := kv.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAddNAndNFromID(t *testing.T) {
	s := newStore(t)
	var id codec.ID
	require.NoError(t, s.Update(func(w *kv.WriteTxn) error {
		var err error
		id, err = AddN(w, "User", map[string]codec.Value{"name": codec.String("Alice")}, nil)
		return err
	}))

	require.NoError(t, s.View(func(r *kv.ReadTxn) error {
		n, err := NFromID(r, id)
		require.NoError(t, err)
		assert.Equal(t, "User", n.Label)
		assert.True(t, n.Properties["name"].Equal(codec.String("Alice")))
		return nil
	}))
}

func TestAddNEmptyLabelIsValueError(t *testing.T) {
	s := newStore(t)
	err := s.Update(func(w *kv.WriteTxn) error {
		_, err := AddN(w, "", nil, nil)
		return err
	})
	require.Error(t, err)
	assert.True(t, helixerr.Is(err, helixerr.ValueError))
}

func TestAddNMissingSecondaryKeyIsSchemaError(t *testing.T) {
	s := newStore(t)
	err := s.Update(func(w *kv.WriteTxn) error {
		_, err := AddN(w, "User", map[string]codec.Value{}, []string{"email"})
		return err
	})
	require.Error(t, err)
	assert.True(t, helixerr.Is(err, helixerr.SchemaError))
}

func TestAddEReferentialIntegrity(t *testing.T) {
	s := newStore(t)
	missing := codec.NewID()
	err := s.Update(func(w *kv.WriteTxn) error {
		id, err := AddN(w, "User", nil, nil)
		require.NoError(t, err)
		_, err = AddE(w, "FOLLOWS", id, missing, nil, nil)
		return err
	})
	require.Error(t, err)
	assert.True(t, helixerr.Is(err, helixerr.ReferentialError))
}

func TestAddEAndAdjacency(t *testing.T) {
	s := newStore(t)
	var a, b codec.ID
	require.NoError(t, s.Update(func(w *kv.WriteTxn) error {
		var err error
		a, err = AddN(w, "User", nil, nil)
		require.NoError(t, err)
		b, err = AddN(w, "User", nil, nil)
		require.NoError(t, err)
		_, err = AddE(w, "FOLLOWS", a, b, nil, nil)
		return err
	}))

	require.NoError(t, s.View(func(r *kv.ReadTxn) error {
		outEdges, err := OutE(r, a, "FOLLOWS")
		require.NoError(t, err)
		require.Len(t, outEdges, 1)
		assert.Equal(t, b, outEdges[0].To)

		inEdges, err := InE(r, b, "FOLLOWS")
		require.NoError(t, err)
		require.Len(t, inEdges, 1)
		assert.Equal(t, a, inEdges[0].From)

		noMatch, err := OutE(r, a, "LIKES")
		require.NoError(t, err)
		assert.Empty(t, noMatch, "a differently labeled query must not see this edge")
		return nil
	}))
}

func TestDropNCascadesEdges(t *testing.T) {
	s := newStore(t)
	var a, b codec.ID
	require.NoError(t, s.Update(func(w *kv.WriteTxn) error {
		var err error
		a, err = AddN(w, "User", nil, nil)
		require.NoError(t, err)
		b, err = AddN(w, "User", nil, nil)
		require.NoError(t, err)
		_, err = AddE(w, "FOLLOWS", a, b, nil, nil)
		return err
	}))

	require.NoError(t, s.Update(func(w *kv.WriteTxn) error {
		return DropN(w, a, nil)
	}))

	require.NoError(t, s.View(func(r *kv.ReadTxn) error {
		_, err := NFromID(r, a)
		assert.True(t, helixerr.Is(err, helixerr.NotFound))

		inEdges, err := InE(r, b, "FOLLOWS")
		require.NoError(t, err)
		assert.Empty(t, inEdges, "incident edge must be cascaded away")
		return nil
	}))
}

func TestDropNOnMissingIDIsNoOp(t *testing.T) {
	s := newStore(t)
	err := s.Update(func(w *kv.WriteTxn) error {
		return DropN(w, codec.NewID(), nil)
	})
	assert.NoError(t, err)
}

func TestUpdateNMaintainsSecondaryIndex(t *testing.T) {
	s := newStore(t)
	var id codec.ID
	require.NoError(t, s.Update(func(w *kv.WriteTxn) error {
		var err error
		id, err = AddN(w, "User", map[string]codec.Value{"email": codec.String("old@x.com")}, []string{"email"})
		return err
	}))

	require.NoError(t, s.Update(func(w *kv.WriteTxn) error {
		return UpdateN(w, id, map[string]codec.Value{"email": codec.String("new@x.com")}, []string{"email"})
	}))

	require.NoError(t, s.View(func(r *kv.ReadTxn) error {
		oldMatches, err := LookupEqual(r, "User", "email", codec.String("old@x.com"))
		require.NoError(t, err)
		assert.Empty(t, oldMatches)

		newMatches, err := LookupEqual(r, "User", "email", codec.String("new@x.com"))
		require.NoError(t, err)
		require.Len(t, newMatches, 1)
		assert.Equal(t, id, newMatches[0])
		return nil
	}))
}

func TestNFromTypesFiltersByLabel(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Update(func(w *kv.WriteTxn) error {
		_, err := AddN(w, "User", nil, nil)
		require.NoError(t, err)
		_, err = AddN(w, "Post", nil, nil)
		require.NoError(t, err)
		_, err = AddN(w, "User", nil, nil)
		return err
	}))

	require.NoError(t, s.View(func(r *kv.ReadTxn) error {
		it := NFromTypes(r, "User")
		defer it.Close()
		count := 0
		for {
			_, ok := it.Next(context.Background())
			if !ok {
				break
			}
			count++
		}
		require.NoError(t, it.Err())
		assert.Equal(t, 2, count)
		return nil
	}))
}

func TestDegreeCounts(t *testing.T) {
	s := newStore(t)
	var a, b, c codec.ID
	require.NoError(t, s.Update(func(w *kv.WriteTxn) error {
		var err error
		a, err = AddN(w, "User", nil, nil)
		require.NoError(t, err)
		b, err = AddN(w, "User", nil, nil)
		require.NoError(t, err)
		c, err = AddN(w, "User", nil, nil)
		require.NoError(t, err)
		_, err = AddE(w, "FOLLOWS", a, b, nil, nil)
		require.NoError(t, err)
		_, err = AddE(w, "FOLLOWS", a, c, nil, nil)
		return err
	}))

	require.NoError(t, s.View(func(r *kv.ReadTxn) error {
		out, err := OutDegree(r, a)
		require.NoError(t, err)
		assert.Equal(t, 2, out)

		in, err := InDegree(r, b)
		require.NoError(t, err)
		assert.Equal(t, 1, in)
		return nil
	}))
}

func TestRangeClamps(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{2, 3}, Range(items, 1, 3))
	assert.Equal(t, []int{1, 2, 3, 4, 5}, Range(items, -1, 100))
	assert.Nil(t, Range(items, 4, 2))
}
