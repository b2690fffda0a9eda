package traversal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixdb/helix/pkg/codec"
	"github.com/helixdb/helix/pkg/graph"
	"github.com/helixdb/helix/pkg/helixerr"
)

func drain(t *testing.T, it Iterator) []TraversalVal {
	t.Helper()
	var out []TraversalVal
	for {
		v, ok := it.Next(context.Background())
		if !ok {
			break
		}
		out = append(out, v)
	}
	require.NoError(t, it.Err())
	return out
}

func nodeVals(ids ...codec.ID) []TraversalVal {
	vals := make([]TraversalVal, len(ids))
	for i, id := range ids {
		vals[i] = NodeVal(&graph.Node{ID: id, Label: "User", Properties: map[string]codec.Value{
			"name": codec.String("x"),
			"age":  codec.I32(int32(i)),
		}})
	}
	return vals
}

func TestFilterRef(t *testing.T) {
	ids := []codec.ID{codec.NewID(), codec.NewID(), codec.NewID()}
	it := FromSlice(nodeVals(ids...))
	filtered := FilterRef(it, func(v TraversalVal) bool {
		return v.Node.Properties["age"].I32 > 0
	})
	out := drain(t, filtered)
	assert.Len(t, out, 2)
}

func TestDedupRemovesDuplicates(t *testing.T) {
	id := codec.NewID()
	vals := append(nodeVals(id), nodeVals(id)...)
	it := Dedup(FromSlice(vals))
	out := drain(t, it)
	assert.Len(t, out, 1)
}

func TestDedupThenFilterIsQueryError(t *testing.T) {
	it := Dedup(FromSlice(nodeVals(codec.NewID())))
	bad := FilterRef(it, func(v TraversalVal) bool { return true })
	_, ok := bad.Next(context.Background())
	assert.False(t, ok)
	require.Error(t, bad.Err())
	assert.True(t, helixerr.Is(bad.Err(), helixerr.QueryError))
}

func TestDedupThenProjectIsAllowed(t *testing.T) {
	id := codec.NewID()
	it := Dedup(FromSlice(nodeVals(id)))
	projected := Project(it, []string{"name"})
	out := drain(t, projected)
	require.Len(t, out, 1)
	_, hasAge := out[0].Node.Properties["age"]
	assert.False(t, hasAge)
	assert.True(t, out[0].Node.Properties["name"].Equal(codec.String("x")))
}

func TestRangeClampsWindow(t *testing.T) {
	ids := []codec.ID{codec.NewID(), codec.NewID(), codec.NewID(), codec.NewID()}
	it, err := Range(context.Background(), FromSlice(nodeVals(ids...)), 1, 3)
	require.NoError(t, err)
	out := drain(t, it)
	assert.Len(t, out, 2)
}

func TestForInVisitsEveryItemInOrder(t *testing.T) {
	items := []int{1, 2, 3}
	var seen []int
	err := ForIn(context.Background(), items, func(ctx context.Context, item int) error {
		seen = append(seen, item)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, items, seen)
}

func TestForInStopsOnError(t *testing.T) {
	items := []int{1, 2, 3}
	count := 0
	err := ForIn(context.Background(), items, func(ctx context.Context, item int) error {
		count++
		if item == 2 {
			return assert.AnError
		}
		return nil
	})
	require.Error(t, err)
	assert.Equal(t, 2, count)
}
