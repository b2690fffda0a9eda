package graph

import (
	"context"

	"github.com/helixdb/helix/pkg/codec"
	"github.com/helixdb/helix/pkg/kv"
)

// NodeIter lazily yields nodes. Next blocks only on the underlying cursor
// advance; it checks ctx for cancellation between items, matching the
// engine-wide rule that a long scan yields a safe cancellation point at
// each item boundary.
type NodeIter struct {
	rtx   *kv.ReadTxn
	it    *kv.PrefixIterator
	label string // "" means no label filter
	err   error
}

func (it *NodeIter) Next(ctx context.Context) (*Node, bool) {
	for {
		if it.err != nil {
			return nil, false
		}
		if err := ctx.Err(); err != nil {
			it.err = err
			return nil, false
		}
		if !it.it.Next() {
			return nil, false
		}
		key := it.it.Key()
		var id codec.ID
		copy(id[:], key[1:17])
		val, err := it.it.Value()
		if err != nil {
			it.err = err
			return nil, false
		}
		n, err := decodeNode(id, val)
		if err != nil {
			it.err = err
			return nil, false
		}
		if it.label != "" && n.Label != it.label {
			continue
		}
		return n, true
	}
}

func (it *NodeIter) Err() error { return it.err }
func (it *NodeIter) Close()     { it.it.Close() }

// NFromTypes returns a lazy, id-ordered iterator over every node with the
// given label. This is a full scan filtered by label, since nodes are not
// separately indexed by label beyond their declared secondary indices.
func NFromTypes(r *kv.ReadTxn, label string) *NodeIter {
	return &NodeIter{rtx: r, it: r.NewPrefixIterator([]byte{codec.PrefixNode}), label: label}
}

// EdgeIter lazily yields edges.
type EdgeIter struct {
	rtx   *kv.ReadTxn
	it    *kv.PrefixIterator
	label string
	err   error
}

func (it *EdgeIter) Next(ctx context.Context) (*Edge, bool) {
	for {
		if it.err != nil {
			return nil, false
		}
		if err := ctx.Err(); err != nil {
			it.err = err
			return nil, false
		}
		if !it.it.Next() {
			return nil, false
		}
		key := it.it.Key()
		var id codec.ID
		copy(id[:], key[1:17])
		val, err := it.it.Value()
		if err != nil {
			it.err = err
			return nil, false
		}
		e, err := decodeEdge(id, val)
		if err != nil {
			it.err = err
			return nil, false
		}
		if it.label != "" && e.Label != it.label {
			continue
		}
		return e, true
	}
}

func (it *EdgeIter) Err() error { return it.err }
func (it *EdgeIter) Close()     { it.it.Close() }

// EFromTypes returns a lazy, id-ordered iterator over every edge with the
// given label.
func EFromTypes(r *kv.ReadTxn, label string) *EdgeIter {
	return &EdgeIter{rtx: r, it: r.NewPrefixIterator([]byte{codec.PrefixEdge}), label: label}
}

// Out returns the nodes reached by id's outgoing edges carrying label.
func Out(r *kv.ReadTxn, id codec.ID, label string) ([]*Node, error) {
	edges, err := OutE(r, id, label)
	if err != nil {
		return nil, err
	}
	nodes := make([]*Node, 0, len(edges))
	for _, e := range edges {
		n, err := NFromID(r, e.To)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// In returns the nodes with an incoming edge carrying label into id.
func In(r *kv.ReadTxn, id codec.ID, label string) ([]*Node, error) {
	edges, err := InE(r, id, label)
	if err != nil {
		return nil, err
	}
	nodes := make([]*Node, 0, len(edges))
	for _, e := range edges {
		n, err := NFromID(r, e.From)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// OutE returns the edges leaving id that carry label. The adjacency key
// is already scoped to (id, label_hash), so this only has to fall back to
// a real label comparison to cover the (unlikely) event of a label-hash
// collision.
func OutE(r *kv.ReadTxn, id codec.ID, label string) ([]*Edge, error) {
	var edges []*Edge
	err := r.CursorKeysOnly(codec.OutAdjLabelPrefix(id, label), func(key []byte) error {
		eid := extractEdgeID(key)
		e, err := EFromID(r, eid)
		if err != nil {
			return err
		}
		if e.Label != label {
			return nil
		}
		edges = append(edges, e)
		return nil
	})
	return edges, err
}

// InE returns the edges arriving at id that carry label.
func InE(r *kv.ReadTxn, id codec.ID, label string) ([]*Edge, error) {
	var edges []*Edge
	err := r.CursorKeysOnly(codec.InAdjLabelPrefix(id, label), func(key []byte) error {
		eid := extractEdgeID(key)
		e, err := EFromID(r, eid)
		if err != nil {
			return err
		}
		if e.Label != label {
			return nil
		}
		edges = append(edges, e)
		return nil
	})
	return edges, err
}

// FromN returns the source node of an edge.
func FromN(r *kv.ReadTxn, e *Edge) (*Node, error) { return NFromID(r, e.From) }

// ToN returns the target node of an edge.
func ToN(r *kv.ReadTxn, e *Edge) (*Node, error) { return NFromID(r, e.To) }

// OutDegree counts the outgoing edges of id without decoding them.
func OutDegree(r *kv.ReadTxn, id codec.ID) (int, error) {
	count := 0
	err := r.CursorKeysOnly(codec.OutAdjPrefix(id), func(key []byte) error {
		count++
		return nil
	})
	return count, err
}

// InDegree counts the incoming edges of id without decoding them.
func InDegree(r *kv.ReadTxn, id codec.ID) (int, error) {
	count := 0
	err := r.CursorKeysOnly(codec.InAdjPrefix(id), func(key []byte) error {
		count++
		return nil
	})
	return count, err
}

// NodeCount returns the total number of nodes in the store.
func NodeCount(r *kv.ReadTxn) (int64, error) {
	var n int64
	err := r.CursorKeysOnly(codec.NodeKey(codec.ID{})[:1], func(key []byte) error {
		n++
		return nil
	})
	return n, err
}

// EdgeCount returns the total number of edges in the store.
func EdgeCount(r *kv.ReadTxn) (int64, error) {
	var n int64
	err := r.CursorKeysOnly(codec.EdgeKey(codec.ID{})[:1], func(key []byte) error {
		n++
		return nil
	})
	return n, err
}
