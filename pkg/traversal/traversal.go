// Package traversal implements HelixDB's lazy query pipeline: a pull-based
// Iterator of TraversalVal flowing through composable operators
// (FilterRef, WhereExists, Dedup, Range, Project, ForIn). Every source in
// pkg/graph, pkg/vector and pkg/bm25 is adapted into an Iterator here
// rather than in those packages, so graph/vector/bm25 never need to know
// about the traversal engine's composition rules.
package traversal

import (
	"context"

	"github.com/helixdb/helix/pkg/bm25"
	"github.com/helixdb/helix/pkg/codec"
	"github.com/helixdb/helix/pkg/graph"
	"github.com/helixdb/helix/pkg/vector"
)

// ValKind tags the variant carried by a TraversalVal.
type ValKind int

const (
	KindEmpty ValKind = iota
	KindNode
	KindEdge
	KindVector
	KindValue
)

// TraversalVal is the tagged union flowing through a pipeline.
type TraversalVal struct {
	Kind   ValKind
	Node   *graph.Node
	Edge   *graph.Edge
	Vector *vector.Result
	Value  codec.Value
}

func NodeVal(n *graph.Node) TraversalVal     { return TraversalVal{Kind: KindNode, Node: n} }
func EdgeVal(e *graph.Edge) TraversalVal     { return TraversalVal{Kind: KindEdge, Edge: e} }
func VectorVal(v *vector.Result) TraversalVal { return TraversalVal{Kind: KindVector, Vector: v} }
func ValueVal(v codec.Value) TraversalVal    { return TraversalVal{Kind: KindValue, Value: v} }

// ID returns the identifier carried by a Node/Edge/Vector value, for use
// by Dedup and FilterRef. Value-kind items have no id.
func (v TraversalVal) ID() (codec.ID, bool) {
	switch v.Kind {
	case KindNode:
		return v.Node.ID, true
	case KindEdge:
		return v.Edge.ID, true
	case KindVector:
		return v.Vector.ID, true
	default:
		return codec.ID{}, false
	}
}

// Iterator is the pull-based interface every pipeline stage implements.
// Next returns (zero value, false) once exhausted or on error; callers
// must check Err() after a false return to distinguish "done" from
// "failed". ctx is checked between items so a caller can cancel a long
// scan.
type Iterator interface {
	Next(ctx context.Context) (TraversalVal, bool)
	Err() error
}

// FromNodes adapts a graph.NodeIter into an Iterator.
func FromNodes(it *graph.NodeIter) Iterator { return &nodeAdapter{it: it} }

type nodeAdapter struct{ it *graph.NodeIter }

func (a *nodeAdapter) Next(ctx context.Context) (TraversalVal, bool) {
	n, ok := a.it.Next(ctx)
	if !ok {
		return TraversalVal{}, false
	}
	return NodeVal(n), true
}
func (a *nodeAdapter) Err() error { return a.it.Err() }

// FromEdges adapts a graph.EdgeIter into an Iterator.
func FromEdges(it *graph.EdgeIter) Iterator { return &edgeAdapter{it: it} }

type edgeAdapter struct{ it *graph.EdgeIter }

func (a *edgeAdapter) Next(ctx context.Context) (TraversalVal, bool) {
	e, ok := a.it.Next(ctx)
	if !ok {
		return TraversalVal{}, false
	}
	return EdgeVal(e), true
}
func (a *edgeAdapter) Err() error { return a.it.Err() }

// FromSlice wraps an already-materialized slice of TraversalVal, used to
// adapt the score-ordered results vector.Search and bm25.Search return.
func FromSlice(vals []TraversalVal) Iterator { return &sliceIter{vals: vals} }

type sliceIter struct {
	vals []TraversalVal
	pos  int
}

func (s *sliceIter) Next(ctx context.Context) (TraversalVal, bool) {
	if err := ctx.Err(); err != nil {
		return TraversalVal{}, false
	}
	if s.pos >= len(s.vals) {
		return TraversalVal{}, false
	}
	v := s.vals[s.pos]
	s.pos++
	return v, true
}
func (s *sliceIter) Err() error { return nil }

// FromVectorResults adapts vector search results into an Iterator,
// preserving their score order.
func FromVectorResults(results []vector.Result) Iterator {
	vals := make([]TraversalVal, len(results))
	for i := range results {
		r := results[i]
		vals[i] = VectorVal(&r)
	}
	return FromSlice(vals)
}

// FromBM25Results adapts full-text search results into an Iterator of
// Value items carrying the doc id, since bm25.Result has no direct
// TraversalVal representation of its own.
func FromBM25Results(results []bm25.Result) Iterator {
	vals := make([]TraversalVal, len(results))
	for i, r := range results {
		vals[i] = ValueVal(codec.Bytes(r.DocID[:]))
	}
	return FromSlice(vals)
}

// queryErrIter is returned by operators composed in violation of the
// static composition rules; it fails immediately on the first Next call.
type queryErrIter struct{ err error }

func (q *queryErrIter) Next(ctx context.Context) (TraversalVal, bool) { return TraversalVal{}, false }
func (q *queryErrIter) Err() error                                    { return q.err }
