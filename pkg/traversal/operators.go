package traversal

import (
	"context"

	"github.com/helixdb/helix/pkg/codec"
	"github.com/helixdb/helix/pkg/helixerr"
)

// taggedIter remembers whether Dedup has run on this pipeline, so that a
// subsequent non-Project step can be rejected at runtime with QueryError
// — the engine's own enforcement of the composition rule the external
// compiler is expected to check statically.
type taggedIter struct {
	Iterator
	afterDedup bool
}

func tag(it Iterator) *taggedIter {
	if t, ok := it.(*taggedIter); ok {
		return t
	}
	return &taggedIter{Iterator: it}
}

func queryError(format string) Iterator {
	return &queryErrIter{err: helixerr.New(helixerr.QueryError, format)}
}

// FilterRef keeps only items for which keep returns true.
func FilterRef(it Iterator, keep func(TraversalVal) bool) Iterator {
	t := tag(it)
	if t.afterDedup {
		return queryError("traversal: only Project may follow Dedup")
	}
	return &taggedIter{Iterator: &filterIter{src: t, keep: keep}}
}

type filterIter struct {
	src  Iterator
	keep func(TraversalVal) bool
}

func (f *filterIter) Next(ctx context.Context) (TraversalVal, bool) {
	for {
		v, ok := f.src.Next(ctx)
		if !ok {
			return TraversalVal{}, false
		}
		if f.keep(v) {
			return v, true
		}
	}
}
func (f *filterIter) Err() error { return f.src.Err() }

// WhereExists keeps only items for which exists returns true, intended
// for existence-checking predicates (e.g. a property lookup) that are
// semantically distinct from FilterRef's arbitrary boolean predicate but
// share its implementation.
func WhereExists(it Iterator, exists func(TraversalVal) bool) Iterator {
	return FilterRef(it, exists)
}

// Dedup removes items already seen, keyed by their id, preserving
// first-seen order. After Dedup, only Project may follow in the same
// pipeline; any other operator applied afterward returns a QueryError
// iterator instead of silently running.
func Dedup(it Iterator) Iterator {
	t := tag(it)
	if t.afterDedup {
		return queryError("traversal: Dedup already applied to this pipeline")
	}
	seen := make(map[codec.ID]struct{})
	return &taggedIter{afterDedup: true, Iterator: &dedupIter{src: t, seen: seen}}
}

type dedupIter struct {
	src  Iterator
	seen map[codec.ID]struct{}
}

func (d *dedupIter) Next(ctx context.Context) (TraversalVal, bool) {
	for {
		v, ok := d.src.Next(ctx)
		if !ok {
			return TraversalVal{}, false
		}
		id, hasID := v.ID()
		if !hasID {
			return v, true
		}
		if _, dup := d.seen[id]; dup {
			continue
		}
		d.seen[id] = struct{}{}
		return v, true
	}
}
func (d *dedupIter) Err() error { return d.src.Err() }

// Range drains the source and returns a new Iterator over the clamped
// window [start,end). This necessarily materializes the source, since a
// pull-based pipeline has no way to know an upper bound without
// consuming it — callers composing Range deep in a large pipeline should
// expect the materialization cost.
func Range(ctx context.Context, it Iterator, start, end int) (Iterator, error) {
	t := tag(it)
	if t.afterDedup {
		return nil, helixerr.New(helixerr.QueryError, "traversal: only Project may follow Dedup")
	}
	var all []TraversalVal
	for {
		v, ok := t.Next(ctx)
		if !ok {
			break
		}
		all = append(all, v)
	}
	if err := t.Err(); err != nil {
		return nil, err
	}
	if start < 0 {
		start = 0
	}
	if end > len(all) {
		end = len(all)
	}
	if start >= end {
		return FromSlice(nil), nil
	}
	return &taggedIter{afterDedup: t.afterDedup, Iterator: FromSlice(all[start:end])}, nil
}

// Project keeps only the named properties of each Node/Edge item,
// discarding the rest. It is the one operator allowed to follow Dedup.
func Project(it Iterator, keys []string) Iterator {
	t := tag(it)
	return &taggedIter{Iterator: &projectIter{src: t, keys: keys}}
}

type projectIter struct {
	src  Iterator
	keys []string
}

func (p *projectIter) Next(ctx context.Context) (TraversalVal, bool) {
	v, ok := p.src.Next(ctx)
	if !ok {
		return TraversalVal{}, false
	}
	switch v.Kind {
	case KindNode:
		projected := *v.Node
		projected.Properties = pickKeys(v.Node.Properties, p.keys)
		v.Node = &projected
	case KindEdge:
		projected := *v.Edge
		projected.Properties = pickKeys(v.Edge.Properties, p.keys)
		v.Edge = &projected
	}
	return v, true
}
func (p *projectIter) Err() error { return p.src.Err() }

func pickKeys(props map[string]codec.Value, keys []string) map[string]codec.Value {
	out := make(map[string]codec.Value, len(keys))
	for _, k := range keys {
		if v, ok := props[k]; ok {
			out[k] = v
		}
	}
	return out
}

// ForIn drives items []T through body, calling it once per element with
// a context that is checked for cancellation between calls. It is the
// operator bulk-load and batch-mutation callers use to turn a
// host-supplied slice into committed writes without building a full
// Iterator pipeline around it.
func ForIn[T any](ctx context.Context, items []T, body func(ctx context.Context, item T) error) error {
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := body(ctx, item); err != nil {
			return err
		}
	}
	return nil
}
