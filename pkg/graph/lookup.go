package graph

import (
	"bytes"

	"github.com/helixdb/helix/pkg/codec"
	"github.com/helixdb/helix/pkg/kv"
)

// LookupEqual returns every entity id indexed under (label, key, value).
// Order is the order secondary-index keys sort in, which is ascending
// byte order of the entity id suffix; since ids are random, this is not
// insertion order.
func LookupEqual(r *kv.ReadTxn, label, key string, value codec.Value) ([]codec.ID, error) {
	prefix := codec.SecondaryIndexValuePrefix(label, key, value)
	var ids []codec.ID
	err := r.CursorKeysOnly(prefix, func(k []byte) error {
		var id codec.ID
		copy(id[:], k[len(k)-16:])
		ids = append(ids, id)
		return nil
	})
	return ids, err
}

// LookupRange returns every entity id indexed under (label, key) whose
// encoded value falls within [lo, hi] using byte-wise comparison of the
// encoded value. The comparison follows the codec encoding, not the
// natural order of the values: strings and bytes are length-prefixed, so
// a shorter value sorts before a longer one regardless of content, and
// integers are big-endian two's complement, so negative values sort after
// non-negative ones.
func LookupRange(r *kv.ReadTxn, label, key string, lo, hi codec.Value) ([]codec.ID, error) {
	base := codec.SecondaryIndexPrefix(label, key)
	loBytes := append(append([]byte(nil), base...), codec.EncodeValue(nil, lo)...)
	hiBytes := append(append([]byte(nil), base...), codec.EncodeValue(nil, hi)...)

	var ids []codec.ID
	err := r.CursorKeysOnly(base, func(k []byte) error {
		valuePart := k[:len(k)-16]
		if bytes.Compare(valuePart, loBytes) < 0 || bytes.Compare(valuePart, hiBytes) > 0 {
			return nil
		}
		var id codec.ID
		copy(id[:], k[len(k)-16:])
		ids = append(ids, id)
		return nil
	})
	return ids, err
}

// Range clamps a slice of already-materialized values to [start, end),
// matching the traversal engine's slice-window semantics. Out-of-bounds
// indices are clamped rather than erroring.
func Range[T any](items []T, start, end int) []T {
	if start < 0 {
		start = 0
	}
	if end > len(items) {
		end = len(items)
	}
	if start >= end {
		return nil
	}
	return items[start:end]
}
