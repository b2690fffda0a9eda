package vector

import (
	"github.com/helixdb/helix/pkg/codec"
	"github.com/helixdb/helix/pkg/kv"
)

// Compact physically removes every tombstoned vector in label and
// rebuilds the index from the survivors. It is never called
// automatically; callers decide when the tombstone ratio justifies the
// cost of a full rebuild.
func Compact(w *kv.WriteTxn, cfg Config, label string) error {
	m, exists, err := getMeta(&w.ReadTxn, label)
	if !exists || err != nil {
		return err
	}

	type survivor struct {
		id   codec.ID
		data []float64
	}
	var survivors []survivor
	var tombstoned []codec.ID

	prefix := codec.VectorDataKey(label, codec.ID{})
	prefix = prefix[:len(prefix)-16]
	it := w.ReadTxn.NewPrefixIterator(prefix)
	for it.Next() {
		key := it.Key()
		var id codec.ID
		copy(id[:], key[len(key)-16:])
		tomb, err := isTombstoned(&w.ReadTxn, label, id)
		if err != nil {
			it.Close()
			return err
		}
		if tomb {
			tombstoned = append(tombstoned, id)
			continue
		}
		val, err := it.Value()
		if err != nil {
			it.Close()
			return err
		}
		sv, err := decodeVector(val)
		if err != nil {
			it.Close()
			return err
		}
		survivors = append(survivors, survivor{id: id, data: sv.Data})
	}
	it.Close()

	// Wipe every layer adjacency list and vector record for this label,
	// then reinsert survivors in place, ascending by id for determinism.
	for level := 0; level <= m.EntryLevel; level++ {
		layerPrefix := codec.VectorLayerPrefix(label, level)
		lit := w.ReadTxn.NewPrefixIterator(layerPrefix)
		var keys [][]byte
		for lit.Next() {
			keys = append(keys, lit.Key())
		}
		lit.Close()
		for _, k := range keys {
			if err := w.Delete(k); err != nil {
				return err
			}
		}
	}
	for _, id := range tombstoned {
		if err := w.Delete(codec.VectorDataKey(label, id)); err != nil {
			return err
		}
		if err := w.Delete(codec.VectorTombKey(label, id)); err != nil {
			return err
		}
	}
	for _, sv := range survivors {
		if err := w.Delete(codec.VectorDataKey(label, sv.id)); err != nil {
			return err
		}
	}
	if err := w.Delete(codec.VectorMetaKey(label)); err != nil {
		return err
	}

	for _, sv := range survivors {
		if err := Insert(w, cfg, label, sv.id, sv.data); err != nil {
			return err
		}
	}
	return nil
}
