package graph

import (
	"github.com/helixdb/helix/pkg/codec"
	"github.com/helixdb/helix/pkg/helixerr"
	"github.com/helixdb/helix/pkg/kv"
)

// AddN creates a node with the given label and properties, and maintains
// a secondary-index entry for every key in secondaryKeys. A key absent
// from props is a schema error: the index cannot be built on a value that
// does not exist.
func AddN(w *kv.WriteTxn, label string, props map[string]codec.Value, secondaryKeys []string) (codec.ID, error) {
	if label == "" {
		return codec.ID{}, helixerr.New(helixerr.ValueError, "node label must not be empty")
	}
	id := codec.NewID()
	n := &Node{ID: id, Label: label, Properties: props}
	if err := w.Set(codec.NodeKey(id), encodeNode(n)); err != nil {
		return codec.ID{}, err
	}
	if err := writeSecondaryIndices(w, label, props, secondaryKeys, id); err != nil {
		return codec.ID{}, err
	}
	return id, nil
}

func writeSecondaryIndices(w *kv.WriteTxn, label string, props map[string]codec.Value, keys []string, id codec.ID) error {
	for _, key := range keys {
		val, ok := props[key]
		if !ok {
			return helixerr.Newf(helixerr.SchemaError, "secondary index key %q missing from properties", key).WithID(label)
		}
		if err := w.Set(codec.SecondaryIndexKey(label, key, val, id), nil); err != nil {
			return err
		}
	}
	return nil
}

func dropSecondaryIndices(w *kv.WriteTxn, label string, props map[string]codec.Value, keys []string, id codec.ID) error {
	for _, key := range keys {
		val, ok := props[key]
		if !ok {
			continue
		}
		if err := w.Delete(codec.SecondaryIndexKey(label, key, val, id)); err != nil {
			return err
		}
	}
	return nil
}

// NFromID reads a single node. A missing id returns helixerr.NotFound.
func NFromID(r *kv.ReadTxn, id codec.ID) (*Node, error) {
	data, err := r.Get(codec.NodeKey(id))
	if err != nil {
		return nil, err
	}
	return decodeNode(id, data)
}

// EFromID reads a single edge. A missing id returns helixerr.NotFound.
func EFromID(r *kv.ReadTxn, id codec.ID) (*Edge, error) {
	data, err := r.Get(codec.EdgeKey(id))
	if err != nil {
		return nil, err
	}
	return decodeEdge(id, data)
}

// AddE creates an edge between two existing nodes. Either endpoint
// missing is a referential error, not a storage error: the write never
// happens.
func AddE(w *kv.WriteTxn, label string, from, to codec.ID, props map[string]codec.Value, secondaryKeys []string) (codec.ID, error) {
	if label == "" {
		return codec.ID{}, helixerr.New(helixerr.ValueError, "edge label must not be empty")
	}
	if _, err := NFromID(&w.ReadTxn, from); err != nil {
		return codec.ID{}, helixerr.Wrap(helixerr.ReferentialError, err, "edge source does not exist").WithID(from.String())
	}
	if _, err := NFromID(&w.ReadTxn, to); err != nil {
		return codec.ID{}, helixerr.Wrap(helixerr.ReferentialError, err, "edge target does not exist").WithID(to.String())
	}
	id := codec.NewID()
	e := &Edge{ID: id, Label: label, From: from, To: to, Properties: props}
	if err := w.Set(codec.EdgeKey(id), encodeEdge(e)); err != nil {
		return codec.ID{}, err
	}
	if err := w.Set(codec.OutAdjKey(from, label, id), to[:]); err != nil {
		return codec.ID{}, err
	}
	if err := w.Set(codec.InAdjKey(to, label, id), from[:]); err != nil {
		return codec.ID{}, err
	}
	if err := writeSecondaryIndices(w, label, props, secondaryKeys, id); err != nil {
		return codec.ID{}, err
	}
	return id, nil
}

// UpdateN merges partial over the node's existing properties and
// re-derives any secondary-index entries named in secondaryKeys.
func UpdateN(w *kv.WriteTxn, id codec.ID, partial map[string]codec.Value, secondaryKeys []string) error {
	n, err := NFromID(&w.ReadTxn, id)
	if err != nil {
		return err
	}
	if err := dropSecondaryIndices(w, n.Label, n.Properties, secondaryKeys, id); err != nil {
		return err
	}
	merged := mergeProps(n.Properties, partial)
	n.Properties = merged
	if err := w.Set(codec.NodeKey(id), encodeNode(n)); err != nil {
		return err
	}
	return writeSecondaryIndices(w, n.Label, merged, secondaryKeys, id)
}

// UpdateE merges partial over the edge's existing properties and
// re-derives any secondary-index entries named in secondaryKeys.
func UpdateE(w *kv.WriteTxn, id codec.ID, partial map[string]codec.Value, secondaryKeys []string) error {
	e, err := EFromID(&w.ReadTxn, id)
	if err != nil {
		return err
	}
	if err := dropSecondaryIndices(w, e.Label, e.Properties, secondaryKeys, id); err != nil {
		return err
	}
	merged := mergeProps(e.Properties, partial)
	e.Properties = merged
	if err := w.Set(codec.EdgeKey(id), encodeEdge(e)); err != nil {
		return err
	}
	return writeSecondaryIndices(w, e.Label, merged, secondaryKeys, id)
}

func mergeProps(base, partial map[string]codec.Value) map[string]codec.Value {
	merged := make(map[string]codec.Value, len(base)+len(partial))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range partial {
		merged[k] = v
	}
	return merged
}

// DropN removes a node along with every incident edge (and that edge's
// adjacency and secondary-index entries), cascading exactly as invariant
// I1 requires. Dropping a missing id is a no-op, not an error.
func DropN(w *kv.WriteTxn, id codec.ID, secondaryKeys map[string][]string) error {
	n, err := NFromID(&w.ReadTxn, id)
	if err != nil {
		if helixerr.Is(err, helixerr.NotFound) {
			return nil
		}
		return err
	}

	var incidentEdges []codec.ID
	if err := w.CursorKeysOnly(codec.OutAdjPrefix(id), func(key []byte) error {
		incidentEdges = append(incidentEdges, extractEdgeID(key))
		return nil
	}); err != nil {
		return err
	}
	if err := w.CursorKeysOnly(codec.InAdjPrefix(id), func(key []byte) error {
		incidentEdges = append(incidentEdges, extractEdgeID(key))
		return nil
	}); err != nil {
		return err
	}
	for _, eid := range incidentEdges {
		if err := DropE(w, eid, secondaryKeys); err != nil && !helixerr.Is(err, helixerr.NotFound) {
			return err
		}
	}

	if err := dropSecondaryIndices(w, n.Label, n.Properties, secondaryKeys[n.Label], id); err != nil {
		return err
	}
	return w.Delete(codec.NodeKey(id))
}

// DropE removes an edge and its adjacency/secondary-index entries.
// Dropping a missing id is a no-op.
func DropE(w *kv.WriteTxn, id codec.ID, secondaryKeys map[string][]string) error {
	e, err := EFromID(&w.ReadTxn, id)
	if err != nil {
		if helixerr.Is(err, helixerr.NotFound) {
			return nil
		}
		return err
	}
	if err := dropSecondaryIndices(w, e.Label, e.Properties, secondaryKeys[e.Label], id); err != nil {
		return err
	}
	if err := w.Delete(codec.OutAdjKey(e.From, e.Label, id)); err != nil {
		return err
	}
	if err := w.Delete(codec.InAdjKey(e.To, e.Label, id)); err != nil {
		return err
	}
	return w.Delete(codec.EdgeKey(id))
}

func extractEdgeID(key []byte) codec.ID {
	var id codec.ID
	// key layout: prefix(1) + nodeID(16) + labelHash(4) + edgeID(16)
	copy(id[:], key[21:37])
	return id
}
