package vector

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/helixdb/helix/pkg/codec"
	"github.com/helixdb/helix/pkg/helixerr"
	"github.com/helixdb/helix/pkg/kv"
)

// meta is the per-label vector-index metadata: entry point, its level,
// the vector count and the declared dimension.
type meta struct {
	EntryID    codec.ID
	EntryLevel int
	Count      uint64
	Dim        uint32
}

func (m meta) encode() []byte {
	buf := make([]byte, 16+1+8+4)
	copy(buf[0:16], m.EntryID[:])
	buf[16] = byte(m.EntryLevel)
	binary.BigEndian.PutUint64(buf[17:25], m.Count)
	binary.BigEndian.PutUint32(buf[25:29], m.Dim)
	return buf
}

func decodeMeta(data []byte) (meta, error) {
	if len(data) != 29 {
		return meta{}, fmt.Errorf("vector: malformed meta record (%d bytes)", len(data))
	}
	var m meta
	copy(m.EntryID[:], data[0:16])
	m.EntryLevel = int(data[16])
	m.Count = binary.BigEndian.Uint64(data[17:25])
	m.Dim = binary.BigEndian.Uint32(data[25:29])
	return m, nil
}

func getMeta(r *kv.ReadTxn, label string) (meta, bool, error) {
	data, err := r.Get(codec.VectorMetaKey(label))
	if err != nil {
		if isNotFound(err) {
			return meta{}, false, nil
		}
		return meta{}, false, err
	}
	m, err := decodeMeta(data)
	return m, true, err
}

func putMeta(w *kv.WriteTxn, label string, m meta) error {
	return w.Set(codec.VectorMetaKey(label), m.encode())
}

func encodeVector(data []float64, norm float64, level int) []byte {
	buf := make([]byte, 8+1+4+8*len(data))
	binary.BigEndian.PutUint64(buf[0:8], math.Float64bits(norm))
	buf[8] = byte(level)
	binary.BigEndian.PutUint32(buf[9:13], uint32(len(data)))
	off := 13
	for _, x := range data {
		binary.BigEndian.PutUint64(buf[off:off+8], math.Float64bits(x))
		off += 8
	}
	return buf
}

type storedVector struct {
	Data  []float64
	Norm  float64
	Level int
}

func decodeVector(buf []byte) (storedVector, error) {
	if len(buf) < 13 {
		return storedVector{}, fmt.Errorf("vector: malformed vector record")
	}
	norm := math.Float64frombits(binary.BigEndian.Uint64(buf[0:8]))
	level := int(buf[8])
	dim := binary.BigEndian.Uint32(buf[9:13])
	if len(buf) != 13+8*int(dim) {
		return storedVector{}, fmt.Errorf("vector: malformed vector record dimension")
	}
	data := make([]float64, dim)
	off := 13
	for i := range data {
		data[i] = math.Float64frombits(binary.BigEndian.Uint64(buf[off : off+8]))
		off += 8
	}
	return storedVector{Data: data, Norm: norm, Level: level}, nil
}

func getVector(r *kv.ReadTxn, label string, id codec.ID) (storedVector, error) {
	data, err := r.Get(codec.VectorDataKey(label, id))
	if err != nil {
		return storedVector{}, err
	}
	return decodeVector(data)
}

func isTombstoned(r *kv.ReadTxn, label string, id codec.ID) (bool, error) {
	return r.Has(codec.VectorTombKey(label, id))
}

func isNotFound(err error) bool {
	return helixerr.Is(err, helixerr.NotFound)
}
