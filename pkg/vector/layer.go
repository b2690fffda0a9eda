package vector

import (
	"encoding/binary"

	"github.com/helixdb/helix/pkg/codec"
	"github.com/helixdb/helix/pkg/kv"
)

func encodeNeighbors(ids []codec.ID) []byte {
	buf := make([]byte, 0, 4+16*len(ids))
	var cnt [4]byte
	binary.BigEndian.PutUint32(cnt[:], uint32(len(ids)))
	buf = append(buf, cnt[:]...)
	for _, id := range ids {
		buf = append(buf, id[:]...)
	}
	return buf
}

func decodeNeighbors(buf []byte) []codec.ID {
	if len(buf) < 4 {
		return nil
	}
	n := binary.BigEndian.Uint32(buf[0:4])
	buf = buf[4:]
	ids := make([]codec.ID, 0, n)
	for i := uint32(0); i < n && len(buf) >= 16; i++ {
		var id codec.ID
		copy(id[:], buf[:16])
		ids = append(ids, id)
		buf = buf[16:]
	}
	return ids
}

func getNeighbors(r *kv.ReadTxn, label string, level int, id codec.ID) ([]codec.ID, error) {
	data, err := r.Get(codec.VectorLayerKey(label, level, id))
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return decodeNeighbors(data), nil
}

func putNeighbors(w *kv.WriteTxn, label string, level int, id codec.ID, ids []codec.ID) error {
	return w.Set(codec.VectorLayerKey(label, level, id), encodeNeighbors(ids))
}
