package codec

import (
	"encoding/binary"
	"hash/fnv"
)

// Key prefixes for the KV substrate. Each sub-store named in the storage
// design is a single-byte prefix inside one flat keyspace, following the
// teacher's approach of synthesizing logical sub-stores out of key
// prefixes rather than separate physical databases.
const (
	PrefixMeta          = byte(0x00) // reserved for store-level metadata; no key is written under it
	PrefixNode          = byte(0x01) // node:id16 -> label + properties
	PrefixEdge          = byte(0x02) // edge:id16 -> label + from16 + to16 + properties
	PrefixOutAdj        = byte(0x03) // out:from16:labelHash4:edgeID16 -> to16
	PrefixInAdj         = byte(0x04) // in:to16:labelHash4:edgeID16 -> from16
	PrefixSecondary     = byte(0x05) // sec:labelHash4:keyHash4:encodedValue:entityID16 -> empty
	PrefixVectorMeta    = byte(0x06) // vecmeta:labelHash4 -> entry point, count, dim
	PrefixVectorData    = byte(0x07) // vecdata:labelHash4:id16 -> norm f64 + level byte + dim + f64s
	PrefixVectorLayer   = byte(0x08) // veclayer:labelHash4:level:id16 -> neighbor id16 list
	PrefixVectorTomb    = byte(0x09) // vectomb:labelHash4:id16 -> empty (soft delete)
	PrefixBM25Posting   = byte(0x0A) // bm25post:term:0x00:docID16 -> tf varint
	PrefixBM25DocLen    = byte(0x0B) // bm25doclen:docID16 -> length varint
	PrefixBM25TermDF    = byte(0x0C) // bm25df:term -> df varint
	PrefixBM25Meta      = byte(0x0D) // bm25meta:key -> value
	PrefixBM25DocTerms  = byte(0x0E) // bm25docterms:docID16:term -> empty (delete side index)
)

// LabelHash returns the 4-byte FNV-1a hash of a label, used to key
// per-label vector-index sub-ranges without embedding the label text in
// every key.
func LabelHash(label string) [4]byte {
	return hash4(label)
}

// KeyHash returns the 4-byte FNV-1a hash of a secondary-index property
// key name.
func KeyHash(key string) [4]byte {
	return hash4(key)
}

func hash4(s string) [4]byte {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	var out [4]byte
	binary.BigEndian.PutUint32(out[:], h.Sum32())
	return out
}

func NodeKey(id ID) []byte {
	k := make([]byte, 0, 17)
	k = append(k, PrefixNode)
	return append(k, id[:]...)
}

func EdgeKey(id ID) []byte {
	k := make([]byte, 0, 17)
	k = append(k, PrefixEdge)
	return append(k, id[:]...)
}

// OutAdjKey builds the out-adjacency key O ∥ from16 ∥ label_hash4 ∥
// edge_id16, keying outgoing adjacency by edge label as well as source
// node so label-scoped traversal (out(label), out_e(label)) can seek
// directly to its label's range instead of scanning every outgoing edge.
func OutAdjKey(from ID, label string, edgeID ID) []byte {
	lh := LabelHash(label)
	k := make([]byte, 0, 37)
	k = append(k, PrefixOutAdj)
	k = append(k, from[:]...)
	k = append(k, lh[:]...)
	return append(k, edgeID[:]...)
}

// OutAdjPrefix scopes a scan to every outgoing edge of from, across all
// labels. Used by DropN's cascading delete, which must find every
// incident edge regardless of label.
func OutAdjPrefix(from ID) []byte {
	k := make([]byte, 0, 17)
	k = append(k, PrefixOutAdj)
	return append(k, from[:]...)
}

// OutAdjLabelPrefix scopes a scan to from's outgoing edges carrying the
// given label, as out(label)/out_e(label) require.
func OutAdjLabelPrefix(from ID, label string) []byte {
	lh := LabelHash(label)
	k := make([]byte, 0, 21)
	k = append(k, PrefixOutAdj)
	k = append(k, from[:]...)
	return append(k, lh[:]...)
}

// InAdjKey builds the in-adjacency key I ∥ to16 ∥ label_hash4 ∥ edge_id16.
func InAdjKey(to ID, label string, edgeID ID) []byte {
	lh := LabelHash(label)
	k := make([]byte, 0, 37)
	k = append(k, PrefixInAdj)
	k = append(k, to[:]...)
	k = append(k, lh[:]...)
	return append(k, edgeID[:]...)
}

// InAdjPrefix scopes a scan to every incoming edge of to, across all
// labels. Used by DropN's cascading delete.
func InAdjPrefix(to ID) []byte {
	k := make([]byte, 0, 17)
	k = append(k, PrefixInAdj)
	return append(k, to[:]...)
}

// InAdjLabelPrefix scopes a scan to to's incoming edges carrying the
// given label, as in(label)/in_e(label) require.
func InAdjLabelPrefix(to ID, label string) []byte {
	lh := LabelHash(label)
	k := make([]byte, 0, 21)
	k = append(k, PrefixInAdj)
	k = append(k, to[:]...)
	return append(k, lh[:]...)
}

// SecondaryIndexKey builds the key for a (label, property key, property
// value, entity id) secondary-index entry. Entries are non-unique: the
// entity id is part of the key, so duplicate (label,key,value) tuples
// coexist as distinct entries.
func SecondaryIndexKey(label, key string, value Value, entityID ID) []byte {
	lh := LabelHash(label)
	kh := KeyHash(key)
	encoded := EncodeValue(nil, value)
	k := make([]byte, 0, 1+4+4+len(encoded)+16)
	k = append(k, PrefixSecondary)
	k = append(k, lh[:]...)
	k = append(k, kh[:]...)
	k = append(k, encoded...)
	return append(k, entityID[:]...)
}

// SecondaryIndexPrefix scopes a scan to a single (label, key) pair,
// across all values.
func SecondaryIndexPrefix(label, key string) []byte {
	lh := LabelHash(label)
	kh := KeyHash(key)
	k := make([]byte, 0, 9)
	k = append(k, PrefixSecondary)
	k = append(k, lh[:]...)
	return append(k, kh[:]...)
}

// SecondaryIndexValuePrefix scopes a scan to a single (label, key, value)
// equality lookup.
func SecondaryIndexValuePrefix(label, key string, value Value) []byte {
	encoded := EncodeValue(nil, value)
	k := SecondaryIndexPrefix(label, key)
	return append(k, encoded...)
}

func VectorMetaKey(label string) []byte {
	lh := LabelHash(label)
	k := make([]byte, 0, 5)
	k = append(k, PrefixVectorMeta)
	return append(k, lh[:]...)
}

func VectorDataKey(label string, id ID) []byte {
	lh := LabelHash(label)
	k := make([]byte, 0, 21)
	k = append(k, PrefixVectorData)
	k = append(k, lh[:]...)
	return append(k, id[:]...)
}

// VectorLayerKey addresses the adjacency list of one vector at one HNSW
// layer.
func VectorLayerKey(label string, level int, id ID) []byte {
	lh := LabelHash(label)
	k := make([]byte, 0, 22)
	k = append(k, PrefixVectorLayer)
	k = append(k, lh[:]...)
	k = append(k, byte(level))
	return append(k, id[:]...)
}

// VectorLayerPrefix scopes a scan to a single (label, level).
func VectorLayerPrefix(label string, level int) []byte {
	lh := LabelHash(label)
	k := make([]byte, 0, 6)
	k = append(k, PrefixVectorLayer)
	k = append(k, lh[:]...)
	return append(k, byte(level))
}

func VectorTombKey(label string, id ID) []byte {
	lh := LabelHash(label)
	k := make([]byte, 0, 21)
	k = append(k, PrefixVectorTomb)
	k = append(k, lh[:]...)
	return append(k, id[:]...)
}

func BM25PostingKey(term string, docID ID) []byte {
	k := make([]byte, 0, len(term)+18)
	k = append(k, PrefixBM25Posting)
	k = append(k, term...)
	k = append(k, 0x00)
	return append(k, docID[:]...)
}

func BM25TermPrefix(term string) []byte {
	k := make([]byte, 0, len(term)+2)
	k = append(k, PrefixBM25Posting)
	k = append(k, term...)
	return append(k, 0x00)
}

func BM25DocLenKey(docID ID) []byte {
	k := make([]byte, 0, 17)
	k = append(k, PrefixBM25DocLen)
	return append(k, docID[:]...)
}

func BM25TermDFKey(term string) []byte {
	k := make([]byte, 0, len(term)+1)
	k = append(k, PrefixBM25TermDF)
	return append(k, term...)
}

var (
	bm25MetaTotalDocsKey  = []byte{PrefixBM25Meta, 't'}
	bm25MetaSumLengthsKey = []byte{PrefixBM25Meta, 's'}
)

func BM25MetaTotalDocsKey() []byte  { return bm25MetaTotalDocsKey }
func BM25MetaSumLengthsKey() []byte { return bm25MetaSumLengthsKey }

func BM25DocTermsKey(docID ID, term string) []byte {
	k := make([]byte, 0, 16+len(term))
	k = append(k, PrefixBM25DocTerms)
	k = append(k, docID[:]...)
	return append(k, term...)
}

func BM25DocTermsPrefix(docID ID) []byte {
	k := make([]byte, 0, 17)
	k = append(k, PrefixBM25DocTerms)
	return append(k, docID[:]...)
}
