package codec

import (
	"encoding/binary"
	"fmt"
	"math"
)

// ValueKind tags the variant carried by a Value.
type ValueKind byte

const (
	KindNull ValueKind = iota
	KindBool
	KindI32
	KindI64
	KindF64
	KindString
	KindBytes
	KindArray
	KindObject
)

// Value is the closed set of property types a node, edge or document
// property can hold.
type Value struct {
	Kind   ValueKind
	Bool   bool
	I32    int32
	I64    int64
	F64    float64
	Str    string
	Bytes  []byte
	Array  []Value
	Object map[string]Value
}

func Null() Value                { return Value{Kind: KindNull} }
func Bool(b bool) Value          { return Value{Kind: KindBool, Bool: b} }
func I32(v int32) Value          { return Value{Kind: KindI32, I32: v} }
func I64(v int64) Value          { return Value{Kind: KindI64, I64: v} }
func F64(v float64) Value        { return Value{Kind: KindF64, F64: v} }
func String(s string) Value      { return Value{Kind: KindString, Str: s} }
func Bytes(b []byte) Value       { return Value{Kind: KindBytes, Bytes: b} }
func Array(vs []Value) Value     { return Value{Kind: KindArray, Array: vs} }
func Object(m map[string]Value) Value {
	return Value{Kind: KindObject, Object: m}
}

// Equal reports structural equality, used by secondary-index maintenance
// to detect whether a property actually changed.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindBool:
		return v.Bool == o.Bool
	case KindI32:
		return v.I32 == o.I32
	case KindI64:
		return v.I64 == o.I64
	case KindF64:
		return v.F64 == o.F64
	case KindString:
		return v.Str == o.Str
	case KindBytes:
		return string(v.Bytes) == string(o.Bytes)
	case KindArray:
		if len(v.Array) != len(o.Array) {
			return false
		}
		for i := range v.Array {
			if !v.Array[i].Equal(o.Array[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(v.Object) != len(o.Object) {
			return false
		}
		for k, vv := range v.Object {
			ov, ok := o.Object[k]
			if !ok || !vv.Equal(ov) {
				return false
			}
		}
		return true
	}
	return false
}

// EncodeValue appends the disk encoding of v to dst and returns the
// extended slice. The format is a one-byte kind tag followed by a
// kind-specific payload, matching the fixed key/value layout the storage
// design requires rather than a self-describing format like JSON.
func EncodeValue(dst []byte, v Value) []byte {
	dst = append(dst, byte(v.Kind))
	switch v.Kind {
	case KindNull:
	case KindBool:
		if v.Bool {
			dst = append(dst, 1)
		} else {
			dst = append(dst, 0)
		}
	case KindI32:
		var buf [4]byte
		binary.BigEndian.PutUint32(buf[:], uint32(v.I32))
		dst = append(dst, buf[:]...)
	case KindI64:
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], uint64(v.I64))
		dst = append(dst, buf[:]...)
	case KindF64:
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], math.Float64bits(v.F64))
		dst = append(dst, buf[:]...)
	case KindString:
		dst = appendLenPrefixed(dst, []byte(v.Str))
	case KindBytes:
		dst = appendLenPrefixed(dst, v.Bytes)
	case KindArray:
		dst = appendUvarint(dst, uint64(len(v.Array)))
		for _, elem := range v.Array {
			dst = EncodeValue(dst, elem)
		}
	case KindObject:
		dst = appendUvarint(dst, uint64(len(v.Object)))
		for k, val := range v.Object {
			dst = appendLenPrefixed(dst, []byte(k))
			dst = EncodeValue(dst, val)
		}
	}
	return dst
}

// DecodeValue reads one Value from the front of src and returns it along
// with the unconsumed remainder.
func DecodeValue(src []byte) (Value, []byte, error) {
	if len(src) < 1 {
		return Value{}, nil, fmt.Errorf("codec: empty value buffer")
	}
	kind := ValueKind(src[0])
	src = src[1:]
	switch kind {
	case KindNull:
		return Null(), src, nil
	case KindBool:
		if len(src) < 1 {
			return Value{}, nil, fmt.Errorf("codec: truncated bool")
		}
		return Bool(src[0] != 0), src[1:], nil
	case KindI32:
		if len(src) < 4 {
			return Value{}, nil, fmt.Errorf("codec: truncated i32")
		}
		return I32(int32(binary.BigEndian.Uint32(src[:4]))), src[4:], nil
	case KindI64:
		if len(src) < 8 {
			return Value{}, nil, fmt.Errorf("codec: truncated i64")
		}
		return I64(int64(binary.BigEndian.Uint64(src[:8]))), src[8:], nil
	case KindF64:
		if len(src) < 8 {
			return Value{}, nil, fmt.Errorf("codec: truncated f64")
		}
		return F64(math.Float64frombits(binary.BigEndian.Uint64(src[:8]))), src[8:], nil
	case KindString:
		b, rest, err := readLenPrefixed(src)
		if err != nil {
			return Value{}, nil, err
		}
		return String(string(b)), rest, nil
	case KindBytes:
		b, rest, err := readLenPrefixed(src)
		if err != nil {
			return Value{}, nil, err
		}
		return Bytes(b), rest, nil
	case KindArray:
		n, rest, err := readUvarint(src)
		if err != nil {
			return Value{}, nil, err
		}
		arr := make([]Value, 0, n)
		for i := uint64(0); i < n; i++ {
			var elem Value
			elem, rest, err = DecodeValue(rest)
			if err != nil {
				return Value{}, nil, err
			}
			arr = append(arr, elem)
		}
		return Array(arr), rest, nil
	case KindObject:
		n, rest, err := readUvarint(src)
		if err != nil {
			return Value{}, nil, err
		}
		obj := make(map[string]Value, n)
		for i := uint64(0); i < n; i++ {
			var keyBytes []byte
			keyBytes, rest, err = readLenPrefixed(rest)
			if err != nil {
				return Value{}, nil, err
			}
			var val Value
			val, rest, err = DecodeValue(rest)
			if err != nil {
				return Value{}, nil, err
			}
			obj[string(keyBytes)] = val
		}
		return Object(obj), rest, nil
	default:
		return Value{}, nil, fmt.Errorf("codec: unknown value kind %d", kind)
	}
}

// EncodeProperties encodes a property map as a varint count followed by
// length-prefixed key + encoded-value pairs.
func EncodeProperties(props map[string]Value) []byte {
	dst := appendUvarint(nil, uint64(len(props)))
	for k, v := range props {
		dst = appendLenPrefixed(dst, []byte(k))
		dst = EncodeValue(dst, v)
	}
	return dst
}

// DecodeProperties is the inverse of EncodeProperties.
func DecodeProperties(src []byte) (map[string]Value, error) {
	n, rest, err := readUvarint(src)
	if err != nil {
		return nil, err
	}
	props := make(map[string]Value, n)
	for i := uint64(0); i < n; i++ {
		var keyBytes []byte
		keyBytes, rest, err = readLenPrefixed(rest)
		if err != nil {
			return nil, err
		}
		var v Value
		v, rest, err = DecodeValue(rest)
		if err != nil {
			return nil, err
		}
		props[string(keyBytes)] = v
	}
	return props, nil
}

func appendLenPrefixed(dst, b []byte) []byte {
	dst = appendUvarint(dst, uint64(len(b)))
	return append(dst, b...)
}

func readLenPrefixed(src []byte) ([]byte, []byte, error) {
	n, rest, err := readUvarint(src)
	if err != nil {
		return nil, nil, err
	}
	if uint64(len(rest)) < n {
		return nil, nil, fmt.Errorf("codec: truncated length-prefixed field")
	}
	return rest[:n], rest[n:], nil
}

func appendUvarint(dst []byte, v uint64) []byte {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], v)
	return append(dst, buf[:n]...)
}

func readUvarint(src []byte) (uint64, []byte, error) {
	v, n := binary.Uvarint(src)
	if n <= 0 {
		return 0, nil, fmt.Errorf("codec: invalid varint")
	}
	return v, src[n:], nil
}
