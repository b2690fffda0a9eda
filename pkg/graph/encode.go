package graph

import (
	"encoding/binary"
	"fmt"

	"github.com/helixdb/helix/pkg/codec"
)

func encodeNode(n *Node) []byte {
	labelBytes := []byte(n.Label)
	out := make([]byte, 0, 2+len(labelBytes)+64)
	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(labelBytes)))
	out = append(out, lenBuf[:]...)
	out = append(out, labelBytes...)
	out = append(out, codec.EncodeProperties(n.Properties)...)
	return out
}

func decodeNode(id codec.ID, data []byte) (*Node, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("graph: truncated node record")
	}
	labelLen := binary.BigEndian.Uint16(data[:2])
	data = data[2:]
	if len(data) < int(labelLen) {
		return nil, fmt.Errorf("graph: truncated node label")
	}
	label := string(data[:labelLen])
	data = data[labelLen:]
	props, err := codec.DecodeProperties(data)
	if err != nil {
		return nil, fmt.Errorf("graph: decode node properties: %w", err)
	}
	return &Node{ID: id, Label: label, Properties: props}, nil
}

func encodeEdge(e *Edge) []byte {
	labelBytes := []byte(e.Label)
	out := make([]byte, 0, 2+len(labelBytes)+32+64)
	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(labelBytes)))
	out = append(out, lenBuf[:]...)
	out = append(out, labelBytes...)
	out = append(out, e.From[:]...)
	out = append(out, e.To[:]...)
	out = append(out, codec.EncodeProperties(e.Properties)...)
	return out
}

func decodeEdge(id codec.ID, data []byte) (*Edge, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("graph: truncated edge record")
	}
	labelLen := binary.BigEndian.Uint16(data[:2])
	data = data[2:]
	if len(data) < int(labelLen)+32 {
		return nil, fmt.Errorf("graph: truncated edge label/endpoints")
	}
	label := string(data[:labelLen])
	data = data[labelLen:]
	var from, to codec.ID
	copy(from[:], data[:16])
	copy(to[:], data[16:32])
	data = data[32:]
	props, err := codec.DecodeProperties(data)
	if err != nil {
		return nil, fmt.Errorf("graph: decode edge properties: %w", err)
	}
	return &Edge{ID: id, Label: label, From: from, To: to, Properties: props}, nil
}
