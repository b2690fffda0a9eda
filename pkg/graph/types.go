// Package graph implements HelixDB's property-graph store on top of
// pkg/kv: node/edge CRUD, adjacency traversal and secondary-index
// maintenance. Every mutating function takes an already-open
// *kv.WriteTxn — callers drive transaction lifetime through pkg/txn.
package graph

import (
	"github.com/helixdb/helix/pkg/codec"
)

// Node is a labeled entity with arbitrary properties.
type Node struct {
	ID         codec.ID
	Label      string
	Properties map[string]codec.Value
}

// Edge is a labeled, directed relationship between two nodes.
type Edge struct {
	ID         codec.ID
	Label      string
	From       codec.ID
	To         codec.ID
	Properties map[string]codec.Value
}
