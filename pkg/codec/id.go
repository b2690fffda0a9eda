// Package codec owns the wire-level representation of HelixDB's data
// model: the shared 128-bit identifier, the tagged Value union, and the
// fixed-layout key builders for every key-value sub-store named in the
// storage design. Nothing above pkg/codec should hand-roll a key or decode
// a raw value itself.
package codec

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// ID is the 128-bit identifier shared by nodes, edges, vectors and
// documents. It is generated randomly, never derived from content.
type ID [16]byte

// NewID generates a fresh random ID.
func NewID() ID {
	var id ID
	if _, err := rand.Read(id[:]); err != nil {
		// crypto/rand.Read only fails if the OS entropy source is broken,
		// which is not a condition callers can recover from meaningfully.
		panic(fmt.Sprintf("codec: failed to read random bytes: %v", err))
	}
	return id
}

// String renders the id as a hyphenated 32-hex string (8-4-4-4-12).
func (id ID) String() string {
	b := id[:]
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:16])
}

// ParseID parses the hyphenated hex form produced by String.
func ParseID(s string) (ID, error) {
	var id ID
	clean := make([]byte, 0, 32)
	for _, c := range []byte(s) {
		if c == '-' {
			continue
		}
		clean = append(clean, c)
	}
	if len(clean) != 32 {
		return id, fmt.Errorf("codec: invalid id %q: want 32 hex digits, got %d", s, len(clean))
	}
	decoded := make([]byte, 16)
	if _, err := hex.Decode(decoded, clean); err != nil {
		return id, fmt.Errorf("codec: invalid id %q: %w", s, err)
	}
	copy(id[:], decoded)
	return id, nil
}

// IsZero reports whether id is the all-zero value, used as a sentinel for
// "no entry point yet" in the vector index metadata.
func (id ID) IsZero() bool {
	return id == ID{}
}
