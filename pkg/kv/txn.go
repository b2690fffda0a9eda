package kv

import (
	"github.com/dgraph-io/badger/v4"

	"github.com/helixdb/helix/pkg/helixerr"
)

// ReadTxn is a read-only view over the store. It is also the embedded
// base of WriteTxn, so every read operation is shared between the two.
type ReadTxn struct {
	txn *badger.Txn
}

// NewReadTxn wraps an already-open Badger transaction. Used by pkg/txn to
// expose manually-managed transactions through the same ReadTxn API that
// Store.View hands out.
func NewReadTxn(t *badger.Txn) *ReadTxn {
	return &ReadTxn{txn: t}
}

// NewWriteTxn wraps an already-open, writable Badger transaction.
func NewWriteTxn(t *badger.Txn) *WriteTxn {
	return &WriteTxn{ReadTxn: ReadTxn{txn: t}, txn: t}
}

// Get reads the value stored at key. A missing key returns
// helixerr.NotFound.
func (r *ReadTxn) Get(key []byte) ([]byte, error) {
	item, err := r.txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return nil, helixerr.New(helixerr.NotFound, "key not found")
	}
	if err != nil {
		return nil, helixerr.Wrap(helixerr.StorageError, err, "get")
	}
	return item.ValueCopy(nil)
}

// Has reports whether key exists.
func (r *ReadTxn) Has(key []byte) (bool, error) {
	_, err := r.txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, helixerr.Wrap(helixerr.StorageError, err, "has")
	}
	return true, nil
}

// Cursor iterates keys with the given prefix in ascending order. Each
// call to fn receives the full key and a copy of its value; returning a
// non-nil error stops iteration and is propagated to the caller.
func (r *ReadTxn) Cursor(prefix []byte, fn func(key, value []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := r.txn.NewIterator(opts)
	defer it.Close()
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		key := append([]byte(nil), item.KeyCopy(nil)...)
		val, err := item.ValueCopy(nil)
		if err != nil {
			return helixerr.Wrap(helixerr.StorageError, err, "cursor value")
		}
		if err := fn(key, val); err != nil {
			return err
		}
	}
	return nil
}

// CursorKeysOnly is Cursor without loading values, for existence/id scans
// where the value payload is never needed (e.g. adjacency prefix counts).
func (r *ReadTxn) CursorKeysOnly(prefix []byte, fn func(key []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	it := r.txn.NewIterator(opts)
	defer it.Close()
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		key := append([]byte(nil), it.Item().KeyCopy(nil)...)
		if err := fn(key); err != nil {
			return err
		}
	}
	return nil
}

// PrefixIterator is a manually-advanced cursor over a key prefix, used
// where a caller needs a lazy pull-based iterator rather than a
// callback-driven full scan (Cursor/CursorKeysOnly).
type PrefixIterator struct {
	it     *badger.Iterator
	prefix []byte
	first  bool
}

// NewPrefixIterator opens a cursor scoped to prefix, positioned before
// the first matching key. Call Next to advance.
func (r *ReadTxn) NewPrefixIterator(prefix []byte) *PrefixIterator {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := r.txn.NewIterator(opts)
	return &PrefixIterator{it: it, prefix: prefix, first: true}
}

// Next advances the cursor and reports whether a matching entry remains.
func (p *PrefixIterator) Next() bool {
	if p.first {
		p.it.Seek(p.prefix)
		p.first = false
	} else {
		p.it.Next()
	}
	return p.it.ValidForPrefix(p.prefix)
}

// Key returns the current entry's key. Valid only after Next returns true.
func (p *PrefixIterator) Key() []byte {
	return append([]byte(nil), p.it.Item().KeyCopy(nil)...)
}

// Value returns the current entry's value. Valid only after Next returns
// true.
func (p *PrefixIterator) Value() ([]byte, error) {
	v, err := p.it.Item().ValueCopy(nil)
	if err != nil {
		return nil, helixerr.Wrap(helixerr.StorageError, err, "prefix iterator value")
	}
	return v, nil
}

// Close releases the underlying Badger iterator. Always call via defer.
func (p *PrefixIterator) Close() {
	p.it.Close()
}

// WriteTxn adds mutation to ReadTxn.
type WriteTxn struct {
	ReadTxn
	txn *badger.Txn
}

// Set writes value at key, overwriting any existing entry.
func (w *WriteTxn) Set(key, value []byte) error {
	if err := w.txn.Set(key, value); err != nil {
		return helixerr.Wrap(helixerr.StorageError, err, "set")
	}
	return nil
}

// Delete removes key. Deleting a missing key is a no-op, matching the
// idempotent-drop semantics expected of every higher-level Delete/Drop
// operation.
func (w *WriteTxn) Delete(key []byte) error {
	if err := w.txn.Delete(key); err != nil {
		return helixerr.Wrap(helixerr.StorageError, err, "delete")
	}
	return nil
}
