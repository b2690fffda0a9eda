// Package txn manages HelixDB's single-writer/multi-reader discipline on
// top of pkg/kv. A Manager hands out ReadHandles (unlimited, concurrent)
// and WriteHandles (exactly one at a time); every mutating operation in
// pkg/graph, pkg/vector and pkg/bm25 takes a *kv.WriteTxn (obtained from
// WriteHandle.Write), so the compiler enforces that mutation only happens
// inside a write transaction.
package txn

import (
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/helixdb/helix/pkg/helixerr"
	"github.com/helixdb/helix/pkg/kv"
)

// Manager serializes write access to a single kv.Store.
type Manager struct {
	store   *kv.Store
	writeMu sync.Mutex
}

// NewManager returns a Manager over store.
func NewManager(store *kv.Store) *Manager {
	return &Manager{store: store}
}

// ReadHandle wraps a kv.ReadTxn for the lifetime of one read transaction.
type ReadHandle struct {
	txn *badger.Txn
	rtx *kv.ReadTxn
}

// BeginRead starts a new read transaction. Any number of ReadHandles may
// be open concurrently with each other and with the single active
// WriteHandle, each seeing its own consistent snapshot.
func (m *Manager) BeginRead() (*ReadHandle, error) {
	badgerTxn := m.store.NewTransaction(false)
	return &ReadHandle{txn: badgerTxn, rtx: badgerTxnToReadTxn(badgerTxn)}, nil
}

// Read exposes the underlying kv.ReadTxn to callers in pkg/graph etc.
func (h *ReadHandle) Read() *kv.ReadTxn { return h.rtx }

// Close discards the read transaction's snapshot.
func (h *ReadHandle) Close() {
	h.txn.Discard()
}

// WriteHandle wraps a kv.WriteTxn. Exactly one WriteHandle may be open at
// a time across the whole Manager.
type WriteHandle struct {
	mgr  *Manager
	txn  *badger.Txn
	wtx  *kv.WriteTxn
	done bool
}

// BeginWrite acquires the single write slot and starts a write
// transaction. It never blocks: if a WriteHandle is already open — on
// this goroutine or any other — it returns helixerr.AccessError rather
// than waiting for the slot to free up, since a caller that blocked
// here could deadlock against itself attempting a nested transaction.
func (m *Manager) BeginWrite() (*WriteHandle, error) {
	if !m.writeMu.TryLock() {
		return nil, helixerr.New(helixerr.AccessError, "nested transaction: a write transaction is already open")
	}
	badgerTxn := m.store.NewTransaction(true)
	return &WriteHandle{mgr: m, txn: badgerTxn, wtx: badgerTxnToWriteTxn(badgerTxn)}, nil
}

// Write exposes the underlying kv.WriteTxn.
func (h *WriteHandle) Write() *kv.WriteTxn { return h.wtx }

// Commit finalizes the transaction and releases the write slot.
func (h *WriteHandle) Commit() error {
	if h.done {
		return helixerr.New(helixerr.AccessError, "commit called on a closed write handle")
	}
	h.done = true
	defer h.mgr.writeMu.Unlock()
	if err := h.txn.Commit(); err != nil {
		return helixerr.Wrap(helixerr.StorageError, err, "commit")
	}
	return nil
}

// Abort discards the transaction without committing and releases the
// write slot.
func (h *WriteHandle) Abort() {
	if h.done {
		return
	}
	h.done = true
	h.txn.Discard()
	h.mgr.writeMu.Unlock()
}

// Close aborts the transaction if it was never committed, matching the
// teacher's defer-close convention: defer wh.Close() is always safe.
func (h *WriteHandle) Close() {
	if !h.done {
		h.Abort()
	}
}

func badgerTxnToReadTxn(t *badger.Txn) *kv.ReadTxn {
	return kv.NewReadTxn(t)
}

func badgerTxnToWriteTxn(t *badger.Txn) *kv.WriteTxn {
	return kv.NewWriteTxn(t)
}
