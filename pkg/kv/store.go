// Package kv is HelixDB's key-value substrate: a single BadgerDB instance
// providing copy-on-write, single-writer/multi-reader transactions over a
// flat keyspace. Every higher-level package reaches BadgerDB only through
// Store, ReadTxn and WriteTxn; pkg/txn additionally holds the *badger.Txn
// returned by Store.NewTransaction so it can commit or discard it.
package kv

import (
	"fmt"
	"log"

	"github.com/dgraph-io/badger/v4"
	"golang.org/x/crypto/pbkdf2"

	"crypto/sha256"

	"github.com/helixdb/helix/pkg/config"
	"github.com/helixdb/helix/pkg/helixerr"
)

// Store owns the underlying BadgerDB handle.
type Store struct {
	db     *badger.DB
	logger *log.Logger
}

// Open opens (creating if necessary) a HelixDB store at dir, applying the
// sizing, read-only and encryption options from cfg.
//
// Thread Safety: the returned Store is safe for concurrent use from
// multiple goroutines.
func Open(dir string, cfg config.Config) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if cfg.ReadOnly {
		opts = opts.WithReadOnly(true)
	}
	if cfg.MapSizeBytes > 0 {
		opts = opts.WithValueLogFileSize(cfg.MapSizeBytes)
	}
	// Low-memory tuning: HelixDB is an embedded engine, not a server
	// process with a dedicated memory budget, so it favors a small
	// footprint over maximum write throughput.
	opts = opts.
		WithMemTableSize(16 << 20).
		WithNumMemtables(2).
		WithNumLevelZeroTables(2).
		WithNumLevelZeroTablesStall(4).
		WithValueThreshold(1024).
		WithBlockCacheSize(32 << 20).
		WithIndexCacheSize(16 << 20)

	if cfg.EncryptionPassphrase != "" {
		key, err := DeriveEncryptionKey(cfg.EncryptionPassphrase, []byte(dir))
		if err != nil {
			return nil, helixerr.Wrap(helixerr.StorageError, err, "derive encryption key")
		}
		opts = opts.WithEncryptionKey(key).WithIndexCacheSize(16 << 20)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, helixerr.Wrap(helixerr.StorageError, err, fmt.Sprintf("open store at %s", dir))
	}
	return &Store{db: db, logger: log.Default()}, nil
}

// OpenInMemory opens a Store backed entirely by RAM, for tests.
func OpenInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, helixerr.Wrap(helixerr.StorageError, err, "open in-memory store")
	}
	return &Store{db: db, logger: log.Default()}, nil
}

// DeriveEncryptionKey derives a 32-byte AES-256 key from passphrase using
// PBKDF2-HMAC-SHA256, salted with salt (typically the store's directory
// path, so two stores opened with the same passphrase still get distinct
// keys).
func DeriveEncryptionKey(passphrase string, salt []byte) ([]byte, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("kv: empty encryption passphrase")
	}
	return pbkdf2.Key([]byte(passphrase), salt, 100_000, 32, sha256.New), nil
}

// Close flushes and closes the underlying database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return helixerr.Wrap(helixerr.StorageError, err, "close store")
	}
	return nil
}

// Size reports the approximate on-disk size in bytes (LSM + value log).
func (s *Store) Size() (lsm, vlog int64) {
	return s.db.Size()
}

// RunValueLogGC reclaims value-log space left by deleted and overwritten
// records. It rewrites any value-log file at least discardRatio stale, and
// keeps going until a pass finds nothing left to reclaim. Badger returns
// ErrNoRewrite once a pass is a no-op; that is the normal terminating
// condition, not an error worth surfacing. An in-memory store has no value
// log, so Badger's ErrGCInMemoryMode is treated the same way.
func (s *Store) RunValueLogGC(discardRatio float64) error {
	for {
		err := s.db.RunValueLogGC(discardRatio)
		if err == badger.ErrNoRewrite || err == badger.ErrGCInMemoryMode {
			return nil
		}
		if err != nil {
			return helixerr.Wrap(helixerr.StorageError, err, "value log gc")
		}
	}
}

// View runs fn against a read-only snapshot. ReadTxn exposes no mutating
// methods, so fn cannot write through it.
func (s *Store) View(fn func(*ReadTxn) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		return fn(&ReadTxn{txn: txn})
	})
}

// Update runs fn against a single read-write transaction. Badger commits
// the transaction if fn returns nil and rolls it back otherwise.
func (s *Store) Update(fn func(*WriteTxn) error) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return fn(&WriteTxn{ReadTxn: ReadTxn{txn: txn}, txn: txn})
	})
}

// NewTransaction starts a manually-managed transaction for callers that
// need Commit/Discard control spanning multiple calls (pkg/txn uses
// this). writable selects a read-write vs. read-only Badger transaction.
func (s *Store) NewTransaction(writable bool) *badger.Txn {
	return s.db.NewTransaction(writable)
}
