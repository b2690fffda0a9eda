// Package helix is HelixDB's embedding API: the single entry point that
// wires the KV substrate, the transaction manager and the graph, vector
// and full-text engines into one handle.
//
// Example:
//
//	engine, err := helix.Open("./data", config.DefaultConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer engine.Close()
//
//	wh, err := engine.Txns.BeginWrite()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer wh.Close()
//	id, err := graph.AddN(wh.Write(), "User", props, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := wh.Commit(); err != nil {
//		log.Fatal(err)
//	}
package helix

import (
	"github.com/helixdb/helix/pkg/bm25"
	"github.com/helixdb/helix/pkg/config"
	"github.com/helixdb/helix/pkg/kv"
	"github.com/helixdb/helix/pkg/txn"
	"github.com/helixdb/helix/pkg/vector"
)

// Engine owns the storage handle and hands out transaction handles that
// every other package operates through.
type Engine struct {
	Store  *kv.Store
	Txns   *txn.Manager
	Config config.Config

	VectorConfig vector.Config
	BM25Config   bm25.Config
}

// Open opens (creating if necessary) a HelixDB store at path.
func Open(path string, cfg config.Config) (*Engine, error) {
	store, err := kv.Open(path, cfg)
	if err != nil {
		return nil, err
	}
	return newEngine(store, cfg), nil
}

// OpenInMemory opens an entirely in-RAM store, for tests and scratch use.
func OpenInMemory(cfg config.Config) (*Engine, error) {
	store, err := kv.OpenInMemory()
	if err != nil {
		return nil, err
	}
	return newEngine(store, cfg), nil
}

func newEngine(store *kv.Store, cfg config.Config) *Engine {
	return &Engine{
		Store:  store,
		Txns:   txn.NewManager(store),
		Config: cfg,
		VectorConfig: vector.Config{
			M:               cfg.HNSW.M,
			MMax0:           cfg.HNSW.MMax0,
			EfConstruction:  cfg.HNSW.EfConstruction,
			EfSearchDefault: cfg.HNSW.EfSearchDefault,
		},
		BM25Config: bm25.Config{
			K1:        cfg.BM25.K1,
			B:         cfg.BM25.B,
			Stopwords: stopwordSet(cfg.BM25.Stopwords),
		},
	}
}

func stopwordSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// Close flushes and closes the underlying store.
func (e *Engine) Close() error {
	return e.Store.Close()
}
