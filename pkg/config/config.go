// Package config holds HelixDB's tunables: KV substrate sizing, HNSW
// parameters, BM25 parameters and declared secondary indices. Config is
// assembled with DefaultConfig and optionally overridden from a YAML file
// with LoadFromYAML.
//
// Example:
//
//	cfg := config.DefaultConfig()
//	cfg, err := config.LoadFromYAML("helix.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	engine, err := helix.Open("./data", cfg)
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// HNSWConfig holds the vector index construction/search parameters of
// spec §4.4.
type HNSWConfig struct {
	M               int `yaml:"m"`
	MMax0           int `yaml:"m_max0"`
	EfConstruction  int `yaml:"ef_construction"`
	EfSearchDefault int `yaml:"ef_search_default"`
}

// BM25Config holds the full-text scoring parameters of spec §4.5.
type BM25Config struct {
	K1        float64  `yaml:"k1"`
	B         float64  `yaml:"b"`
	Stopwords []string `yaml:"stopwords"`
}

// Config is the full set of recognized HelixDB options.
type Config struct {
	// MapSizeBytes sets BadgerDB's value-log file size. A zero value
	// leaves BadgerDB's own default in place.
	MapSizeBytes int64 `yaml:"map_size_bytes"`

	// ReadOnly opens the store without acquiring the write lock.
	ReadOnly bool `yaml:"read_only"`

	// EncryptionPassphrase, if set, derives an at-rest encryption key via
	// PBKDF2 and enables BadgerDB's native encryption.
	EncryptionPassphrase string `yaml:"encryption_passphrase"`

	HNSW HNSWConfig `yaml:"hnsw"`
	BM25 BM25Config `yaml:"bm25"`

	// SecondaryIndices lists, per node/edge label, property keys to be
	// indexed. The engine does not read this field itself; pkg/graph's
	// write functions take their secondary keys as explicit arguments.
	SecondaryIndices map[string][]string `yaml:"secondary_indices"`
}

// DefaultConfig returns the parameter defaults named in spec §4.4/§4.5.
func DefaultConfig() Config {
	return Config{
		HNSW: HNSWConfig{
			M:               16,
			MMax0:           32,
			EfConstruction:  200,
			EfSearchDefault: 50,
		},
		BM25: BM25Config{
			K1: 1.2,
			B:  0.75,
		},
		SecondaryIndices: map[string][]string{},
	}
}

// LoadFromYAML reads a YAML config file and overlays it onto DefaultConfig.
func LoadFromYAML(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
