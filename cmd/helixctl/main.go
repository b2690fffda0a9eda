// Command helixctl is HelixDB's operator CLI: open a store, report basic
// statistics, rebuild a vector label's HNSW graph, or sweep tombstoned
// records.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/helixdb/helix/pkg/bm25"
	"github.com/helixdb/helix/pkg/config"
	"github.com/helixdb/helix/pkg/graph"
	"github.com/helixdb/helix/pkg/helix"
	"github.com/helixdb/helix/pkg/vector"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "helixctl",
		Short: "Operator CLI for HelixDB stores",
	}
	rootCmd.PersistentFlags().String("config", "", "path to a YAML config file, overlaid onto defaults")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("helixctl v%s (%s)\n", version, commit)
		},
	})

	statsCmd := &cobra.Command{
		Use:   "stats [data-dir]",
		Short: "Print node, edge and full-text document counts",
		Args:  cobra.ExactArgs(1),
		RunE:  runStats,
	}
	rootCmd.AddCommand(statsCmd)

	compactCmd := &cobra.Command{
		Use:   "compact-vectors [data-dir] [label]",
		Short: "Rebuild the HNSW graph for a vector label, dropping tombstoned entries",
		Args:  cobra.ExactArgs(2),
		RunE:  runCompactVectors,
	}
	rootCmd.AddCommand(compactCmd)

	gcCmd := &cobra.Command{
		Use:   "gc [data-dir]",
		Short: "Reclaim value-log space left by deleted and overwritten records",
		Args:  cobra.ExactArgs(1),
		RunE:  runGC,
	}
	gcCmd.Flags().Float64("discard-ratio", 0.5, "rewrite a value-log file once this fraction of it is stale")
	rootCmd.AddCommand(gcCmd)

	verifyCmd := &cobra.Command{
		Use:   "verify [data-dir]",
		Short: "Scan every edge and confirm both endpoints still exist",
		Args:  cobra.ExactArgs(1),
		RunE:  runVerify,
	}
	rootCmd.AddCommand(verifyCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func openStore(cmd *cobra.Command, dataDir string) (*helix.Engine, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg := config.DefaultConfig()
	if cfgPath != "" {
		loaded, err := config.LoadFromYAML(cfgPath)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}
	return helix.Open(dataDir, cfg)
}

func runStats(cmd *cobra.Command, args []string) error {
	engine, err := openStore(cmd, args[0])
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer engine.Close()

	rh, err := engine.Txns.BeginRead()
	if err != nil {
		return err
	}
	defer rh.Close()

	nodes, err := graph.NodeCount(rh.Read())
	if err != nil {
		return err
	}
	edges, err := graph.EdgeCount(rh.Read())
	if err != nil {
		return err
	}
	docs, err := bm25.DocCount(rh.Read())
	if err != nil {
		return err
	}

	lsm, vlog := engine.Store.Size()

	fmt.Printf("nodes:     %d\n", nodes)
	fmt.Printf("edges:     %d\n", edges)
	fmt.Printf("documents: %d\n", docs)
	fmt.Printf("disk size: %d bytes (lsm) + %d bytes (vlog)\n", lsm, vlog)
	return nil
}

func runCompactVectors(cmd *cobra.Command, args []string) error {
	dataDir, label := args[0], args[1]
	engine, err := openStore(cmd, dataDir)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer engine.Close()

	wh, err := engine.Txns.BeginWrite()
	if err != nil {
		return err
	}
	defer wh.Close()

	if err := vector.Compact(wh.Write(), engine.VectorConfig, label); err != nil {
		return fmt.Errorf("compacting %q: %w", label, err)
	}
	if err := wh.Commit(); err != nil {
		return fmt.Errorf("committing compaction: %w", err)
	}
	fmt.Printf("compacted vector label %q\n", label)
	return nil
}

func runGC(cmd *cobra.Command, args []string) error {
	dataDir := args[0]
	discardRatio, _ := cmd.Flags().GetFloat64("discard-ratio")

	engine, err := openStore(cmd, dataDir)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer engine.Close()

	if err := engine.Store.RunValueLogGC(discardRatio); err != nil {
		return fmt.Errorf("running gc: %w", err)
	}
	fmt.Println("value log gc complete")
	return nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	engine, err := openStore(cmd, args[0])
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer engine.Close()

	rh, err := engine.Txns.BeginRead()
	if err != nil {
		return err
	}
	defer rh.Close()

	ctx := context.Background()
	it := graph.EFromTypes(rh.Read(), "")
	checked, broken := 0, 0
	for {
		e, ok := it.Next(ctx)
		if !ok {
			break
		}
		checked++
		if _, err := graph.NFromID(rh.Read(), e.From); err != nil {
			broken++
			fmt.Printf("edge %s: missing source node %s\n", e.ID, e.From)
		}
		if _, err := graph.NFromID(rh.Read(), e.To); err != nil {
			broken++
			fmt.Printf("edge %s: missing target node %s\n", e.ID, e.To)
		}
	}
	if err := it.Err(); err != nil {
		return fmt.Errorf("scanning edges: %w", err)
	}

	fmt.Printf("checked %d edges, found %d broken references\n", checked, broken)
	if broken > 0 {
		return fmt.Errorf("%d referential integrity violations found", broken)
	}
	return nil
}
