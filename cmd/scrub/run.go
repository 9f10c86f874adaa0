package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steveyegge/scrub/internal/cluster"
	"github.com/steveyegge/scrub/internal/config"
	"github.com/steveyegge/scrub/internal/corpus"
	"github.com/steveyegge/scrub/internal/pipeline"
)

var (
	runConfigPath  string
	runDataset     string
	runDatasetType string
	runOutputDir   string
	runSamples     int
	runMinAlpha    float64
	runJaccard     float64
	runCompression int
	runWorkers     int
	runSubsetStart int
	runSubsetEnd   int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Clean a corpus and write compressed shards",
	Long: `Run the full cleaning pipeline: extract content hashes and quality
statistics, drop exact duplicates and low-quality records, cluster
near-duplicates, and write the survivors as gzip-compressed ndjson
shards plus a duplicate_clusters.json artifact.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadRunConfig(cmd)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		src, err := openSource(cfg)
		if err != nil {
			return err
		}
		defer src.Close()

		sub, err := corpus.Subset(src, cfg.SubsetStart, cfg.SubsetEnd)
		if err != nil {
			return err
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		fmt.Printf("\n%s\n\n", cyan("=== Scrub Run ==="))

		start := time.Now()
		manifest, err := pipeline.New(cfg, sub, cluster.NewMinHash()).Run(ctx)
		if err != nil {
			return err
		}

		green := color.New(color.FgGreen).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()
		fmt.Printf("%s Run %s finished in %v\n", green("✓"), manifest.RunID, time.Since(start).Round(time.Millisecond))
		fmt.Printf("  Records:    %d\n", manifest.Records)
		fmt.Printf("  Duplicates: %.2f%%\n", manifest.DuplicateFrac*100)
		fmt.Printf("  Kept:       %d\n", manifest.Kept)
		fmt.Printf("  Clusters:   %d\n", manifest.Clusters)
		fmt.Printf("  Written:    %d records in %d shards\n", manifest.Written, manifest.Shards)
		fmt.Printf("  Output:     %s\n", cfg.OutputDir)
		for stage, ms := range manifest.StageMillis {
			fmt.Printf("  %s\n", gray(fmt.Sprintf("%-8s %dms", stage, ms)))
		}
		return nil
	},
}

// loadRunConfig loads the config file (when given), then layers
// environment and explicit flag overrides on top.
func loadRunConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	if runConfigPath != "" {
		loaded, err := config.Load(runConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.DefaultConfig()
		cfg.ApplyEnv()
	}

	flags := cmd.Flags()
	if flags.Changed("dataset") {
		cfg.Dataset = runDataset
	}
	if flags.Changed("dataset-type") {
		cfg.DatasetType = runDatasetType
	}
	if flags.Changed("output") {
		cfg.OutputDir = runOutputDir
	}
	if flags.Changed("samples-per-file") {
		cfg.SamplesPerFile = runSamples
	}
	if flags.Changed("min-alpha-frac") {
		cfg.MinAlphaFrac = runMinAlpha
	}
	if flags.Changed("jaccard-threshold") {
		cfg.JaccardThreshold = runJaccard
	}
	if flags.Changed("compression-level") {
		cfg.CompressionLevel = runCompression
	}
	if flags.Changed("workers") {
		cfg.Workers = runWorkers
	}
	if flags.Changed("subset-start") {
		cfg.SubsetStart = runSubsetStart
	}
	if flags.Changed("subset-end") {
		cfg.SubsetEnd = runSubsetEnd
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func openSource(cfg *config.Config) (corpus.Source, error) {
	switch cfg.DatasetType {
	case "jsonl":
		return corpus.OpenJSONL(cfg.Dataset)
	case "sqlite":
		return corpus.OpenSQLite(cfg.Dataset, cfg.Table)
	default:
		return nil, fmt.Errorf("unsupported dataset type: %s", cfg.DatasetType)
	}
}

func init() {
	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "", "path to YAML config file")
	runCmd.Flags().StringVar(&runDataset, "dataset", "", "corpus path (JSONL file or SQLite database)")
	runCmd.Flags().StringVar(&runDatasetType, "dataset-type", "jsonl", "corpus format: jsonl or sqlite")
	runCmd.Flags().StringVarP(&runOutputDir, "output", "o", "out", "output directory")
	runCmd.Flags().IntVar(&runSamples, "samples-per-file", 10000, "maximum records per output shard")
	runCmd.Flags().Float64Var(&runMinAlpha, "min-alpha-frac", 0.25, "minimum alphanumeric character fraction")
	runCmd.Flags().Float64Var(&runJaccard, "jaccard-threshold", 0.85, "minimum Jaccard similarity for near-duplicates")
	runCmd.Flags().IntVar(&runCompression, "compression-level", 6, "gzip compression level (1-9)")
	runCmd.Flags().IntVar(&runWorkers, "workers", 0, "feature-extraction workers (default GOMAXPROCS)")
	runCmd.Flags().IntVar(&runSubsetStart, "subset-start", 0, "first corpus index to process")
	runCmd.Flags().IntVar(&runSubsetEnd, "subset-end", 0, "corpus index to stop before (0 = end)")
	rootCmd.AddCommand(runCmd)
}
