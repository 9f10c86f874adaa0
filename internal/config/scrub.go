package config

import (
	"compress/gzip"
	"fmt"
	"os"
	"runtime"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds the full configuration for a scrub run.
type Config struct {
	// Dataset is the path to the corpus (JSONL file or SQLite database).
	Dataset string `yaml:"dataset"`

	// DatasetType selects the corpus loader: "jsonl" or "sqlite".
	// Default: "jsonl".
	DatasetType string `yaml:"dataset_type"`

	// Table is the table to read when DatasetType is "sqlite".
	// Default: "records".
	Table string `yaml:"table"`

	// SubsetStart/SubsetEnd select a contiguous index range of the
	// corpus, half-open [start, end). SubsetEnd 0 means "to the end".
	SubsetStart int `yaml:"subset_start"`
	SubsetEnd   int `yaml:"subset_end"`

	// OutputDir is where shards, duplicate_clusters.json and run.json
	// are written.
	OutputDir string `yaml:"output_dir"`

	// SamplesPerFile is the maximum number of records per output shard.
	// Default: 10000.
	SamplesPerFile int `yaml:"samples_per_file"`

	// MinAlphaFrac is the minimum fraction of alphanumeric characters a
	// record must have to survive quality filtering.
	// Default: 0.25.
	MinAlphaFrac float64 `yaml:"min_alpha_frac"`

	// JaccardThreshold is the minimum Jaccard similarity for two records
	// to be considered near-duplicates.
	// Default: 0.85.
	JaccardThreshold float64 `yaml:"jaccard_threshold"`

	// CompressionLevel is the gzip level used for output shards (1-9).
	// Default: 6.
	CompressionLevel int `yaml:"compression_level"`

	// Workers is the number of concurrent feature-extraction workers.
	// Default: GOMAXPROCS. The filtering stage is always sequential
	// regardless of this setting; see internal/dedup.
	Workers int `yaml:"workers"`
}

// DefaultConfig returns the default scrub configuration.
func DefaultConfig() *Config {
	return &Config{
		DatasetType:      "jsonl",
		Table:            "records",
		OutputDir:        "out",
		SamplesPerFile:   10000,
		MinAlphaFrac:     0.25,
		JaccardThreshold: 0.85,
		CompressionLevel: 6,
		Workers:          runtime.GOMAXPROCS(0),
	}
}

// Load reads a YAML config file, applies SCRUB_* environment overrides,
// and validates the result. A missing file is an error; use
// DefaultConfig + ApplyEnv for a file-less setup.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides config values from environment variables.
// Prefix: SCRUB_. Unparseable values are ignored.
func (c *Config) ApplyEnv() {
	if val := os.Getenv("SCRUB_DATASET"); val != "" {
		c.Dataset = val
	}
	if val := os.Getenv("SCRUB_DATASET_TYPE"); val != "" {
		c.DatasetType = val
	}
	if val := os.Getenv("SCRUB_OUTPUT_DIR"); val != "" {
		c.OutputDir = val
	}
	if val := os.Getenv("SCRUB_SAMPLES_PER_FILE"); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			c.SamplesPerFile = n
		}
	}
	if val := os.Getenv("SCRUB_MIN_ALPHA_FRAC"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil && f >= 0 && f <= 1 {
			c.MinAlphaFrac = f
		}
	}
	if val := os.Getenv("SCRUB_JACCARD_THRESHOLD"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil && f >= 0 && f <= 1 {
			c.JaccardThreshold = f
		}
	}
	if val := os.Getenv("SCRUB_COMPRESSION_LEVEL"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			c.CompressionLevel = n
		}
	}
	if val := os.Getenv("SCRUB_WORKERS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			c.Workers = n
		}
	}
}

// Validate checks the configuration for usable values.
func (c *Config) Validate() error {
	if c.Dataset == "" {
		return fmt.Errorf("dataset is required")
	}
	if c.DatasetType != "jsonl" && c.DatasetType != "sqlite" {
		return fmt.Errorf("dataset_type must be \"jsonl\" or \"sqlite\" (got %q)", c.DatasetType)
	}
	if c.DatasetType == "sqlite" && c.Table == "" {
		return fmt.Errorf("table is required for sqlite datasets")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}
	if c.SamplesPerFile <= 0 {
		return fmt.Errorf("samples_per_file must be positive (got %d)", c.SamplesPerFile)
	}
	if c.MinAlphaFrac < 0 || c.MinAlphaFrac > 1 {
		return fmt.Errorf("min_alpha_frac must be between 0.0 and 1.0 (got %.4f)", c.MinAlphaFrac)
	}
	if c.JaccardThreshold < 0 || c.JaccardThreshold > 1 {
		return fmt.Errorf("jaccard_threshold must be between 0.0 and 1.0 (got %.4f)", c.JaccardThreshold)
	}
	if c.CompressionLevel < gzip.BestSpeed || c.CompressionLevel > gzip.BestCompression {
		return fmt.Errorf("compression_level must be between %d and %d (got %d)",
			gzip.BestSpeed, gzip.BestCompression, c.CompressionLevel)
	}
	if c.SubsetStart < 0 {
		return fmt.Errorf("subset_start cannot be negative (got %d)", c.SubsetStart)
	}
	if c.SubsetEnd != 0 && c.SubsetEnd < c.SubsetStart {
		return fmt.Errorf("subset_end (%d) cannot be before subset_start (%d)", c.SubsetEnd, c.SubsetStart)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive (got %d)", c.Workers)
	}
	return nil
}
