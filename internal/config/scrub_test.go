package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Dataset = "corpus.jsonl"
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "jsonl", cfg.DatasetType)
	assert.Equal(t, 10000, cfg.SamplesPerFile)
	assert.InDelta(t, 0.25, cfg.MinAlphaFrac, 1e-9)
	assert.InDelta(t, 0.85, cfg.JaccardThreshold, 1e-9)
	assert.Equal(t, 6, cfg.CompressionLevel)
	assert.Greater(t, cfg.Workers, 0)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		errorMsg string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing dataset", func(c *Config) { c.Dataset = "" }, "dataset is required"},
		{"bad dataset type", func(c *Config) { c.DatasetType = "parquet" }, "dataset_type"},
		{"sqlite needs table", func(c *Config) { c.DatasetType = "sqlite"; c.Table = "" }, "table is required"},
		{"missing output dir", func(c *Config) { c.OutputDir = "" }, "output_dir is required"},
		{"zero shard size", func(c *Config) { c.SamplesPerFile = 0 }, "samples_per_file"},
		{"alpha frac above one", func(c *Config) { c.MinAlphaFrac = 1.5 }, "min_alpha_frac"},
		{"negative jaccard", func(c *Config) { c.JaccardThreshold = -0.5 }, "jaccard_threshold"},
		{"compression too high", func(c *Config) { c.CompressionLevel = 12 }, "compression_level"},
		{"negative subset start", func(c *Config) { c.SubsetStart = -1 }, "subset_start"},
		{"subset end before start", func(c *Config) { c.SubsetStart = 10; c.SubsetEnd = 5 }, "subset_end"},
		{"zero workers", func(c *Config) { c.Workers = 0 }, "workers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errorMsg == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scrub.yaml")
	content := `dataset: corpus.jsonl
output_dir: cleaned
samples_per_file: 500
min_alpha_frac: 0.3
jaccard_threshold: 0.9
compression_level: 9
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "corpus.jsonl", cfg.Dataset)
	assert.Equal(t, "cleaned", cfg.OutputDir)
	assert.Equal(t, 500, cfg.SamplesPerFile)
	assert.InDelta(t, 0.3, cfg.MinAlphaFrac, 1e-9)
	assert.InDelta(t, 0.9, cfg.JaccardThreshold, 1e-9)
	assert.Equal(t, 9, cfg.CompressionLevel)
	// Unspecified fields keep their defaults.
	assert.Equal(t, "jsonl", cfg.DatasetType)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidConfigRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scrub.yaml")
	require.NoError(t, os.WriteFile(path, []byte("samples_per_file: -1\n"), 0644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("SCRUB_DATASET", "env.jsonl")
	t.Setenv("SCRUB_OUTPUT_DIR", "env-out")
	t.Setenv("SCRUB_SAMPLES_PER_FILE", "42")
	t.Setenv("SCRUB_MIN_ALPHA_FRAC", "0.5")
	t.Setenv("SCRUB_WORKERS", "3")

	cfg := DefaultConfig()
	cfg.ApplyEnv()

	assert.Equal(t, "env.jsonl", cfg.Dataset)
	assert.Equal(t, "env-out", cfg.OutputDir)
	assert.Equal(t, 42, cfg.SamplesPerFile)
	assert.InDelta(t, 0.5, cfg.MinAlphaFrac, 1e-9)
	assert.Equal(t, 3, cfg.Workers)
}

func TestApplyEnvIgnoresGarbage(t *testing.T) {
	t.Setenv("SCRUB_SAMPLES_PER_FILE", "not-a-number")
	t.Setenv("SCRUB_MIN_ALPHA_FRAC", "2.0")

	cfg := DefaultConfig()
	cfg.ApplyEnv()

	assert.Equal(t, 10000, cfg.SamplesPerFile)
	assert.InDelta(t, 0.25, cfg.MinAlphaFrac, 1e-9)
}
