// Package pipeline orchestrates the cleaning stages: feature
// extraction, exact-dedup and quality filtering, near-duplicate
// clustering, and shard materialization.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/steveyegge/scrub/internal/cluster"
	"github.com/steveyegge/scrub/internal/config"
	"github.com/steveyegge/scrub/internal/corpus"
	"github.com/steveyegge/scrub/internal/dedup"
	"github.com/steveyegge/scrub/internal/features"
	"github.com/steveyegge/scrub/internal/shard"
	"github.com/steveyegge/scrub/internal/types"
)

// ManifestFile is the run manifest written at the output root.
const ManifestFile = "run.json"

// Pipeline wires a corpus source and a clusterer to the filtering and
// materialization stages.
type Pipeline struct {
	cfg       *config.Config
	source    corpus.Source
	clusterer cluster.Clusterer

	// progress throttles per-record progress logging to one line per
	// second so long filter passes stay observable without flooding.
	progress *rate.Limiter
}

// New creates a pipeline. The clusterer defaults to MinHash when nil.
func New(cfg *config.Config, source corpus.Source, clusterer cluster.Clusterer) *Pipeline {
	if clusterer == nil {
		clusterer = cluster.NewMinHash()
	}
	return &Pipeline{
		cfg:       cfg,
		source:    source,
		clusterer: clusterer,
		progress:  rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// Run executes all stages and writes the output tree. Structural
// failures abort the run; shards already durably written stay in place.
func (p *Pipeline) Run(ctx context.Context) (*types.RunManifest, error) {
	manifest := &types.RunManifest{
		RunID:          uuid.NewString(),
		Dataset:        p.source.Name(),
		SamplesPerFile: p.cfg.SamplesPerFile,
		StartedAt:      time.Now().UTC(),
		StageMillis:    make(map[string]int64),
	}

	// Load the corpus (subset range applied by the caller).
	var records []types.Record
	err := p.timed(manifest, "load", func() error {
		var err error
		records, err = corpus.All(p.source)
		return err
	})
	if err != nil {
		return nil, err
	}
	manifest.Records = len(records)
	log.Printf("loaded %d records from %s", len(records), p.source.Name())

	// Feature extraction is pure, so it fans out across workers.
	var feats []types.FeatureSet
	err = p.timed(manifest, "extract", func() error {
		var err error
		feats, err = features.ExtractAll(ctx, records, p.cfg.Workers)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("extracting features: %w", err)
	}

	// Exact dedup + quality heuristics: one sequential pass in corpus
	// order. First occurrence of each hash wins; see internal/dedup.
	uniques := dedup.NewUniqueSet(feats)
	if len(records) > 0 {
		manifest.DuplicateFrac = 1 - float64(uniques.Len())/float64(len(records))
	}
	log.Printf("fraction of duplicates: %.2f%%", manifest.DuplicateFrac*100)

	var kept []types.Record
	var stats dedup.Stats
	err = p.timed(manifest, "filter", func() error {
		filter := &dedup.Filter{Uniques: uniques, MinAlphaFrac: p.cfg.MinAlphaFrac}
		var err error
		kept, stats, err = dedup.Apply(records, feats, filter, func(done, total int) {
			if p.progress.Allow() {
				log.Printf("filter: %d/%d records", done, total)
			}
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("filtering: %w", err)
	}
	manifest.Kept = stats.Kept
	log.Printf("filter: kept %d of %d (%d duplicates, %d low-alpha, %d empty)",
		stats.Kept, stats.Total, stats.Duplicates, stats.LowAlpha, stats.NoLines)

	// Near-duplicate clustering is one opaque, blocking call.
	var result *cluster.Result
	err = p.timed(manifest, "cluster", func() error {
		var err error
		result, err = p.clusterer.Cluster(ctx, kept, p.cfg.JaccardThreshold)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("clustering: %w", err)
	}
	if err := result.Clusters.Validate(len(kept)); err != nil {
		return nil, fmt.Errorf("clusterer broke its partition contract: %w", err)
	}
	manifest.Clusters = len(result.Clusters)
	manifest.Written = len(result.Records)
	log.Printf("clustering: %d records in %d clusters", len(kept), len(result.Clusters))

	// Materialize.
	writer := &shard.Writer{
		Dir:              p.cfg.OutputDir,
		SamplesPerFile:   p.cfg.SamplesPerFile,
		CompressionLevel: p.cfg.CompressionLevel,
	}
	err = p.timed(manifest, "write", func() error {
		if err := writer.WriteClusters(result.Clusters); err != nil {
			return err
		}
		shards, err := writer.WriteAll(ctx, result.Records)
		if err != nil {
			return err
		}
		manifest.Shards = shards
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("writing output: %w", err)
	}
	log.Printf("wrote %d records across %d shards to %s", manifest.Written, manifest.Shards, p.cfg.OutputDir)

	manifest.FinishedAt = time.Now().UTC()
	if err := writeManifest(p.cfg.OutputDir, manifest); err != nil {
		return nil, err
	}
	return manifest, nil
}

func (p *Pipeline) timed(manifest *types.RunManifest, stage string, fn func() error) error {
	start := time.Now()
	err := fn()
	manifest.StageMillis[stage] = time.Since(start).Milliseconds()
	return err
}

func writeManifest(dir string, manifest *types.RunManifest) error {
	if err := manifest.Validate(); err != nil {
		return fmt.Errorf("invalid run manifest: %w", err)
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	path := filepath.Join(dir, ManifestFile)
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", ManifestFile, err)
	}
	return nil
}

// ReadManifest loads the run manifest from an output directory.
func ReadManifest(dir string) (*types.RunManifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, err
	}
	var manifest types.RunManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", ManifestFile, err)
	}
	return &manifest, nil
}
