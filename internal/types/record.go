package types

import (
	"fmt"
	"time"
)

// Record is one corpus item. Index is the record's position in the
// corpus's canonical iteration order and serves as its identifier:
// exact-dedup survival and near-duplicate representatives are both
// defined in terms of "lowest index wins".
type Record struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// FeatureSet holds the per-record statistics computed during feature
// extraction. Hash is a content digest of the whitespace-stripped text;
// AlphaFrac and LineLengths are computed over the unmodified text.
type FeatureSet struct {
	Hash        string  `json:"hash"`
	AlphaFrac   float64 `json:"alpha_frac"`
	LineLengths []int   `json:"line_lengths"`
}

// DuplicateClusters maps a cluster ID to the ordered list of member
// record indices. Every record handed to the clusterer appears in
// exactly one cluster; singleton clusters are permitted. Members are
// sorted ascending, so the representative (lowest index) is first.
type DuplicateClusters map[string][]int

// Validate checks that the clusters form an exact partition of a record
// set of the given size: no index in two clusters, members ascending,
// and the member count summing to total. Member indices are corpus
// indices, so no range check against total applies.
func (c DuplicateClusters) Validate(total int) error {
	seen := make(map[int]string, total)
	count := 0
	for id, members := range c {
		if len(members) == 0 {
			return fmt.Errorf("cluster %s has no members", id)
		}
		prev := -1
		for _, idx := range members {
			if other, ok := seen[idx]; ok {
				return fmt.Errorf("record %d appears in both %s and %s", idx, other, id)
			}
			if idx <= prev {
				return fmt.Errorf("cluster %s members not in ascending order", id)
			}
			seen[idx] = id
			prev = idx
			count++
		}
	}
	if count != total {
		return fmt.Errorf("clusters cover %d records, expected %d", count, total)
	}
	return nil
}

// RunManifest records what a pipeline run did: identity, input, the
// per-stage record counts, and stage timings. Written as run.json in
// the output directory so a run's output is self-describing.
type RunManifest struct {
	RunID          string    `json:"run_id"`
	Dataset        string    `json:"dataset"`
	SamplesPerFile int       `json:"samples_per_file"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`

	// Records is the number of corpus records read.
	Records int `json:"records"`
	// DuplicateFrac is the fraction of records sharing a hash with an
	// earlier record (1 - distinct hashes / records). Zero for an
	// empty corpus.
	DuplicateFrac float64 `json:"duplicate_frac"`
	// Kept is the number of records surviving exact-dedup and the
	// quality heuristics.
	Kept int `json:"kept"`
	// Clusters is the number of near-duplicate clusters found.
	Clusters int `json:"clusters"`
	// Written is the number of records materialized into shards (one
	// representative per cluster).
	Written int `json:"written"`
	// Shards is the number of compressed shard files written.
	Shards int `json:"shards"`

	// StageMillis maps stage name to wall-clock duration in ms.
	StageMillis map[string]int64 `json:"stage_ms"`
}

// Validate checks the manifest's counts for internal consistency.
func (m *RunManifest) Validate() error {
	if m.RunID == "" {
		return fmt.Errorf("run_id is required")
	}
	if m.Records < 0 || m.Kept < 0 || m.Written < 0 || m.Shards < 0 {
		return fmt.Errorf("counts cannot be negative")
	}
	if m.Kept > m.Records {
		return fmt.Errorf("kept (%d) exceeds records read (%d)", m.Kept, m.Records)
	}
	if m.Written > m.Kept {
		return fmt.Errorf("written (%d) exceeds kept (%d)", m.Written, m.Kept)
	}
	if m.Written != 0 && m.Clusters != m.Written {
		return fmt.Errorf("written (%d) must equal cluster count (%d)", m.Written, m.Clusters)
	}
	if m.DuplicateFrac < 0 || m.DuplicateFrac > 1 {
		return fmt.Errorf("duplicate_frac must be between 0.0 and 1.0 (got %.4f)", m.DuplicateFrac)
	}
	return nil
}
