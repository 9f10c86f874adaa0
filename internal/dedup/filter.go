package dedup

import (
	"fmt"

	"github.com/steveyegge/scrub/internal/types"
)

// Verdict is the outcome of checking one record, with the reason for a
// rejection.
type Verdict int

const (
	// VerdictKept means the record survives filtering.
	VerdictKept Verdict = iota
	// VerdictDuplicate means a record with the same hash was already seen.
	VerdictDuplicate
	// VerdictLowAlpha means alpha_frac is below the configured minimum.
	VerdictLowAlpha
	// VerdictNoLines means the record has no lines at all.
	VerdictNoLines
)

// Filter combines exact-dedup with the quality heuristics. Check order
// matters: the dedup check runs first and consumes the record's hash
// from the unique set even when a later heuristic rejects the record.
// Any other record sharing that hash is then rejected as a duplicate of
// a record that itself never reached the output. That is the historical
// behavior of this pipeline and downstream consumers expect it; do not
// reorder the checks to "fix" it.
type Filter struct {
	Uniques      *UniqueSet
	MinAlphaFrac float64
}

// Check consumes the record's hash and classifies the record. Must be
// called exactly once per record, in corpus order, from one goroutine.
func (f *Filter) Check(feats types.FeatureSet) Verdict {
	if !f.Uniques.Consume(feats.Hash) {
		return VerdictDuplicate
	}
	if feats.AlphaFrac < f.MinAlphaFrac {
		return VerdictLowAlpha
	}
	if len(feats.LineLengths) == 0 {
		return VerdictNoLines
	}
	return VerdictKept
}

// Keep reports whether the record survives. Same side effects as Check.
func (f *Filter) Keep(feats types.FeatureSet) bool {
	return f.Check(feats) == VerdictKept
}

// Stats counts filter outcomes for one pass.
type Stats struct {
	Total      int `json:"total"`
	Kept       int `json:"kept"`
	Duplicates int `json:"duplicates"`
	LowAlpha   int `json:"low_alpha"`
	NoLines    int `json:"no_lines"`
}

// Apply runs the filter over the corpus as a single sequential pass and
// returns the surviving records in corpus order. progress, if non-nil,
// is called after each record with (done, total).
func Apply(records []types.Record, feats []types.FeatureSet, f *Filter, progress func(done, total int)) ([]types.Record, Stats, error) {
	if len(records) != len(feats) {
		return nil, Stats{}, fmt.Errorf("got %d feature sets for %d records", len(feats), len(records))
	}

	stats := Stats{Total: len(records)}
	kept := make([]types.Record, 0, len(records))
	for i, rec := range records {
		switch f.Check(feats[i]) {
		case VerdictKept:
			stats.Kept++
			kept = append(kept, rec)
		case VerdictDuplicate:
			stats.Duplicates++
		case VerdictLowAlpha:
			stats.LowAlpha++
		case VerdictNoLines:
			stats.NoLines++
		}
		if progress != nil {
			progress(i+1, len(records))
		}
	}
	return kept, stats, nil
}
