// Package cluster groups near-duplicate records and picks one
// representative per group.
package cluster

import (
	"context"

	"github.com/steveyegge/scrub/internal/types"
)

// Clusterer is the near-duplicate grouping stage. The pipeline treats
// it as a black box: one call, one result.
//
// Contract:
//   - every input record appears in exactly one cluster (singletons
//     permitted for records with no near-duplicate)
//   - Result.Records holds exactly one representative per cluster, in
//     the input's order
//   - the same input set and threshold always produce the same result
//   - an empty input yields an empty result, not an error
type Clusterer interface {
	// Cluster groups records whose similarity is at least threshold
	// (a minimum Jaccard similarity in [0,1]).
	Cluster(ctx context.Context, records []types.Record, threshold float64) (*Result, error)
}

// Result is the reduced record set plus the full cluster membership.
type Result struct {
	// Records holds one representative per cluster, in input order.
	Records []types.Record

	// Clusters maps cluster ID to the ordered member record indices,
	// including the representative.
	Clusters types.DuplicateClusters
}
