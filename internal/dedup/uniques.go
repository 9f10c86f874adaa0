// Package dedup implements exact-duplicate elimination and the cheap
// quality heuristics that run with it.
//
// Survival is order-dependent: the first record in corpus order bearing
// a given content hash is the one kept, and every later record sharing
// that hash is dropped. That only holds if the filter pass observes a
// single total order over the corpus, so the pass runs strictly
// sequentially. Running it across unordered concurrent workers would
// make the winner nondeterministic, or with a non-atomic shared set,
// admit two records with the same hash.
package dedup

import "github.com/steveyegge/scrub/internal/types"

// UniqueSet is the set of content hashes for which no record has been
// accepted yet. It is built once from all extracted hashes (duplicates
// collapsed), drained monotonically during the filter pass, and never
// replenished.
//
// Not safe for concurrent use. Callers must consume hashes from a
// single goroutine in corpus order.
type UniqueSet struct {
	hashes map[string]struct{}
}

// NewUniqueSet collects the distinct hashes of all feature sets.
func NewUniqueSet(feats []types.FeatureSet) *UniqueSet {
	hashes := make(map[string]struct{}, len(feats))
	for _, f := range feats {
		hashes[f.Hash] = struct{}{}
	}
	return &UniqueSet{hashes: hashes}
}

// Len returns the number of hashes not yet consumed.
func (s *UniqueSet) Len() int { return len(s.hashes) }

// Consume removes hash from the set and reports whether it was present.
// A true result means this is the first record seen with this hash;
// false means a record with this hash was already consumed.
func (s *UniqueSet) Consume(hash string) bool {
	if _, ok := s.hashes[hash]; !ok {
		return false
	}
	delete(s.hashes, hash)
	return true
}
