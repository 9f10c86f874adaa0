package cluster

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"

	"github.com/steveyegge/scrub/internal/types"
)

// MinHash is the default Clusterer: MinHash signatures over alphanumeric
// tokens, LSH banding to find candidate pairs, exact Jaccard
// verification, union-find to form clusters. Deterministic for a given
// input set and threshold — the permutation seeds are fixed and the
// representative of each cluster is always its lowest-index member.
type MinHash struct {
	// NumHashes is the signature length. Must be divisible by Bands.
	NumHashes int

	// Bands is the number of LSH bands. More bands catch lower
	// similarities at the cost of more candidate pairs to verify.
	Bands int

	// MinTokens is the minimum token count for a record to take part in
	// similarity search. Shorter records always land in singleton
	// clusters; their token sets are too small for Jaccard estimates to
	// mean anything.
	MinTokens int
}

// NewMinHash returns a MinHash clusterer with defaults tuned for
// thresholds around 0.85.
func NewMinHash() *MinHash {
	return &MinHash{
		NumHashes: 128,
		Bands:     16,
		MinTokens: 10,
	}
}

// Cluster implements Clusterer.
func (m *MinHash) Cluster(ctx context.Context, records []types.Record, threshold float64) (*Result, error) {
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("threshold must be between 0.0 and 1.0 (got %.4f)", threshold)
	}
	if m.NumHashes <= 0 || m.Bands <= 0 || m.NumHashes%m.Bands != 0 {
		return nil, fmt.Errorf("num_hashes (%d) must be a positive multiple of bands (%d)", m.NumHashes, m.Bands)
	}
	if len(records) == 0 {
		return &Result{Records: []types.Record{}, Clusters: types.DuplicateClusters{}}, nil
	}

	tokens := make([]map[string]struct{}, len(records))
	for i, rec := range records {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		tokens[i] = tokenize(rec.Text)
	}

	// Band buckets: records sharing a band signature are candidates.
	rows := m.NumHashes / m.Bands
	buckets := make(map[uint64][]int)
	for i := range records {
		if len(tokens[i]) < m.MinTokens {
			continue
		}
		sig := m.signature(tokens[i])
		for b := 0; b < m.Bands; b++ {
			key := bandKey(b, sig[b*rows:(b+1)*rows])
			buckets[key] = append(buckets[key], i)
		}
	}

	// Verify candidate pairs with the real Jaccard similarity and merge
	// matches. Union by lowest index keeps representatives stable.
	dsu := newUnionFind(len(records))
	checked := make(map[uint64]struct{})
	for _, bucket := range buckets {
		for a := 0; a < len(bucket); a++ {
			for b := a + 1; b < len(bucket); b++ {
				i, j := bucket[a], bucket[b]
				if i > j {
					i, j = j, i
				}
				pair := uint64(i)<<32 | uint64(j)
				if _, done := checked[pair]; done {
					continue
				}
				checked[pair] = struct{}{}
				if jaccard(tokens[i], tokens[j]) >= threshold {
					dsu.union(i, j)
				}
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	// Group members by root. Ascending iteration keeps member lists
	// ordered and makes the representative the first member.
	groups := make(map[int][]int)
	for i := range records {
		root := dsu.find(i)
		groups[root] = append(groups[root], i)
	}

	clusters := make(types.DuplicateClusters, len(groups))
	reduced := make([]types.Record, 0, len(groups))
	roots := make([]int, 0, len(groups))
	for root := range groups {
		roots = append(roots, root)
	}
	sort.Ints(roots)
	for _, root := range roots {
		members := groups[root]
		ids := make([]int, len(members))
		for k, pos := range members {
			ids[k] = records[pos].Index
		}
		clusters[fmt.Sprintf("cluster-%09d", records[root].Index)] = ids
		reduced = append(reduced, records[root])
	}

	return &Result{Records: reduced, Clusters: clusters}, nil
}

// tokenize splits text into the set of maximal alphanumeric runs
// (underscore included, so identifiers stay whole).
func tokenize(text string) map[string]struct{} {
	set := make(map[string]struct{})
	start := -1
	for i, r := range text {
		alnum := r == '_' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if alnum {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			set[text[start:i]] = struct{}{}
			start = -1
		}
	}
	if start >= 0 {
		set[text[start:]] = struct{}{}
	}
	return set
}

// signature computes the MinHash signature of a token set. Each "hash
// permutation" is the token's FNV-1a hash mixed with a fixed per-slot
// seed, so signatures are reproducible across runs and machines.
func (m *MinHash) signature(tokens map[string]struct{}) []uint64 {
	sig := make([]uint64, m.NumHashes)
	for k := range sig {
		sig[k] = ^uint64(0)
	}
	for tok := range tokens {
		h := fnv.New64a()
		h.Write([]byte(tok))
		base := h.Sum64()
		for k := range sig {
			v := mix64(base ^ seed(k))
			if v < sig[k] {
				sig[k] = v
			}
		}
	}
	return sig
}

func bandKey(band int, sig []uint64) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	put := func(v uint64) {
		for i := 0; i < 8; i++ {
			buf[i] = byte(v >> (8 * i))
		}
		h.Write(buf[:])
	}
	put(uint64(band))
	for _, v := range sig {
		put(v)
	}
	return h.Sum64()
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0.0
	}
	if len(a) > len(b) {
		a, b = b, a
	}
	inter := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			inter++
		}
	}
	return float64(inter) / float64(len(a)+len(b)-inter)
}

func seed(k int) uint64 {
	return mix64(uint64(k) + 0x9e3779b97f4a7c15)
}

// mix64 is the splitmix64 finalizer.
func mix64(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

// unionFind with union-by-lowest-index: find always returns the
// smallest index in the set, which is what makes representatives
// deterministic.
type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &unionFind{parent: parent}
}

func (u *unionFind) find(i int) int {
	for u.parent[i] != i {
		u.parent[i] = u.parent[u.parent[i]]
		i = u.parent[i]
	}
	return i
}

func (u *unionFind) union(i, j int) {
	ri, rj := u.find(i), u.find(j)
	if ri == rj {
		return
	}
	if ri < rj {
		u.parent[rj] = ri
	} else {
		u.parent[ri] = rj
	}
}
