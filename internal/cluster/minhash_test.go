package cluster

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/scrub/internal/types"
)

// longText builds a record with plenty of tokens so it participates in
// similarity search (MinTokens).
func longText(words ...string) string {
	base := []string{
		"alpha", "beta", "gamma", "delta", "epsilon", "zeta", "eta", "theta",
		"iota", "kappa", "lambda", "mu", "nu", "xi", "omicron", "pi",
		"rho", "sigma", "tau", "upsilon", "phi", "chi", "psi", "omega",
	}
	return strings.Join(append(base, words...), " ")
}

func recordsOf(texts ...string) []types.Record {
	records := make([]types.Record, len(texts))
	for i, text := range texts {
		records[i] = types.Record{Index: i, Text: text}
	}
	return records
}

func TestClusterEmptyInput(t *testing.T) {
	result, err := NewMinHash().Cluster(context.Background(), nil, 0.85)
	require.NoError(t, err)
	assert.Empty(t, result.Records)
	assert.Empty(t, result.Clusters)
	assert.NotNil(t, result.Clusters)
}

func TestClusterInvalidThreshold(t *testing.T) {
	for _, threshold := range []float64{-0.1, 1.1} {
		_, err := NewMinHash().Cluster(context.Background(), recordsOf("abcd"), threshold)
		assert.Error(t, err, "threshold %v", threshold)
	}
}

func TestClusterPartitionProperty(t *testing.T) {
	records := recordsOf(
		longText("one"),
		longText("one", "slightly", "changed"),
		longText("completely", "different", "content", "here", "nothing", "shared", "with", "others", "at", "all"),
		"tiny",
		longText("one", "also", "changed"),
	)

	result, err := NewMinHash().Cluster(context.Background(), records, 0.7)
	require.NoError(t, err)

	// Every input record lands in exactly one cluster.
	require.NoError(t, result.Clusters.Validate(len(records)))

	// One representative per cluster, and each representative is its
	// cluster's first member.
	assert.Len(t, result.Records, len(result.Clusters))
	for _, rec := range result.Records {
		id := fmt.Sprintf("cluster-%09d", rec.Index)
		members, ok := result.Clusters[id]
		require.True(t, ok, "representative %d has no cluster %s", rec.Index, id)
		assert.Equal(t, rec.Index, members[0])
	}
}

func TestClusterMergesNearDuplicates(t *testing.T) {
	// Two records sharing almost all tokens, one unrelated.
	a := longText("shared", "tokens", "everywhere", "one")
	b := longText("shared", "tokens", "everywhere", "two")
	c := longText("utterly", "unrelated", "words", "xyzzy", "plugh", "quux", "foobar", "grault", "garply", "waldo")

	result, err := NewMinHash().Cluster(context.Background(), recordsOf(a, b, c), 0.7)
	require.NoError(t, err)

	require.Len(t, result.Records, 2, "a and b cluster together, c stands alone")
	assert.Equal(t, 0, result.Records[0].Index, "lowest index is the representative")
	assert.Equal(t, 2, result.Records[1].Index)
	assert.Equal(t, []int{0, 1}, result.Clusters["cluster-000000000"])
}

func TestClusterThresholdOne(t *testing.T) {
	// At threshold 1.0 only identical token sets merge.
	a := longText("same", "words")
	b := longText("words", "same") // same token set, different order
	c := longText("same", "words", "extra")

	result, err := NewMinHash().Cluster(context.Background(), recordsOf(a, b, c), 1.0)
	require.NoError(t, err)

	require.Len(t, result.Records, 2)
	assert.Equal(t, []int{0, 1}, result.Clusters["cluster-000000000"])
	assert.Equal(t, []int{2}, result.Clusters["cluster-000000002"])
}

func TestClusterShortRecordsStaySingletons(t *testing.T) {
	// Below MinTokens, identical records still do not merge.
	result, err := NewMinHash().Cluster(context.Background(), recordsOf("ab cd", "ab cd"), 0.0)
	require.NoError(t, err)
	assert.Len(t, result.Records, 2)
	assert.Len(t, result.Clusters, 2)
}

func TestClusterDeterminism(t *testing.T) {
	records := recordsOf(
		longText("one"),
		longText("one", "changed"),
		longText("two"),
		longText("two", "changed"),
		longText("unique", "standalone", "entry", "with", "extra", "padding", "words", "in", "it", "too"),
	)

	first, err := NewMinHash().Cluster(context.Background(), records, 0.75)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := NewMinHash().Cluster(context.Background(), records, 0.75)
		require.NoError(t, err)
		assert.Equal(t, first.Records, again.Records)
		assert.Equal(t, first.Clusters, again.Clusters)
	}
}

func TestClusterRejectsBadBandConfig(t *testing.T) {
	m := &MinHash{NumHashes: 10, Bands: 3, MinTokens: 1}
	_, err := m.Cluster(context.Background(), recordsOf("abcd"), 0.5)
	assert.Error(t, err)
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		text     string
		expected []string
	}{
		{"", nil},
		{"   ", nil},
		{"foo bar foo", []string{"bar", "foo"}},
		{"snake_case stays-split", []string{"snake_case", "split", "stays"}},
		{"a1 b2,c3", []string{"a1", "b2", "c3"}},
	}
	for _, tt := range tests {
		set := tokenize(tt.text)
		var got []string
		for tok := range set {
			got = append(got, tok)
		}
		assert.ElementsMatch(t, tt.expected, got, "text %q", tt.text)
	}
}

func TestJaccard(t *testing.T) {
	setOf := func(toks ...string) map[string]struct{} {
		s := make(map[string]struct{})
		for _, tok := range toks {
			s[tok] = struct{}{}
		}
		return s
	}
	assert.InDelta(t, 1.0, jaccard(setOf("a", "b"), setOf("a", "b")), 1e-9)
	assert.InDelta(t, 1.0/3.0, jaccard(setOf("a", "b"), setOf("a", "c")), 1e-9)
	assert.InDelta(t, 0.0, jaccard(setOf("a"), setOf("b")), 1e-9)
	assert.InDelta(t, 0.0, jaccard(setOf(), setOf()), 1e-9)
}
