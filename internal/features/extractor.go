// Package features computes the per-record statistics the filtering
// stages decide on: a whitespace-insensitive content hash, the
// alphanumeric character fraction, and per-line lengths.
package features

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/steveyegge/scrub/internal/types"
)

// Extract computes the feature set for one record's text. It is a pure
// function of the text and safe to call concurrently.
func Extract(text string) types.FeatureSet {
	return types.FeatureSet{
		Hash:        ContentHash(text),
		AlphaFrac:   alphaFrac(text),
		LineLengths: lineLengths(text),
	}
}

// ContentHash returns the hex md5 digest of the text with every run of
// whitespace deleted. Two texts differing only in whitespace placement
// hash identically, which is what makes the hash a usable
// exact-duplicate key for reformatted copies of the same content.
func ContentHash(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if !unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	sum := md5.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// alphaFrac is the fraction of characters in the unmodified text that
// are alphanumeric. Empty text yields 0.0.
func alphaFrac(text string) float64 {
	total := utf8.RuneCountInString(text)
	if total == 0 {
		return 0.0
	}
	alnum := 0
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			alnum++
		}
	}
	return float64(alnum) / float64(total)
}

// lineLengths reports the character length of each line of the
// unmodified text. A trailing line terminator does not produce an empty
// final line, and empty text has no lines at all.
func lineLengths(text string) []int {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	lengths := make([]int, len(lines))
	for i, line := range lines {
		lengths[i] = utf8.RuneCountInString(strings.TrimSuffix(line, "\r"))
	}
	return lengths
}
