// Package corpus loads the input record set and exposes it with a
// stable iteration order. Record indices assigned here are the
// identifiers the rest of the pipeline orders and deduplicates by.
package corpus

import (
	"fmt"

	"github.com/steveyegge/scrub/internal/types"
)

// Source is a corpus with a stable iteration order. Implementations
// must return the same record for the same index across calls; the
// whole pipeline's "first occurrence wins" semantics hang off that.
type Source interface {
	// Name returns a human-readable identifier for logging.
	Name() string

	// Len returns the number of records in the corpus.
	Len() int

	// Record returns the record at position i (0-based).
	Record(i int) (types.Record, error)

	// Close releases any resources held by the source.
	Close() error
}

// All reads every record of a source in order.
func All(src Source) ([]types.Record, error) {
	records := make([]types.Record, 0, src.Len())
	for i := 0; i < src.Len(); i++ {
		rec, err := src.Record(i)
		if err != nil {
			return nil, fmt.Errorf("reading record %d from %s: %w", i, src.Name(), err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Subset returns a view of a contiguous index range of src, half-open
// [start, end). end of 0 means the end of the corpus. Record indices
// are preserved from the underlying source.
func Subset(src Source, start, end int) (Source, error) {
	if end == 0 {
		end = src.Len()
	}
	if start < 0 || start > end || end > src.Len() {
		return nil, fmt.Errorf("invalid subset [%d, %d) for corpus of %d records", start, end, src.Len())
	}
	return &subsetSource{src: src, start: start, n: end - start}, nil
}

type subsetSource struct {
	src   Source
	start int
	n     int
}

func (s *subsetSource) Name() string { return s.src.Name() }
func (s *subsetSource) Len() int     { return s.n }
func (s *subsetSource) Close() error { return s.src.Close() }

func (s *subsetSource) Record(i int) (types.Record, error) {
	if i < 0 || i >= s.n {
		return types.Record{}, fmt.Errorf("record index %d out of range [0, %d)", i, s.n)
	}
	return s.src.Record(s.start + i)
}

// Slice wraps an in-memory record list as a Source. Used by tests and
// by callers that already hold the corpus in memory.
type Slice struct {
	name    string
	records []types.Record
}

// NewSlice builds an in-memory source from raw texts, assigning indices
// in order.
func NewSlice(name string, texts []string) *Slice {
	records := make([]types.Record, len(texts))
	for i, text := range texts {
		records[i] = types.Record{Index: i, Text: text}
	}
	return &Slice{name: name, records: records}
}

func (s *Slice) Name() string { return s.name }
func (s *Slice) Len() int     { return len(s.records) }
func (s *Slice) Close() error { return nil }

func (s *Slice) Record(i int) (types.Record, error) {
	if i < 0 || i >= len(s.records) {
		return types.Record{}, fmt.Errorf("record index %d out of range [0, %d)", i, len(s.records))
	}
	return s.records[i], nil
}
