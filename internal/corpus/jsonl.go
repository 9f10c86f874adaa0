package corpus

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/steveyegge/scrub/internal/types"
)

// maxLineBytes bounds a single JSONL record. Source files routinely
// exceed bufio's 64KB default.
const maxLineBytes = 64 * 1024 * 1024

// OpenJSONL loads a newline-delimited JSON corpus. Each line must be an
// object with a "text" field; a line missing it aborts the load rather
// than producing a garbage hash downstream.
func OpenJSONL(path string) (*Slice, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening corpus: %w", err)
	}
	defer f.Close()

	var records []types.Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var row struct {
			Text *string `json:"text"`
		}
		if err := json.Unmarshal(raw, &row); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		if row.Text == nil {
			return nil, fmt.Errorf("%s line %d: record has no text field", path, line)
		}

		records = append(records, types.Record{Index: len(records), Text: *row.Text})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return &Slice{name: filepath.Base(path), records: records}, nil
}
