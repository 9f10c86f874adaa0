package corpus

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/steveyegge/scrub/internal/types"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// OpenSQLite loads a corpus from a SQLite table. Records are read in
// rowid order, which gives the stable iteration order the dedup stage
// depends on. The table must have a text column; a NULL text is the
// malformed-input case and aborts the load.
func OpenSQLite(path, table string) (*Slice, error) {
	if !identPattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	rows, err := db.Query(fmt.Sprintf("SELECT text FROM %s ORDER BY rowid", table))
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", table, err)
	}
	defer rows.Close()

	var records []types.Record
	for rows.Next() {
		var text sql.NullString
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("scanning row %d: %w", len(records), err)
		}
		if !text.Valid {
			return nil, fmt.Errorf("%s row %d: record has no text field", table, len(records))
		}
		records = append(records, types.Record{Index: len(records), Text: text.String})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", table, err)
	}

	return &Slice{name: filepath.Base(path) + ":" + table, records: records}, nil
}
