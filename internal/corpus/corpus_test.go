package corpus

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestOpenJSONL(t *testing.T) {
	path := writeTemp(t, `{"text":"first record"}
{"text":"second record","extra":"ignored"}

{"text":""}
`)
	src, err := OpenJSONL(path)
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, 3, src.Len(), "blank lines are skipped")

	rec, err := src.Record(0)
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Index)
	assert.Equal(t, "first record", rec.Text)

	rec, err = src.Record(2)
	require.NoError(t, err)
	assert.Equal(t, "", rec.Text, "empty text is a valid record")
}

func TestOpenJSONLMissingTextAborts(t *testing.T) {
	path := writeTemp(t, `{"text":"ok"}
{"body":"no text field"}
`)
	_, err := OpenJSONL(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
	assert.Contains(t, err.Error(), "no text field")
}

func TestOpenJSONLMalformedJSON(t *testing.T) {
	path := writeTemp(t, "{not json}\n")
	_, err := OpenJSONL(path)
	assert.Error(t, err)
}

func TestOpenJSONLMissingFile(t *testing.T) {
	_, err := OpenJSONL(filepath.Join(t.TempDir(), "nope.jsonl"))
	assert.Error(t, err)
}

func TestSliceSource(t *testing.T) {
	src := NewSlice("test", []string{"a", "b", "c"})
	assert.Equal(t, "test", src.Name())
	assert.Equal(t, 3, src.Len())

	records, err := All(src)
	require.NoError(t, err)
	require.Len(t, records, 3)
	for i, rec := range records {
		assert.Equal(t, i, rec.Index)
	}

	_, err = src.Record(3)
	assert.Error(t, err)
	_, err = src.Record(-1)
	assert.Error(t, err)
}

func TestSubset(t *testing.T) {
	src := NewSlice("test", []string{"a", "b", "c", "d", "e"})

	sub, err := Subset(src, 1, 4)
	require.NoError(t, err)
	assert.Equal(t, 3, sub.Len())

	rec, err := sub.Record(0)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Index, "original indices are preserved")
	assert.Equal(t, "b", rec.Text)

	_, err = sub.Record(3)
	assert.Error(t, err)
}

func TestSubsetZeroEndMeansAll(t *testing.T) {
	src := NewSlice("test", []string{"a", "b", "c"})
	sub, err := Subset(src, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, sub.Len())
}

func TestSubsetInvalidRange(t *testing.T) {
	src := NewSlice("test", []string{"a", "b"})
	for _, bounds := range [][2]int{{-1, 2}, {2, 1}, {0, 3}} {
		_, err := Subset(src, bounds[0], bounds[1])
		assert.Error(t, err, "bounds %v", bounds)
	}
}

func TestOpenSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.db")

	db, err := sql.Open("sqlite3", "file:"+path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE records (text TEXT)`)
	require.NoError(t, err)
	for _, text := range []string{"first", "second", "third"} {
		_, err = db.Exec(`INSERT INTO records (text) VALUES (?)`, text)
		require.NoError(t, err)
	}
	require.NoError(t, db.Close())

	src, err := OpenSQLite(path, "records")
	require.NoError(t, err)
	defer src.Close()

	require.Equal(t, 3, src.Len())
	rec, err := src.Record(1)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Index)
	assert.Equal(t, "second", rec.Text)
}

func TestOpenSQLiteNullTextAborts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.db")

	db, err := sql.Open("sqlite3", "file:"+path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE records (text TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO records (text) VALUES (NULL)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = OpenSQLite(path, "records")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no text field")
}

func TestOpenSQLiteRejectsBadTableName(t *testing.T) {
	_, err := OpenSQLite("whatever.db", "records; DROP TABLE x")
	assert.Error(t, err)
}
