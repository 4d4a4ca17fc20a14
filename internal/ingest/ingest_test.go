package ingest

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

const pricesJSON = `
{
  "prices": [
    {"hour": 0, "value": 10},
    {"hour": 1, "value": 12}
  ],
  "meta": {"source": "grid"}
}
`

func createTestDB(t *testing.T, records []string) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	_, err = db.Exec("CREATE TABLE results (id TEXT PRIMARY KEY, record TEXT NOT NULL)")
	require.NoError(t, err)
	for i, rec := range records {
		// ids sort against insertion order to check rowid ordering
		_, err = db.Exec("INSERT INTO results (id, record) VALUES (?, ?)", fmt.Sprintf("z%d", 9-i), rec)
		require.NoError(t, err)
	}
	return dbPath
}

func TestLoadDocument(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "data/prices.json", []byte(pricesJSON), 0o644))
	require.NoError(t, util.WriteFile(fs, "config.yaml", []byte("foo: 3\nnested:\n  list: [1, 2]\n"), 0o644))

	doc, err := LoadDocument(fs, "data/prices.json")
	require.NoError(t, err)
	assert.Equal(t, "grid", doc.(map[string]any)["meta"].(map[string]any)["source"])

	cfg, err := LoadDocument(fs, "config.yaml")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"foo": 3, "nested": map[string]any{"list": []any{1, 2}}}, cfg)

	_, err = LoadDocument(fs, "missing.json")
	assert.ErrorContains(t, err, "read document missing.json")
}

func TestParseDocument_Sniff(t *testing.T) {
	doc, err := ParseDocument([]byte(`[1, 2]`), "")
	require.NoError(t, err)
	assert.Equal(t, []any{1.0, 2.0}, doc)

	doc, err = ParseDocument([]byte("a: b\n"), "")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": "b"}, doc)

	_, err = ParseDocument([]byte(`{"a":`), ".json")
	assert.ErrorContains(t, err, "parse document json")
}

func TestSelectRows(t *testing.T) {
	doc, err := ParseDocument([]byte(pricesJSON), ".json")
	require.NoError(t, err)

	t.Run("array expands to rows", func(t *testing.T) {
		rows, err := SelectRows(doc, "$.prices")
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, map[string]any{"hour": 0.0, "value": 10.0}, rows[0])
	})

	t.Run("wildcard", func(t *testing.T) {
		rows, err := SelectRows(doc, "$.prices[*].value")
		require.NoError(t, err)
		assert.Equal(t, []any{10.0, 12.0}, rows)
	})

	t.Run("invalid selector", func(t *testing.T) {
		_, err := SelectRows(doc, "$.prices[")
		assert.ErrorContains(t, err, "invalid jsonpath")
	})
}

func TestQuery(t *testing.T) {
	doc, err := ParseDocument([]byte(pricesJSON), ".json")
	require.NoError(t, err)

	v, err := Query(doc, "prices.1.value")
	require.NoError(t, err)
	assert.Equal(t, 12.0, v)

	v, err = Query(doc, "$.meta.source")
	require.NoError(t, err)
	assert.Equal(t, []any{"grid"}, v)

	_, err = Query(doc, "prices.5")
	assert.Error(t, err)
}

func TestLoadSQLiteRows(t *testing.T) {
	t.Run("records in insertion order", func(t *testing.T) {
		dbPath := createTestDB(t, []string{
			`{"price":{"value":10}}`,
			`{"price":{"value":12}}`,
		})
		rows, err := LoadSQLiteRows(dbPath)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, 12.0, rows[1].(map[string]any)["price"].(map[string]any)["value"])
	})

	t.Run("empty table", func(t *testing.T) {
		rows, err := LoadSQLiteRows(createTestDB(t, nil))
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("bad record", func(t *testing.T) {
		_, err := LoadSQLiteRows(createTestDB(t, []string{`{oops`}))
		assert.ErrorContains(t, err, "parse record z9")
	})

	t.Run("no results table", func(t *testing.T) {
		_, err := LoadSQLiteRows(filepath.Join(t.TempDir(), "empty.db"))
		assert.ErrorContains(t, err, "query results")
	})
}
