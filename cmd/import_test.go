package cmd

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/lockplane/schemaguard/internal/importer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dogsSpec = `{
  "table": "dogs",
  "rows": [
    {"id": "1", "name": "Rex", "tag1": "good", "tag2": "loud"},
    {"id": "2", "name": "Fido", "tag1": "sleepy", "tag2": ""}
  ],
  "mappings": [
    {"source": "id", "target": "id", "type": "integer"},
    {"source": "name", "target": "name", "type": "text"}
  ],
  "groups": [
    {"sources": ["tag1", "tag2"], "target": "tags", "type": "text_array"}
  ],
  "conflict_strategy": "%s",
  "primary_keys": ["id"]
}`

func dogsDB(t *testing.T) (dir, dbPath string) {
	t.Helper()
	dir = workspace(t)
	dbPath = sqliteDB(t, dir, `CREATE TABLE dogs (id INTEGER PRIMARY KEY, name TEXT NOT NULL, tags TEXT)`)
	return dir, dbPath
}

func countRows(t *testing.T, dbPath, table string) int {
	t.Helper()
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}

func TestImportSQLite(t *testing.T) {
	dir, dbPath := dogsDB(t)
	spec := writeFile(t, filepath.Join(dir, "dogs.json"), fmt.Sprintf(dogsSpec, "fail"))

	stdout, _, err := execute(t, "", "import", "--spec", spec, "--database-url", dbPath, "--no-progress")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Imported 2 row(s) into dogs, 0 failed")
	assert.Equal(t, 2, countRows(t, dbPath, "dogs"))

	t.Run("fail strategy stops on duplicates", func(t *testing.T) {
		stdout, _, err := execute(t, "", "import", "--spec", spec, "--database-url", dbPath, "--no-progress")
		assert.ErrorContains(t, err, "import into dogs finished with 2 failed row(s)")
		assert.Contains(t, stdout, "Import stopped early")
		assert.Contains(t, stdout, "row 1:")
	})

	t.Run("upsert replaces", func(t *testing.T) {
		upsert := writeFile(t, filepath.Join(dir, "upsert.json"), fmt.Sprintf(dogsSpec, "upsert"))
		stdout, _, err := execute(t, "", "import", "--spec", upsert, "--database-url", dbPath, "--no-progress", "--format", "json")
		require.NoError(t, err)

		var result importer.ImportResult
		require.NoError(t, json.Unmarshal([]byte(stdout), &result))
		assert.Equal(t, 2, result.Imported)
		assert.Equal(t, 0, result.Failed)
		assert.Equal(t, 2, countRows(t, dbPath, "dogs"))
	})
}

func TestImportWithProgressBatches(t *testing.T) {
	dir, dbPath := dogsDB(t)
	spec := writeFile(t, filepath.Join(dir, "dogs.json"), fmt.Sprintf(dogsSpec, "skip"))

	stdout, _, err := execute(t, "", "import", "-s", spec, "--database-url", dbPath, "--batch-size", "1", "--no-progress")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Imported 2 row(s) into dogs, 0 failed")
}

func TestImportRejectsInvalidSpec(t *testing.T) {
	dir, dbPath := dogsDB(t)
	spec := writeFile(t, filepath.Join(dir, "bad.json"), `{"table": "dogs", "rows": [], "conflict_strategy": "upsert",
  "mappings": [{"source": "id", "target": "id", "type": "integer"}]}`)

	_, _, err := execute(t, "", "import", "-s", spec, "--database-url", dbPath, "--no-progress")
	assert.ErrorIs(t, err, importer.ErrInvalidSpec)
}
