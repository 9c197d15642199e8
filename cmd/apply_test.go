package cmd

import (
	"database/sql"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/lockplane/schemaguard/internal/planner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func columnExists(t *testing.T, dbPath, table, column string) bool {
	t.Helper()
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`, table, column).Scan(&n))
	return n == 1
}

const addNickname = `{"changes": [{"table": "users", "column": "nickname", "operation": "add", "new_type": "text"}]}`

func TestApplySQLite(t *testing.T) {
	dir := workspace(t)
	dbPath := sqliteDB(t, dir,
		`CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT)`,
		`INSERT INTO users (name) VALUES ('ada'), ('grace')`,
	)
	changes := writeFile(t, filepath.Join(dir, "changes.json"), addNickname)

	stdout, _, err := execute(t, "", "apply", "--changes", changes, "--database-url", dbPath, "--allow-schema-changes", "--yes")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Applied 1 statement(s)")
	assert.True(t, columnExists(t, dbPath, "users", "nickname"))
}

func TestApplySavedPlan(t *testing.T) {
	dir := workspace(t)
	dbPath := sqliteDB(t, dir, `CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT)`)
	changes := writeFile(t, filepath.Join(dir, "changes.json"), addNickname)
	planPath := filepath.Join(dir, "plan.json")

	_, _, err := execute(t, "", "plan", "-c", changes, "--database-url", dbPath, "-o", planPath, "--allow-schema-changes")
	require.NoError(t, err)

	t.Run("stale after rows change", func(t *testing.T) {
		db, err := sql.Open("sqlite", dbPath)
		require.NoError(t, err)
		_, err = db.Exec(`INSERT INTO users (name) VALUES ('linus')`)
		require.NoError(t, err)
		require.NoError(t, db.Close())

		_, stderr, err := execute(t, "", "apply", "--plan", planPath, "--database-url", dbPath, "--allow-schema-changes", "--yes")
		assert.ErrorIs(t, err, planner.ErrStalePlan)
		assert.Contains(t, stderr, "add users.nickname")
		assert.False(t, columnExists(t, dbPath, "users", "nickname"))
	})

	t.Run("fresh plan applies", func(t *testing.T) {
		_, _, err := execute(t, "", "plan", "-c", changes, "--database-url", dbPath, "-o", planPath, "--allow-schema-changes")
		require.NoError(t, err)

		_, _, err = execute(t, "", "apply", "--plan", planPath, "--database-url", dbPath, "--allow-schema-changes", "--yes")
		require.NoError(t, err)
		assert.True(t, columnExists(t, dbPath, "users", "nickname"))
	})
}

func TestApplyConfirmation(t *testing.T) {
	dir := workspace(t)
	dbPath := sqliteDB(t, dir, `CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT)`)
	changes := writeFile(t, filepath.Join(dir, "changes.json"), addNickname)

	_, _, err := execute(t, "n", "apply", "-c", changes, "--database-url", dbPath, "--allow-schema-changes")
	assert.ErrorContains(t, err, "apply cancelled")
	assert.False(t, columnExists(t, dbPath, "users", "nickname"))

	_, _, err = execute(t, "y", "apply", "-c", changes, "--database-url", dbPath, "--allow-schema-changes")
	require.NoError(t, err)
	assert.True(t, columnExists(t, dbPath, "users", "nickname"))
}

func TestApplyDryRunWithFacts(t *testing.T) {
	dir := workspace(t)
	facts := writeFile(t, filepath.Join(dir, "facts.json"), `{"row_counts": {"users": 10}}`)
	changes := writeFile(t, filepath.Join(dir, "changes.json"), addNickname)

	stdout, _, err := execute(t, "", "apply", "-c", changes, "--facts", facts, "--dry-run", "--allow-schema-changes")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Dry run: 1 statement(s) passed validation")
	assert.Contains(t, stdout, `ALTER TABLE "users" ADD COLUMN "nickname" text;`)
}

func TestApplyRefusals(t *testing.T) {
	dir := workspace(t)
	facts := writeFile(t, filepath.Join(dir, "facts.json"), usersFacts)
	blocked := writeFile(t, filepath.Join(dir, "blocked.json"), usersChanges)
	safe := writeFile(t, filepath.Join(dir, "safe.json"), addNickname)

	t.Run("blockers are never applied", func(t *testing.T) {
		_, _, err := execute(t, "", "apply", "-c", blocked, "--facts", facts, "--dry-run", "--allow-schema-changes")
		assert.ErrorContains(t, err, "plan has 1 blocker(s) and was not applied")
	})

	t.Run("fingerprint mismatch", func(t *testing.T) {
		_, _, err := execute(t, "", "apply", "-c", safe, "--facts", facts, "--dry-run", "--expect-fingerprint", "deadbeef", "--allow-schema-changes")
		assert.ErrorIs(t, err, planner.ErrStalePlan)
	})

	t.Run("fingerprint match", func(t *testing.T) {
		stdout, _, err := execute(t, "", "plan", "-c", safe, "--facts", facts, "--format", "json", "--allow-schema-changes")
		require.NoError(t, err)
		var plan planner.MigrationPlan
		require.NoError(t, json.Unmarshal([]byte(stdout), &plan))

		_, _, err = execute(t, "", "apply", "-c", safe, "--facts", facts, "--dry-run", "--expect-fingerprint", plan.FactsFingerprint, "--allow-schema-changes")
		assert.NoError(t, err)
	})

	t.Run("facts need dry run", func(t *testing.T) {
		_, _, err := execute(t, "", "apply", "-c", safe, "--facts", facts, "--allow-schema-changes")
		assert.ErrorContains(t, err, "--facts can only be used with --dry-run")
	})

	t.Run("plan and changes are exclusive", func(t *testing.T) {
		_, _, err := execute(t, "", "apply", "-c", safe, "--plan", safe, "--allow-schema-changes")
		assert.Error(t, err)
	})
}
