package importer

import (
	"context"
	"database/sql"
	"testing"

	"github.com/lockplane/schemaguard/internal/database"
	"github.com/lockplane/schemaguard/internal/typerules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestInsertStatement(t *testing.T) {
	values := map[string]any{"name": "Rex", "id": int64(1), "tags": []any{"a"}}

	t.Run("postgres upsert", func(t *testing.T) {
		w := NewSQLWriter(nil, database.DatabaseTypePostgres, WithSchema("public"))
		query, args, err := w.insert("dogs", values, ConflictUpsert, []string{"id"})
		require.NoError(t, err)
		assert.Equal(t, `INSERT INTO "public"."dogs" ("id", "name", "tags") VALUES ($1, $2, $3) `+
			`ON CONFLICT ("id") DO UPDATE SET "name" = EXCLUDED."name", "tags" = EXCLUDED."tags"`, query)
		assert.Len(t, args, 3)
		assert.Equal(t, int64(1), args[0])
	})

	t.Run("upsert with only keys", func(t *testing.T) {
		w := NewSQLWriter(nil, database.DatabaseTypePostgres)
		query, _, err := w.insert("dogs", map[string]any{"id": int64(1)}, ConflictUpsert, []string{"id"})
		require.NoError(t, err)
		assert.Equal(t, `INSERT INTO "dogs" ("id") VALUES ($1) ON CONFLICT ("id") DO NOTHING`, query)
	})

	t.Run("sqlite plain insert", func(t *testing.T) {
		w := NewSQLWriter(nil, database.DatabaseTypeSQLite, WithSchema("public"))
		query, args, err := w.insert("dogs", values, ConflictSkip, nil)
		require.NoError(t, err)
		assert.Equal(t, `INSERT INTO "dogs" ("id", "name", "tags") VALUES (?, ?, ?)`, query)
		assert.Equal(t, `["a"]`, args[2])
	})

	t.Run("empty record", func(t *testing.T) {
		w := NewSQLWriter(nil, database.DatabaseTypeSQLite)
		_, _, err := w.insert("dogs", map[string]any{}, ConflictSkip, nil)
		assert.Error(t, err)
	})
}

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE dogs (id integer primary key, name text not null, tags text, meta text)`)
	require.NoError(t, err)
	return db
}

func dogImport(strategy ConflictStrategy, rows ...Row) *ImportSpec {
	return &ImportSpec{
		Table: "dogs",
		Rows:  rows,
		Mappings: []ColumnMapping{
			{Source: "ID", Target: "id", Type: typerules.Integer},
			{Source: "Name", Target: "name", Type: typerules.Text},
			{Source: "Meta", Target: "meta", Type: typerules.JSONB},
		},
		Groups: []ColumnGroup{
			{Sources: []string{"Tag A", "Tag B"}, Target: "tags", Type: typerules.TextArray},
		},
		ConflictStrategy: strategy,
		PrimaryKeys:      []string{"id"},
	}
}

func TestSQLWriter_SQLite(t *testing.T) {
	ctx := context.Background()

	t.Run("writes coerced values", func(t *testing.T) {
		db := openSQLite(t)
		im := New(NewSQLWriter(db, database.DatabaseTypeSQLite), Options{})

		result, err := im.Run(ctx, dogImport(ConflictFail,
			Row{"ID": "1", "Name": "Rex", "Tag A": "good", "Tag B": "loud", "Meta": `{"age": 3}`},
		))
		require.NoError(t, err)
		require.True(t, result.Success(), "errors: %v", result.Errors)

		var name, tags, meta string
		require.NoError(t, db.QueryRow(`SELECT name, tags, meta FROM dogs WHERE id = 1`).Scan(&name, &tags, &meta))
		assert.Equal(t, "Rex", name)
		assert.Equal(t, `["good","loud"]`, tags)
		assert.JSONEq(t, `{"age": 3}`, meta)
	})

	t.Run("failed batch is rolled back", func(t *testing.T) {
		db := openSQLite(t)
		im := New(NewSQLWriter(db, database.DatabaseTypeSQLite), Options{BatchSize: 2})

		result, err := im.Run(ctx, dogImport(ConflictSkip,
			Row{"ID": "1", "Name": "Rex"},
			Row{"ID": "1", "Name": "Duplicate"},
			Row{"ID": "2", "Name": "Fido"},
		))
		require.NoError(t, err)
		assert.Equal(t, 1, result.Imported)
		assert.Equal(t, 2, result.Failed)
		assert.Contains(t, result.Errors[0].Message, "row 2")

		var ids []int
		rows, err := db.Query(`SELECT id FROM dogs ORDER BY id`)
		require.NoError(t, err)
		defer rows.Close()
		for rows.Next() {
			var id int
			require.NoError(t, rows.Scan(&id))
			ids = append(ids, id)
		}
		require.NoError(t, rows.Err())
		assert.Equal(t, []int{2}, ids)
	})

	t.Run("upsert updates existing rows", func(t *testing.T) {
		db := openSQLite(t)
		_, err := db.Exec(`INSERT INTO dogs (id, name) VALUES (1, 'Old')`)
		require.NoError(t, err)

		im := New(NewSQLWriter(db, database.DatabaseTypeSQLite), Options{})
		result, err := im.Run(ctx, dogImport(ConflictUpsert,
			Row{"ID": "1", "Name": "New"},
			Row{"ID": "2", "Name": "Fido"},
		))
		require.NoError(t, err)
		assert.Equal(t, 2, result.Imported)

		var name string
		require.NoError(t, db.QueryRow(`SELECT name FROM dogs WHERE id = 1`).Scan(&name))
		assert.Equal(t, "New", name)
	})

	t.Run("delete existing", func(t *testing.T) {
		db := openSQLite(t)
		_, err := db.Exec(`INSERT INTO dogs (id, name) VALUES (9, 'Stale')`)
		require.NoError(t, err)

		spec := dogImport(ConflictFail, Row{"ID": "1", "Name": "Rex"})
		spec.DeleteExisting = true
		_, err = New(NewSQLWriter(db, database.DatabaseTypeSQLite), Options{}).Run(ctx, spec)
		require.NoError(t, err)

		var count int
		require.NoError(t, db.QueryRow(`SELECT count(*) FROM dogs`).Scan(&count))
		assert.Equal(t, 1, count)
	})
}
