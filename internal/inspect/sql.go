package inspect

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/lockplane/schemaguard/internal/database"
)

// Querier is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLInspector reads facts from a live Postgres or SQLite database.
type SQLInspector struct {
	db      Querier
	dialect database.DatabaseType
	schema  string
	logger  *slog.Logger
}

type Option func(*SQLInspector)

// WithSchema sets the Postgres schema tables are looked up in.
func WithSchema(schema string) Option {
	return func(i *SQLInspector) { i.schema = schema }
}

func WithLogger(logger *slog.Logger) Option {
	return func(i *SQLInspector) { i.logger = logger }
}

// NewSQLInspector returns an inspector for db. Postgres tables default to
// the public schema.
func NewSQLInspector(db Querier, dialect database.DatabaseType, opts ...Option) *SQLInspector {
	i := &SQLInspector{db: db, dialect: dialect, logger: slog.Default()}
	if dialect == database.DatabaseTypePostgres {
		i.schema = "public"
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *SQLInspector) table(name string) string {
	if i.dialect.IsSQLite() {
		return database.QuoteIdentifier(name)
	}
	return database.QualifiedName(i.schema, name)
}

func (i *SQLInspector) RowCount(ctx context.Context, table string) (int64, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", i.table(table))

	var n int64
	if err := i.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count rows in %s: %w", table, err)
	}
	i.logger.Debug("counted rows", "table", table, "rows", n)
	return n, nil
}

func (i *SQLInspector) NullCount(ctx context.Context, table, column string) (int64, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s IS NULL",
		i.table(table), database.QuoteIdentifier(column))

	var n int64
	if err := i.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count nulls in %s.%s: %w", table, column, err)
	}
	i.logger.Debug("counted nulls", "table", table, "column", column, "nulls", n)
	return n, nil
}

const postgresReverseForeignKeysQuery = `
	SELECT referencing.relname, con.conname
	FROM pg_constraint con
	JOIN pg_class referencing ON referencing.oid = con.conrelid
	JOIN pg_class referenced ON referenced.oid = con.confrelid
	JOIN pg_namespace ns ON ns.oid = referenced.relnamespace
	JOIN pg_attribute att ON att.attrelid = con.confrelid AND att.attnum = ANY(con.confkey)
	WHERE con.contype = 'f'
	AND ns.nspname = $1
	AND referenced.relname = $2
	AND att.attname = $3
	ORDER BY referencing.relname, con.conname
`

const sqliteReverseForeignKeysQuery = `
	SELECT m.name, fk.id
	FROM sqlite_master AS m
	JOIN pragma_foreign_key_list(m.name) AS fk
	WHERE m.type = 'table'
	AND fk."table" = ?
	AND fk."to" = ?
	ORDER BY m.name, fk.id
`

func (i *SQLInspector) ReverseForeignKeys(ctx context.Context, table, column string) ([]ForeignKeyRef, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if i.dialect.IsSQLite() {
		rows, err = i.db.QueryContext(ctx, sqliteReverseForeignKeysQuery, table, column)
	} else {
		rows, err = i.db.QueryContext(ctx, postgresReverseForeignKeysQuery, i.schema, table, column)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query foreign keys referencing %s.%s: %w", table, column, err)
	}
	defer func() { _ = rows.Close() }()

	var refs []ForeignKeyRef
	for rows.Next() {
		var ref ForeignKeyRef
		if i.dialect.IsSQLite() {
			// SQLite foreign keys are unnamed; synthesize a stable name.
			var id int
			if err := rows.Scan(&ref.ReferencingTable, &id); err != nil {
				return nil, fmt.Errorf("failed to scan foreign key: %w", err)
			}
			ref.ConstraintName = fmt.Sprintf("%s_fk_%d", ref.ReferencingTable, id)
		} else if err := rows.Scan(&ref.ReferencingTable, &ref.ConstraintName); err != nil {
			return nil, fmt.Errorf("failed to scan foreign key: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating foreign keys: %w", err)
	}

	i.logger.Debug("found reverse foreign keys", "table", table, "column", column, "count", len(refs))
	return refs, nil
}

func (i *SQLInspector) SampleValues(ctx context.Context, table, column string, limit int) ([]string, bool, error) {
	col := database.QuoteIdentifier(column)
	// one extra row tells a complete sample from a truncated one
	query := fmt.Sprintf("SELECT CAST(%s AS TEXT) FROM %s WHERE %s IS NOT NULL LIMIT %d",
		col, i.table(table), col, limit+1)

	rows, err := i.db.QueryContext(ctx, query)
	if err != nil {
		return nil, false, fmt.Errorf("failed to sample %s.%s: %w", table, column, err)
	}
	defer func() { _ = rows.Close() }()

	values := make([]string, 0, limit)
	exhaustive := true
	for rows.Next() {
		if len(values) == limit {
			exhaustive = false
			break
		}
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, false, fmt.Errorf("failed to scan sample: %w", err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("error iterating samples: %w", err)
	}

	i.logger.Debug("sampled column", "table", table, "column", column, "values", len(values), "exhaustive", exhaustive)
	return values, exhaustive, nil
}
