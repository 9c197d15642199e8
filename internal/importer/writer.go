package importer

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/lib/pq"
	"github.com/lockplane/schemaguard/internal/database"
)

// SQLWriter writes batches with one INSERT per record inside a transaction
// per batch.
type SQLWriter struct {
	db      *sql.DB
	dialect database.DatabaseType
	schema  string
	logger  *slog.Logger
}

type WriterOption func(*SQLWriter)

// WithSchema qualifies table names. Ignored for SQLite.
func WithSchema(schema string) WriterOption {
	return func(w *SQLWriter) { w.schema = schema }
}

func WithWriterLogger(l *slog.Logger) WriterOption {
	return func(w *SQLWriter) { w.logger = l }
}

func NewSQLWriter(db *sql.DB, dialect database.DatabaseType, opts ...WriterOption) *SQLWriter {
	w := &SQLWriter{db: db, dialect: dialect, logger: slog.Default()}
	for _, opt := range opts {
		opt(w)
	}
	if dialect.IsSQLite() {
		w.schema = ""
	}
	return w
}

func (w *SQLWriter) table(name string) string {
	return database.QualifiedName(w.schema, name)
}

func (w *SQLWriter) Purge(ctx context.Context, table string) error {
	_, err := w.db.ExecContext(ctx, "DELETE FROM "+w.table(table))
	return err
}

func (w *SQLWriter) WriteBatch(ctx context.Context, table string, records []Record, strategy ConflictStrategy, primaryKeys []string) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			w.logger.Error("rollback failed", "error", err)
		}
	}()

	for _, rec := range records {
		query, args, err := w.insert(table, rec.Values, strategy, primaryKeys)
		if err != nil {
			return fmt.Errorf("row %d: %w", rec.Index, err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("row %d: %s", rec.Index, describe(err))
		}
	}
	return tx.Commit()
}

// insert renders the statement for one record with columns in sorted
// order.
func (w *SQLWriter) insert(table string, values map[string]any, strategy ConflictStrategy, primaryKeys []string) (string, []any, error) {
	cols := make([]string, 0, len(values))
	for c := range values {
		cols = append(cols, c)
	}
	if len(cols) == 0 {
		return "", nil, errors.New("no values to insert")
	}
	slices.Sort(cols)

	quoted := make([]string, len(cols))
	holders := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, c := range cols {
		quoted[i] = database.QuoteIdentifier(c)
		holders[i] = w.dialect.Placeholder(i + 1)
		arg, err := w.arg(values[c])
		if err != nil {
			return "", nil, fmt.Errorf("column %q: %w", c, err)
		}
		args[i] = arg
	}

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES (%s)", w.table(table), strings.Join(quoted, ", "), strings.Join(holders, ", "))
	if strategy == ConflictUpsert {
		b.WriteString(upsertClause(cols, primaryKeys))
	}
	return b.String(), args, nil
}

func upsertClause(cols, primaryKeys []string) string {
	keys := make([]string, len(primaryKeys))
	for i, k := range primaryKeys {
		keys[i] = database.QuoteIdentifier(k)
	}
	var sets []string
	for _, c := range cols {
		if slices.Contains(primaryKeys, c) {
			continue
		}
		q := database.QuoteIdentifier(c)
		sets = append(sets, q+" = EXCLUDED."+q)
	}
	if len(sets) == 0 {
		return fmt.Sprintf(" ON CONFLICT (%s) DO NOTHING", strings.Join(keys, ", "))
	}
	return fmt.Sprintf(" ON CONFLICT (%s) DO UPDATE SET %s", strings.Join(keys, ", "), strings.Join(sets, ", "))
}

// arg adapts array values to the dialect: Postgres arrays for Postgres,
// JSON text for SQLite.
func (w *SQLWriter) arg(v any) (any, error) {
	arr, ok := v.([]any)
	if !ok {
		return v, nil
	}
	if w.dialect.IsSQLite() {
		b, err := json.Marshal(arr)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	}
	return pq.Array(arr), nil
}

func describe(err error) string {
	if state := database.SQLState(err); state != "" {
		return fmt.Sprintf("%s (SQLSTATE %s)", database.ErrorMessage(err), state)
	}
	return err.Error()
}
