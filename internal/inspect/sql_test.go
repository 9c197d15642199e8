package inspect

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lockplane/schemaguard/internal/database"
	_ "modernc.org/sqlite"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestSQLInspector_RowCount(t *testing.T) {
	db, mock := newMock(t)
	ins := NewSQLInspector(db, database.DatabaseTypePostgres)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM "public"."users"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	n, err := ins.RowCount(context.Background(), "users")
	if err != nil {
		t.Fatalf("RowCount() error = %v", err)
	}
	if n != 42 {
		t.Errorf("RowCount() = %d, want 42", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestSQLInspector_NullCountWithSchema(t *testing.T) {
	db, mock := newMock(t)
	ins := NewSQLInspector(db, database.DatabaseTypePostgres, WithSchema("app"))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM "app"."users" WHERE "email" IS NULL`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := ins.NullCount(context.Background(), "users", "email")
	if err != nil {
		t.Fatalf("NullCount() error = %v", err)
	}
	if n != 3 {
		t.Errorf("NullCount() = %d, want 3", n)
	}
}

func TestSQLInspector_ReverseForeignKeys(t *testing.T) {
	db, mock := newMock(t)
	ins := NewSQLInspector(db, database.DatabaseTypePostgres)

	mock.ExpectQuery(regexp.QuoteMeta(postgresReverseForeignKeysQuery)).
		WithArgs("public", "users", "id").
		WillReturnRows(sqlmock.NewRows([]string{"relname", "conname"}).
			AddRow("orders", "orders_user_id_fkey").
			AddRow("sessions", "sessions_user_id_fkey"))

	refs, err := ins.ReverseForeignKeys(context.Background(), "users", "id")
	if err != nil {
		t.Fatalf("ReverseForeignKeys() error = %v", err)
	}
	want := []ForeignKeyRef{
		{ReferencingTable: "orders", ConstraintName: "orders_user_id_fkey"},
		{ReferencingTable: "sessions", ConstraintName: "sessions_user_id_fkey"},
	}
	if len(refs) != len(want) {
		t.Fatalf("got %d refs, want %d", len(refs), len(want))
	}
	for i := range want {
		if refs[i] != want[i] {
			t.Errorf("refs[%d] = %+v, want %+v", i, refs[i], want[i])
		}
	}
}

func TestSQLInspector_SampleValues(t *testing.T) {
	query := regexp.QuoteMeta(`SELECT CAST("code" AS TEXT) FROM "public"."items" WHERE "code" IS NOT NULL LIMIT 3`)

	t.Run("partial", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(query).
			WillReturnRows(sqlmock.NewRows([]string{"code"}).AddRow("1").AddRow("2").AddRow("3"))

		values, exhaustive, err := NewSQLInspector(db, database.DatabaseTypePostgres).
			SampleValues(context.Background(), "items", "code", 2)
		if err != nil {
			t.Fatalf("SampleValues() error = %v", err)
		}
		if len(values) != 2 || exhaustive {
			t.Errorf("got %v exhaustive=%v, want 2 values and partial", values, exhaustive)
		}
	})

	t.Run("exhaustive", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(query).
			WillReturnRows(sqlmock.NewRows([]string{"code"}).AddRow("1"))

		values, exhaustive, err := NewSQLInspector(db, database.DatabaseTypePostgres).
			SampleValues(context.Background(), "items", "code", 2)
		if err != nil {
			t.Fatalf("SampleValues() error = %v", err)
		}
		if len(values) != 1 || !exhaustive {
			t.Errorf("got %v exhaustive=%v, want 1 value and exhaustive", values, exhaustive)
		}
	})
}

func TestGather_WrapsFailures(t *testing.T) {
	db, mock := newMock(t)
	ins := NewSQLInspector(db, database.DatabaseTypePostgres)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM "public"."missing"`)).
		WillReturnError(errors.New(`relation "missing" does not exist`))

	_, err := Gather(context.Background(), ins, Request{Table: "missing", Column: "id"})
	var inspErr *InspectionFailedError
	if !errors.As(err, &inspErr) {
		t.Fatalf("Gather() error = %v, want *InspectionFailedError", err)
	}
	if inspErr.Op != "row_count" || inspErr.Table != "missing" {
		t.Errorf("unexpected error fields: %+v", inspErr)
	}
}

func TestGather_RejectsImpossibleNullCount(t *testing.T) {
	s := NewStatic().Set("users", "email", Facts{RowCount: 2, NullCount: 5})

	_, err := Gather(context.Background(), s, Request{Table: "users", Column: "email", NullCount: true})
	var inspErr *InspectionFailedError
	if !errors.As(err, &inspErr) || inspErr.Op != "null_count" {
		t.Fatalf("Gather() error = %v, want null_count inspection failure", err)
	}
}

func TestSQLInspector_SQLite(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("sql.Open() error = %v", err)
	}
	db.SetMaxOpenConns(1)
	defer func() { _ = db.Close() }()

	ctx := context.Background()
	for _, stmt := range []string{
		`CREATE TABLE users (id INTEGER PRIMARY KEY, email TEXT, age TEXT)`,
		`CREATE TABLE orders (id INTEGER PRIMARY KEY, user_id INTEGER REFERENCES users(id))`,
		`INSERT INTO users (id, email, age) VALUES (1, 'a@example.com', '31'), (2, NULL, '40'), (3, 'c@example.com', NULL)`,
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("setup %q: %v", stmt, err)
		}
	}

	ins := NewSQLInspector(db, database.DatabaseTypeSQLite)
	facts, err := Gather(ctx, ins, Request{
		Table:       "users",
		Column:      "id",
		NullCount:   true,
		ForeignKeys: true,
	})
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	if facts.RowCount != 3 {
		t.Errorf("RowCount = %d, want 3", facts.RowCount)
	}
	if len(facts.ReverseForeignKeys) != 1 || facts.ReverseForeignKeys[0].ReferencingTable != "orders" {
		t.Errorf("ReverseForeignKeys = %+v, want one ref from orders", facts.ReverseForeignKeys)
	}

	nulls, err := ins.NullCount(ctx, "users", "email")
	if err != nil || nulls != 1 {
		t.Errorf("NullCount(email) = %d, %v; want 1", nulls, err)
	}

	values, exhaustive, err := ins.SampleValues(ctx, "users", "age", 10)
	if err != nil {
		t.Fatalf("SampleValues() error = %v", err)
	}
	if len(values) != 2 || !exhaustive {
		t.Errorf("SampleValues = %v exhaustive=%v, want 2 exhaustive values", values, exhaustive)
	}
}
