// Package executor runs DDL batches inside a single transaction after
// checking every statement against an allow/deny policy.
package executor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lockplane/schemaguard/diagnostic"
	"github.com/lockplane/schemaguard/internal/authz"
	"github.com/lockplane/schemaguard/internal/database"
	"github.com/lockplane/schemaguard/internal/locks"
)

// TxBeginner is satisfied by *sql.DB and *sql.Conn.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

type Options struct {
	Policy  *Policy
	Dialect database.DatabaseType
	// ParseCheck runs the PostgreSQL parser over each statement during
	// validation. Ignored for SQLite dialects.
	ParseCheck bool
	// LockTimeout, when positive, is applied with SET LOCAL at the start of
	// Postgres transactions.
	LockTimeout time.Duration
	// OnStatement is called after each statement succeeds, before commit.
	OnStatement func(index int, stmt string)
	Logger      *slog.Logger
}

// Result describes one batch. Applied counts committed statements, so it is
// zero whenever the batch was rolled back.
type Result struct {
	Statements  []string                `json:"statements"`
	Executed    bool                    `json:"executed"`
	Applied     int                     `json:"applied"`
	FailedAt    *int                    `json:"failed_at,omitempty"`
	Message     string                  `json:"message,omitempty"`
	Duration    time.Duration           `json:"duration_ns,omitempty"`
	Diagnostics []diagnostic.Diagnostic `json:"diagnostics,omitempty"`
}

type Executor struct {
	db     TxBeginner
	opts   Options
	logger *slog.Logger
}

// New returns an executor for db. A nil Policy uses DefaultPolicy and an
// empty Dialect means Postgres. db may be nil for an executor that only
// validates.
func New(db TxBeginner, opts Options) *Executor {
	if opts.Policy == nil {
		opts.Policy = DefaultPolicy()
	}
	if opts.Dialect == "" {
		opts.Dialect = database.DatabaseTypePostgres
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{db: db, opts: opts, logger: logger}
}

// Validate strips comments, splits the batch and checks each statement. It
// returns the prepared statements and a *DisallowedStatementError if any
// statement is rejected.
func (e *Executor) Validate(statements []string) ([]string, error) {
	stmts, _, err := e.validate(statements)
	return stmts, err
}

// validate also returns every diagnostic, including lock warnings on
// statements that pass.
func (e *Executor) validate(statements []string) ([]string, []diagnostic.Diagnostic, error) {
	stmts := Prepare(e.opts.Dialect, statements)
	if len(stmts) == 0 {
		return nil, nil, ErrEmptyBatch
	}

	sqlite := e.opts.Dialect.IsSQLite()
	c := diagnostic.NewCollector()
	for i, stmt := range stmts {
		if err := e.opts.Policy.Check(stmt); err != nil {
			code := "not_allowed"
			if errors.Is(err, ErrDenied) {
				code = "denied_statement"
			}
			c.AddError(i, stmt, code, err.Error())
			continue
		}
		// the driver would run every statement in the text, so one that
		// still holds a terminator cannot be checked by its leading keyword
		if sqlite {
			if unquotedSemicolon(stmt) {
				c.AddError(i, stmt, "statement_count", "expected exactly one statement")
				continue
			}
		} else if !c.CheckSingleStatement(i, stmt) {
			continue
		}
		if e.opts.ParseCheck && !sqlite && !c.CheckSyntax(i, stmt) {
			continue
		}
		if !sqlite {
			if impact := locks.Analyze(stmt); impact.LockMode == locks.LockAccessExclusive {
				c.AddWarning(i, stmt, "access_exclusive_lock", impact.Explanation)
			}
		}
	}
	e.logger.Debug("validated batch", "statements", len(stmts), "diagnostics", c.Count())

	if c.HasErrors() {
		errs := c.Errors()
		first := errs[0]
		return stmts, c.All(), &DisallowedStatementError{
			Index:       first.Statement,
			Statement:   stmts[first.Statement],
			Reason:      first.Message,
			Diagnostics: errs,
		}
	}
	return stmts, c.All(), nil
}

// DryRun validates the batch without touching the database.
func (e *Executor) DryRun(statements []string) (*Result, error) {
	stmts, diags, err := e.validate(statements)
	result := &Result{Statements: stmts, Executed: false, Diagnostics: diags}
	var disallowed *DisallowedStatementError
	if errors.As(err, &disallowed) {
		result.Message = disallowed.Error()
	}
	return result, err
}

// Execute validates the batch and runs it in one transaction. On failure the
// transaction is rolled back and the result reports the failing index.
// Cancellation is checked between statements.
func (e *Executor) Execute(ctx context.Context, tok authz.Token, statements []string) (*Result, error) {
	if err := authz.RequireAlterSchema(tok); err != nil {
		return nil, err
	}

	stmts, diags, err := e.validate(statements)
	result := &Result{Statements: stmts, Diagnostics: diags}
	if err != nil {
		var disallowed *DisallowedStatementError
		if errors.As(err, &disallowed) {
			result.Message = disallowed.Error()
		}
		return result, err
	}
	if e.db == nil {
		return result, errors.New("executor has no database connection")
	}

	start := time.Now()
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("failed to begin transaction: %w", err)
	}
	result.Executed = true

	rollback := func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			e.logger.Error("rollback failed", "error", err)
		}
	}

	if e.opts.LockTimeout > 0 && !e.opts.Dialect.IsSQLite() {
		if _, err := tx.ExecContext(ctx, locks.LockTimeoutStatement(e.opts.LockTimeout)); err != nil {
			rollback()
			return result, fmt.Errorf("failed to set lock timeout: %w", err)
		}
	}

	for i, stmt := range stmts {
		if err := ctx.Err(); err != nil {
			rollback()
			result.Message = fmt.Sprintf("cancelled before statement #%d", i+1)
			e.logger.Warn("batch cancelled", "before_statement", i+1, "error", err)
			return result, err
		}

		e.logger.Debug("executing statement", "index", i+1, "lock", locks.DetectLockMode(stmt).String())
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			rollback()
			idx := i
			result.FailedAt = &idx
			result.Message = database.ErrorMessage(err)
			result.Duration = time.Since(start)
			e.logger.Error("statement failed, batch rolled back", "index", i+1, "error", err)
			return result, &ExecutionFailedError{
				Index:     i,
				Statement: stmt,
				SQLState:  database.SQLState(err),
				Err:       err,
			}
		}
		if e.opts.OnStatement != nil {
			e.opts.OnStatement(i, stmt)
		}
	}

	if err := tx.Commit(); err != nil {
		result.Message = err.Error()
		return result, fmt.Errorf("failed to commit transaction: %w", err)
	}

	result.Applied = len(stmts)
	result.Duration = time.Since(start)
	e.logger.Info("batch applied", "statements", len(stmts), "duration", result.Duration)
	return result, nil
}
