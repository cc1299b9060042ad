// Package driver provides database driver abstraction for SQLite, MySQL and PostgreSQL.
//
// Statements are written once with "?" markers; each driver rebinds them to its
// own placeholder syntax and extracts inserted keys from its engine's native
// response shape.
package driver

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/iska-scrum/iska/internal/config"
	iskaerrors "github.com/iska-scrum/iska/internal/errors"
)

// Result is the outcome of a write statement.
type Result struct {
	InsertedID   int64
	RowsAffected int64
}

// Driver abstracts database operations for the supported engines.
type Driver interface {
	// Connection
	Open(dsn string) error
	Close() error

	// Statements, written with "?" placeholders
	Exec(ctx context.Context, query string, args ...any) (Result, error)
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) *sql.Row

	// Transactions
	BeginTx(ctx context.Context, opts *sql.TxOptions) (Tx, error)

	// Dialect-specific
	Dialect() config.Backend
	Placeholder(index int) string // $1 for Postgres, ? otherwise
	Rebind(query string) string
	Now() string // current timestamp expression

	// Raw access (for advanced operations)
	DB() *sql.DB
}

// Tx wraps database transactions with the same statement contract as Driver.
type Tx interface {
	Exec(ctx context.Context, query string, args ...any) (Result, error)
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) *sql.Row
	Commit() error
	Rollback() error
}

// New creates a driver for the given backend.
func New(backend config.Backend) (Driver, error) {
	switch backend {
	case config.BackendSQLite:
		return NewSQLite(), nil
	case config.BackendMySQL:
		return NewMySQL(), nil
	case config.BackendPostgreSQL:
		return NewPostgres(), nil
	default:
		return nil, iskaerrors.ErrUnsupportedBackend(string(backend))
	}
}

// runner is satisfied by *sql.DB and *sql.Tx.
type runner interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// execFunc runs an already-rebound write statement.
type execFunc func(ctx context.Context, r runner, query string, args ...any) (Result, error)

// execLastInsertID reads the inserted key from sql.Result (SQLite, MySQL).
func execLastInsertID(ctx context.Context, r runner, query string, args ...any) (Result, error) {
	res, err := r.ExecContext(ctx, query, args...)
	if err != nil {
		return Result{}, err
	}

	var out Result
	if isInsert(query) {
		id, err := res.LastInsertId()
		if err != nil {
			return Result{}, fmt.Errorf("read inserted id: %w", err)
		}
		out.InsertedID = id
	}
	out.RowsAffected, _ = res.RowsAffected()
	return out, nil
}

// execReturningID appends RETURNING id to inserts and scans the key (PostgreSQL).
func execReturningID(ctx context.Context, r runner, query string, args ...any) (Result, error) {
	if !isInsert(query) {
		res, err := r.ExecContext(ctx, query, args...)
		if err != nil {
			return Result{}, err
		}
		n, _ := res.RowsAffected()
		return Result{RowsAffected: n}, nil
	}

	if !strings.Contains(strings.ToUpper(query), "RETURNING") {
		query = strings.TrimRight(strings.TrimSpace(query), ";") + " RETURNING id"
	}

	var id int64
	if err := r.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return Result{}, err
	}
	return Result{InsertedID: id, RowsAffected: 1}, nil
}

func isInsert(query string) bool {
	q := strings.TrimSpace(query)
	return len(q) >= 6 && strings.EqualFold(q[:6], "INSERT")
}

// rebindDollar rewrites "?" markers to $1..$n, leaving quoted literals alone.
func rebindDollar(query string) string {
	if !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	var quote rune
	for _, r := range query {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case r == '?':
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// sqlTx wraps a sql.Tx to implement the Tx interface.
type sqlTx struct {
	tx     *sql.Tx
	rebind func(string) string
	exec   execFunc
}

func (t *sqlTx) Exec(ctx context.Context, query string, args ...any) (Result, error) {
	return t.exec(ctx, t.tx, t.rebind(query), args...)
}

func (t *sqlTx) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return t.tx.QueryContext(ctx, t.rebind(query), args...)
}

func (t *sqlTx) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return t.tx.QueryRowContext(ctx, t.rebind(query), args...)
}

func (t *sqlTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqlTx) Rollback() error {
	return t.tx.Rollback()
}

func identity(query string) string { return query }
