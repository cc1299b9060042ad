// Package db provides database persistence for iska.
//
// A single Store wraps the driver selected by configuration and exposes one
// repository surface per entity: users, projects, issues, tasks, subtasks and
// time entries. Statements are written once with "?" markers; the driver
// rebinds them for its engine.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iska-scrum/iska/internal/config"
	"github.com/iska-scrum/iska/internal/db/driver"
	iskaerrors "github.com/iska-scrum/iska/internal/errors"
)

// Store wraps a database connection with driver abstraction.
type Store struct {
	driver driver.Driver
}

// New wraps an already open driver.
func New(drv driver.Driver) *Store {
	return &Store{driver: drv}
}

// Open connects to the backend selected by cfg and provisions the schema.
func Open(ctx context.Context, cfg *config.Config) (*Store, error) {
	drv, err := driver.Connect(cfg)
	if err != nil {
		return nil, err
	}

	if err := Provision(ctx, drv); err != nil {
		_ = drv.Close()
		return nil, err
	}

	return New(drv), nil
}

// OpenInMemory opens a provisioned in-memory SQLite database.
// Each call creates a new isolated database.
func OpenInMemory(ctx context.Context) (*Store, error) {
	drv := driver.NewSQLite()
	if err := drv.Open(driver.MemoryPath); err != nil {
		return nil, err
	}

	if err := Provision(ctx, drv); err != nil {
		_ = drv.Close()
		return nil, err
	}

	return New(drv), nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.driver.Close()
}

// Driver returns the underlying driver for dialect-specific operations.
func (s *Store) Driver() driver.Driver {
	return s.driver
}

// Dialect returns the active backend.
func (s *Store) Dialect() config.Backend {
	return s.driver.Dialect()
}

// querier is the statement surface shared by Store and TxOps.
type querier interface {
	Exec(ctx context.Context, query string, args ...any) (driver.Result, error)
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) *sql.Row
}

// TxOps provides time entry operations within a transaction.
type TxOps struct {
	tx  driver.Tx
	now string
}

// RunInTx executes fn within a database transaction.
// If fn returns an error, the transaction is rolled back.
// If fn returns nil, the transaction is committed.
func (s *Store) RunInTx(ctx context.Context, fn func(tx *TxOps) error) error {
	tx, err := s.driver.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(&TxOps{tx: tx, now: s.driver.Now()}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %w (original error: %v)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// getOne runs a single-row query; a missing row yields nil, nil.
func getOne[T any](ctx context.Context, q querier, op string, scan func(scanner) (*T, error), query string, args ...any) (*T, error) {
	v, err := scan(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return v, nil
}

// list runs a multi-row query and scans every row.
func list[T any](ctx context.Context, q querier, op string, scan func(scanner) (*T, error), query string, args ...any) ([]T, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// expectRow turns a write that matched nothing into a not-found error.
func expectRow(res driver.Result, kind string, id int64) error {
	if res.RowsAffected == 0 {
		return iskaerrors.ErrNotFound(kind, id)
	}
	return nil
}
