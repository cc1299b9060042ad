package driver

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver

	"github.com/iska-scrum/iska/internal/config"
)

// MySQLDriver implements the Driver interface for MySQL.
type MySQLDriver struct {
	db *sql.DB
}

// NewMySQL creates a new MySQL driver.
func NewMySQL() *MySQLDriver {
	return &MySQLDriver{}
}

// Open opens a MySQL connection pool and verifies it with a ping.
func (d *MySQLDriver) Open(dsn string) error {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("open mysql: %w", err)
	}

	// Server-side wait_timeout drops idle connections
	db.SetConnMaxLifetime(3 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping mysql: %w", err)
	}

	d.db = db
	return nil
}

// Close closes the database connection.
func (d *MySQLDriver) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

// Exec executes a write statement.
func (d *MySQLDriver) Exec(ctx context.Context, query string, args ...any) (Result, error) {
	return execLastInsertID(ctx, d.db, query, args...)
}

// Query executes a query that returns rows.
func (d *MySQLDriver) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.db.QueryContext(ctx, query, args...)
}

// QueryRow executes a query that returns at most one row.
func (d *MySQLDriver) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return d.db.QueryRowContext(ctx, query, args...)
}

// BeginTx starts a transaction.
func (d *MySQLDriver) BeginTx(ctx context.Context, opts *sql.TxOptions) (Tx, error) {
	tx, err := d.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &sqlTx{tx: tx, rebind: identity, exec: execLastInsertID}, nil
}

// Dialect returns the MySQL backend identifier.
func (d *MySQLDriver) Dialect() config.Backend {
	return config.BackendMySQL
}

// Placeholder returns the MySQL placeholder (always ?).
func (d *MySQLDriver) Placeholder(index int) string {
	return "?"
}

// Rebind returns the query unchanged.
func (d *MySQLDriver) Rebind(query string) string {
	return query
}

// Now returns the MySQL NOW() function.
func (d *MySQLDriver) Now() string {
	return "NOW()"
}

// DB returns the underlying sql.DB for advanced operations.
func (d *MySQLDriver) DB() *sql.DB {
	return d.db
}
