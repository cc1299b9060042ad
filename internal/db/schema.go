package db

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"strings"

	"github.com/iska-scrum/iska/internal/db/driver"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// tables lists every table in foreign-key dependency order.
var tables = []string{"users", "projects", "issues", "tasks", "subtasks", "time_entries"}

// Tables returns the provisioned table names in dependency order.
func Tables() []string {
	out := make([]string, len(tables))
	copy(out, tables)
	return out
}

// Provision creates any missing tables for the driver's dialect.
// Running it against an already provisioned database is a no-op.
func Provision(ctx context.Context, drv driver.Driver) error {
	name := "schema/" + string(drv.Dialect()) + ".sql"
	content, err := schemaFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read schema %s: %w", name, err)
	}

	stmts := splitStatements(string(content))
	for i, stmt := range stmts {
		if _, err := drv.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("provision %s statement %d: %w", drv.Dialect(), i+1, err)
		}
	}

	slog.Debug("schema provisioned", "backend", drv.Dialect(), "statements", len(stmts))
	return nil
}

// splitStatements splits a DDL file on ";" and drops comment lines.
func splitStatements(content string) []string {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		lines = append(lines, line)
	}

	var stmts []string
	for _, part := range strings.Split(strings.Join(lines, "\n"), ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}

// TableCount is the number of rows in one table.
type TableCount struct {
	Table string `json:"table" yaml:"table"`
	Rows  int64  `json:"rows" yaml:"rows"`
}

// RowCounts returns the row count of every table in dependency order.
func (s *Store) RowCounts(ctx context.Context) ([]TableCount, error) {
	out := make([]TableCount, 0, len(tables))
	for _, table := range tables {
		var n int64
		if err := s.driver.QueryRow(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		out = append(out, TableCount{Table: table, Rows: n})
	}
	return out, nil
}
