// Package config provides the persisted backend configuration for iska.
package config

import (
	"os"
	"path/filepath"
	"strings"

	iskaerrors "github.com/iska-scrum/iska/internal/errors"
)

const (
	// DirName is the per-user iska directory under $HOME.
	DirName = ".iska-scrum"
	// FileName is the configuration file name.
	FileName = "config.json"
	// DatabaseFileName is the default SQLite database file name.
	DatabaseFileName = "scrum.db"
	// EnvConfigPath overrides the configuration file location.
	EnvConfigPath = "ISKA_CONFIG"
)

// Backend identifies the relational engine backing the store.
type Backend string

const (
	BackendSQLite     Backend = "sqlite"
	BackendMySQL      Backend = "mysql"
	BackendPostgreSQL Backend = "postgresql"
)

// Backends lists every supported backend.
var Backends = []Backend{BackendSQLite, BackendMySQL, BackendPostgreSQL}

// ParseBackend parses a backend identifier.
// Unknown identifiers are a configuration error.
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sqlite", "sqlite3":
		return BackendSQLite, nil
	case "mysql":
		return BackendMySQL, nil
	case "postgresql", "postgres", "pg":
		return BackendPostgreSQL, nil
	default:
		return "", iskaerrors.ErrUnsupportedBackend(s)
	}
}

// SQLiteConfig defines the embedded engine settings.
type SQLiteConfig struct {
	Path string `json:"path"`
}

// ServerConfig defines connection settings for a networked engine.
type ServerConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
}

// Config is the persisted configuration document.
// Only the block matching Type is consulted at connect time; the others are
// kept so switching backends does not lose entered settings.
type Config struct {
	Type       Backend      `json:"type"`
	SQLite     SQLiteConfig `json:"sqlite"`
	MySQL      ServerConfig `json:"mysql"`
	PostgreSQL ServerConfig `json:"postgresql"`
}

// Dir returns the per-user iska directory.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DirName
	}
	return filepath.Join(home, DirName)
}

// DefaultPath returns the configuration file location, honoring ISKA_CONFIG.
func DefaultPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return filepath.Join(Dir(), FileName)
}

// Default returns the first-run configuration: embedded SQLite, with
// placeholder blocks for the two networked engines.
func Default() *Config {
	return &Config{
		Type: BackendSQLite,
		SQLite: SQLiteConfig{
			Path: filepath.Join(Dir(), DatabaseFileName),
		},
		MySQL: ServerConfig{
			Host:     "localhost",
			Port:     3306,
			User:     "root",
			Database: "iska_scrum",
		},
		PostgreSQL: ServerConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Database: "iska_scrum",
		},
	}
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

// Backend parses and returns the active backend.
func (c *Config) Backend() (Backend, error) {
	return ParseBackend(string(c.Type))
}

// Server returns the networked block for b, or nil for SQLite.
func (c *Config) Server(b Backend) *ServerConfig {
	switch b {
	case BackendMySQL:
		return &c.MySQL
	case BackendPostgreSQL:
		return &c.PostgreSQL
	default:
		return nil
	}
}
