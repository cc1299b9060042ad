package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/natefinch/atomic"
	"github.com/tailscale/hujson"

	iskaerrors "github.com/iska-scrum/iska/internal/errors"
)

// filePerms keeps stored credentials private to the user.
const filePerms = 0o600

// Store loads and persists the configuration document and holds the active copy.
type Store struct {
	path string

	mu     sync.RWMutex
	active *Config
}

// NewStore creates a store for the document at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// NewDefaultStore creates a store at DefaultPath().
func NewDefaultStore() *Store {
	return NewStore(DefaultPath())
}

// Path returns the configuration file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the persisted configuration. When no file exists yet, the
// defaults are written and returned. The configuration directory is created
// if absent.
func (s *Store) Load() (*Config, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default()
			if err := s.Save(cfg); err != nil {
				return nil, err
			}
			slog.Info("wrote default configuration", "path", s.path, "type", cfg.Type)
			return cfg.Clone(), nil
		}
		return nil, iskaerrors.ErrConfigInvalid(s.path, "file is not readable").WithCause(err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, iskaerrors.ErrConfigInvalid(s.path, err.Error()).WithCause(err)
	}

	s.mu.Lock()
	s.active = cfg
	s.mu.Unlock()

	slog.Debug("loaded configuration", "path", s.path, "type", cfg.Type)
	return cfg.Clone(), nil
}

// Save overwrites the persisted document and makes cfg the active configuration.
func (s *Store) Save(cfg *Config) error {
	if cfg == nil {
		return iskaerrors.ErrConfigInvalid(s.path, "configuration is empty")
	}
	if _, err := cfg.Backend(); err != nil {
		return err
	}

	data, err := Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	// atomic.WriteFile doesn't set permissions for new files
	if err := os.Chmod(s.path, filePerms); err != nil {
		return fmt.Errorf("set config permissions: %w", err)
	}

	s.mu.Lock()
	s.active = cfg.Clone()
	s.mu.Unlock()

	return nil
}

// Get returns a copy of the active configuration, or nil before Load or Save.
func (s *Store) Get() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active.Clone()
}

// Parse decodes a configuration document. Comments and trailing commas are
// accepted. Blocks absent from the document keep their defaults.
func Parse(data []byte) (*Config, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(standardized, cfg); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	if cfg.Type == "" {
		cfg.Type = BackendSQLite
	}
	if cfg.SQLite.Path == "" {
		cfg.SQLite.Path = Default().SQLite.Path
	}

	return cfg, nil
}

// Marshal encodes cfg the way it is persisted on disk.
func Marshal(cfg *Config) ([]byte, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
