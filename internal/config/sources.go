package config

import (
	"fmt"
	"os"
	"sort"

	"github.com/tailscale/hujson"
	"github.com/tidwall/gjson"
)

// Source indicates where an effective configuration value came from.
type Source string

const (
	// SourceDefault indicates a built-in default value.
	SourceDefault Source = "default"
	// SourceFile indicates a value present in the configuration file.
	SourceFile Source = "file"
	// SourceEnv indicates an environment variable override.
	SourceEnv Source = "env"
)

// EnvVarMapping maps environment variables to the config keys they override.
// Overrides apply to the effective configuration only and are never saved.
var EnvVarMapping = map[string]string{
	"ISKA_DB_TYPE":             "type",
	"ISKA_SQLITE_PATH":         "sqlite.path",
	"ISKA_MYSQL_HOST":          "mysql.host",
	"ISKA_MYSQL_PORT":          "mysql.port",
	"ISKA_MYSQL_USER":          "mysql.user",
	"ISKA_MYSQL_PASSWORD":      "mysql.password",
	"ISKA_MYSQL_DATABASE":      "mysql.database",
	"ISKA_POSTGRESQL_HOST":     "postgresql.host",
	"ISKA_POSTGRESQL_PORT":     "postgresql.port",
	"ISKA_POSTGRESQL_USER":     "postgresql.user",
	"ISKA_POSTGRESQL_PASSWORD": "postgresql.password",
	"ISKA_POSTGRESQL_DATABASE": "postgresql.database",
}

// TrackedConfig wraps a Config with per-key source tracking.
type TrackedConfig struct {
	Config  *Config
	Sources map[string]Source
}

// GetSource returns the source for a config key.
// Returns SourceDefault if no source is recorded.
func (tc *TrackedConfig) GetSource(key string) Source {
	if source, ok := tc.Sources[key]; ok {
		return source
	}
	return SourceDefault
}

// LoadTracked loads the persisted configuration, records which keys the file
// sets and applies environment overrides on top.
func (s *Store) LoadTracked() (*TrackedConfig, error) {
	cfg, err := s.Load()
	if err != nil {
		return nil, err
	}

	tc := &TrackedConfig{Config: cfg, Sources: make(map[string]Source)}
	if data, err := os.ReadFile(s.path); err == nil {
		if standardized, err := hujson.Standardize(data); err == nil {
			for _, key := range Keys {
				if gjson.GetBytes(standardized, key).Exists() {
					tc.Sources[key] = SourceFile
				}
			}
		}
	}

	if _, err := ApplyEnvVars(tc); err != nil {
		return nil, err
	}
	return tc, nil
}

// ApplyEnvVars applies environment variable overrides to tc.
// Returns the overridden keys in sorted order.
func ApplyEnvVars(tc *TrackedConfig) ([]string, error) {
	var overridden []string

	for envVar, key := range EnvVarMapping {
		value := os.Getenv(envVar)
		if value == "" {
			continue
		}

		if err := tc.Config.SetValue(key, value); err != nil {
			return nil, fmt.Errorf("%s: %w", envVar, err)
		}
		tc.Sources[key] = SourceEnv
		overridden = append(overridden, key)
	}

	sort.Strings(overridden)
	return overridden, nil
}
