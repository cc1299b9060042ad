package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	iskaerrors "github.com/iska-scrum/iska/internal/errors"
)

func clearEnvOverrides(t *testing.T) {
	t.Helper()
	for envVar := range EnvVarMapping {
		t.Setenv(envVar, "")
	}
}

func TestLoadTracked_Sources(t *testing.T) {
	clearEnvOverrides(t)
	path := filepath.Join(t.TempDir(), FileName)
	doc := `{
  // only a couple of keys are set
  "type": "mysql",
  "mysql": {"host": "db.internal"},
}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	tc, err := NewStore(path).LoadTracked()
	require.NoError(t, err)

	assert.Equal(t, BackendMySQL, tc.Config.Type)
	assert.Equal(t, "db.internal", tc.Config.MySQL.Host)
	assert.Equal(t, 3306, tc.Config.MySQL.Port, "absent keys keep defaults")

	assert.Equal(t, SourceFile, tc.GetSource("type"))
	assert.Equal(t, SourceFile, tc.GetSource("mysql.host"))
	assert.Equal(t, SourceDefault, tc.GetSource("mysql.port"))
	assert.Equal(t, SourceDefault, tc.GetSource("postgresql.host"))
}

func TestLoadTracked_EnvOverrides(t *testing.T) {
	clearEnvOverrides(t)
	path := filepath.Join(t.TempDir(), FileName)
	store := NewStore(path)
	require.NoError(t, store.Save(Default()))

	t.Setenv("ISKA_DB_TYPE", "postgres")
	t.Setenv("ISKA_POSTGRESQL_PORT", "6543")

	tc, err := store.LoadTracked()
	require.NoError(t, err)

	assert.Equal(t, BackendPostgreSQL, tc.Config.Type)
	assert.Equal(t, 6543, tc.Config.PostgreSQL.Port)
	assert.Equal(t, SourceEnv, tc.GetSource("type"))
	assert.Equal(t, SourceEnv, tc.GetSource("postgresql.port"))

	persisted, err := NewStore(path).Load()
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, persisted.Type, "overrides are not written back")
}

func TestApplyEnvVars_Invalid(t *testing.T) {
	clearEnvOverrides(t)

	t.Setenv("ISKA_DB_TYPE", "oracle")
	_, err := ApplyEnvVars(&TrackedConfig{Config: Default(), Sources: map[string]Source{}})
	require.Error(t, err)
	assert.True(t, iskaerrors.HasCode(err, iskaerrors.CodeConfigUnsupportedBackend))

	t.Setenv("ISKA_DB_TYPE", "")
	t.Setenv("ISKA_MYSQL_PORT", "not-a-port")
	_, err = ApplyEnvVars(&TrackedConfig{Config: Default(), Sources: map[string]Source{}})
	assert.ErrorContains(t, err, "ISKA_MYSQL_PORT")
}

func TestApplyEnvVars_ReturnsSortedKeys(t *testing.T) {
	clearEnvOverrides(t)
	t.Setenv("ISKA_SQLITE_PATH", "/tmp/x.db")
	t.Setenv("ISKA_MYSQL_USER", "app")

	got, err := ApplyEnvVars(&TrackedConfig{Config: Default(), Sources: map[string]Source{}})
	require.NoError(t, err)
	assert.Equal(t, []string{"mysql.user", "sqlite.path"}, got)
}

func TestEnvVarMapping_KeysResolvable(t *testing.T) {
	cfg := Default()
	for envVar, key := range EnvVarMapping {
		_, err := cfg.GetValue(key)
		assert.NoError(t, err, "%s maps to unknown key %s", envVar, key)
	}
	assert.Len(t, EnvVarMapping, len(Keys))
}
