package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iska-scrum/iska/internal/config"
	"github.com/iska-scrum/iska/internal/db"
	iskaerrors "github.com/iska-scrum/iska/internal/errors"
)

func TestOpen_FirstRunWritesDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(config.EnvConfigPath, "")

	a, err := Open(context.Background(), "")
	require.NoError(t, err)
	defer a.Close()

	_, err = os.Stat(filepath.Join(home, config.DirName, config.FileName))
	assert.NoError(t, err, "default config should be written")
	_, err = os.Stat(filepath.Join(home, config.DirName, config.DatabaseFileName))
	assert.NoError(t, err, "default sqlite database should be created")
	assert.Equal(t, config.BackendSQLite, a.Store.Dialect())
}

func TestOpen_ExplicitPath(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.json")

	cfg := config.Default()
	cfg.SQLite.Path = filepath.Join(dir, "data", "scrum.db")
	require.NoError(t, config.NewStore(cfgPath).Save(cfg))

	ctx := context.Background()
	a, err := Open(ctx, cfgPath)
	require.NoError(t, err)

	p, err := a.Store.CreateProject(ctx, db.ProjectInput{Name: "Sprint 1"})
	require.NoError(t, err)
	assert.Equal(t, cfgPath, a.Config.Path())
	assert.Equal(t, cfg.SQLite.Path, a.Config.Get().SQLite.Path)
	require.NoError(t, a.Close())
	require.NoError(t, a.Close(), "close is idempotent")

	reopened, err := Open(ctx, cfgPath)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Store.GetProject(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Sprint 1", got.Name)
}

func TestOpen_CorruptConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte("{not json"), 0o600))

	_, err := Open(context.Background(), cfgPath)
	require.Error(t, err)
	assert.True(t, iskaerrors.HasCode(err, iskaerrors.CodeConfigInvalid))
}

func TestOpen_UnsupportedBackend(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"type":"oracle"}`), 0o600))

	_, err := Open(context.Background(), cfgPath)
	require.Error(t, err)
	assert.True(t, iskaerrors.HasCode(err, iskaerrors.CodeConfigUnsupportedBackend))
}

func TestOpen_UnreachableServer(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.json")
	cfg := config.Default()
	cfg.Type = config.BackendPostgreSQL
	cfg.PostgreSQL.Host = "127.0.0.1"
	cfg.PostgreSQL.Port = 1
	require.NoError(t, config.NewStore(cfgPath).Save(cfg))

	_, err := Open(context.Background(), cfgPath)
	require.Error(t, err)
	assert.True(t, iskaerrors.HasCode(err, iskaerrors.CodeConnectFailed))
}

func TestOpen_EnvOverridesDatabasePath(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.json")
	require.NoError(t, config.NewStore(cfgPath).Save(config.Default()))

	dbPath := filepath.Join(dir, "override.db")
	t.Setenv("ISKA_SQLITE_PATH", dbPath)

	a, err := Open(context.Background(), cfgPath)
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, config.SourceEnv, a.Effective.GetSource("sqlite.path"))
	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
}
