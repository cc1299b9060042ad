// Package app wires configuration, storage and time tracking into the single
// per-process context the command surfaces call through.
package app

import (
	"context"
	"log/slog"
	"sync"

	"github.com/iska-scrum/iska/internal/config"
	"github.com/iska-scrum/iska/internal/db"
	"github.com/iska-scrum/iska/internal/timetrack"
)

// App holds the active configuration and the shared store connection.
// Create one with Open at startup and release it with Close at shutdown.
type App struct {
	Config *config.Store
	// Effective is the configuration in use, environment overrides included.
	Effective *config.TrackedConfig
	Store     *db.Store
	Timer  *timetrack.Tracker

	closeOnce sync.Once
	closeErr  error
}

// Open loads the configuration at cfgPath (the default location when empty),
// applies environment overrides, connects to the configured backend and
// provisions the schema.
func Open(ctx context.Context, cfgPath string, opts ...timetrack.Option) (*App, error) {
	cfgStore := config.NewDefaultStore()
	if cfgPath != "" {
		cfgStore = config.NewStore(cfgPath)
	}

	tracked, err := cfgStore.LoadTracked()
	if err != nil {
		return nil, err
	}

	store, err := db.Open(ctx, tracked.Config)
	if err != nil {
		return nil, err
	}

	slog.Debug("app opened", "config", cfgStore.Path(), "backend", store.Dialect())
	a := New(cfgStore, store, opts...)
	a.Effective = tracked
	return a, nil
}

// New assembles an App from an already loaded config store and open store.
func New(cfgStore *config.Store, store *db.Store, opts ...timetrack.Option) *App {
	return &App{
		Config: cfgStore,
		Store:  store,
		Timer:  timetrack.New(store, opts...),
	}
}

// Close closes the shared connection. Subsequent calls return the first result.
func (a *App) Close() error {
	a.closeOnce.Do(func() {
		a.closeErr = a.Store.Close()
	})
	return a.closeErr
}
