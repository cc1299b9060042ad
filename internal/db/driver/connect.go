package driver

import (
	"context"
	"log/slog"
	"net"
	"net/url"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"golang.org/x/sync/errgroup"

	"github.com/iska-scrum/iska/internal/config"
	iskaerrors "github.com/iska-scrum/iska/internal/errors"
)

// ConnectionResult reports the outcome of a connection probe.
type ConnectionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// DSN builds the data source name for the active block of cfg.
func DSN(cfg *config.Config) (config.Backend, string, error) {
	backend, err := cfg.Backend()
	if err != nil {
		return "", "", err
	}

	switch backend {
	case config.BackendMySQL:
		return backend, MySQLDSN(cfg.MySQL), nil
	case config.BackendPostgreSQL:
		return backend, PostgresDSN(cfg.PostgreSQL), nil
	default:
		return backend, cfg.SQLite.Path, nil
	}
}

// MySQLDSN formats a go-sql-driver DSN. Timestamps are read back as text and
// RowsAffected counts matched rows, so an update that changes nothing still
// reports its row.
func MySQLDSN(s config.ServerConfig) string {
	c := mysql.NewConfig()
	c.User = s.User
	c.Passwd = s.Password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
	c.DBName = s.Database
	c.ParseTime = false
	c.ClientFoundRows = true
	return c.FormatDSN()
}

// PostgresDSN formats a postgres:// URL.
func PostgresDSN(s config.ServerConfig) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(s.User, s.Password),
		Host:     net.JoinHostPort(s.Host, strconv.Itoa(s.Port)),
		Path:     "/" + s.Database,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// Connect opens the backend selected by cfg. An unsupported backend fails
// fast; open and ping failures are returned as connectivity errors.
func Connect(cfg *config.Config) (Driver, error) {
	backend, dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}

	drv, err := New(backend)
	if err != nil {
		return nil, err
	}

	if err := drv.Open(dsn); err != nil {
		return nil, iskaerrors.ErrConnectFailed(string(backend), err)
	}

	slog.Debug("database connected", "backend", backend)
	return drv, nil
}

// TestConnection attempts a connect and immediate close. Failures are
// reported in the result, never returned as errors.
func TestConnection(cfg *config.Config) ConnectionResult {
	drv, err := Connect(cfg)
	if err != nil {
		return ConnectionResult{Success: false, Message: err.Error()}
	}
	if err := drv.Close(); err != nil {
		return ConnectionResult{Success: false, Message: err.Error()}
	}
	return ConnectionResult{Success: true, Message: "connection successful"}
}

// TestAll probes every backend block of cfg concurrently.
func TestAll(ctx context.Context, cfg *config.Config) map[config.Backend]ConnectionResult {
	results := make([]ConnectionResult, len(config.Backends))

	g, _ := errgroup.WithContext(ctx)
	for i, backend := range config.Backends {
		probe := cfg.Clone()
		probe.Type = backend
		g.Go(func() error {
			results[i] = TestConnection(probe)
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[config.Backend]ConnectionResult, len(results))
	for i, backend := range config.Backends {
		out[backend] = results[i]
	}
	return out
}
