// Package store implements core.Store on Postgres (pgx) and SQLite (modernc).
package store

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/JonMunkholm/rollcall/internal/config"
	"github.com/JonMunkholm/rollcall/internal/core"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Open connects to the store selected by cfg.Driver, verifies the
// connection and, when cfg.Migrate is set, creates the schema.
func Open(ctx context.Context, cfg config.DatabaseConfig) (core.Store, error) {
	var (
		s   core.Store
		err error
	)
	switch cfg.Driver {
	case DriverPostgres, "":
		s, err = NewPostgres(ctx, cfg)
	case DriverSQLite:
		s, err = NewSQLite(ctx, cfg.URL, cfg.Migrate)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := s.Ping(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}

	slog.Info("connected to database", "driver", cfg.Driver, "name", databaseName(cfg))
	return s, nil
}

// databaseName extracts a loggable name without credentials.
func databaseName(cfg config.DatabaseConfig) string {
	if cfg.Driver == DriverSQLite {
		return strings.TrimPrefix(strings.SplitN(cfg.URL, "?", 2)[0], "file:")
	}
	if u, err := url.Parse(cfg.URL); err == nil {
		return strings.TrimPrefix(u.Path, "/")
	}
	return ""
}
