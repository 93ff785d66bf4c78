package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dori/staffsphere/internal/config"
	"github.com/dori/staffsphere/internal/db"
	"github.com/dori/staffsphere/internal/pgstore"
	"github.com/dori/staffsphere/internal/server"
	"github.com/gofrs/flock"
	"go.uber.org/multierr"
)

var (
	_ server.Store = (*db.DB)(nil)
	_ server.Store = (*pgstore.Store)(nil)
)

// App holds the server's store and the resources behind it
type App struct {
	Store    server.Store
	Driver   string
	DataDir  string
	closer   func() error
	lockFile *flock.Flock
}

// New opens the store cfg selects. A SQLite store is locked to this
// process for as long as the App is open.
func New(ctx context.Context, cfg config.Database) (*App, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := pgstore.Connect(ctx, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		store := pgstore.New(pool)
		if err := store.EnsureTables(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to create tables: %w", err)
		}
		return &App{Store: store, Driver: cfg.Driver, closer: store.Close}, nil

	case config.DriverSQLite, "":
		app := &App{Driver: config.DriverSQLite, DataDir: filepath.Dir(cfg.Path)}
		if err := os.MkdirAll(app.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		if err := app.acquireLock(); err != nil {
			return nil, err
		}
		database, err := db.Open(ctx, cfg.Path)
		if err != nil {
			app.releaseLock()
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		app.Store = database
		app.closer = database.Close
		return app, nil

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// acquireLock acquires an exclusive file lock to prevent multiple servers
// from sharing the database file
func (a *App) acquireLock() error {
	lockPath := filepath.Join(a.DataDir, "staffsphere.lock")
	a.lockFile = flock.New(lockPath)

	locked, err := a.lockFile.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}

	if !locked {
		return fmt.Errorf("another staffsphere server is already using %s", a.DataDir)
	}

	return nil
}

// releaseLock releases the file lock
func (a *App) releaseLock() {
	if a.lockFile != nil {
		a.lockFile.Unlock()
	}
}

// Close cleans up application resources
func (a *App) Close() error {
	var err error
	if a.closer != nil {
		if cerr := a.closer(); cerr != nil {
			err = multierr.Append(err, fmt.Errorf("failed to close database: %w", cerr))
		}
	}
	a.releaseLock()
	return err
}
