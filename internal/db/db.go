package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/dori/staffsphere/internal/model"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// DB is the SQLite board store. It serves tasks, projects and employees
// to the REST server.
type DB struct {
	*sql.DB
}

// DefaultDataDir is $XDG_DATA_HOME/staffsphere, or ~/.local/share/staffsphere
func DefaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "staffsphere")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".staffsphere"
	}
	return filepath.Join(home, ".local", "share", "staffsphere")
}

// DefaultDBPath returns the default database file path
func DefaultDBPath() string {
	return filepath.Join(DefaultDataDir(), "staffsphere.db")
}

// Open opens the store at dbPath and brings its schema up to date.
// Foreign keys are enforced, so tasks cannot outlive their project.
func Open(ctx context.Context, dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON", dbPath)
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// one writer; list queries finish scanning before the next statement runs
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := &DB{DB: sqlDB}
	if err := store.migrate(ctx); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return store, nil
}

func (db *DB) migrate(ctx context.Context) error {
	// goose logs to stdout, which corrupts the terminal board
	goose.SetLogger(log.New(io.Discard, "", 0))
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db.DB, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// SchemaVersion reports the last applied migration
func (db *DB) SchemaVersion(ctx context.Context) (int64, error) {
	v, err := goose.GetDBVersionContext(ctx, db.DB)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return v, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

// Transaction runs fn in a transaction; an update reads and writes a card
// inside one so a concurrent delete cannot slip between them.
func (db *DB) Transaction(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

// nullable stores an empty assignee or description as NULL
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func dateValue(d *model.Date) any {
	if d == nil || d.IsZero() {
		return nil
	}
	return d.String()
}

func parseDate(s *string) (*model.Date, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	d, err := model.ParseDate(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// affectedOne turns a write that matched no card into model.ErrNotFound
func affectedOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}
