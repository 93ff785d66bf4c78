// Package config handles loading the staffsphere config.toml file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/dori/staffsphere/internal/db"
	"go.uber.org/multierr"
)

// Database drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config represents the config.toml file.
type Config struct {
	Server   Server   `toml:"server"`
	Database Database `toml:"database"`
	Client   Client   `toml:"client"`
	UI       UI       `toml:"ui"`
}

// Server configures `staffsphere serve`.
type Server struct {
	Addr string `toml:"addr"`
	// JWTSecret signs bearer tokens; empty disables authentication.
	JWTSecret      string   `toml:"jwt_secret"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// Database selects and locates the server's store.
type Database struct {
	Driver string `toml:"driver"`
	Path   string `toml:"path"`
	DSN    string `toml:"dsn"`
}

// Client configures the terminal board and the one-shot commands.
type Client struct {
	ServerURL string `toml:"server_url"`
	Token     string `toml:"token"`
	// ResyncInterval reloads the board periodically; zero turns it off.
	ResyncInterval  time.Duration `toml:"resync_interval"`
	Feed            bool          `toml:"feed"`
	BulkConcurrency int           `toml:"bulk_concurrency"`
}

// UI holds presentation settings.
type UI struct {
	Theme   string `toml:"theme"`
	LogFile string `toml:"log_file"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server: Server{Addr: ":8080"},
		Database: Database{
			Driver: DriverSQLite,
			Path:   db.DefaultDBPath(),
		},
		Client: Client{
			ServerURL:       "http://localhost:8080",
			Feed:            true,
			BulkConcurrency: 8,
		},
		UI: UI{Theme: "nord"},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/staffsphere/config.toml.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "staffsphere", "config.toml"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "staffsphere", "config.toml"), nil
}

// Load reads path (or DefaultPath when empty), applies STAFFSPHERE_*
// environment overrides and validates the result. A missing file is not an
// error.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	default:
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"STAFFSPHERE_ADDR":       &c.Server.Addr,
		"STAFFSPHERE_JWT_SECRET": &c.Server.JWTSecret,
		"STAFFSPHERE_DB_DRIVER":  &c.Database.Driver,
		"STAFFSPHERE_DB_PATH":    &c.Database.Path,
		"STAFFSPHERE_DB_DSN":     &c.Database.DSN,
		"STAFFSPHERE_SERVER_URL": &c.Client.ServerURL,
		"STAFFSPHERE_TOKEN":      &c.Client.Token,
		"STAFFSPHERE_THEME":      &c.UI.Theme,
		"STAFFSPHERE_LOG_FILE":   &c.UI.LogFile,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}

	if v, ok := lookup("STAFFSPHERE_ALLOWED_ORIGINS"); ok {
		c.Server.AllowedOrigins = splitList(v)
	}
	if v, ok := lookup("STAFFSPHERE_RESYNC_INTERVAL"); ok {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("STAFFSPHERE_RESYNC_INTERVAL: %w", err)
		}
		c.Client.ResyncInterval = d
	}
	if v, ok := lookup("STAFFSPHERE_FEED"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("STAFFSPHERE_FEED: %w", err)
		}
		c.Client.Feed = b
	}
	if v, ok := lookup("STAFFSPHERE_BULK_CONCURRENCY"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("STAFFSPHERE_BULK_CONCURRENCY: %w", err)
		}
		c.Client.BulkConcurrency = n
	}
	return nil
}

// Validate rejects values the commands cannot run with.
func (c *Config) Validate() error {
	var err error
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			err = multierr.Append(err, errors.New("database.path is required for sqlite"))
		}
	case DriverPostgres:
		if c.Database.DSN == "" {
			err = multierr.Append(err, errors.New("database.dsn is required for postgres"))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("database.driver %q must be %q or %q", c.Database.Driver, DriverSQLite, DriverPostgres))
	}
	if c.Server.Addr == "" {
		err = multierr.Append(err, errors.New("server.addr is required"))
	}
	if c.Client.ServerURL == "" {
		err = multierr.Append(err, errors.New("client.server_url is required"))
	}
	if c.Client.ResyncInterval < 0 {
		err = multierr.Append(err, errors.New("client.resync_interval must not be negative"))
	}
	if c.Client.ResyncInterval > 0 && c.Client.ResyncInterval < time.Second {
		err = multierr.Append(err, errors.New("client.resync_interval must be at least 1s"))
	}
	if c.Client.BulkConcurrency < 1 {
		err = multierr.Append(err, errors.New("client.bulk_concurrency must be at least 1"))
	}
	return err
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
