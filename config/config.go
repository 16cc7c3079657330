// Package config loads the TOML configuration file and applies environment
// overrides on top of it.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"go-mod.ewintr.nl/fluxreader/domain"
	"go-mod.ewintr.nl/fluxreader/storage"
)

var ErrInvalidConfiguration = errors.New("invalid configuration")

type Config struct {
	Server        Server        `toml:"server"`
	Database      Database      `toml:"database"`
	Entries       Entries       `toml:"entries"`
	Notifications Notifications `toml:"notifications"`
	Log           Log           `toml:"log"`
	Watch         Watch         `toml:"watch"`
}

// Server holds login defaults. Stored credentials take precedence once a
// login succeeded.
type Server struct {
	URL   string `toml:"url"`
	Token string `toml:"token"`
}

type Database struct {
	Driver   string `toml:"driver"`
	Path     string `toml:"path"`
	Hostname string `toml:"hostname"`
	Port     string `toml:"port"`
	DBName   string `toml:"db_name"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

type Entries struct {
	Limit     int    `toml:"limit"`
	Order     string `toml:"order"`
	Direction string `toml:"direction"`
	Status    string `toml:"status"`
}

type Notifications struct {
	// zero keeps notifications until dismissed
	Timeout Duration `toml:"timeout"`
}

type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	File   string `toml:"file"`
}

type Watch struct {
	Interval    Duration `toml:"interval"`
	MetricsAddr string   `toml:"metrics_addr"`
}

// Duration reads values like "10m" from TOML strings.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "fluxreader", "config.toml")
}

func defaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "fluxreader", "fluxreader.db")
}

func Default() Config {
	filter := domain.DefaultFilter()
	return Config{
		Database: Database{
			Driver: storage.DriverSQLite,
			Path:   defaultDBPath(),
			Port:   "5432",
		},
		Entries: Entries{
			Limit:     filter.Limit,
			Order:     filter.Order,
			Direction: filter.Direction,
			Status:    string(filter.Status),
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
		Watch: Watch{
			Interval: Duration{10 * time.Minute},
		},
	}
}

// Load reads the file at path on top of the defaults. A missing file is not
// an error. Environment variables override the file.
func Load(path string) (Config, error) {
	conf := Default()
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &conf); err != nil {
			return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}

	conf.applyEnv(os.LookupEnv)
	if err := conf.Validate(); err != nil {
		return Config{}, err
	}

	return conf, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup("MINIFLUX_HOSTNAME"); ok {
		c.Server.URL = v
	}
	if v, ok := lookup("MINIFLUX_API_KEY"); ok {
		c.Server.Token = v
	}
	if v, ok := lookup("FLUXREADER_DB_PATH"); ok {
		c.Database.Path = v
	}
}

func (c Config) Validate() error {
	switch c.Database.Driver {
	case storage.DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("%w: database path is empty", ErrInvalidConfiguration)
		}
	case storage.DriverPostgres:
		if c.Database.Hostname == "" || c.Database.DBName == "" {
			return fmt.Errorf("%w: postgres needs hostname and db_name", ErrInvalidConfiguration)
		}
	default:
		return fmt.Errorf("%w: unknown database driver %q", ErrInvalidConfiguration, c.Database.Driver)
	}
	if c.Entries.Limit <= 0 {
		return fmt.Errorf("%w: entries limit must be positive", ErrInvalidConfiguration)
	}
	switch domain.EntryStatus(c.Entries.Status) {
	case "", domain.StatusUnread, domain.StatusRead, domain.StatusRemoved:
	default:
		return fmt.Errorf("%w: unknown entry status %q", ErrInvalidConfiguration, c.Entries.Status)
	}
	if c.Watch.Interval.Duration <= 0 {
		return fmt.Errorf("%w: watch interval must be positive", ErrInvalidConfiguration)
	}
	if _, err := c.Log.level(); err != nil {
		return err
	}

	return nil
}

func (c Config) StorageConfig() *storage.Config {
	return &storage.Config{
		Driver:     c.Database.Driver,
		Path:       c.Database.Path,
		PGHostname: c.Database.Hostname,
		PGPort:     c.Database.Port,
		PGDBName:   c.Database.DBName,
		PGUser:     c.Database.User,
		PGPassword: c.Database.Password,
	}
}

// EntryFilter is the default filter of the entry store.
func (c Config) EntryFilter() domain.EntryFilter {
	filter := domain.DefaultFilter()
	filter.Limit = c.Entries.Limit
	if c.Entries.Order != "" {
		filter.Order = c.Entries.Order
	}
	if c.Entries.Direction != "" {
		filter.Direction = c.Entries.Direction
	}
	filter.Status = domain.EntryStatus(c.Entries.Status)

	return filter
}

func (l Log) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("%w: log level %q", ErrInvalidConfiguration, l.Level)
	}
	return level, nil
}

// Logger builds the logger described by the log section, writing to w.
func (l Log) Logger(w io.Writer) *slog.Logger {
	level, err := l.level()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(l.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}

	return slog.New(slog.NewTextHandler(w, opts))
}
