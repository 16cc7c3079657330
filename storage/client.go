package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

var (
	ErrInvalidConfiguration     = errors.New("invalid configuration")
	ErrDatabaseFailure          = errors.New("database returned an error")
	ErrNotEnoughSQLMigrations   = errors.New("already more migrations than wanted")
	ErrIncompatibleSQLMigration = errors.New("incompatible migration")
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Driver string

	// sqlite
	Path string

	// postgres
	PGHostname string
	PGPort     string
	PGDBName   string
	PGUser     string
	PGPassword string
}

type Client struct {
	db     *sql.DB
	driver string
}

func NewClient(cfg *Config) (*Client, error) {
	var db *sql.DB
	var err error
	switch cfg.Driver {
	case DriverSQLite, "":
		if cfg.Path == "" {
			return nil, fmt.Errorf("%w: no database path", ErrInvalidConfiguration)
		}
		db, err = sql.Open("sqlite", cfg.Path+"?_time_format=sqlite")
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
		}
		// one writer, or concurrent status recordings run into SQLITE_BUSY
		db.SetMaxOpenConns(1)
		cfg.Driver = DriverSQLite
	case DriverPostgres:
		connStr := fmt.Sprintf("host=%s port=%s dbname=%s user=%s password=%s sslmode=disable",
			cfg.PGHostname, cfg.PGPort, cfg.PGDBName,
			cfg.PGUser, cfg.PGPassword)
		db, err = sql.Open("postgres", connStr)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
		}
	default:
		return nil, fmt.Errorf("%w: unknown driver %q", ErrInvalidConfiguration, cfg.Driver)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}

	c := &Client{db: db, driver: cfg.Driver}

	if err := c.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return c, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) DB() *sql.DB {
	return c.db
}

func (c *Client) Driver() string {
	return c.driver
}

// rebind rewrites ? placeholders to $n for postgres.
func (c *Client) rebind(query string) string {
	if c.driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}

	return b.String()
}

func (c *Client) migrate() error {
	createTable := `CREATE TABLE IF NOT EXISTS migration
		(id INTEGER PRIMARY KEY AUTOINCREMENT, query TEXT)`
	if c.driver == DriverPostgres {
		createTable = `CREATE TABLE IF NOT EXISTS migration
		(id SERIAL PRIMARY KEY, query TEXT)`
	}
	if _, err := c.db.Exec(createTable); err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseFailure, err)
	}

	rows, err := c.db.Query(`SELECT query FROM migration ORDER BY id`)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseFailure, err)
	}
	defer rows.Close()

	var existing []string
	for rows.Next() {
		var query string
		if err := rows.Scan(&query); err != nil {
			return fmt.Errorf("%w: %v", ErrDatabaseFailure, err)
		}
		existing = append(existing, query)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseFailure, err)
	}
	rows.Close()

	missing, err := compareMigrations(migrations, existing)
	if err != nil {
		return err
	}

	for _, query := range missing {
		if _, err := c.db.Exec(query); err != nil {
			return fmt.Errorf("%w: %v", ErrDatabaseFailure, err)
		}
		if _, err := c.db.Exec(c.rebind(`INSERT INTO migration (query) VALUES (?)`), query); err != nil {
			return fmt.Errorf("%w: %v", ErrDatabaseFailure, err)
		}
	}

	return nil
}

func compareMigrations(wanted, existing []string) ([]string, error) {
	var needed []string
	if len(wanted) < len(existing) {
		return nil, ErrNotEnoughSQLMigrations
	}

	for i, want := range wanted {
		switch {
		case i >= len(existing):
			needed = append(needed, want)
		case want == existing[i]:
			// do nothing
		case want != existing[i]:
			return nil, fmt.Errorf("%w: %v", ErrIncompatibleSQLMigration, want)
		}
	}

	return needed, nil
}
