package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/roach88/shopq/internal/querysql"
)

//go:embed schema_sqlite.sql
var sqliteSchemaSQL string

//go:embed schema_postgres.sql
var postgresSchemaSQL string

//go:embed schema_mysql.sql
var mysqlSchemaSQL string

// Schema version tracking (SQLite user_version):
// 0 - empty database
// 1 - commerce schema
const currentSchemaVersion = 1

// DefaultDriver is the driver used by Open.
const DefaultDriver = "sqlite3"

// Store provides durable storage for the commerce schema.
type Store struct {
	db      *sql.DB
	driver  string
	dialect querysql.Dialect
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and the schema automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// This function is idempotent - safe to call multiple times.
func Open(path string) (*Store, error) {
	return OpenDriver(DefaultDriver, path)
}

// OpenDriver opens a database with any supported driver. For the SQLite
// drivers dsn is a file path.
func OpenDriver(driver, dsn string) (*Store, error) {
	dialect, err := querysql.DialectForDriver(driver)
	if err != nil {
		return nil, err
	}

	if dialect == querysql.MySQL {
		if dsn, err = mysqlDSN(dsn); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open(sqlDriverName(driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify connection works
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if dialect == querysql.SQLite {
		// SQLite only supports one writer at a time, so limit connections.
		// Pragmas are per connection, which one connection also takes care of.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)

		if err := applyPragmas(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply pragmas: %w", err)
		}
	}

	if err := applySchema(db, dialect); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db, driver: driver, dialect: dialect}, nil
}

// mysqlDSN makes MySQL report matched rather than changed rows, so an
// UPDATE that leaves a value as it was still counts.
func mysqlDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid mysql dsn: %w", err)
	}
	cfg.ClientFoundRows = true
	return cfg.FormatDSN(), nil
}

// Close closes the database connection.
// Should be called when the store is no longer needed.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer using Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Driver returns the database/sql driver name.
func (s *Store) Driver() string {
	return s.driver
}

// Dialect returns the SQL dialect statements must be compiled for.
func (s *Store) Dialect() querysql.Dialect {
	return s.dialect
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist.
// This function is idempotent.
func applySchema(db *sql.DB, dialect querysql.Dialect) error {
	var ddl string
	switch dialect {
	case querysql.Postgres:
		ddl = postgresSchemaSQL
	case querysql.MySQL:
		ddl = mysqlSchemaSQL
	default:
		ddl = sqliteSchemaSQL
	}

	// One statement per Exec: the MySQL driver rejects multi-statement
	// strings unless the DSN opts in.
	for _, stmt := range splitStatements(ddl) {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema: %w", err)
		}
	}

	if dialect == querysql.SQLite {
		if err := setSchemaVersion(db); err != nil {
			return err
		}
	}

	return nil
}

// splitStatements splits a DDL script on semicolons, dropping comment lines
// and empty statements.
func splitStatements(script string) []string {
	var lines []string
	for _, line := range strings.Split(script, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		lines = append(lines, line)
	}

	var out []string
	for _, stmt := range strings.Split(strings.Join(lines, "\n"), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

// setSchemaVersion records the schema version in user_version.
func setSchemaVersion(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version >= currentSchemaVersion {
		return nil
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}

// querier is the part of *sql.DB and *sql.Tx that statements run on.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
