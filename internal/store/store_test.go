package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/shopq/internal/querysql"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	// Verify file was created
	_, err = os.Stat(path)
	assert.NoError(t, err, "database file was not created")
	assert.Equal(t, "sqlite3", s.Driver())
	assert.Equal(t, querysql.SQLite, s.Dialect())
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	// Open multiple times
	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "Open() iteration %d", i)
		s.Close()
	}

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	var count int
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM order_items").Scan(&count))
	assert.Equal(t, 0, count)
}

func TestOpen_InvalidPath(t *testing.T) {
	// Try to open in non-existent directory
	_, err := Open("/nonexistent/dir/test.db")
	assert.Error(t, err)
}

func TestOpenDriver_UnknownDriver(t *testing.T) {
	_, err := OpenDriver("oracle", "whatever")
	assert.Error(t, err)
}

func TestOpenDriver_Modernc(t *testing.T) {
	path := filepath.Join(t.TempDir(), "modernc.db")

	s, err := OpenDriver("sqlite", path)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, querysql.SQLite, s.Dialect())
	assert.NoError(t, s.verifyPragma("foreign_keys", "1"))
}

func TestSQLiteLowerFoldsUnicode(t *testing.T) {
	for _, driver := range []string{"sqlite3", "sqlite"} {
		t.Run(driver, func(t *testing.T) {
			s, err := OpenDriver(driver, filepath.Join(t.TempDir(), "lower.db"))
			require.NoError(t, err)
			defer s.Close()

			var lowered string
			require.NoError(t, s.DB().QueryRow("SELECT lower('ÉCOLE Ünd ABC')").Scan(&lowered))
			assert.Equal(t, "école ünd abc", lowered)

			var null *string
			require.NoError(t, s.DB().QueryRow("SELECT lower(NULL)").Scan(&null))
			assert.Nil(t, null)
		})
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	assert.NoError(t, s.Close())
}

// Pragma tests

func TestPragmas(t *testing.T) {
	s := createTestStore(t)

	tests := []struct {
		name     string
		expected string
	}{
		{"journal_mode", "wal"},
		{"synchronous", "1"}, // NORMAL = 1
		{"busy_timeout", "5000"},
		{"foreign_keys", "1"}, // ON = 1
		{"user_version", "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, s.verifyPragma(tt.name, tt.expected))
		})
	}
}

// Schema tests

func TestSchema_Tables(t *testing.T) {
	s := createTestStore(t)

	rows, err := s.DB().Query("SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	require.NoError(t, err)
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		tables = append(tables, name)
	}
	require.NoError(t, rows.Err())

	assert.Equal(t, []string{"customers", "order_items", "orders", "products", "reviews", "tags"}, tables)
}

func TestSplitStatements(t *testing.T) {
	got := splitStatements("-- header\nCREATE TABLE a (x INT);\n\n-- note\nCREATE INDEX i ON a(x);\n")
	assert.Equal(t, []string{"CREATE TABLE a (x INT)", "CREATE INDEX i ON a(x)"}, got)
}

func TestSplitStatements_EmbeddedSchemas(t *testing.T) {
	for name, ddl := range map[string]string{
		"sqlite":   sqliteSchemaSQL,
		"postgres": postgresSchemaSQL,
		"mysql":    mysqlSchemaSQL,
	} {
		t.Run(name, func(t *testing.T) {
			stmts := splitStatements(ddl)
			assert.GreaterOrEqual(t, len(stmts), 6)
			for _, stmt := range stmts {
				assert.Regexp(t, `^CREATE (TABLE|INDEX)`, stmt)
			}
		})
	}
}

func TestMySQLDSN_ReportsMatchedRows(t *testing.T) {
	dsn, err := mysqlDSN("shop:secret@tcp(localhost:3306)/shop")
	require.NoError(t, err)
	assert.Contains(t, dsn, "clientFoundRows=true")

	_, err = mysqlDSN("not a dsn")
	assert.Error(t, err)
}
