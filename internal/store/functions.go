package store

import (
	"database/sql"
	"database/sql/driver"
	"strings"

	"github.com/mattn/go-sqlite3"
	"modernc.org/sqlite"
)

// sqlite3Driver is mattn/go-sqlite3 with the functions below installed on
// every connection. OpenDriver uses it for the "sqlite3" driver.
const sqlite3Driver = "sqlite3_shopq"

func init() {
	// SQLite's built-in lower() folds ASCII only. Case-insensitive search
	// lower-cases terms with Unicode rules, so columns must be folded the
	// same way.
	sql.Register(sqlite3Driver, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("lower", unicodeLower, true)
		},
	})
	sqlite.MustRegisterDeterministicScalarFunction("lower", 1, lowerFunc)
}

func lowerFunc(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	return unicodeLower(args[0]), nil
}

// unicodeLower lower-cases text. NULL and non-text values pass through.
func unicodeLower(v any) any {
	switch val := v.(type) {
	case string:
		return strings.ToLower(val)
	case []byte:
		return strings.ToLower(string(val))
	default:
		return v
	}
}

// sqlDriverName maps a configured driver to the registered database/sql
// driver.
func sqlDriverName(driver string) string {
	if driver == "sqlite3" {
		return sqlite3Driver
	}
	return driver
}
