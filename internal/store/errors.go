package store

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	moderncsqlite "modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"
)

// Constraint failures, classified across drivers. Errors returned by the
// store wrap one of these when a constraint rejected the statement.
var (
	ErrUniqueViolation = errors.New("unique constraint violation")
	ErrForeignKey      = errors.New("foreign key violation")
	ErrCheckViolation  = errors.New("check constraint violation")
)

// PostgreSQL SQLSTATE codes.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// MySQL server error numbers.
const (
	mysqlErrDupEntry         = 1062
	mysqlErrRowIsReferenced  = 1451
	mysqlErrNoReferencedRow  = 1452
	mysqlErrCheckConstraint  = 3819
	mysqlErrRowIsReferenced2 = 1217
	mysqlErrNoReferencedRow2 = 1216
)

// classify wraps err with the constraint sentinel it matches, if any.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if sentinel := constraintOf(err); sentinel != nil {
		return fmt.Errorf("%w: %w", sentinel, err)
	}
	return err
}

func constraintOf(err error) error {
	var mattnErr sqlite3.Error
	if errors.As(err, &mattnErr) {
		switch mattnErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return ErrUniqueViolation
		case sqlite3.ErrConstraintForeignKey:
			return ErrForeignKey
		case sqlite3.ErrConstraintCheck:
			return ErrCheckViolation
		}
		return nil
	}

	var moderncErr *moderncsqlite.Error
	if errors.As(err, &moderncErr) {
		switch moderncErr.Code() {
		case sqlitelib.SQLITE_CONSTRAINT_UNIQUE, sqlitelib.SQLITE_CONSTRAINT_PRIMARYKEY:
			return ErrUniqueViolation
		case sqlitelib.SQLITE_CONSTRAINT_FOREIGNKEY:
			return ErrForeignKey
		case sqlitelib.SQLITE_CONSTRAINT_CHECK:
			return ErrCheckViolation
		}
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pgUniqueViolation:
			return ErrUniqueViolation
		case pgForeignKeyViolation:
			return ErrForeignKey
		case pgCheckViolation:
			return ErrCheckViolation
		}
		return nil
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case mysqlErrDupEntry:
			return ErrUniqueViolation
		case mysqlErrRowIsReferenced, mysqlErrNoReferencedRow, mysqlErrRowIsReferenced2, mysqlErrNoReferencedRow2:
			return ErrForeignKey
		case mysqlErrCheckConstraint:
			return ErrCheckViolation
		}
	}

	return nil
}

// IsUniqueViolation reports whether err came from a unique constraint.
func IsUniqueViolation(err error) bool {
	return errors.Is(err, ErrUniqueViolation)
}

// IsForeignKeyViolation reports whether err came from a foreign key.
func IsForeignKeyViolation(err error) bool {
	return errors.Is(err, ErrForeignKey)
}

// IsCheckViolation reports whether err came from a CHECK constraint.
func IsCheckViolation(err error) bool {
	return errors.Is(err, ErrCheckViolation)
}
