// Package store provides the database/sql storage adapter for shopq.
//
// The store owns the physical commerce schema and executes statements
// produced by querysql:
//   - Open / OpenDriver: connect, configure, apply the embedded schema
//   - Query: run a Select or Aggregate and decode typed rows
//   - Exec / Insert: run writes, report rows affected or the new id
//   - InTx: run a composite write in one transaction
//
// # Drivers
//
//   - sqlite3 (github.com/mattn/go-sqlite3), the default
//   - sqlite (modernc.org/sqlite), pure Go
//   - postgres (github.com/lib/pq)
//   - mysql (github.com/go-sql-driver/mysql)
//
// # Database Configuration (SQLite)
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity and cascades
//
// Constraint failures from every driver are classified into
// ErrUniqueViolation, ErrForeignKey and ErrCheckViolation.
package store
