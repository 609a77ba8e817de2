package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/shopq/internal/querysql"
)

// Tx runs statements inside one database transaction.
type Tx struct {
	tx      *sql.Tx
	dialect querysql.Dialect
}

// Query runs st inside the transaction. See Store.Query.
func (t *Tx) Query(ctx context.Context, st querysql.Statement) ([]Row, error) {
	return query(ctx, t.tx, t.dialect, st)
}

// QueryOne runs st inside the transaction. See Store.QueryOne.
func (t *Tx) QueryOne(ctx context.Context, st querysql.Statement) (Row, bool, error) {
	return queryOne(ctx, t.tx, t.dialect, st)
}

// Exec runs st inside the transaction. See Store.Exec.
func (t *Tx) Exec(ctx context.Context, st querysql.Statement) (int64, error) {
	return execStatement(ctx, t.tx, st)
}

// Insert runs st inside the transaction. See Store.Insert.
func (t *Tx) Insert(ctx context.Context, st querysql.Statement) (int64, error) {
	return insert(ctx, t.tx, st)
}

// InTx runs fn in a transaction. The transaction commits when fn returns nil
// and rolls back otherwise; fn's error is returned unchanged.
func (s *Store) InTx(ctx context.Context, fn func(tx *Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&Tx{tx: tx, dialect: s.dialect}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", classify(err))
	}
	return nil
}
