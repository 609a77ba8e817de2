package store

import (
	"context"
	"fmt"

	"github.com/roach88/shopq/internal/querysql"
)

// Exec runs a compiled Update or Delete and returns the number of rows it
// changed.
func (s *Store) Exec(ctx context.Context, st querysql.Statement) (int64, error) {
	return execStatement(ctx, s.db, st)
}

// Insert runs a compiled Insert and returns the generated id.
//
// Constraint failures wrap ErrUniqueViolation, ErrForeignKey or
// ErrCheckViolation.
func (s *Store) Insert(ctx context.Context, st querysql.Statement) (int64, error) {
	return insert(ctx, s.db, st)
}

func execStatement(ctx context.Context, q querier, st querysql.Statement) (int64, error) {
	result, err := q.ExecContext(ctx, st.SQL, st.Args...)
	if err != nil {
		return 0, fmt.Errorf("exec: %w", classify(err))
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func insert(ctx context.Context, q querier, st querysql.Statement) (int64, error) {
	var id int64
	if st.Returning {
		if err := q.QueryRowContext(ctx, st.SQL, st.Args...).Scan(&id); err != nil {
			return 0, fmt.Errorf("insert: %w", classify(err))
		}
		return id, nil
	}

	result, err := q.ExecContext(ctx, st.SQL, st.Args...)
	if err != nil {
		return 0, fmt.Errorf("insert: %w", classify(err))
	}

	id, err = result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}
