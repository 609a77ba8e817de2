package store

import (
	"context"
	"fmt"

	"github.com/roach88/shopq/internal/querysql"
)

// Query runs a compiled Select or Aggregate and decodes every row by the
// statement's output kinds. Rows come back in the order the statement
// defines.
//
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) Query(ctx context.Context, st querysql.Statement) ([]Row, error) {
	return query(ctx, s.db, s.dialect, st)
}

func query(ctx context.Context, q querier, dialect querysql.Dialect, st querysql.Statement) ([]Row, error) {
	rows, err := q.QueryContext(ctx, st.SQL, st.Args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", classify(err))
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	if len(cols) != len(st.Columns) {
		return nil, fmt.Errorf("query returned %d columns, statement declares %d", len(cols), len(st.Columns))
	}

	out := []Row{}
	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		row := make(Row, len(cols))
		for i, c := range st.Columns {
			v, err := decode(dialect, c.Kind, raw[i])
			if err != nil {
				return nil, fmt.Errorf("decode %s: %w", c.Name, err)
			}
			row[c.Name] = v
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return out, nil
}

// QueryOne runs st and returns its only row. ok is false when no row
// matched.
func (s *Store) QueryOne(ctx context.Context, st querysql.Statement) (Row, bool, error) {
	return queryOne(ctx, s.db, s.dialect, st)
}

func queryOne(ctx context.Context, q querier, dialect querysql.Dialect, st querysql.Statement) (Row, bool, error) {
	rows, err := query(ctx, q, dialect, st)
	if err != nil {
		return nil, false, err
	}
	switch len(rows) {
	case 0:
		return nil, false, nil
	case 1:
		return rows[0], true, nil
	default:
		return nil, false, fmt.Errorf("expected at most one row, got %d", len(rows))
	}
}
