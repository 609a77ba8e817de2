package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/shopq/internal/queryir"
	"github.com/roach88/shopq/internal/querysql"
	"github.com/roach88/shopq/internal/schema"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// compile compiles q for the store's dialect.
func compile(t *testing.T, s *Store, q queryir.Query) querysql.Statement {
	t.Helper()
	st, err := querysql.NewSQLCompiler(schema.Commerce(), s.Dialect()).Compile(q)
	require.NoError(t, err)
	return st
}

// insertRow inserts a row through the compiler and returns its id.
func insertRow(t *testing.T, s *Store, table string, values ...queryir.Assignment) int64 {
	t.Helper()
	id, err := s.Insert(context.Background(), compile(t, s, queryir.Insert{Table: table, Values: values}))
	require.NoError(t, err)
	return id
}
