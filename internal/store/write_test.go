package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	q "github.com/roach88/shopq/internal/queryir"
	"github.com/roach88/shopq/internal/schema"
)

func TestInsert_ReturnsIncreasingIDs(t *testing.T) {
	s := createTestStore(t)

	a := insertRow(t, s, schema.Customers, q.Set("name", q.L(q.String("A"))), q.Set("email", q.L(q.String("a@x.io"))))
	b := insertRow(t, s, schema.Customers, q.Set("name", q.L(q.String("B"))), q.Set("email", q.L(q.String("b@x.io"))))

	assert.Greater(t, b, a)
}

func TestInsert_DuplicateOrderItem(t *testing.T) {
	s := createTestStore(t)
	_, laptop, _, order := seedCatalog(t, s)

	_, err := s.Insert(context.Background(), compile(t, s, q.Insert{
		Table: schema.OrderItems,
		Values: []q.Assignment{
			q.Set("order_id", q.L(q.Int(order))),
			q.Set("product_id", q.L(q.Int(laptop))),
			q.Set("quantity", q.L(q.Int(1))),
		},
	}))
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
	assert.True(t, errors.Is(err, ErrUniqueViolation))
}

func TestInsert_ForeignKey(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Insert(context.Background(), compile(t, s, q.Insert{
		Table:  schema.Orders,
		Values: []q.Assignment{q.Set("customer_id", q.L(q.Int(999))), q.Set("created_at", q.L(q.Date{Time: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}))},
	}))
	require.Error(t, err)
	assert.True(t, IsForeignKeyViolation(err))
}

func TestInsert_CheckConstraint(t *testing.T) {
	s := createTestStore(t)
	_, _, _, order := seedCatalog(t, s)

	_, err := s.Exec(context.Background(), compile(t, s, q.Update{
		Table:  schema.OrderItems,
		Set:    []q.Assignment{q.Set("quantity", q.L(q.Int(0)))},
		Filter: q.Eq("order_id", q.Int(order)),
	}))
	require.Error(t, err)
	assert.True(t, IsCheckViolation(err))
}

func TestExec_GuardedDecrement(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	_, laptop, mouse, _ := seedCatalog(t, s)

	decrement := func(id int64) int64 {
		n, err := s.Exec(ctx, compile(t, s, q.Update{
			Table:  schema.Products,
			Set:    []q.Assignment{q.Set("stock", q.Minus(q.C("stock"), q.L(q.Int(1))))},
			Filter: q.AllOf(q.Eq("id", q.Int(id)), q.Gt("stock", q.Int(0))),
		}))
		require.NoError(t, err)
		return n
	}

	assert.Equal(t, int64(1), decrement(laptop))
	assert.Equal(t, int64(0), decrement(mouse), "out of stock rows are not touched")
	assert.Equal(t, int64(0), decrement(12345))
}

func TestExec_DeleteCascades(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	customer, _, _, _ := seedCatalog(t, s)

	n, err := s.Exec(ctx, compile(t, s, q.Delete{Table: schema.Customers, Filter: q.Eq("id", q.Int(customer))}))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	for _, table := range []string{"orders", "order_items", "reviews"} {
		var count int
		require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM "+table).Scan(&count))
		assert.Zero(t, count, table)
	}
}

func TestInTx_RollsBackOnError(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.InTx(ctx, func(tx *Tx) error {
		_, err := tx.Insert(ctx, compile(t, s, q.Insert{
			Table:  schema.Customers,
			Values: []q.Assignment{q.Set("name", q.L(q.String("Tmp"))), q.Set("email", q.L(q.String("t@x.io")))},
		}))
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	rows, err := s.Query(ctx, compile(t, s, q.Select{From: schema.Customers}))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestInTx_Commits(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	err := s.InTx(ctx, func(tx *Tx) error {
		id, err := tx.Insert(ctx, compile(t, s, q.Insert{
			Table:  schema.Customers,
			Values: []q.Assignment{q.Set("name", q.L(q.String("Kept"))), q.Set("email", q.L(q.String("k@x.io")))},
		}))
		if err != nil {
			return err
		}
		_, ok, err := tx.QueryOne(ctx, compile(t, s, q.Select{From: schema.Customers, Filter: q.Eq("id", q.Int(id))}))
		require.True(t, ok)
		return err
	})
	require.NoError(t, err)

	rows, err := s.Query(ctx, compile(t, s, q.Select{From: schema.Customers}))
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestClassify_PassesThroughOtherErrors(t *testing.T) {
	plain := errors.New("disk on fire")
	assert.Same(t, plain, classify(plain))
	assert.Nil(t, classify(nil))
}
