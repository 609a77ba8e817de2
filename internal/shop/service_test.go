package shop

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/shopq/internal/schema"
	"github.com/roach88/shopq/internal/store"
)

func TestError_Format(t *testing.T) {
	err := NotFound("order", 7)
	assert.Equal(t, "NOT_FOUND: order not found (order=7)", err.Error())

	dup := Duplicate("order item", "product is already in the order", nil)
	assert.Equal(t, "DUPLICATE: product is already in the order", dup.Error())
}

func TestError_Helpers(t *testing.T) {
	cause := errors.New("disk on fire")
	wrapped := fmt.Errorf("outer: %w", unexpected("ListOrders", "op-9", cause))

	assert.True(t, IsUnexpected(wrapped))
	assert.False(t, IsNotFound(wrapped))
	assert.ErrorIs(t, wrapped, cause)

	assert.True(t, IsNotFound(NotFound("customer", 1)))
	assert.True(t, IsDuplicate(Duplicate("x", "y", nil)))
	assert.True(t, IsValidation(Invalid("bad", nil)))
	assert.False(t, IsValidation(errors.New("plain")))
}

func TestNewList(t *testing.T) {
	l := NewList[int](nil)
	assert.Equal(t, 0, l.Total)
	assert.NotNil(t, l.Items)

	l = NewList([]int{1, 2, 3})
	assert.Equal(t, 3, l.Total)
}

func TestUnexpected_LoggedOnceWithOperationID(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	svc, _ := newTestService(t, WithLogger(logger))
	ctx := context.Background()

	mustCustomer(t, svc, "Ada", "ada@x.com")
	require.NoError(t, svc.store.Close())
	logs.Reset()

	list, err := svc.ListCustomers(ctx)
	require.Error(t, err)
	assert.True(t, IsUnexpected(err))
	assert.Contains(t, err.Error(), "op-1")

	// A failed list carries no data.
	assert.Zero(t, list.Total)
	assert.Nil(t, list.Items)

	out := logs.String()
	assert.Equal(t, 1, strings.Count(out, "operation failed"))
	assert.Contains(t, out, "op=ListCustomers")
	assert.Contains(t, out, "op_id=op-1")
}

func TestUnexpected_Aggregates(t *testing.T) {
	svc, _ := newTestService(t)
	require.NoError(t, svc.store.Close())

	stats, err := svc.OrderStats(context.Background(), 0)
	assert.True(t, IsUnexpected(err))
	assert.Equal(t, OrderStats{}, stats)

	_, err = svc.ApplyLowStockDiscount(context.Background(), LowStockDiscount{Threshold: 5, Discount: dec("1")})
	assert.True(t, IsUnexpected(err))
}

func TestDebugLogging_Statements(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	svc, _ := newTestService(t, WithLogger(logger))

	_, err := svc.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "op=ListProducts")
	assert.Contains(t, logs.String(), "ORDER BY")
}

func TestExplain(t *testing.T) {
	svc, _ := newTestService(t)

	for _, op := range ExplainOperations() {
		t.Run(op, func(t *testing.T) {
			st, err := svc.Explain(op, Params{ID: 1, Term: "x", Email: "a@b.c", Year: 2024, Price: dec("1"), Threshold: dec("1"), MinRating: 4, Limit: 5, StockBelow: 5, Discount: dec("1")})
			require.NoError(t, err)
			assert.NotEmpty(t, st.SQL)
		})
	}

	_, err := svc.Explain("NoSuchOperation", Params{})
	assert.True(t, IsValidation(err))
}

func TestExplainOperations_Sorted(t *testing.T) {
	ops := ExplainOperations()
	require.NotEmpty(t, ops)
	for i := 1; i < len(ops); i++ {
		assert.Less(t, ops[i-1], ops[i])
	}
	assert.Contains(t, ops, "RankOrdersByTotal")
}

func TestTranslate_ConstraintErrors(t *testing.T) {
	unique := fmt.Errorf("insert: %w", fmt.Errorf("%w: boom", store.ErrUniqueViolation))
	assert.True(t, IsDuplicate(translate(schema.OrderItems, unique)))

	fk := fmt.Errorf("insert: %w", fmt.Errorf("%w: boom", store.ErrForeignKey))
	assert.True(t, IsNotFound(translate(schema.Orders, fk)))

	check := fmt.Errorf("exec: %w", fmt.Errorf("%w: boom", store.ErrCheckViolation))
	assert.True(t, IsValidation(translate(schema.Products, check)))

	plain := errors.New("plain")
	assert.Equal(t, plain, translate(schema.Products, plain))
}
