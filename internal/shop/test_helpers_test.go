package shop

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/roach88/shopq/internal/schema"
	"github.com/roach88/shopq/internal/store"
	"github.com/roach88/shopq/internal/testutil"
)

// newTestService creates a service over a fresh SQLite database, dated
// 2024-01-15.
func newTestService(t *testing.T, opts ...Option) (*Service, *testutil.DeterministicClock) {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "shop.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	clock := testutil.NewDeterministicClock(2024, time.January, 15)
	opts = append([]Option{
		WithClock(clock),
		WithIDGenerator(testutil.NewSequenceIDGenerator("op")),
	}, opts...)
	return NewService(st, opts...), clock
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func mustCustomer(t *testing.T, svc *Service, name, email string) schema.Customer {
	t.Helper()
	c, err := svc.AddCustomer(context.Background(), NewCustomer{Name: name, Email: email})
	require.NoError(t, err)
	return c
}

func mustProduct(t *testing.T, svc *Service, name, price string, stock int64) schema.Product {
	t.Helper()
	p, err := svc.AddProduct(context.Background(), NewProduct{Name: name, Price: dec(price), Stock: stock})
	require.NoError(t, err)
	return p
}

func mustOrder(t *testing.T, svc *Service, customerID int64) schema.Order {
	t.Helper()
	o, err := svc.AddOrder(context.Background(), customerID)
	require.NoError(t, err)
	return o
}

func mustItem(t *testing.T, svc *Service, orderID, productID, quantity int64) schema.OrderItem {
	t.Helper()
	it, err := svc.AddOrderItem(context.Background(), NewOrderItem{OrderID: orderID, ProductID: productID, Quantity: quantity})
	require.NoError(t, err)
	return it
}

func ids[T any](items []T, id func(T) int64) []int64 {
	out := make([]int64, len(items))
	for i, it := range items {
		out[i] = id(it)
	}
	return out
}

func productIDs(l List[schema.Product]) []int64 {
	return ids(l.Items, func(p schema.Product) int64 { return p.ID })
}
