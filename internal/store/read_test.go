package store

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	q "github.com/roach88/shopq/internal/queryir"
	"github.com/roach88/shopq/internal/schema"
)

func seedCatalog(t *testing.T, s *Store) (customer, laptop, mouse, order int64) {
	t.Helper()
	customer = insertRow(t, s, schema.Customers,
		q.Set("name", q.L(q.String("Ann"))),
		q.Set("email", q.L(q.String("ann@example.com"))),
	)
	laptop = insertRow(t, s, schema.Products,
		q.Set("name", q.L(q.String("Laptop"))),
		q.Set("price", q.L(q.MoneyOf(decimal.RequireFromString("999.99")))),
		q.Set("stock", q.L(q.Int(3))),
	)
	mouse = insertRow(t, s, schema.Products,
		q.Set("name", q.L(q.String("Mouse"))),
		q.Set("price", q.L(q.MoneyOf(decimal.RequireFromString("20.50")))),
		q.Set("stock", q.L(q.Int(0))),
	)
	order = insertRow(t, s, schema.Orders,
		q.Set("customer_id", q.L(q.Int(customer))),
		q.Set("created_at", q.L(q.Date{Time: time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)})),
	)
	insertRow(t, s, schema.OrderItems,
		q.Set("order_id", q.L(q.Int(order))),
		q.Set("product_id", q.L(q.Int(laptop))),
		q.Set("quantity", q.L(q.Int(2))),
	)
	insertRow(t, s, schema.OrderItems,
		q.Set("order_id", q.L(q.Int(order))),
		q.Set("product_id", q.L(q.Int(mouse))),
		q.Set("quantity", q.L(q.Int(1))),
	)
	insertRow(t, s, schema.Tags,
		q.Set("product_id", q.L(q.Int(laptop))),
		q.Set("keywords", q.L(q.List{"computer", "portable"})),
	)
	insertRow(t, s, schema.Reviews,
		q.Set("product_id", q.L(q.Int(laptop))),
		q.Set("customer_id", q.L(q.Int(customer))),
		q.Set("data", q.L(q.JSON{"rating": 5, "text": "great"})),
	)
	return customer, laptop, mouse, order
}

func TestQuery_DecodesKinds(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	_, laptop, _, order := seedCatalog(t, s)

	rows, err := s.Query(ctx, compile(t, s, q.Select{From: schema.Products, Filter: q.Eq("id", q.Int(laptop))}))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Laptop", rows[0].Text("name"))
	assert.True(t, decimal.RequireFromString("999.99").Equal(rows[0].Money("price").Decimal))
	assert.Equal(t, int64(3), rows[0].Int("stock"))

	rows, err = s.Query(ctx, compile(t, s, q.Select{From: schema.Orders, Filter: q.Eq("id", q.Int(order))}))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	created, ok := rows[0].Date("created_at")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), created)

	rows, err = s.Query(ctx, compile(t, s, q.Select{From: schema.Tags}))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"computer", "portable"}, rows[0].TextList("keywords"))

	rows, err = s.Query(ctx, compile(t, s, q.Select{From: schema.Reviews}))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, map[string]any{"rating": float64(5), "text": "great"}, rows[0].JSON("data"))
}

func TestQuery_EmptyResultIsEmptySlice(t *testing.T) {
	s := createTestStore(t)

	rows, err := s.Query(context.Background(), compile(t, s, q.Select{From: schema.Customers}))
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestQuery_FanOutFilterReturnsEachRootOnce(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	customer, _, _, _ := seedCatalog(t, s)

	// Two items in the same order reach the same customer twice.
	rows, err := s.Query(ctx, compile(t, s, q.Select{
		From:    schema.Customers,
		Columns: q.Fields("id"),
		Filter:  q.Gte("orders.items.quantity", q.Int(1)),
	}))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, customer, rows[0].Int("id"))
}

func TestQuery_AggregateOverEmptySet(t *testing.T) {
	s := createTestStore(t)

	row, ok, err := s.QueryOne(context.Background(), compile(t, s, q.Aggregate{
		From: schema.Products,
		Measures: []q.Projection{
			q.As("count", q.Count()),
			q.As("avg_price", q.Avg(q.C("price"))),
			q.As("max_price", q.Max(q.C("price"))),
		},
	}))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(0), row.Int("count"))
	assert.False(t, row.Money("avg_price").Valid)
	assert.True(t, row.IsNull("max_price"))
}

func TestQuery_MoneyAggregates(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	_, _, _, order := seedCatalog(t, s)

	row, ok, err := s.QueryOne(ctx, compile(t, s, q.Aggregate{
		From:   schema.OrderItems,
		Filter: q.Eq("order_id", q.Int(order)),
		Measures: []q.Projection{
			q.As("total", q.Sum(q.Times(q.C("quantity"), q.C("product.price")))),
			q.As("avg_price", q.Avg(q.C("product.price"))),
		},
	}))
	require.NoError(t, err)
	require.True(t, ok)

	// 2 × 999.99 + 1 × 20.50
	assert.Equal(t, "2020.48", row.Money("total").Decimal.StringFixed(2))
	// (999.99 + 20.50) / 2 = 510.245, rounded
	assert.Equal(t, "510.25", row.Money("avg_price").Decimal.StringFixed(2))
}

func TestQueryOne_NoRow(t *testing.T) {
	s := createTestStore(t)

	_, ok, err := s.QueryOne(context.Background(), compile(t, s, q.Select{
		From:   schema.Customers,
		Filter: q.Eq("id", q.Int(42)),
	}))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		kind schema.Kind
		raw  any
		want any
	}{
		{"nil", schema.KindInt, nil, nil},
		{"int from bytes", schema.KindInt, []byte("12"), int64(12)},
		{"int from numeric", schema.KindInt, []byte("12.0000"), int64(12)},
		{"float from bytes", schema.KindFloat, []byte("4.5000"), 4.5},
		{"bool from int", schema.KindBool, int64(1), true},
		{"bool from bytes", schema.KindBool, []byte("0"), false},
		{"date from string", schema.KindDate, "2024-01-02", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{"date from timestamp", schema.KindDate, "2024-01-02T10:00:00Z", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{"keywords", schema.KindTextList, `["a","b"]`, []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decode("sqlite", tt.kind, tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode_Money(t *testing.T) {
	tests := []struct {
		raw  any
		want string
	}{
		{int64(1999), "19.99"},
		{float64(51024.5), "510.25"},
		{[]byte("202048"), "2020.48"},
		{"51024.5000000000000000", "510.25"},
	}
	for _, tt := range tests {
		got, err := decode("sqlite", schema.KindMoney, tt.raw)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got.(decimal.Decimal).StringFixed(2))
	}
}

func TestDecode_PostgresTextArray(t *testing.T) {
	got, err := decode("postgres", schema.KindTextList, []byte(`{computer,"big screen"}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"computer", "big screen"}, got)
}

func TestDecode_Errors(t *testing.T) {
	_, err := decode("sqlite", schema.KindDate, "yesterday")
	assert.Error(t, err)

	_, err = decode("sqlite", schema.KindJSON, int64(3))
	assert.Error(t, err)
}
