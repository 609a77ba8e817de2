package fixture

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/shopq/internal/shop"
	"github.com/roach88/shopq/internal/store"
	"github.com/roach88/shopq/internal/testutil"
)

func newService(t *testing.T) *shop.Service {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "fixture.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return shop.NewService(st, shop.WithClock(testutil.NewDeterministicClock(2024, time.January, 15)))
}

func TestLoad_Small(t *testing.T) {
	cat, err := Load(filepath.Join("testdata", "small.cue"))
	require.NoError(t, err)

	require.Len(t, cat.Customers, 2)
	assert.Equal(t, Customer{Key: "ada", Name: "Ada Lovelace", Email: "ada@example.com"}, cat.Customers[0])
	assert.Equal(t, "bob", cat.Customers[1].Key)

	require.Len(t, cat.Products, 3)
	assert.Equal(t, "laptop", cat.Products[0].Key)
	assert.True(t, cat.Products[0].Price.Equal(decimal.RequireFromString("999.99")))
	assert.Equal(t, int64(3), cat.Products[0].Stock)
	assert.Equal(t, int64(0), cat.Products[2].Stock, "stock defaults to zero")

	require.Len(t, cat.Orders, 3)
	first := cat.Orders[0]
	assert.Equal(t, "ada", first.Customer)
	assert.Equal(t, time.Date(2023, time.November, 2, 0, 0, 0, 0, time.UTC), first.Date)
	assert.Equal(t, []Item{{Product: "laptop", Quantity: 1}, {Product: "mouse", Quantity: 2}}, first.Items)
	assert.True(t, cat.Orders[2].Date.IsZero())
	assert.Empty(t, cat.Orders[2].Items)

	require.Len(t, cat.Reviews, 2)
	assert.Equal(t, map[string]any{"rating": float64(5), "text": "fast"}, cat.Reviews[0].Data)

	require.Len(t, cat.Tags, 1)
	assert.Equal(t, []string{"computer", "portable"}, cat.Tags[0].Keywords)
}

func TestParse_Empty(t *testing.T) {
	cat, err := Parse("empty.cue", nil)
	require.NoError(t, err)
	assert.Empty(t, cat.Customers)
	assert.Empty(t, cat.Products)
	assert.Empty(t, cat.Orders)
	assert.Empty(t, cat.Reviews)
	assert.Empty(t, cat.Tags)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		file    string
		path    string
		message string
	}{
		{file: "negative_stock.cue", path: "products.mouse.stock"},
		{file: "unknown_field.cue", path: "customers.ada.phone"},
		{file: "syntax.cue"},
		{file: "dangling.cue", path: "orders.first.items.keyboard", message: `unknown product "keyboard"`},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			_, err := Load(filepath.Join("testdata", tt.file))
			require.Error(t, err)

			var fe *Error
			require.ErrorAs(t, err, &fe)
			require.True(t, fe.Pos.IsValid(), "error should carry a position: %v", err)
			assert.Contains(t, err.Error(), tt.file)
			if tt.path != "" {
				assert.Equal(t, tt.path, fe.Path)
			}
			if tt.message != "" {
				assert.Equal(t, tt.message, fe.Message)
			}
		})
	}
}

func TestParse_ConstraintErrorPointsIntoFixture(t *testing.T) {
	_, err := Parse("inline.cue", []byte(`products: pad: {name: "Pad", price: 1, stock: -3}`))
	require.Error(t, err)

	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "products.pad.stock", fe.Path)
	assert.Equal(t, "inline.cue", fe.Pos.Filename())
	assert.Equal(t, 1, fe.Pos.Line())
}

func TestParse_UnknownSection(t *testing.T) {
	_, err := Parse("inline.cue", []byte(`widgets: {}`))
	require.Error(t, err)
}

func TestParse_DanglingReviewCustomer(t *testing.T) {
	src := `
products: mouse: {name: "Mouse", price: 5}
reviews: [{product: "mouse", customer: "zed", data: {rating: 1}}]
`
	_, err := Parse("inline.cue", []byte(src))
	require.Error(t, err)

	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "reviews[0].customer", fe.Path)
	assert.Equal(t, `unknown customer "zed"`, fe.Message)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "nope.cue"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read fixture")
}

func TestApply_Small(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	cat, err := Load(filepath.Join("testdata", "small.cue"))
	require.NoError(t, err)

	res, err := Apply(ctx, svc, cat, nil)
	require.NoError(t, err)
	assert.Len(t, res.Customers, 2)
	assert.Len(t, res.Products, 3)
	assert.Len(t, res.Orders, 3)
	assert.Equal(t, 3, res.Items)
	assert.Equal(t, 2, res.Reviews)
	assert.Equal(t, 1, res.Tags)

	first, err := svc.GetOrder(ctx, res.Orders["first"])
	require.NoError(t, err)
	assert.Equal(t, "2023-11-02", first.CreatedDate())
	assert.Equal(t, res.Customers["ada"], first.CustomerID)

	pending, err := svc.GetOrder(ctx, res.Orders["pending"])
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15", pending.CreatedDate(), "undated orders use the service clock")

	total, err := svc.GetOrderTotalItems(ctx, res.Orders["first"])
	require.NoError(t, err)
	require.NotNil(t, total.Total)
	assert.Equal(t, int64(3), *total.Total)

	in2024, err := svc.OrdersByYear(ctx, 2024)
	require.NoError(t, err)
	assert.Equal(t, 2, in2024.Total)

	tagged, err := svc.ProductsByTag(ctx, "portable")
	require.NoError(t, err)
	require.Len(t, tagged.Items, 1)
	assert.Equal(t, res.Products["laptop"], tagged.Items[0].ID)
}

func TestApply_StopsOnServiceError(t *testing.T) {
	svc := newService(t)

	cat := &Catalog{Products: []Product{
		{Key: "ok", Name: "Mouse", Price: decimal.RequireFromString("5.00")},
		{Key: "bad", Name: "Cable", Price: decimal.RequireFromString("1.005")},
	}}
	res, err := Apply(context.Background(), svc, cat, nil)
	require.Error(t, err)
	assert.True(t, shop.IsValidation(err))
	assert.Contains(t, err.Error(), "product bad")
	assert.Contains(t, res.Products, "ok")
	assert.NotContains(t, res.Products, "bad")
}
