package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/roach88/shopq/internal/shop"
)

// operation runs one service call with scenario arguments.
type operation func(ctx context.Context, svc *shop.Service, args map[string]any) (any, error)

// opArgs holds the scalar arguments of operations that take no input struct.
type opArgs struct {
	ID         int64           `json:"id"`
	CustomerID int64           `json:"customer_id"`
	OrderID    int64           `json:"order_id"`
	ProductID  int64           `json:"product_id"`
	Email      string          `json:"email"`
	Term       string          `json:"term"`
	Keyword    string          `json:"keyword"`
	Year       int             `json:"year"`
	Price      decimal.Decimal `json:"price"`
	Threshold  decimal.Decimal `json:"threshold"`
	MinRating  float64         `json:"min_rating"`
	Limit      int             `json:"limit"`
	Dense      bool            `json:"dense"`
}

// decodeArgs decodes args into dst, rejecting unknown keys.
func decodeArgs(args map[string]any, dst any) error {
	if args == nil {
		args = map[string]any{}
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// input adapts a service call taking an input struct.
func input[In, Out any](call func(*shop.Service, context.Context, In) (Out, error)) operation {
	return func(ctx context.Context, svc *shop.Service, args map[string]any) (any, error) {
		var in In
		if err := decodeArgs(args, &in); err != nil {
			return nil, fmt.Errorf("decode args: %w", err)
		}
		return call(svc, ctx, in)
	}
}

// scalar adapts a service call taking scalar arguments.
func scalar(call func(ctx context.Context, svc *shop.Service, a opArgs) (any, error)) operation {
	return func(ctx context.Context, svc *shop.Service, args map[string]any) (any, error) {
		var a opArgs
		if err := decodeArgs(args, &a); err != nil {
			return nil, fmt.Errorf("decode args: %w", err)
		}
		return call(ctx, svc, a)
	}
}

// deleted is the result of successful delete operations.
type deleted struct {
	Deleted int64 `json:"deleted"`
}

var operations = map[string]operation{
	"AddCustomer": input((*shop.Service).AddCustomer),
	"GetCustomer": scalar(func(ctx context.Context, svc *shop.Service, a opArgs) (any, error) {
		return svc.GetCustomer(ctx, a.ID)
	}),
	"ListCustomers": scalar(func(ctx context.Context, svc *shop.Service, a opArgs) (any, error) {
		return svc.ListCustomers(ctx)
	}),
	"ExcludeCustomerByEmail": scalar(func(ctx context.Context, svc *shop.Service, a opArgs) (any, error) {
		return svc.ExcludeCustomerByEmail(ctx, a.Email)
	}),
	"CustomersWithOrderCounts": scalar(func(ctx context.Context, svc *shop.Service, a opArgs) (any, error) {
		return svc.CustomersWithOrderCounts(ctx)
	}),
	"CustomersWithLatestOrder": scalar(func(ctx context.Context, svc *shop.Service, a opArgs) (any, error) {
		return svc.CustomersWithLatestOrder(ctx)
	}),
	"CustomerOrders": scalar(func(ctx context.Context, svc *shop.Service, a opArgs) (any, error) {
		return svc.CustomerOrders(ctx, a.CustomerID)
	}),
	"DeleteCustomer": scalar(func(ctx context.Context, svc *shop.Service, a opArgs) (any, error) {
		return deleted{a.ID}, svc.DeleteCustomer(ctx, a.ID)
	}),

	"AddProduct": input((*shop.Service).AddProduct),
	"GetProduct": scalar(func(ctx context.Context, svc *shop.Service, a opArgs) (any, error) {
		return svc.GetProduct(ctx, a.ID)
	}),
	"ListProducts": scalar(func(ctx context.Context, svc *shop.Service, a opArgs) (any, error) {
		return svc.ListProducts(ctx)
	}),
	"ProductsCheaperThan": scalar(func(ctx context.Context, svc *shop.Service, a opArgs) (any, error) {
		return svc.ProductsCheaperThan(ctx, a.Price)
	}),
	"SearchProductsByName": scalar(func(ctx context.Context, svc *shop.Service, a opArgs) (any, error) {
		return svc.SearchProductsByName(ctx, a.Term)
	}),
	"SearchProducts": scalar(func(ctx context.Context, svc *shop.Service, a opArgs) (any, error) {
		return svc.SearchProducts(ctx, a.Term)
	}),
	"ProductsByTag": scalar(func(ctx context.Context, svc *shop.Service, a opArgs) (any, error) {
		return svc.ProductsByTag(ctx, a.Keyword)
	}),
	"ProductsOrderedByCustomer": scalar(func(ctx context.Context, svc *shop.Service, a opArgs) (any, error) {
		return svc.ProductsOrderedByCustomer(ctx, a.CustomerID)
	}),
	"ProductRatings": scalar(func(ctx context.Context, svc *shop.Service, a opArgs) (any, error) {
		return svc.ProductRatings(ctx)
	}),
	"ProductsWithMinRating": scalar(func(ctx context.Context, svc *shop.Service, a opArgs) (any, error) {
		return svc.ProductsWithMinRating(ctx, a.MinRating, a.Limit)
	}),
	"ProductTags": scalar(func(ctx context.Context, svc *shop.Service, a opArgs) (any, error) {
		return svc.ProductTags(ctx, a.ProductID)
	}),
	"ProductReviews": scalar(func(ctx context.Context, svc *shop.Service, a opArgs) (any, error) {
		return svc.ProductReviews(ctx, a.ProductID)
	}),
	"UnitsSoldPerProduct": scalar(func(ctx context.Context, svc *shop.Service, a opArgs) (any, error) {
		return svc.UnitsSoldPerProduct(ctx)
	}),
	"UpdateProductPrice": input((*shop.Service).UpdateProductPrice),
	"DecreaseProductStock": scalar(func(ctx context.Context, svc *shop.Service, a opArgs) (any, error) {
		return svc.DecreaseProductStock(ctx, a.ProductID)
	}),
	"ApplyLowStockDiscount": input(func(svc *shop.Service, ctx context.Context, in shop.LowStockDiscount) (any, error) {
		n, err := svc.ApplyLowStockDiscount(ctx, in)
		return map[string]int64{"updated": n}, err
	}),
	"DeleteProduct": scalar(func(ctx context.Context, svc *shop.Service, a opArgs) (any, error) {
		return deleted{a.ID}, svc.DeleteProduct(ctx, a.ID)
	}),

	"AddOrder": scalar(func(ctx context.Context, svc *shop.Service, a opArgs) (any, error) {
		return svc.AddOrder(ctx, a.CustomerID)
	}),
	"GetOrder": scalar(func(ctx context.Context, svc *shop.Service, a opArgs) (any, error) {
		return svc.GetOrder(ctx, a.ID)
	}),
	"ListOrders": scalar(func(ctx context.Context, svc *shop.Service, a opArgs) (any, error) {
		return svc.ListOrders(ctx)
	}),
	"OrdersByYear": scalar(func(ctx context.Context, svc *shop.Service, a opArgs) (any, error) {
		return svc.OrdersByYear(ctx, a.Year)
	}),
	"GetLatestOrder": scalar(func(ctx context.Context, svc *shop.Service, a opArgs) (any, error) {
		o, ok, err := svc.GetLatestOrder(ctx)
		if err != nil || !ok {
			return map[string]any{"found": false}, err
		}
		return map[string]any{"found": true, "order": o}, nil
	}),
	"DeleteOrder": scalar(func(ctx context.Context, svc *shop.Service, a opArgs) (any, error) {
		return deleted{a.ID}, svc.DeleteOrder(ctx, a.ID)
	}),
	"AddOrderItem": input((*shop.Service).AddOrderItem),
	"OrderItems": scalar(func(ctx context.Context, svc *shop.Service, a opArgs) (any, error) {
		return svc.OrderItems(ctx, a.OrderID)
	}),
	"GetOrderTotalItems": scalar(func(ctx context.Context, svc *shop.Service, a opArgs) (any, error) {
		return svc.GetOrderTotalItems(ctx, a.OrderID)
	}),
	"OrdersWithMaxItemPrice": scalar(func(ctx context.Context, svc *shop.Service, a opArgs) (any, error) {
		return svc.OrdersWithMaxItemPrice(ctx)
	}),
	"OrdersWithTotals": scalar(func(ctx context.Context, svc *shop.Service, a opArgs) (any, error) {
		return svc.OrdersWithTotals(ctx, a.Threshold)
	}),
	"RankOrdersByTotal": scalar(func(ctx context.Context, svc *shop.Service, a opArgs) (any, error) {
		return svc.RankOrdersByTotal(ctx, a.Dense)
	}),
	"OrderStats": scalar(func(ctx context.Context, svc *shop.Service, a opArgs) (any, error) {
		return svc.OrderStats(ctx, a.Year)
	}),

	"AddReview": input((*shop.Service).AddReview),
	"AddTag":    input((*shop.Service).AddTag),
}

// Operations returns the names scenarios can invoke, sorted.
func Operations() []string {
	names := make([]string, 0, len(operations))
	for name := range operations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
