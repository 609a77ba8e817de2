package shop

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/shopq/internal/schema"
)

// List is the envelope returned by list operations. Total always equals
// len(Items).
type List[T any] struct {
	Total int `json:"total"`
	Items []T `json:"items"`
}

// NewList wraps items. A nil slice becomes an empty one.
func NewList[T any](items []T) List[T] {
	if items == nil {
		items = []T{}
	}
	return List[T]{Total: len(items), Items: items}
}

// NewCustomer is the input of AddCustomer.
type NewCustomer struct {
	Name  string `json:"name" validate:"required,max=200"`
	Email string `json:"email" validate:"required,email"`
}

// NewProduct is the input of AddProduct.
type NewProduct struct {
	Name  string          `json:"name" validate:"required,max=200"`
	Price decimal.Decimal `json:"price"`
	Stock int64           `json:"stock" validate:"gte=0"`
}

// NewOrderItem is the input of AddOrderItem.
type NewOrderItem struct {
	OrderID   int64 `json:"order_id" validate:"gt=0"`
	ProductID int64 `json:"product_id" validate:"gt=0"`
	Quantity  int64 `json:"quantity" validate:"gte=1"`
}

// NewReview is the input of AddReview.
type NewReview struct {
	ProductID  int64          `json:"product_id" validate:"gt=0"`
	CustomerID int64          `json:"customer_id" validate:"gt=0"`
	Data       map[string]any `json:"data" validate:"required"`
}

// NewTag is the input of AddTag.
type NewTag struct {
	ProductID int64    `json:"product_id" validate:"gt=0"`
	Keywords  []string `json:"keywords" validate:"min=1,dive,required,max=50"`
}

// PriceChange is the input of UpdateProductPrice.
type PriceChange struct {
	ProductID int64           `json:"product_id" validate:"gt=0"`
	Price     decimal.Decimal `json:"price"`
}

// LowStockDiscount is the input of ApplyLowStockDiscount: every product with
// stock strictly below Threshold loses Discount from its price.
type LowStockDiscount struct {
	Threshold int64           `json:"threshold" validate:"gte=0"`
	Discount  decimal.Decimal `json:"discount"`
}

// CustomerOrderCount is a customer with the number of orders it owns.
type CustomerOrderCount struct {
	schema.Customer
	OrderCount int64 `json:"order_count"`
}

// CustomerLatestOrder is a customer with its most recent order. Both fields
// are nil for customers without orders.
type CustomerLatestOrder struct {
	schema.Customer
	LatestOrderDate *time.Time `json:"latest_order_date"`
	LatestOrderID   *int64     `json:"latest_order_id"`
}

// ProductRating is a product with its review count and average rating.
// AverageRating is nil when no review carries a rating.
type ProductRating struct {
	schema.Product
	ReviewCount   int64    `json:"review_count"`
	AverageRating *float64 `json:"average_rating"`
}

// UnitsSold is the total quantity ordered of one product.
type UnitsSold struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Units       int64  `json:"units"`
}

// OrderMaxItemPrice is an order with the highest current unit price among its
// items. MaxItemPrice is invalid for orders without items.
type OrderMaxItemPrice struct {
	schema.Order
	MaxItemPrice decimal.NullDecimal `json:"max_item_price"`
}

// OrderTotal is an order with its value. Total is invalid for orders
// without items, and IsExpensive is then false.
type OrderTotal struct {
	schema.Order
	Total       decimal.NullDecimal `json:"total"`
	IsExpensive bool                `json:"is_expensive"`
}

// OrderRank is an order with its value and its rank by value, highest first.
type OrderRank struct {
	ID    int64               `json:"id"`
	Total decimal.NullDecimal `json:"total"`
	Rank  int64               `json:"rank"`
}

// OrderTotalItems is the number of units in one order. Total is nil for an
// order without items.
type OrderTotalItems struct {
	Total *int64 `json:"total"`
}

// OrderStats summarizes orders, optionally within one year. AveragePrice is
// over the whole catalog. Revenue and AveragePrice are invalid when there is
// nothing to sum or average.
type OrderStats struct {
	OrderCount   int64               `json:"order_count"`
	Revenue      decimal.NullDecimal `json:"revenue"`
	AveragePrice decimal.NullDecimal `json:"average_price"`
}

// StockStatus is the outcome of DecreaseProductStock.
type StockStatus string

const (
	// StockDecremented means stock went down by one.
	StockDecremented StockStatus = "decremented"

	// StockOutOfStock means stock was already zero and nothing changed.
	StockOutOfStock StockStatus = "out_of_stock"

	// StockNotFound means the product does not exist.
	StockNotFound StockStatus = "not_found"
)

// StockResult reports a stock decrement. Product is set only when Status is
// StockDecremented.
type StockResult struct {
	Status  StockStatus     `json:"status"`
	Product *schema.Product `json:"product"`
}
