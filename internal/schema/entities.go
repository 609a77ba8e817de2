package schema

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the storage and display layout of KindDate values.
const DateLayout = "2006-01-02"

// Customer places orders and writes reviews.
type Customer struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Product is a catalog entry. Price and Stock are the only fields that change
// after creation.
type Product struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Stock int64           `json:"stock"`
}

// Order belongs to one customer. CreatedAt is a calendar date assigned once
// when the order is created.
type Order struct {
	ID         int64     `json:"id"`
	CustomerID int64     `json:"customer_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreatedDate returns CreatedAt formatted as YYYY-MM-DD.
func (o Order) CreatedDate() string {
	return o.CreatedAt.Format(DateLayout)
}

// OrderItem is one product line of an order. A product appears at most once
// per order.
type OrderItem struct {
	ID        int64 `json:"id"`
	OrderID   int64 `json:"order_id"`
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

// Review holds free-form review attributes.
type Review struct {
	ID         int64          `json:"id"`
	ProductID  int64          `json:"product_id"`
	CustomerID int64          `json:"customer_id"`
	Data       map[string]any `json:"data"`
}

// Rating returns the numeric "rating" attribute, if present.
func (r Review) Rating() (float64, bool) {
	switch v := r.Data["rating"].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// Tag attaches an ordered keyword list to a product.
type Tag struct {
	ID        int64    `json:"id"`
	ProductID int64    `json:"product_id"`
	Keywords  []string `json:"keywords"`
}

// HasKeyword reports whether k is one of the tag's keywords.
func (t Tag) HasKeyword(k string) bool {
	for _, kw := range t.Keywords {
		if kw == k {
			return true
		}
	}
	return false
}
