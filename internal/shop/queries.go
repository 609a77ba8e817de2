package shop

import (
	"time"

	"github.com/shopspring/decimal"

	q "github.com/roach88/shopq/internal/queryir"
	"github.com/roach88/shopq/internal/schema"
	"github.com/roach88/shopq/internal/store"
)

// Query constructors. Each read operation is exactly one of these, compiled
// and run as one statement.

func byID(table string, id int64) q.Select {
	return q.Select{From: table, Filter: q.Eq("id", q.Int(id))}
}

func all(table string) q.Select {
	return q.Select{From: table}
}

func customersExcludingEmail(email string) q.Select {
	return q.Select{From: schema.Customers, Filter: q.NotEq("email", q.String(email))}
}

func customersWithOrderCounts() q.Select {
	return q.Select{
		From: schema.Customers,
		Columns: append(q.Fields("id", "name", "email"),
			q.As("order_count", q.CountOf("orders"))),
	}
}

func customersWithLatestOrder() q.Select {
	return q.Select{
		From: schema.Customers,
		Columns: append(q.Fields("id", "name", "email"),
			q.As("latest_order_date", q.Subquery{Relation: "orders", Value: q.Max(q.C("created_at"))}),
			q.As("latest_order_id", q.Subquery{
				Relation: "orders",
				Value:    q.C("id"),
				OrderBy:  []q.Order{q.Desc(q.C("created_at")), q.Desc(q.C("id"))},
			}),
		),
	}
}

func ordersOfCustomer(customerID int64) q.Select {
	return q.Select{
		From:    schema.Orders,
		Filter:  q.Eq("customer_id", q.Int(customerID)),
		OrderBy: []q.Order{q.Asc(q.C("created_at"))},
	}
}

func productsCheaperThan(price decimal.Decimal) q.Select {
	return q.Select{
		From:    schema.Products,
		Filter:  q.Lt("price", q.MoneyOf(price)),
		OrderBy: []q.Order{q.Asc(q.C("price"))},
	}
}

func productsByName(term string) q.Select {
	return q.Select{From: schema.Products, Filter: q.Contains("name", term)}
}

// productsMatching finds products whose name contains term or that carry
// term as a tag keyword. One statement; a product matching both ways, or
// through several tags, appears once.
func productsMatching(term string) q.Select {
	return q.Select{
		From:   schema.Products,
		Filter: q.AnyOf(q.Contains("name", term), q.Has("tags.keywords", term)),
	}
}

func productsByTag(keyword string) q.Select {
	return q.Select{From: schema.Products, Filter: q.Has("tags.keywords", keyword)}
}

func productsOrderedByCustomer(customerID int64) q.Select {
	return q.Select{
		From:   schema.Products,
		Filter: q.Eq("items.order.customer.id", q.Int(customerID)),
	}
}

func rating(ref string) q.JSONNumber {
	return q.JSONNumber{Ref: ref, Key: "rating"}
}

func productRatings() q.Select {
	return q.Select{
		From: schema.Products,
		Columns: append(q.Fields("id", "name", "price", "stock"),
			q.As("review_count", q.CountOf("reviews")),
			q.As("average_rating", q.Subquery{Relation: "reviews", Value: q.Avg(rating("data"))}),
		),
	}
}

func productsWithMinRating(minRating float64, limit int) q.Select {
	return q.Select{
		From:   schema.Products,
		Filter: q.Compare{Left: rating("reviews.data"), Op: q.OpGte, Value: q.Float(minRating)},
		Limit:  limit,
	}
}

func tagsOfProduct(productID int64) q.Select {
	return q.Select{From: schema.Tags, Filter: q.Eq("product_id", q.Int(productID))}
}

func reviewsOfProduct(productID int64) q.Select {
	return q.Select{From: schema.Reviews, Filter: q.Eq("product_id", q.Int(productID))}
}

func unitsSoldPerProduct() q.Select {
	return q.Select{
		From: schema.OrderItems,
		Columns: []q.Projection{
			q.As("product_id", q.C("product_id")),
			q.As("product_name", q.C("product.name")),
			q.As("units", q.Sum(q.C("quantity"))),
		},
		GroupBy: []string{"product_id", "product.name"},
		OrderBy: []q.Order{q.Desc(q.OutputRef{Name: "units"})},
	}
}

func ordersByYear(year int) q.Select {
	return q.Select{From: schema.Orders, Filter: q.InYear("created_at", year)}
}

// latestOrder orders by creation date, newest first, with the highest id
// winning among orders created the same day.
func latestOrder() q.Select {
	return q.Select{
		From:    schema.Orders,
		OrderBy: []q.Order{q.Desc(q.C("created_at")), q.Desc(q.C("id"))},
		Limit:   1,
	}
}

func itemsOfOrder(orderID int64) q.Select {
	return q.Select{From: schema.OrderItems, Filter: q.Eq("order_id", q.Int(orderID))}
}

func orderItemPair(orderID, productID int64) q.Select {
	return q.Select{
		From:    schema.OrderItems,
		Columns: q.Fields("id"),
		Filter:  q.AllOf(q.Eq("order_id", q.Int(orderID)), q.Eq("product_id", q.Int(productID))),
	}
}

func orderTotalItems(orderID int64) q.Aggregate {
	return q.Aggregate{
		From:     schema.OrderItems,
		Filter:   q.Eq("order_id", q.Int(orderID)),
		Measures: []q.Projection{q.As("total", q.Sum(q.C("quantity")))},
	}
}

// lineTotal is quantity × the product's current price.
func lineTotal() q.Arith {
	return q.Times(q.C("quantity"), q.C("product.price"))
}

// orderTotal is the value of the current order: NULL when it has no items.
func orderTotal() q.Subquery {
	return q.Subquery{Relation: "items", Value: q.Sum(lineTotal())}
}

func ordersWithMaxItemPrice() q.Select {
	return q.Select{
		From: schema.Orders,
		Columns: append(q.Fields("id", "customer_id", "created_at"),
			q.As("max_item_price", q.Subquery{Relation: "items", Value: q.Max(q.C("product.price"))})),
	}
}

func ordersWithTotals(threshold decimal.Decimal) q.Select {
	return q.Select{
		From: schema.Orders,
		Columns: append(q.Fields("id", "customer_id", "created_at"),
			q.As("total", orderTotal()),
			q.As("is_expensive", q.Exceeds{Expr: orderTotal(), Threshold: q.MoneyOf(threshold)}),
		),
	}
}

// rankOrdersByTotal ranks every order by value, highest first. Equal
// totals share a rank; orders without items rank last. Rows come back in
// rank order, ties by ascending id.
func rankOrdersByTotal(dense bool) q.Select {
	return q.Select{
		From: schema.Orders,
		Columns: []q.Projection{
			q.As("id", q.C("id")),
			q.As("total", orderTotal()),
			q.As("rank", q.Rank{By: orderTotal(), Desc: true, Dense: dense}),
		},
		OrderBy: []q.Order{q.Asc(q.OutputRef{Name: "rank"})},
	}
}

func yearFilter(ref string, year int) q.Predicate {
	if year == 0 {
		return nil
	}
	return q.InYear(ref, year)
}

func orderCount(year int) q.Aggregate {
	return q.Aggregate{
		From:     schema.Orders,
		Filter:   yearFilter("created_at", year),
		Measures: []q.Projection{q.As("order_count", q.Count())},
	}
}

func revenue(year int) q.Aggregate {
	return q.Aggregate{
		From:     schema.OrderItems,
		Filter:   yearFilter("order.created_at", year),
		Measures: []q.Projection{q.As("revenue", q.Sum(lineTotal()))},
	}
}

func averagePrice() q.Aggregate {
	return q.Aggregate{
		From:     schema.Products,
		Measures: []q.Projection{q.As("average_price", q.Avg(q.C("price")))},
	}
}

// decrementStock is guarded in SQL, so a product at zero is never touched
// and two concurrent decrements cannot both read the same stock.
func decrementStock(productID int64) q.Update {
	return q.Update{
		Table:  schema.Products,
		Set:    []q.Assignment{q.Set("stock", q.Minus(q.C("stock"), q.L(q.Int(1))))},
		Filter: q.AllOf(q.Eq("id", q.Int(productID)), q.Gt("stock", q.Int(0))),
	}
}

func setPrice(productID int64, price decimal.Decimal) q.Update {
	return q.Update{
		Table:  schema.Products,
		Set:    []q.Assignment{q.Set("price", q.L(q.MoneyOf(price)))},
		Filter: q.Eq("id", q.Int(productID)),
	}
}

// lowStockDiscount lowers every qualifying price in one set-based UPDATE.
// Prices floor at zero.
func lowStockDiscount(threshold int64, discount decimal.Decimal) q.Update {
	return q.Update{
		Table: schema.Products,
		Set: []q.Assignment{q.Set("price", q.Greatest{
			Left:  q.Minus(q.C("price"), q.L(q.MoneyOf(discount))),
			Right: q.L(q.MoneyOf(decimal.Zero)),
		})},
		Filter: q.Lt("stock", q.Int(threshold)),
	}
}

func deleteByID(table string, id int64) q.Delete {
	return q.Delete{Table: table, Filter: q.Eq("id", q.Int(id))}
}

// Row conversions.

func customerFromRow(r store.Row) schema.Customer {
	return schema.Customer{ID: r.Int("id"), Name: r.Text("name"), Email: r.Text("email")}
}

func productFromRow(r store.Row) schema.Product {
	return schema.Product{
		ID:    r.Int("id"),
		Name:  r.Text("name"),
		Price: r.Money("price").Decimal,
		Stock: r.Int("stock"),
	}
}

func orderFromRow(r store.Row) schema.Order {
	created, _ := r.Date("created_at")
	return schema.Order{ID: r.Int("id"), CustomerID: r.Int("customer_id"), CreatedAt: created}
}

func itemFromRow(r store.Row) schema.OrderItem {
	return schema.OrderItem{
		ID:        r.Int("id"),
		OrderID:   r.Int("order_id"),
		ProductID: r.Int("product_id"),
		Quantity:  r.Int("quantity"),
	}
}

func reviewFromRow(r store.Row) schema.Review {
	return schema.Review{
		ID:         r.Int("id"),
		ProductID:  r.Int("product_id"),
		CustomerID: r.Int("customer_id"),
		Data:       r.JSON("data"),
	}
}

func tagFromRow(r store.Row) schema.Tag {
	return schema.Tag{ID: r.Int("id"), ProductID: r.Int("product_id"), Keywords: r.TextList("keywords")}
}

func optionalInt(r store.Row, name string) *int64 {
	if r.IsNull(name) {
		return nil
	}
	v := r.Int(name)
	return &v
}

func optionalDate(r store.Row, name string) *time.Time {
	v, ok := r.Date(name)
	if !ok {
		return nil
	}
	return &v
}

func optionalFloat(r store.Row, name string) *float64 {
	v, ok := r.Float(name)
	if !ok {
		return nil
	}
	return &v
}
