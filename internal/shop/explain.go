package shop

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/roach88/shopq/internal/queryir"
	"github.com/roach88/shopq/internal/querysql"
	"github.com/roach88/shopq/internal/schema"
)

// Params carries the arguments of any read operation for Explain. Each
// operation reads only the fields it needs.
type Params struct {
	ID         int64
	Term       string
	Email      string
	Year       int
	Price      decimal.Decimal
	Threshold  decimal.Decimal
	MinRating  float64
	Limit      int
	Dense      bool
	StockBelow int64
	Discount   decimal.Decimal
}

var explained = map[string]func(Params) queryir.Query{
	"GetCustomer":               func(p Params) queryir.Query { return byID(schema.Customers, p.ID) },
	"ListCustomers":             func(Params) queryir.Query { return all(schema.Customers) },
	"ExcludeCustomerByEmail":    func(p Params) queryir.Query { return customersExcludingEmail(p.Email) },
	"CustomersWithOrderCounts":  func(Params) queryir.Query { return customersWithOrderCounts() },
	"CustomersWithLatestOrder":  func(Params) queryir.Query { return customersWithLatestOrder() },
	"CustomerOrders":            func(p Params) queryir.Query { return ordersOfCustomer(p.ID) },
	"GetProduct":                func(p Params) queryir.Query { return byID(schema.Products, p.ID) },
	"ListProducts":              func(Params) queryir.Query { return all(schema.Products) },
	"ProductsCheaperThan":       func(p Params) queryir.Query { return productsCheaperThan(p.Price) },
	"SearchProductsByName":      func(p Params) queryir.Query { return productsByName(p.Term) },
	"SearchProducts":            func(p Params) queryir.Query { return productsMatching(p.Term) },
	"ProductsByTag":             func(p Params) queryir.Query { return productsByTag(p.Term) },
	"ProductsOrderedByCustomer": func(p Params) queryir.Query { return productsOrderedByCustomer(p.ID) },
	"ProductRatings":            func(Params) queryir.Query { return productRatings() },
	"ProductsWithMinRating":     func(p Params) queryir.Query { return productsWithMinRating(p.MinRating, p.Limit) },
	"ProductTags":               func(p Params) queryir.Query { return tagsOfProduct(p.ID) },
	"ProductReviews":            func(p Params) queryir.Query { return reviewsOfProduct(p.ID) },
	"UnitsSoldPerProduct":       func(Params) queryir.Query { return unitsSoldPerProduct() },
	"GetOrder":                  func(p Params) queryir.Query { return byID(schema.Orders, p.ID) },
	"ListOrders":                func(Params) queryir.Query { return all(schema.Orders) },
	"OrdersByYear":              func(p Params) queryir.Query { return ordersByYear(p.Year) },
	"GetLatestOrder":            func(Params) queryir.Query { return latestOrder() },
	"OrderItems":                func(p Params) queryir.Query { return itemsOfOrder(p.ID) },
	"GetOrderTotalItems":        func(p Params) queryir.Query { return orderTotalItems(p.ID) },
	"OrdersWithMaxItemPrice":    func(Params) queryir.Query { return ordersWithMaxItemPrice() },
	"OrdersWithTotals":          func(p Params) queryir.Query { return ordersWithTotals(p.Threshold) },
	"RankOrdersByTotal":         func(p Params) queryir.Query { return rankOrdersByTotal(p.Dense) },
	"OrderCount":                func(p Params) queryir.Query { return orderCount(p.Year) },
	"Revenue":                   func(p Params) queryir.Query { return revenue(p.Year) },
	"AveragePrice":              func(Params) queryir.Query { return averagePrice() },
	"DecreaseProductStock":      func(p Params) queryir.Query { return decrementStock(p.ID) },
	"UpdateProductPrice":        func(p Params) queryir.Query { return setPrice(p.ID, p.Price) },
	"ApplyLowStockDiscount":     func(p Params) queryir.Query { return lowStockDiscount(p.StockBelow, p.Discount) },
}

// ExplainOperations lists the operations Explain knows, sorted.
func ExplainOperations() []string {
	names := make([]string, 0, len(explained))
	for name := range explained {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Explain compiles the statement an operation runs, without running it.
// OrderStats is explained through its parts: OrderCount, Revenue and
// AveragePrice.
func (s *Service) Explain(op string, p Params) (querysql.Statement, error) {
	build, ok := explained[op]
	if !ok {
		return querysql.Statement{}, Invalid(fmt.Sprintf("unknown operation %q", op), nil)
	}
	st, err := s.compiler.Compile(build(p))
	if err != nil {
		return querysql.Statement{}, fmt.Errorf("explain %s: %w", op, err)
	}
	return st, nil
}
