package shop

import (
	"context"

	"github.com/shopspring/decimal"

	q "github.com/roach88/shopq/internal/queryir"
	"github.com/roach88/shopq/internal/schema"
	"github.com/roach88/shopq/internal/store"
)

// AddOrder creates an order for an existing customer, dated today by the
// service clock. The date is never changed afterwards.
func (s *Service) AddOrder(ctx context.Context, customerID int64) (schema.Order, error) {
	const op = "AddOrder"

	created := today(s.clock)
	var order schema.Order
	err := s.store.InTx(ctx, func(tx *store.Tx) error {
		if err := s.mustExist(ctx, tx, op, schema.Customers, customerID); err != nil {
			return err
		}
		id, err := s.insert(ctx, tx, op, q.Insert{
			Table: schema.Orders,
			Values: []q.Assignment{
				q.Set("customer_id", q.L(q.Int(customerID))),
				q.Set("created_at", q.L(q.Date{Time: created})),
			},
		})
		order = schema.Order{ID: id, CustomerID: customerID, CreatedAt: created}
		return err
	})
	if err != nil {
		return schema.Order{}, s.fail(ctx, op, err)
	}
	return order, nil
}

// GetOrder returns one order or NOT_FOUND.
func (s *Service) GetOrder(ctx context.Context, id int64) (schema.Order, error) {
	const op = "GetOrder"
	o, err := get(ctx, s, s.store, op, schema.Orders, id, orderFromRow)
	if err != nil {
		return schema.Order{}, s.fail(ctx, op, err)
	}
	return o, nil
}

// ListOrders returns every order by id.
func (s *Service) ListOrders(ctx context.Context) (List[schema.Order], error) {
	return listOf(ctx, s, "ListOrders", all(schema.Orders), orderFromRow)
}

// OrdersByYear returns the orders created in year.
func (s *Service) OrdersByYear(ctx context.Context, year int) (List[schema.Order], error) {
	return listOf(ctx, s, "OrdersByYear", ordersByYear(year), orderFromRow)
}

// GetLatestOrder returns the most recently created order. Among orders
// created the same day the highest id wins. ok is false when there are no
// orders.
func (s *Service) GetLatestOrder(ctx context.Context) (order schema.Order, ok bool, err error) {
	const op = "GetLatestOrder"
	order, ok, err = fetchOne(ctx, s, s.store, op, latestOrder(), orderFromRow)
	if err != nil {
		return schema.Order{}, false, s.fail(ctx, op, err)
	}
	return order, ok, nil
}

// DeleteOrder removes an order with its items.
func (s *Service) DeleteOrder(ctx context.Context, id int64) error {
	return s.deleteEntity(ctx, "DeleteOrder", schema.Orders, id)
}

// AddOrderItem adds a product line to an order. The order and product must
// exist, and a product can appear only once per order: a second add for the
// same pair fails with DUPLICATE and leaves the first line untouched.
//
// The lookups and the insert share a transaction.
func (s *Service) AddOrderItem(ctx context.Context, in NewOrderItem) (schema.OrderItem, error) {
	const op = "AddOrderItem"
	if err := s.check(in); err != nil {
		return schema.OrderItem{}, err
	}

	var item schema.OrderItem
	err := s.store.InTx(ctx, func(tx *store.Tx) error {
		if err := s.mustExist(ctx, tx, op, schema.Orders, in.OrderID); err != nil {
			return err
		}
		if err := s.mustExist(ctx, tx, op, schema.Products, in.ProductID); err != nil {
			return err
		}

		_, dup, err := fetchOne(ctx, s, tx, op, orderItemPair(in.OrderID, in.ProductID), itemFromRow)
		if err != nil {
			return err
		}
		if dup {
			return Duplicate(entityName(schema.OrderItems), "product is already in the order", nil)
		}

		id, err := s.insert(ctx, tx, op, q.Insert{
			Table: schema.OrderItems,
			Values: []q.Assignment{
				q.Set("order_id", q.L(q.Int(in.OrderID))),
				q.Set("product_id", q.L(q.Int(in.ProductID))),
				q.Set("quantity", q.L(q.Int(in.Quantity))),
			},
		})
		item = schema.OrderItem{ID: id, OrderID: in.OrderID, ProductID: in.ProductID, Quantity: in.Quantity}
		return err
	})
	if err != nil {
		return schema.OrderItem{}, s.fail(ctx, op, err)
	}
	return item, nil
}

// OrderItems returns the items of one order.
func (s *Service) OrderItems(ctx context.Context, orderID int64) (List[schema.OrderItem], error) {
	const op = "OrderItems"
	if err := s.mustExist(ctx, s.store, op, schema.Orders, orderID); err != nil {
		return List[schema.OrderItem]{}, s.fail(ctx, op, err)
	}
	return listOf(ctx, s, op, itemsOfOrder(orderID), itemFromRow)
}

// GetOrderTotalItems returns the number of units in an order.
func (s *Service) GetOrderTotalItems(ctx context.Context, orderID int64) (OrderTotalItems, error) {
	const op = "GetOrderTotalItems"

	var out OrderTotalItems
	err := func() error {
		if err := s.mustExist(ctx, s.store, op, schema.Orders, orderID); err != nil {
			return err
		}
		row, err := s.aggregate(ctx, s.store, op, orderTotalItems(orderID))
		if err != nil {
			return err
		}
		out.Total = optionalInt(row, "total")
		return nil
	}()
	if err != nil {
		return OrderTotalItems{}, s.fail(ctx, op, err)
	}
	return out, nil
}

// OrdersWithMaxItemPrice returns every order with the highest current price
// among its items.
func (s *Service) OrdersWithMaxItemPrice(ctx context.Context) (List[OrderMaxItemPrice], error) {
	return listOf(ctx, s, "OrdersWithMaxItemPrice", ordersWithMaxItemPrice(), func(r store.Row) OrderMaxItemPrice {
		return OrderMaxItemPrice{Order: orderFromRow(r), MaxItemPrice: r.Money("max_item_price")}
	})
}

// OrdersWithTotals returns every order with its value and whether the value
// exceeds threshold. Orders without items have no value and are not
// expensive.
func (s *Service) OrdersWithTotals(ctx context.Context, threshold decimal.Decimal) (List[OrderTotal], error) {
	return listOf(ctx, s, "OrdersWithTotals", ordersWithTotals(threshold), func(r store.Row) OrderTotal {
		return OrderTotal{
			Order:       orderFromRow(r),
			Total:       r.Money("total"),
			IsExpensive: r.Bool("is_expensive"),
		}
	})
}

// RankOrdersByTotal ranks orders by value, highest first. Equal values
// share a rank; with dense false the next rank skips (1, 1, 3), with dense
// true it does not (1, 1, 2). Orders without items rank last. Rows come
// back by rank, then by id.
func (s *Service) RankOrdersByTotal(ctx context.Context, dense bool) (List[OrderRank], error) {
	return listOf(ctx, s, "RankOrdersByTotal", rankOrdersByTotal(dense), func(r store.Row) OrderRank {
		return OrderRank{ID: r.Int("id"), Total: r.Money("total"), Rank: r.Int("rank")}
	})
}

// OrderStats summarizes orders created in year, or all orders when year is
// 0: how many there are and the revenue of their items at current prices,
// together with the average catalog price.
func (s *Service) OrderStats(ctx context.Context, year int) (OrderStats, error) {
	const op = "OrderStats"

	var stats OrderStats
	err := func() error {
		row, err := s.aggregate(ctx, s.store, op, orderCount(year))
		if err != nil {
			return err
		}
		stats.OrderCount = row.Int("order_count")

		if row, err = s.aggregate(ctx, s.store, op, revenue(year)); err != nil {
			return err
		}
		stats.Revenue = row.Money("revenue")

		if row, err = s.aggregate(ctx, s.store, op, averagePrice()); err != nil {
			return err
		}
		stats.AveragePrice = row.Money("average_price")
		return nil
	}()
	if err != nil {
		return OrderStats{}, s.fail(ctx, op, err)
	}
	return stats, nil
}

// aggregate runs an Aggregate, which always yields exactly one row.
func (s *Service) aggregate(ctx context.Context, r runner, op string, agg q.Aggregate) (store.Row, error) {
	st, err := s.compile(ctx, op, agg)
	if err != nil {
		return nil, err
	}
	row, ok, err := r.QueryOne(ctx, st)
	if err != nil {
		return nil, err
	}
	if !ok {
		return store.Row{}, nil
	}
	return row, nil
}
