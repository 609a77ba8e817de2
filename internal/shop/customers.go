package shop

import (
	"context"

	q "github.com/roach88/shopq/internal/queryir"
	"github.com/roach88/shopq/internal/schema"
	"github.com/roach88/shopq/internal/store"
)

// AddCustomer creates a customer. Email addresses need not be unique.
func (s *Service) AddCustomer(ctx context.Context, in NewCustomer) (schema.Customer, error) {
	const op = "AddCustomer"
	in.Name = clean(in.Name)
	in.Email = clean(in.Email)
	if err := s.check(in); err != nil {
		return schema.Customer{}, err
	}

	id, err := s.insert(ctx, s.store, op, q.Insert{
		Table: schema.Customers,
		Values: []q.Assignment{
			q.Set("name", q.L(q.String(in.Name))),
			q.Set("email", q.L(q.String(in.Email))),
		},
	})
	if err != nil {
		return schema.Customer{}, s.fail(ctx, op, err)
	}
	return schema.Customer{ID: id, Name: in.Name, Email: in.Email}, nil
}

// GetCustomer returns one customer or NOT_FOUND.
func (s *Service) GetCustomer(ctx context.Context, id int64) (schema.Customer, error) {
	const op = "GetCustomer"
	c, err := get(ctx, s, s.store, op, schema.Customers, id, customerFromRow)
	if err != nil {
		return schema.Customer{}, s.fail(ctx, op, err)
	}
	return c, nil
}

// ListCustomers returns every customer by id.
func (s *Service) ListCustomers(ctx context.Context) (List[schema.Customer], error) {
	return listOf(ctx, s, "ListCustomers", all(schema.Customers), customerFromRow)
}

// ExcludeCustomerByEmail returns every customer whose email is not email.
func (s *Service) ExcludeCustomerByEmail(ctx context.Context, email string) (List[schema.Customer], error) {
	return listOf(ctx, s, "ExcludeCustomerByEmail", customersExcludingEmail(clean(email)), customerFromRow)
}

// CustomersWithOrderCounts returns every customer once with the number of
// orders it owns, including customers with none.
func (s *Service) CustomersWithOrderCounts(ctx context.Context) (List[CustomerOrderCount], error) {
	return listOf(ctx, s, "CustomersWithOrderCounts", customersWithOrderCounts(), func(r store.Row) CustomerOrderCount {
		return CustomerOrderCount{Customer: customerFromRow(r), OrderCount: r.Int("order_count")}
	})
}

// CustomersWithLatestOrder returns every customer with the date and id of
// its most recent order. Among orders created the same day the highest id
// is the latest.
func (s *Service) CustomersWithLatestOrder(ctx context.Context) (List[CustomerLatestOrder], error) {
	return listOf(ctx, s, "CustomersWithLatestOrder", customersWithLatestOrder(), func(r store.Row) CustomerLatestOrder {
		return CustomerLatestOrder{
			Customer:        customerFromRow(r),
			LatestOrderDate: optionalDate(r, "latest_order_date"),
			LatestOrderID:   optionalInt(r, "latest_order_id"),
		}
	})
}

// CustomerOrders returns the orders of one customer, oldest first.
func (s *Service) CustomerOrders(ctx context.Context, customerID int64) (List[schema.Order], error) {
	const op = "CustomerOrders"
	if err := s.mustExist(ctx, s.store, op, schema.Customers, customerID); err != nil {
		return List[schema.Order]{}, s.fail(ctx, op, err)
	}
	return listOf(ctx, s, op, ordersOfCustomer(customerID), orderFromRow)
}

// DeleteCustomer removes a customer with its orders, their items and its
// reviews.
func (s *Service) DeleteCustomer(ctx context.Context, id int64) error {
	return s.deleteEntity(ctx, "DeleteCustomer", schema.Customers, id)
}

// deleteEntity deletes one row by id. The lookup and the delete share a
// transaction, so NOT_FOUND never follows a partial delete.
func (s *Service) deleteEntity(ctx context.Context, op, table string, id int64) error {
	err := s.store.InTx(ctx, func(tx *store.Tx) error {
		if err := s.mustExist(ctx, tx, op, table, id); err != nil {
			return err
		}
		_, err := s.exec(ctx, tx, op, table, deleteByID(table, id))
		return err
	})
	if err != nil {
		return s.fail(ctx, op, err)
	}
	s.logger.InfoContext(ctx, "deleted", "op", op, "entity", entityName(table), "id", id)
	return nil
}
