package fixture

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/shopq/internal/shop"
)

// Result maps fixture keys to the ids assigned on insert and counts the
// unkeyed rows.
type Result struct {
	Customers map[string]int64 `json:"customers"`
	Products  map[string]int64 `json:"products"`
	Orders    map[string]int64 `json:"orders"`
	Items     int              `json:"items"`
	Reviews   int              `json:"reviews"`
	Tags      int              `json:"tags"`
}

// dateClock dates orders with a fixture date.
type dateClock time.Time

func (c dateClock) Now() time.Time { return time.Time(c) }

// Apply inserts the catalog through svc, parents first. Each entity is one
// service call, so a failure leaves earlier entities in place.
func Apply(ctx context.Context, svc *shop.Service, cat *Catalog, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	res := Result{
		Customers: make(map[string]int64, len(cat.Customers)),
		Products:  make(map[string]int64, len(cat.Products)),
		Orders:    make(map[string]int64, len(cat.Orders)),
	}

	for _, c := range cat.Customers {
		got, err := svc.AddCustomer(ctx, shop.NewCustomer{Name: c.Name, Email: c.Email})
		if err != nil {
			return res, fmt.Errorf("customer %s: %w", c.Key, err)
		}
		res.Customers[c.Key] = got.ID
	}

	for _, p := range cat.Products {
		got, err := svc.AddProduct(ctx, shop.NewProduct{Name: p.Name, Price: p.Price, Stock: p.Stock})
		if err != nil {
			return res, fmt.Errorf("product %s: %w", p.Key, err)
		}
		res.Products[p.Key] = got.ID
	}

	for _, o := range cat.Orders {
		dated := svc
		if !o.Date.IsZero() {
			dated = svc.At(dateClock(o.Date))
		}
		got, err := dated.AddOrder(ctx, res.Customers[o.Customer])
		if err != nil {
			return res, fmt.Errorf("order %s: %w", o.Key, err)
		}
		res.Orders[o.Key] = got.ID

		for _, it := range o.Items {
			_, err := svc.AddOrderItem(ctx, shop.NewOrderItem{
				OrderID:   got.ID,
				ProductID: res.Products[it.Product],
				Quantity:  it.Quantity,
			})
			if err != nil {
				return res, fmt.Errorf("order %s item %s: %w", o.Key, it.Product, err)
			}
			res.Items++
		}
	}

	for i, r := range cat.Reviews {
		_, err := svc.AddReview(ctx, shop.NewReview{
			ProductID:  res.Products[r.Product],
			CustomerID: res.Customers[r.Customer],
			Data:       r.Data,
		})
		if err != nil {
			return res, fmt.Errorf("review %d: %w", i, err)
		}
		res.Reviews++
	}

	for i, t := range cat.Tags {
		_, err := svc.AddTag(ctx, shop.NewTag{ProductID: res.Products[t.Product], Keywords: t.Keywords})
		if err != nil {
			return res, fmt.Errorf("tag %d: %w", i, err)
		}
		res.Tags++
	}

	logger.Info("fixture applied",
		"customers", len(res.Customers),
		"products", len(res.Products),
		"orders", len(res.Orders),
		"items", res.Items,
		"reviews", res.Reviews,
		"tags", res.Tags)
	return res, nil
}
