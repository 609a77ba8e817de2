package cli

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/roach88/shopq/internal/schema"
	"github.com/roach88/shopq/internal/shop"
)

// NewOrderCommand creates the order command group.
func NewOrderCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Place orders and report on them",
	}

	cmd.AddCommand(
		leaf(opts, "add <customer-id>", "Create an order for a customer, dated today", cobra.ExactArgs(1),
			func(ctx context.Context, svc *shop.Service, f *OutputFormatter, args []string) error {
				id, err := parseID("customer id", args[0])
				if err != nil {
					return err
				}
				o, err := svc.AddOrder(ctx, id)
				if err != nil {
					return err
				}
				return f.Table(o, orderHeaders, [][]string{orderRow(o)})
			}),
		leaf(opts, "get <id>", "Show one order", cobra.ExactArgs(1),
			func(ctx context.Context, svc *shop.Service, f *OutputFormatter, args []string) error {
				id, err := parseID("order id", args[0])
				if err != nil {
					return err
				}
				o, err := svc.GetOrder(ctx, id)
				if err != nil {
					return err
				}
				return f.Table(o, orderHeaders, [][]string{orderRow(o)})
			}),
		leaf(opts, "list", "List all orders", cobra.NoArgs,
			func(ctx context.Context, svc *shop.Service, f *OutputFormatter, _ []string) error {
				list, err := svc.ListOrders(ctx)
				if err != nil {
					return err
				}
				return f.Table(list, orderHeaders, rowsOf(list.Items, orderRow))
			}),
		leaf(opts, "year <year>", "List orders created in a calendar year", cobra.ExactArgs(1),
			func(ctx context.Context, svc *shop.Service, f *OutputFormatter, args []string) error {
				year, err := parseYear(args[0])
				if err != nil {
					return err
				}
				list, err := svc.OrdersByYear(ctx, year)
				if err != nil {
					return err
				}
				return f.Table(list, orderHeaders, rowsOf(list.Items, orderRow))
			}),
		leaf(opts, "latest", "Show the most recent order", cobra.NoArgs,
			func(ctx context.Context, svc *shop.Service, f *OutputFormatter, _ []string) error {
				o, ok, err := svc.GetLatestOrder(ctx)
				if err != nil {
					return err
				}
				if f.Format == "json" {
					var order *schema.Order
					if ok {
						order = &o
					}
					return f.Success(map[string]any{"found": ok, "order": order})
				}
				if !ok {
					return f.Success("(no orders)")
				}
				return f.Table(o, orderHeaders, [][]string{orderRow(o)})
			}),
		leaf(opts, "delete <id>", "Delete an order with its items", cobra.ExactArgs(1),
			func(ctx context.Context, svc *shop.Service, f *OutputFormatter, args []string) error {
				id, err := parseID("order id", args[0])
				if err != nil {
					return err
				}
				if err := svc.DeleteOrder(ctx, id); err != nil {
					return err
				}
				return deleted(f, "order", id)
			}),
		newAddItemCommand(opts),
		leaf(opts, "items <id>", "List the items of an order", cobra.ExactArgs(1),
			func(ctx context.Context, svc *shop.Service, f *OutputFormatter, args []string) error {
				id, err := parseID("order id", args[0])
				if err != nil {
					return err
				}
				list, err := svc.OrderItems(ctx, id)
				if err != nil {
					return err
				}
				return f.Table(list, itemHeaders, rowsOf(list.Items, itemRow))
			}),
		leaf(opts, "total-items <id>", "Show the number of units in an order", cobra.ExactArgs(1),
			func(ctx context.Context, svc *shop.Service, f *OutputFormatter, args []string) error {
				id, err := parseID("order id", args[0])
				if err != nil {
					return err
				}
				total, err := svc.GetOrderTotalItems(ctx, id)
				if err != nil {
					return err
				}
				if f.Format == "json" {
					return f.Success(total)
				}
				if total.Total == nil {
					return f.Success("-")
				}
				return f.Success(itoa(*total.Total))
			}),
		leaf(opts, "max-price", "List orders with their highest item price", cobra.NoArgs,
			func(ctx context.Context, svc *shop.Service, f *OutputFormatter, _ []string) error {
				list, err := svc.OrdersWithMaxItemPrice(ctx)
				if err != nil {
					return err
				}
				return f.Table(list, []string{"ID", "CUSTOMER", "CREATED", "MAX PRICE"},
					rowsOf(list.Items, func(o shop.OrderMaxItemPrice) []string {
						return append(orderRow(o.Order), nullMoney(o.MaxItemPrice))
					}))
			}),
		newTotalsCommand(opts),
		newRankCommand(opts),
		newStatsCommand(opts),
	)
	return cmd
}

func newAddItemCommand(opts *RootOptions) *cobra.Command {
	var quantity int64
	cmd := leaf(opts, "add-item <order-id> <product-id>", "Add a product line to an order", cobra.ExactArgs(2),
		func(ctx context.Context, svc *shop.Service, f *OutputFormatter, args []string) error {
			orderID, err := parseID("order id", args[0])
			if err != nil {
				return err
			}
			productID, err := parseID("product id", args[1])
			if err != nil {
				return err
			}
			item, err := svc.AddOrderItem(ctx, shop.NewOrderItem{OrderID: orderID, ProductID: productID, Quantity: quantity})
			if err != nil {
				return err
			}
			return f.Table(item, itemHeaders, [][]string{itemRow(item)})
		})
	cmd.Flags().Int64VarP(&quantity, "quantity", "q", 1, "units ordered")
	return cmd
}

func newTotalsCommand(opts *RootOptions) *cobra.Command {
	var threshold decimal.Decimal
	cmd := leaf(opts, "totals", "List orders with their value and whether it exceeds a threshold", cobra.NoArgs,
		func(ctx context.Context, svc *shop.Service, f *OutputFormatter, _ []string) error {
			list, err := svc.OrdersWithTotals(ctx, threshold)
			if err != nil {
				return err
			}
			return f.Table(list, []string{"ID", "CUSTOMER", "CREATED", "TOTAL", "EXPENSIVE"},
				rowsOf(list.Items, func(o shop.OrderTotal) []string {
					return append(orderRow(o.Order), nullMoney(o.Total), fmt.Sprint(o.IsExpensive))
				}))
		})
	cmd.Flags().Var(newDecimalValue(decimal.NewFromInt(100), &threshold), "threshold", "value above which an order is expensive")
	return cmd
}

func newRankCommand(opts *RootOptions) *cobra.Command {
	var dense bool
	cmd := leaf(opts, "rank", "Rank orders by value, highest first", cobra.NoArgs,
		func(ctx context.Context, svc *shop.Service, f *OutputFormatter, _ []string) error {
			list, err := svc.RankOrdersByTotal(ctx, dense)
			if err != nil {
				return err
			}
			return f.Table(list, []string{"RANK", "ID", "TOTAL"},
				rowsOf(list.Items, func(r shop.OrderRank) []string {
					return []string{itoa(r.Rank), itoa(r.ID), nullMoney(r.Total)}
				}))
		})
	cmd.Flags().BoolVar(&dense, "dense", false, "rank without gaps after ties")
	return cmd
}

func newStatsCommand(opts *RootOptions) *cobra.Command {
	var year int
	cmd := leaf(opts, "stats", "Summarize order count, revenue and average catalog price", cobra.NoArgs,
		func(ctx context.Context, svc *shop.Service, f *OutputFormatter, _ []string) error {
			if year < 0 || year > 9999 {
				return argError("year must be between 1 and 9999, got %d", year)
			}
			stats, err := svc.OrderStats(ctx, year)
			if err != nil {
				return err
			}
			return f.Table(stats, []string{"ORDERS", "REVENUE", "AVERAGE PRICE"}, [][]string{
				{itoa(stats.OrderCount), nullMoney(stats.Revenue), nullMoney(stats.AveragePrice)},
			})
		})
	cmd.Flags().IntVar(&year, "year", 0, "only count orders created in this year (default: all orders)")
	return cmd
}

var itemHeaders = []string{"ID", "ORDER", "PRODUCT", "QUANTITY"}

func itemRow(i schema.OrderItem) []string {
	return []string{itoa(i.ID), itoa(i.OrderID), itoa(i.ProductID), itoa(i.Quantity)}
}
