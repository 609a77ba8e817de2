package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/roach88/shopq/internal/schema"
	"github.com/roach88/shopq/internal/shop"
)

// serviceFunc is the body of a command that works against the catalog.
type serviceFunc func(ctx context.Context, svc *shop.Service, f *OutputFormatter, args []string) error

// leaf builds a subcommand whose body runs against the configured service.
func leaf(opts *RootOptions, use, short string, args cobra.PositionalArgs, fn serviceFunc) *cobra.Command {
	return &cobra.Command{
		Use:           use,
		Short:         short,
		Args:          args,
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withService(cmd, func(ctx context.Context, svc *shop.Service, f *OutputFormatter) error {
				return fn(ctx, svc, f, args)
			})
		},
	}
}

// NewCustomerCommand creates the customer command group.
func NewCustomerCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "customer",
		Short: "Add, query and delete customers",
	}

	var in shop.NewCustomer
	add := leaf(opts, "add", "Add a customer", cobra.NoArgs,
		func(ctx context.Context, svc *shop.Service, f *OutputFormatter, _ []string) error {
			c, err := svc.AddCustomer(ctx, in)
			if err != nil {
				return err
			}
			return f.Table(c, customerHeaders, [][]string{customerRow(c)})
		})
	add.Flags().StringVar(&in.Name, "name", "", "customer name")
	add.Flags().StringVar(&in.Email, "email", "", "customer email")

	cmd.AddCommand(
		add,
		leaf(opts, "get <id>", "Show one customer", cobra.ExactArgs(1),
			func(ctx context.Context, svc *shop.Service, f *OutputFormatter, args []string) error {
				id, err := parseID("customer id", args[0])
				if err != nil {
					return err
				}
				c, err := svc.GetCustomer(ctx, id)
				if err != nil {
					return err
				}
				return f.Table(c, customerHeaders, [][]string{customerRow(c)})
			}),
		leaf(opts, "list", "List all customers", cobra.NoArgs,
			func(ctx context.Context, svc *shop.Service, f *OutputFormatter, _ []string) error {
				list, err := svc.ListCustomers(ctx)
				if err != nil {
					return err
				}
				return f.Table(list, customerHeaders, rowsOf(list.Items, customerRow))
			}),
		leaf(opts, "exclude <email>", "List customers whose email is not the given one", cobra.ExactArgs(1),
			func(ctx context.Context, svc *shop.Service, f *OutputFormatter, args []string) error {
				list, err := svc.ExcludeCustomerByEmail(ctx, args[0])
				if err != nil {
					return err
				}
				return f.Table(list, customerHeaders, rowsOf(list.Items, customerRow))
			}),
		leaf(opts, "counts", "List customers with their number of orders", cobra.NoArgs,
			func(ctx context.Context, svc *shop.Service, f *OutputFormatter, _ []string) error {
				list, err := svc.CustomersWithOrderCounts(ctx)
				if err != nil {
					return err
				}
				return f.Table(list, []string{"ID", "NAME", "EMAIL", "ORDERS"},
					rowsOf(list.Items, func(c shop.CustomerOrderCount) []string {
						return append(customerRow(c.Customer), itoa(c.OrderCount))
					}))
			}),
		leaf(opts, "latest", "List customers with their most recent order", cobra.NoArgs,
			func(ctx context.Context, svc *shop.Service, f *OutputFormatter, _ []string) error {
				list, err := svc.CustomersWithLatestOrder(ctx)
				if err != nil {
					return err
				}
				return f.Table(list, []string{"ID", "NAME", "EMAIL", "LATEST ORDER", "DATE"},
					rowsOf(list.Items, func(c shop.CustomerLatestOrder) []string {
						orderID, date := "-", "-"
						if c.LatestOrderID != nil {
							orderID = itoa(*c.LatestOrderID)
						}
						if c.LatestOrderDate != nil {
							date = c.LatestOrderDate.Format(schema.DateLayout)
						}
						return append(customerRow(c.Customer), orderID, date)
					}))
			}),
		leaf(opts, "orders <id>", "List the orders of one customer", cobra.ExactArgs(1),
			func(ctx context.Context, svc *shop.Service, f *OutputFormatter, args []string) error {
				id, err := parseID("customer id", args[0])
				if err != nil {
					return err
				}
				list, err := svc.CustomerOrders(ctx, id)
				if err != nil {
					return err
				}
				return f.Table(list, orderHeaders, rowsOf(list.Items, orderRow))
			}),
		leaf(opts, "delete <id>", "Delete a customer with its orders and reviews", cobra.ExactArgs(1),
			func(ctx context.Context, svc *shop.Service, f *OutputFormatter, args []string) error {
				id, err := parseID("customer id", args[0])
				if err != nil {
					return err
				}
				if err := svc.DeleteCustomer(ctx, id); err != nil {
					return err
				}
				return deleted(f, "customer", id)
			}),
	)
	return cmd
}

// deleted reports a successful delete.
func deleted(f *OutputFormatter, entity string, id int64) error {
	if f.Format == "json" {
		return f.Success(map[string]int64{"deleted": id})
	}
	return f.Success("✓ Deleted " + entity + " " + itoa(id))
}
