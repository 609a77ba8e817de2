package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/roach88/shopq/internal/shop"
)

// ExplainResult is the JSON payload of the sql command.
type ExplainResult struct {
	Operation string          `json:"operation"`
	SQL       string          `json:"sql"`
	Args      []any           `json:"args"`
	Columns   []ExplainColumn `json:"columns,omitempty"`
}

// ExplainColumn is one result column of an explained statement.
type ExplainColumn struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// NewSQLCommand creates the sql command.
func NewSQLCommand(opts *RootOptions) *cobra.Command {
	var p shop.Params

	cmd := leaf(opts, "sql [operation]", "Show the SQL an operation runs", cobra.MaximumNArgs(1),
		func(ctx context.Context, svc *shop.Service, f *OutputFormatter, args []string) error {
			if len(args) == 0 {
				ops := shop.ExplainOperations()
				if f.Format == "json" {
					return f.Success(ops)
				}
				return f.Success(strings.Join(ops, "\n"))
			}

			st, err := svc.Explain(args[0], p)
			if err != nil {
				return err
			}
			res := ExplainResult{Operation: args[0], SQL: st.SQL, Args: st.Args}
			if res.Args == nil {
				res.Args = []any{}
			}
			for _, c := range st.Columns {
				res.Columns = append(res.Columns, ExplainColumn{Name: c.Name, Kind: c.Kind.String()})
			}
			if f.Format == "json" {
				return f.Success(res)
			}

			fmt.Fprintln(f.Writer, st.SQL)
			if len(st.Args) > 0 {
				fmt.Fprintf(f.Writer, "-- args: %v\n", st.Args)
			}
			return nil
		})
	cmd.Long = `Show the SQL an operation runs, compiled for the configured database,
without running it. With no operation, list the operations that can be
explained. OrderStats is explained through its parts: OrderCount, Revenue
and AveragePrice.

Example:
  shopq sql OrdersWithTotals --threshold 250
  shopq --driver postgres --db "$DATABASE_URL" sql ProductsByTag --term portable`

	cmd.Flags().Int64Var(&p.ID, "id", 1, "entity id for operations that take one")
	cmd.Flags().StringVar(&p.Term, "term", "", "search term or tag keyword")
	cmd.Flags().StringVar(&p.Email, "email", "", "email for ExcludeCustomerByEmail")
	cmd.Flags().IntVar(&p.Year, "year", 0, "calendar year; 0 means all years")
	cmd.Flags().Var(newDecimalValue(decimal.Zero, &p.Price), "price", "price for ProductsCheaperThan and UpdateProductPrice")
	cmd.Flags().Var(newDecimalValue(decimal.NewFromInt(100), &p.Threshold), "threshold", "threshold for OrdersWithTotals")
	cmd.Flags().Float64Var(&p.MinRating, "min-rating", 4, "minimum rating for ProductsWithMinRating")
	cmd.Flags().IntVar(&p.Limit, "limit", 10, "row limit for ProductsWithMinRating")
	cmd.Flags().BoolVar(&p.Dense, "dense", false, "dense ranking for RankOrdersByTotal")
	cmd.Flags().Int64Var(&p.StockBelow, "below", 5, "stock threshold for ApplyLowStockDiscount")
	cmd.Flags().Var(newDecimalValue(decimal.NewFromInt(1), &p.Discount), "amount", "discount for ApplyLowStockDiscount")
	return cmd
}
