package cli

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/roach88/shopq/internal/shop"
)

// NewReviewCommand creates the review command group.
func NewReviewCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Record product reviews",
	}

	var data string
	add := leaf(opts, "add <product-id> <customer-id>", "Record a review of a product by a customer", cobra.ExactArgs(2),
		func(ctx context.Context, svc *shop.Service, f *OutputFormatter, args []string) error {
			productID, err := parseID("product id", args[0])
			if err != nil {
				return err
			}
			customerID, err := parseID("customer id", args[1])
			if err != nil {
				return err
			}
			var attrs map[string]any
			if err := json.Unmarshal([]byte(data), &attrs); err != nil {
				return argError("invalid --data JSON: %v", err)
			}
			r, err := svc.AddReview(ctx, shop.NewReview{ProductID: productID, CustomerID: customerID, Data: attrs})
			if err != nil {
				return err
			}
			return f.Table(r, reviewHeaders, [][]string{reviewRow(r)})
		})
	add.Long = `Record a review of a product by a customer.

The review body is a JSON object. A numeric "rating" attribute makes the
review count toward "product ratings" and "product top-rated".

Example:
  shopq review add 3 1 --data '{"rating":5,"text":"fast shipping"}'`
	add.Flags().StringVar(&data, "data", "{}", "review attributes as a JSON object")

	cmd.AddCommand(add)
	return cmd
}
