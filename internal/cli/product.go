package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/roach88/shopq/internal/schema"
	"github.com/roach88/shopq/internal/shop"
)

// NewProductCommand creates the product command group.
func NewProductCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "product",
		Short: "Manage the catalog and query products",
	}

	cmd.AddCommand(
		newProductAddCommand(opts),
		leaf(opts, "get <id>", "Show one product", cobra.ExactArgs(1),
			func(ctx context.Context, svc *shop.Service, f *OutputFormatter, args []string) error {
				id, err := parseID("product id", args[0])
				if err != nil {
					return err
				}
				p, err := svc.GetProduct(ctx, id)
				if err != nil {
					return err
				}
				return f.Table(p, productHeaders, [][]string{productRow(p)})
			}),
		productList(opts, "list", "List all products", cobra.NoArgs,
			func(ctx context.Context, svc *shop.Service, _ []string) (shop.List[schema.Product], error) {
				return svc.ListProducts(ctx)
			}),
		productList(opts, "cheaper <price>", "List products priced strictly below a price", cobra.ExactArgs(1),
			func(ctx context.Context, svc *shop.Service, args []string) (shop.List[schema.Product], error) {
				price, err := parseAmount(args[0])
				if err != nil {
					return shop.List[schema.Product]{}, argError("%v", err)
				}
				return svc.ProductsCheaperThan(ctx, price)
			}),
		productList(opts, "search <term>", "List products whose name contains a term, ignoring case", cobra.ExactArgs(1),
			func(ctx context.Context, svc *shop.Service, args []string) (shop.List[schema.Product], error) {
				return svc.SearchProductsByName(ctx, args[0])
			}),
		productList(opts, "find <term>", "List products whose name or tags mention a term", cobra.ExactArgs(1),
			func(ctx context.Context, svc *shop.Service, args []string) (shop.List[schema.Product], error) {
				return svc.SearchProducts(ctx, args[0])
			}),
		productList(opts, "tagged <keyword>", "List products carrying a tag keyword", cobra.ExactArgs(1),
			func(ctx context.Context, svc *shop.Service, args []string) (shop.List[schema.Product], error) {
				return svc.ProductsByTag(ctx, args[0])
			}),
		productList(opts, "ordered-by <customer-id>", "List products a customer has ordered", cobra.ExactArgs(1),
			func(ctx context.Context, svc *shop.Service, args []string) (shop.List[schema.Product], error) {
				id, err := parseID("customer id", args[0])
				if err != nil {
					return shop.List[schema.Product]{}, err
				}
				return svc.ProductsOrderedByCustomer(ctx, id)
			}),
		newTopRatedCommand(opts),
		leaf(opts, "tag <id> <keyword>...", "Attach a keyword list to a product", cobra.MinimumNArgs(2),
			func(ctx context.Context, svc *shop.Service, f *OutputFormatter, args []string) error {
				id, err := parseID("product id", args[0])
				if err != nil {
					return err
				}
				tag, err := svc.AddTag(ctx, shop.NewTag{ProductID: id, Keywords: args[1:]})
				if err != nil {
					return err
				}
				return f.Table(tag, tagHeaders, [][]string{tagRow(tag)})
			}),
		leaf(opts, "tags <id>", "List the tags of a product", cobra.ExactArgs(1),
			func(ctx context.Context, svc *shop.Service, f *OutputFormatter, args []string) error {
				id, err := parseID("product id", args[0])
				if err != nil {
					return err
				}
				list, err := svc.ProductTags(ctx, id)
				if err != nil {
					return err
				}
				return f.Table(list, tagHeaders, rowsOf(list.Items, tagRow))
			}),
		leaf(opts, "reviews <id>", "List the reviews of a product", cobra.ExactArgs(1),
			func(ctx context.Context, svc *shop.Service, f *OutputFormatter, args []string) error {
				id, err := parseID("product id", args[0])
				if err != nil {
					return err
				}
				list, err := svc.ProductReviews(ctx, id)
				if err != nil {
					return err
				}
				return f.Table(list, reviewHeaders, rowsOf(list.Items, reviewRow))
			}),
		leaf(opts, "ratings", "List products with review count and average rating", cobra.NoArgs,
			func(ctx context.Context, svc *shop.Service, f *OutputFormatter, _ []string) error {
				list, err := svc.ProductRatings(ctx)
				if err != nil {
					return err
				}
				return f.Table(list, []string{"ID", "NAME", "PRICE", "STOCK", "REVIEWS", "RATING"},
					rowsOf(list.Items, func(r shop.ProductRating) []string {
						avg := "-"
						if r.AverageRating != nil {
							avg = fmt.Sprintf("%.2f", *r.AverageRating)
						}
						return append(productRow(r.Product), itoa(r.ReviewCount), avg)
					}))
			}),
		leaf(opts, "sold", "List units sold per product", cobra.NoArgs,
			func(ctx context.Context, svc *shop.Service, f *OutputFormatter, _ []string) error {
				list, err := svc.UnitsSoldPerProduct(ctx)
				if err != nil {
					return err
				}
				return f.Table(list, []string{"ID", "NAME", "UNITS"},
					rowsOf(list.Items, func(u shop.UnitsSold) []string {
						return []string{itoa(u.ProductID), u.ProductName, itoa(u.Units)}
					}))
			}),
		leaf(opts, "price <id> <price>", "Set the price of a product", cobra.ExactArgs(2),
			func(ctx context.Context, svc *shop.Service, f *OutputFormatter, args []string) error {
				id, err := parseID("product id", args[0])
				if err != nil {
					return err
				}
				price, err := parseAmount(args[1])
				if err != nil {
					return argError("%v", err)
				}
				p, err := svc.UpdateProductPrice(ctx, shop.PriceChange{ProductID: id, Price: price})
				if err != nil {
					return err
				}
				return f.Table(p, productHeaders, [][]string{productRow(p)})
			}),
		leaf(opts, "decrease <id>", "Take one unit from a product's stock", cobra.ExactArgs(1),
			func(ctx context.Context, svc *shop.Service, f *OutputFormatter, args []string) error {
				id, err := parseID("product id", args[0])
				if err != nil {
					return err
				}
				res, err := svc.DecreaseProductStock(ctx, id)
				if err != nil {
					return err
				}
				if f.Format == "json" {
					return f.Success(res)
				}
				if res.Product == nil {
					return f.Success(string(res.Status))
				}
				return f.Table(res, []string{"STATUS", "ID", "NAME", "STOCK"}, [][]string{
					{string(res.Status), itoa(res.Product.ID), res.Product.Name, itoa(res.Product.Stock)},
				})
			}),
		newDiscountCommand(opts),
		leaf(opts, "delete <id>", "Delete a product with its order items, reviews and tags", cobra.ExactArgs(1),
			func(ctx context.Context, svc *shop.Service, f *OutputFormatter, args []string) error {
				id, err := parseID("product id", args[0])
				if err != nil {
					return err
				}
				if err := svc.DeleteProduct(ctx, id); err != nil {
					return err
				}
				return deleted(f, "product", id)
			}),
	)
	return cmd
}

// productList builds a command that prints a list of products.
func productList(opts *RootOptions, use, short string, args cobra.PositionalArgs,
	list func(ctx context.Context, svc *shop.Service, args []string) (shop.List[schema.Product], error)) *cobra.Command {
	return leaf(opts, use, short, args,
		func(ctx context.Context, svc *shop.Service, f *OutputFormatter, args []string) error {
			l, err := list(ctx, svc, args)
			if err != nil {
				return err
			}
			return f.Table(l, productHeaders, rowsOf(l.Items, productRow))
		})
}

func newProductAddCommand(opts *RootOptions) *cobra.Command {
	var in shop.NewProduct
	cmd := leaf(opts, "add", "Add a product", cobra.NoArgs,
		func(ctx context.Context, svc *shop.Service, f *OutputFormatter, _ []string) error {
			p, err := svc.AddProduct(ctx, in)
			if err != nil {
				return err
			}
			return f.Table(p, productHeaders, [][]string{productRow(p)})
		})
	cmd.Flags().StringVar(&in.Name, "name", "", "product name")
	cmd.Flags().Var(newDecimalValue(decimal.Zero, &in.Price), "price", "unit price, at most two decimal places")
	cmd.Flags().Int64Var(&in.Stock, "stock", 0, "units in stock")
	return cmd
}

func newTopRatedCommand(opts *RootOptions) *cobra.Command {
	var (
		minRating float64
		limit     int
	)
	cmd := productList(opts, "top-rated", "List products with a review rated at least a minimum", cobra.NoArgs,
		func(ctx context.Context, svc *shop.Service, _ []string) (shop.List[schema.Product], error) {
			return svc.ProductsWithMinRating(ctx, minRating, limit)
		})
	cmd.Flags().Float64Var(&minRating, "min-rating", 4, "minimum average rating")
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of products")
	return cmd
}

func newDiscountCommand(opts *RootOptions) *cobra.Command {
	var in shop.LowStockDiscount
	cmd := leaf(opts, "discount", "Lower the price of every product with stock below a threshold", cobra.NoArgs,
		func(ctx context.Context, svc *shop.Service, f *OutputFormatter, _ []string) error {
			n, err := svc.ApplyLowStockDiscount(ctx, in)
			if err != nil {
				return err
			}
			if f.Format == "json" {
				return f.Success(map[string]int64{"updated": n})
			}
			return f.Success(fmt.Sprintf("✓ Discounted %d product(s)", n))
		})
	cmd.Flags().Int64Var(&in.Threshold, "below", 5, "stock threshold; products with less stock are discounted")
	cmd.Flags().Var(newDecimalValue(decimal.NewFromInt(1), &in.Discount), "amount", "amount subtracted from each price")
	return cmd
}

var (
	tagHeaders    = []string{"ID", "PRODUCT", "KEYWORDS"}
	reviewHeaders = []string{"ID", "PRODUCT", "CUSTOMER", "DATA"}
)

func tagRow(t schema.Tag) []string {
	return []string{itoa(t.ID), itoa(t.ProductID), strings.Join(t.Keywords, ", ")}
}

func reviewRow(r schema.Review) []string {
	parts := make([]string, 0, len(r.Data))
	for _, k := range sortedKeys(r.Data) {
		parts = append(parts, fmt.Sprintf("%s=%v", k, r.Data[k]))
	}
	return []string{itoa(r.ID), itoa(r.ProductID), itoa(r.CustomerID), strings.Join(parts, " ")}
}
