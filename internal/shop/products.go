package shop

import (
	"context"

	"github.com/shopspring/decimal"

	q "github.com/roach88/shopq/internal/queryir"
	"github.com/roach88/shopq/internal/schema"
	"github.com/roach88/shopq/internal/store"
)

// AddProduct creates a product. Price is rounded to cents on storage.
func (s *Service) AddProduct(ctx context.Context, in NewProduct) (schema.Product, error) {
	const op = "AddProduct"
	in.Name = clean(in.Name)
	if err := s.check(in); err != nil {
		return schema.Product{}, err
	}

	id, err := s.insert(ctx, s.store, op, q.Insert{
		Table: schema.Products,
		Values: []q.Assignment{
			q.Set("name", q.L(q.String(in.Name))),
			q.Set("price", q.L(q.MoneyOf(in.Price))),
			q.Set("stock", q.L(q.Int(in.Stock))),
		},
	})
	if err != nil {
		return schema.Product{}, s.fail(ctx, op, err)
	}
	return schema.Product{ID: id, Name: in.Name, Price: in.Price.Round(schema.MoneyScale), Stock: in.Stock}, nil
}

// GetProduct returns one product or NOT_FOUND.
func (s *Service) GetProduct(ctx context.Context, id int64) (schema.Product, error) {
	const op = "GetProduct"
	p, err := get(ctx, s, s.store, op, schema.Products, id, productFromRow)
	if err != nil {
		return schema.Product{}, s.fail(ctx, op, err)
	}
	return p, nil
}

// ListProducts returns every product by id.
func (s *Service) ListProducts(ctx context.Context) (List[schema.Product], error) {
	return listOf(ctx, s, "ListProducts", all(schema.Products), productFromRow)
}

// ProductsCheaperThan returns products priced strictly below price,
// cheapest first.
func (s *Service) ProductsCheaperThan(ctx context.Context, price decimal.Decimal) (List[schema.Product], error) {
	return listOf(ctx, s, "ProductsCheaperThan", productsCheaperThan(price), productFromRow)
}

// SearchProductsByName returns products whose name contains term, ignoring
// case.
func (s *Service) SearchProductsByName(ctx context.Context, term string) (List[schema.Product], error) {
	return listOf(ctx, s, "SearchProductsByName", productsByName(clean(term)), productFromRow)
}

// SearchProducts returns products whose name contains term or that are
// tagged with term.
func (s *Service) SearchProducts(ctx context.Context, term string) (List[schema.Product], error) {
	return listOf(ctx, s, "SearchProducts", productsMatching(clean(term)), productFromRow)
}

// ProductsByTag returns products carrying keyword in any of their tags.
func (s *Service) ProductsByTag(ctx context.Context, keyword string) (List[schema.Product], error) {
	return listOf(ctx, s, "ProductsByTag", productsByTag(clean(keyword)), productFromRow)
}

// ProductsOrderedByCustomer returns each product the customer has ordered,
// once.
func (s *Service) ProductsOrderedByCustomer(ctx context.Context, customerID int64) (List[schema.Product], error) {
	return listOf(ctx, s, "ProductsOrderedByCustomer", productsOrderedByCustomer(customerID), productFromRow)
}

// ProductRatings returns every product with its review count and average
// rating.
func (s *Service) ProductRatings(ctx context.Context) (List[ProductRating], error) {
	return listOf(ctx, s, "ProductRatings", productRatings(), func(r store.Row) ProductRating {
		return ProductRating{
			Product:       productFromRow(r),
			ReviewCount:   r.Int("review_count"),
			AverageRating: optionalFloat(r, "average_rating"),
		}
	})
}

// ProductsWithMinRating returns products with at least one review rated
// minRating or more. A limit of 0 returns all of them.
func (s *Service) ProductsWithMinRating(ctx context.Context, minRating float64, limit int) (List[schema.Product], error) {
	const op = "ProductsWithMinRating"
	if limit < 0 {
		return List[schema.Product]{}, Invalid("limit must not be negative", map[string]string{"limit": "must be greater than or equal to 0"})
	}
	return listOf(ctx, s, op, productsWithMinRating(minRating, limit), productFromRow)
}

// ProductTags returns the tags of one product.
func (s *Service) ProductTags(ctx context.Context, productID int64) (List[schema.Tag], error) {
	const op = "ProductTags"
	if err := s.mustExist(ctx, s.store, op, schema.Products, productID); err != nil {
		return List[schema.Tag]{}, s.fail(ctx, op, err)
	}
	return listOf(ctx, s, op, tagsOfProduct(productID), tagFromRow)
}

// ProductReviews returns the reviews of one product.
func (s *Service) ProductReviews(ctx context.Context, productID int64) (List[schema.Review], error) {
	const op = "ProductReviews"
	if err := s.mustExist(ctx, s.store, op, schema.Products, productID); err != nil {
		return List[schema.Review]{}, s.fail(ctx, op, err)
	}
	return listOf(ctx, s, op, reviewsOfProduct(productID), reviewFromRow)
}

// UnitsSoldPerProduct returns the units ordered of every product that has
// been ordered, best sellers first.
func (s *Service) UnitsSoldPerProduct(ctx context.Context) (List[UnitsSold], error) {
	return listOf(ctx, s, "UnitsSoldPerProduct", unitsSoldPerProduct(), func(r store.Row) UnitsSold {
		return UnitsSold{
			ProductID:   r.Int("product_id"),
			ProductName: r.Text("product_name"),
			Units:       r.Int("units"),
		}
	})
}

// UpdateProductPrice sets a product's price and returns the product.
func (s *Service) UpdateProductPrice(ctx context.Context, in PriceChange) (schema.Product, error) {
	const op = "UpdateProductPrice"
	if err := s.check(in); err != nil {
		return schema.Product{}, err
	}

	var updated schema.Product
	err := s.store.InTx(ctx, func(tx *store.Tx) error {
		if err := s.mustExist(ctx, tx, op, schema.Products, in.ProductID); err != nil {
			return err
		}
		if _, err := s.exec(ctx, tx, op, schema.Products, setPrice(in.ProductID, in.Price)); err != nil {
			return err
		}
		p, err := get(ctx, s, tx, op, schema.Products, in.ProductID, productFromRow)
		updated = p
		return err
	})
	if err != nil {
		return schema.Product{}, s.fail(ctx, op, err)
	}
	return updated, nil
}

// DecreaseProductStock takes one unit from stock. A product at zero stock is
// left unchanged and reported as StockOutOfStock; a missing product is
// reported as StockNotFound. Neither is an error.
func (s *Service) DecreaseProductStock(ctx context.Context, productID int64) (StockResult, error) {
	const op = "DecreaseProductStock"

	var result StockResult
	err := s.store.InTx(ctx, func(tx *store.Tx) error {
		ok, err := s.exists(ctx, tx, op, schema.Products, productID)
		if err != nil {
			return err
		}
		if !ok {
			result = StockResult{Status: StockNotFound}
			return nil
		}

		n, err := s.exec(ctx, tx, op, schema.Products, decrementStock(productID))
		if err != nil {
			return err
		}
		if n == 0 {
			result = StockResult{Status: StockOutOfStock}
			return nil
		}

		p, err := get(ctx, s, tx, op, schema.Products, productID, productFromRow)
		if err != nil {
			return err
		}
		result = StockResult{Status: StockDecremented, Product: &p}
		return nil
	})
	if err != nil {
		return StockResult{}, s.fail(ctx, op, err)
	}
	return result, nil
}

// ApplyLowStockDiscount subtracts the discount from the price of every
// product with stock strictly below the threshold, in one statement, and
// returns how many products changed. Prices never drop below zero.
func (s *Service) ApplyLowStockDiscount(ctx context.Context, in LowStockDiscount) (int64, error) {
	const op = "ApplyLowStockDiscount"
	if err := s.check(in); err != nil {
		return 0, err
	}
	n, err := s.exec(ctx, s.store, op, schema.Products, lowStockDiscount(in.Threshold, in.Discount))
	if err != nil {
		return 0, s.fail(ctx, op, err)
	}
	return n, nil
}

// DeleteProduct removes a product with its order items, reviews and tags.
func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	return s.deleteEntity(ctx, "DeleteProduct", schema.Products, id)
}
