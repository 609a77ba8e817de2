package shop

import (
	"context"

	q "github.com/roach88/shopq/internal/queryir"
	"github.com/roach88/shopq/internal/schema"
	"github.com/roach88/shopq/internal/store"
)

// AddReview records a review of a product by a customer. Data is stored as
// given; a numeric "rating" attribute makes the review count toward rating
// queries.
func (s *Service) AddReview(ctx context.Context, in NewReview) (schema.Review, error) {
	const op = "AddReview"
	if err := s.check(in); err != nil {
		return schema.Review{}, err
	}

	var review schema.Review
	err := s.store.InTx(ctx, func(tx *store.Tx) error {
		if err := s.mustExist(ctx, tx, op, schema.Products, in.ProductID); err != nil {
			return err
		}
		if err := s.mustExist(ctx, tx, op, schema.Customers, in.CustomerID); err != nil {
			return err
		}
		id, err := s.insert(ctx, tx, op, q.Insert{
			Table: schema.Reviews,
			Values: []q.Assignment{
				q.Set("product_id", q.L(q.Int(in.ProductID))),
				q.Set("customer_id", q.L(q.Int(in.CustomerID))),
				q.Set("data", q.L(q.JSON(in.Data))),
			},
		})
		review = schema.Review{ID: id, ProductID: in.ProductID, CustomerID: in.CustomerID, Data: in.Data}
		return err
	})
	if err != nil {
		return schema.Review{}, s.fail(ctx, op, err)
	}
	return review, nil
}

// AddTag attaches a keyword list to a product. Keywords keep their order
// and need not be unique.
func (s *Service) AddTag(ctx context.Context, in NewTag) (schema.Tag, error) {
	const op = "AddTag"
	keywords := make([]string, len(in.Keywords))
	for i, k := range in.Keywords {
		keywords[i] = clean(k)
	}
	in.Keywords = keywords
	if err := s.check(in); err != nil {
		return schema.Tag{}, err
	}

	var tag schema.Tag
	err := s.store.InTx(ctx, func(tx *store.Tx) error {
		if err := s.mustExist(ctx, tx, op, schema.Products, in.ProductID); err != nil {
			return err
		}
		id, err := s.insert(ctx, tx, op, q.Insert{
			Table: schema.Tags,
			Values: []q.Assignment{
				q.Set("product_id", q.L(q.Int(in.ProductID))),
				q.Set("keywords", q.L(q.List(in.Keywords))),
			},
		})
		tag = schema.Tag{ID: id, ProductID: in.ProductID, Keywords: in.Keywords}
		return err
	})
	if err != nil {
		return schema.Tag{}, s.fail(ctx, op, err)
	}
	return tag, nil
}
