package shop

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/shopq/internal/schema"
)

// newValidator creates a validator that reports fields by their JSON names
// and understands money amounts.
func newValidator() *validator.Validate {
	v := validator.New()

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	v.RegisterStructValidation(func(sl validator.StructLevel) {
		p := sl.Current().Interface().(NewProduct)
		checkPrice(sl, p.Price)
	}, NewProduct{})
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		p := sl.Current().Interface().(PriceChange)
		checkPrice(sl, p.Price)
	}, PriceChange{})
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		d := sl.Current().Interface().(LowStockDiscount)
		checkPrice(sl, d.Discount)
	}, LowStockDiscount{})

	return v
}

// checkPrice rejects negative amounts and amounts finer than a cent.
func checkPrice(sl validator.StructLevel, d decimal.Decimal) {
	name := "price"
	if _, ok := sl.Current().Interface().(LowStockDiscount); ok {
		name = "discount"
	}
	switch {
	case d.IsNegative():
		sl.ReportError(d, name, name, "nonnegative", "")
	case !d.Equal(d.Round(schema.MoneyScale)):
		sl.ReportError(d, name, name, "cents", "")
	}
}

// check validates input and returns a VALIDATION error listing every
// rejected field.
func (s *Service) check(input any) error {
	err := s.validate.Struct(input)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fields := make(map[string]string, len(validationErrs))
	parts := make([]string, 0, len(validationErrs))
	for _, e := range validationErrs {
		msg := friendlyMessage(e)
		fields[e.Field()] = msg
		parts = append(parts, e.Field()+" "+msg)
	}
	return Invalid(strings.Join(parts, "; "), fields)
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if e.Kind() == reflect.Slice {
			return fmt.Sprintf("must have at least %s entries", e.Param())
		}
		return fmt.Sprintf("must be at least %s characters", e.Param())
	case "max":
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "nonnegative":
		return "must not be negative"
	case "cents":
		return "must have at most 2 decimal places"
	default:
		return "is invalid"
	}
}

// clean NFC-normalizes and trims text input.
func clean(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}
