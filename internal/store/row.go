package store

import (
	"time"

	"github.com/shopspring/decimal"
)

// Row is one decoded result row keyed by output name. Values have the Go
// types listed on decode; NULL is nil.
type Row map[string]any

// IsNull reports whether name is NULL or missing.
func (r Row) IsNull(name string) bool {
	return r[name] == nil
}

// Int returns an integer column, 0 when NULL.
func (r Row) Int(name string) int64 {
	v, _ := r[name].(int64)
	return v
}

// Text returns a text column, "" when NULL.
func (r Row) Text(name string) string {
	v, _ := r[name].(string)
	return v
}

// Float returns a float column. ok is false when NULL.
func (r Row) Float(name string) (float64, bool) {
	v, ok := r[name].(float64)
	return v, ok
}

// Money returns a money column; Valid is false when NULL.
func (r Row) Money(name string) decimal.NullDecimal {
	v, ok := r[name].(decimal.Decimal)
	return decimal.NullDecimal{Decimal: v, Valid: ok}
}

// Date returns a date column. ok is false when NULL.
func (r Row) Date(name string) (time.Time, bool) {
	v, ok := r[name].(time.Time)
	return v, ok
}

// Bool returns a boolean column, false when NULL.
func (r Row) Bool(name string) bool {
	v, _ := r[name].(bool)
	return v
}

// JSON returns a JSON object column, nil when NULL.
func (r Row) JSON(name string) map[string]any {
	v, _ := r[name].(map[string]any)
	return v
}

// TextList returns a keyword list column, nil when NULL.
func (r Row) TextList(name string) []string {
	v, _ := r[name].([]string)
	return v
}
