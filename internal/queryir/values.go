package queryir

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/shopq/internal/schema"
)

// Value is a literal in the IR. Literals are never interpolated into SQL.
//
// This is a sealed interface - only types in this package implement it.
type Value interface {
	valueNode()
	Kind() schema.Kind
}

// String is a text literal.
type String string

func (String) valueNode()          {}
func (String) Kind() schema.Kind { return schema.KindText }

// Int is an integer literal.
type Int int64

func (Int) valueNode()          {}
func (Int) Kind() schema.Kind { return schema.KindInt }

// Float is a floating point literal, used for JSON attributes such as ratings.
type Float float64

func (Float) valueNode()          {}
func (Float) Kind() schema.Kind { return schema.KindFloat }

// Bool is a boolean literal.
type Bool bool

func (Bool) valueNode()          {}
func (Bool) Kind() schema.Kind { return schema.KindBool }

// Money is a fixed-point amount. It is rounded to schema.MoneyScale places
// when bound as a parameter.
type Money struct {
	Amount decimal.Decimal
}

func (Money) valueNode()          {}
func (Money) Kind() schema.Kind { return schema.KindMoney }

// MinorUnits returns the amount in integer minor units (cents).
func (m Money) MinorUnits() int64 {
	return m.Amount.Round(schema.MoneyScale).Shift(schema.MoneyScale).IntPart()
}

// BoundFor returns v adjusted so that comparing a cent-valued column with op
// against it selects the same rows as comparing against v itself. A money
// amount finer than a cent is rounded up for < and >=, and down for > and
// <=. Other values are returned unchanged.
func BoundFor(op Op, v Value) Value {
	m, ok := v.(Money)
	if !ok {
		return v
	}
	switch op {
	case OpLt, OpGte:
		return Money{Amount: m.Amount.RoundCeil(schema.MoneyScale)}
	case OpGt, OpLte:
		return Money{Amount: m.Amount.RoundFloor(schema.MoneyScale)}
	default:
		return m
	}
}

// Date is a calendar date literal. The time of day is ignored.
type Date struct {
	Time time.Time
}

func (Date) valueNode()          {}
func (Date) Kind() schema.Kind { return schema.KindDate }

// String returns the date in schema.DateLayout.
func (d Date) String() string {
	return d.Time.Format(schema.DateLayout)
}

// List is a keyword list literal.
type List []string

func (List) valueNode()          {}
func (List) Kind() schema.Kind { return schema.KindTextList }

// JSON is a JSON object literal.
type JSON map[string]any

func (JSON) valueNode()          {}
func (JSON) Kind() schema.Kind { return schema.KindJSON }
