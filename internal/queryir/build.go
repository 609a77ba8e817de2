package queryir

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Helper functions to make building queries more ergonomic.

// C references a field.
func C(ref string) Col { return Col{Ref: ref} }

// L wraps a literal.
func L(v Value) Lit { return Lit{Value: v} }

// MoneyOf wraps a decimal amount.
func MoneyOf(d decimal.Decimal) Money { return Money{Amount: d} }

// Eq matches field = v.
func Eq(field string, v Value) Compare { return Compare{Left: C(field), Op: OpEq, Value: v} }

// NotEq matches field <> v.
func NotEq(field string, v Value) Compare { return Compare{Left: C(field), Op: OpNotEq, Value: v} }

// Lt matches field < v.
func Lt(field string, v Value) Compare { return Compare{Left: C(field), Op: OpLt, Value: v} }

// Gt matches field > v.
func Gt(field string, v Value) Compare { return Compare{Left: C(field), Op: OpGt, Value: v} }

// Gte matches field >= v.
func Gte(field string, v Value) Compare { return Compare{Left: C(field), Op: OpGte, Value: v} }

// Contains matches text fields containing s, ignoring case.
func Contains(field, s string) IContains { return IContains{Field: field, Substring: s} }

// InYear matches date fields in the given calendar year.
func InYear(field string, year int) YearEquals { return YearEquals{Field: field, Year: year} }

// Has matches keyword-list fields containing element.
func Has(field, element string) HasElement { return HasElement{Field: field, Element: element} }

// AllOf combines predicates with AND.
func AllOf(preds ...Predicate) And { return And{Predicates: preds} }

// AnyOf combines predicates with OR.
func AnyOf(preds ...Predicate) Or { return Or{Predicates: preds} }

// Negate wraps p in NOT.
func Negate(p Predicate) Not { return Not{Predicate: p} }

// Times multiplies two expressions.
func Times(l, r Expr) Arith { return Arith{Op: Mul, Left: l, Right: r} }

// Minus subtracts r from l.
func Minus(l, r Expr) Arith { return Arith{Op: Sub, Left: l, Right: r} }

// Count is COUNT(*).
func Count() Agg { return Agg{Func: AggCount} }

// Sum is SUM(e).
func Sum(e Expr) Agg { return Agg{Func: AggSum, Arg: e} }

// Avg is AVG(e).
func Avg(e Expr) Agg { return Agg{Func: AggAvg, Arg: e} }

// Max is MAX(e).
func Max(e Expr) Agg { return Agg{Func: AggMax, Arg: e} }

// Min is MIN(e).
func Min(e Expr) Agg { return Agg{Func: AggMin, Arg: e} }

// CountOf counts the rows relation reaches from the current row.
// Rows with no related rows get 0.
func CountOf(relation string) Subquery {
	return Subquery{Relation: relation, Value: Count()}
}

// As names an output column.
func As(name string, e Expr) Projection { return Projection{Name: name, Expr: e} }

// Fields projects plain fields, each named after its reference with dots
// replaced by underscores ("customer.name" → "customer_name").
func Fields(refs ...string) []Projection {
	out := make([]Projection, len(refs))
	for i, r := range refs {
		out[i] = Projection{Name: strings.ReplaceAll(r, ".", "_"), Expr: C(r)}
	}
	return out
}

// Asc orders by e ascending.
func Asc(e Expr) Order { return Order{Expr: e} }

// Desc orders by e descending.
func Desc(e Expr) Order { return Order{Expr: e, Desc: true} }

// Set assigns e to field.
func Set(field string, e Expr) Assignment { return Assignment{Field: field, Expr: e} }
