package queryir

// Col references a field of the current scope. The reference may walk
// relations: "product.price" from order_items, "customer.name" from orders.
type Col struct {
	Ref string
}

func (Col) exprNode() {}

// Lit is a literal value, always passed as a statement parameter.
type Lit struct {
	Value Value
}

func (Lit) exprNode() {}

// ArithOp is a binary arithmetic operator.
type ArithOp string

const (
	Add ArithOp = "+"
	Sub ArithOp = "-"
	Mul ArithOp = "*"
)

// Arith combines two numeric expressions. Int × Money yields Money.
type Arith struct {
	Op    ArithOp
	Left  Expr
	Right Expr
}

func (Arith) exprNode() {}

// Greatest yields the larger of two expressions.
type Greatest struct {
	Left  Expr
	Right Expr
}

func (Greatest) exprNode() {}

// AggFunc is an aggregate function.
type AggFunc string

const (
	AggCount AggFunc = "COUNT"
	AggSum   AggFunc = "SUM"
	AggAvg   AggFunc = "AVG"
	AggMax   AggFunc = "MAX"
	AggMin   AggFunc = "MIN"
)

// Agg aggregates Arg over the rows of the current scope. Arg is nil for
// COUNT(*).
type Agg struct {
	Func AggFunc
	Arg  Expr
}

func (Agg) exprNode() {}

// JSONNumber reads a numeric attribute of a JSON field. A missing attribute
// is NULL.
type JSONNumber struct {
	Ref string
	Key string
}

func (JSONNumber) exprNode() {}

// Subquery is a scalar computed from the rows that Relation reaches from the
// current outer row, and only those rows.
//
// With an empty OrderBy, Value must be an Agg and the subquery yields the
// aggregate (NULL when no related row qualifies, 0 for COUNT). With OrderBy
// set, Value is read from the first related row in that order.
//
// Field references inside Filter, Value and OrderBy are relative to the
// related table.
type Subquery struct {
	Relation string
	Filter   Predicate
	Value    Expr
	OrderBy  []Order
}

func (Subquery) exprNode() {}

// Exceeds is true when Expr > Threshold and false otherwise, including when
// Expr is NULL.
type Exceeds struct {
	Expr      Expr
	Threshold Value
}

func (Exceeds) exprNode() {}

// Rank is a window rank over the full result set, ordered by By. Rows with a
// NULL By rank after every row with a value. Equal values share a rank;
// Dense selects DENSE_RANK (no gaps) over RANK (competition ranking).
type Rank struct {
	By    Expr
	Desc  bool
	Dense bool
}

func (Rank) exprNode() {}

// OutputRef names a projection of the enclosing Select. Only valid in
// Select.OrderBy.
type OutputRef struct {
	Name string
}

func (OutputRef) exprNode() {}

// NormalizeExpr returns e with any pointer indirection removed.
func NormalizeExpr(e Expr) Expr {
	switch v := e.(type) {
	case *Col:
		if v == nil {
			return nil
		}
		return *v
	case *Lit:
		if v == nil {
			return nil
		}
		return *v
	case *Arith:
		if v == nil {
			return nil
		}
		return *v
	case *Greatest:
		if v == nil {
			return nil
		}
		return *v
	case *Agg:
		if v == nil {
			return nil
		}
		return *v
	case *JSONNumber:
		if v == nil {
			return nil
		}
		return *v
	case *Subquery:
		if v == nil {
			return nil
		}
		return *v
	case *Exceeds:
		if v == nil {
			return nil
		}
		return *v
	case *Rank:
		if v == nil {
			return nil
		}
		return *v
	case *OutputRef:
		if v == nil {
			return nil
		}
		return *v
	default:
		return e
	}
}
