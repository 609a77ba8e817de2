package queryir

// Op is a comparison operator.
type Op string

// Supported comparison operators.
const (
	OpEq    Op = "="
	OpNotEq Op = "<>"
	OpLt    Op = "<"
	OpLte   Op = "<="
	OpGt    Op = ">"
	OpGte   Op = ">="
)

// Valid reports whether op is one of the supported operators.
func (op Op) Valid() bool {
	switch op {
	case OpEq, OpNotEq, OpLt, OpLte, OpGt, OpGte:
		return true
	}
	return false
}

// Compare matches rows where Left <op> Value.
//
// A NULL on the left never matches, including for OpNotEq.
type Compare struct {
	Left  Expr
	Op    Op
	Value Value
}

func (Compare) predicateNode() {}

// IContains matches text fields containing Substring, ignoring case.
// LIKE wildcards in Substring are matched literally.
type IContains struct {
	Field     string
	Substring string
}

func (IContains) predicateNode() {}

// YearEquals matches date fields whose calendar year is Year.
type YearEquals struct {
	Field string
	Year  int
}

func (YearEquals) predicateNode() {}

// HasElement matches keyword-list fields containing Element exactly.
type HasElement struct {
	Field   string
	Element string
}

func (HasElement) predicateNode() {}

// And is a conjunction. An empty And is always true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Or is a disjunction evaluated in the same statement as the rest of the
// query. An empty Or is always false.
type Or struct {
	Predicates []Predicate
}

func (Or) predicateNode() {}

// Not negates a predicate.
type Not struct {
	Predicate Predicate
}

func (Not) predicateNode() {}

// NormalizePredicate returns p with any pointer indirection removed.
func NormalizePredicate(p Predicate) Predicate {
	switch v := p.(type) {
	case *Compare:
		if v == nil {
			return nil
		}
		return *v
	case *IContains:
		if v == nil {
			return nil
		}
		return *v
	case *YearEquals:
		if v == nil {
			return nil
		}
		return *v
	case *HasElement:
		if v == nil {
			return nil
		}
		return *v
	case *And:
		if v == nil {
			return nil
		}
		return *v
	case *Or:
		if v == nil {
			return nil
		}
		return *v
	case *Not:
		if v == nil {
			return nil
		}
		return *v
	default:
		return p
	}
}
