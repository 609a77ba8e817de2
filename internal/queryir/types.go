package queryir

// Query represents an abstract query in the QueryIR.
//
// This is a sealed interface - only types in this package implement it.
type Query interface {
	queryNode()
}

// Predicate represents a filter condition.
//
// This is a sealed interface - only types in this package implement it.
type Predicate interface {
	predicateNode()
}

// Expr represents a scalar expression evaluated against one row of a scope.
//
// This is a sealed interface - only types in this package implement it.
type Expr interface {
	exprNode()
}

// Select returns rows of a root table.
//
// Semantics:
//
//	SELECT <columns> FROM <from> WHERE <filter>
//	[GROUP BY <group_by>] ORDER BY <order_by>, <root id> [LIMIT <limit>]
//
// An empty Columns slice selects every column of From. The compiler always
// appends the root id as the final ORDER BY key, so two runs over the same
// data return rows in the same order. Grouped selects order by the group
// keys instead.
type Select struct {
	From    string
	Columns []Projection
	Filter  Predicate // nil = no filter
	GroupBy []string  // field references
	OrderBy []Order
	Limit   int // 0 = no limit
}

func (Select) queryNode() {}

// Aggregate returns exactly one row of scalar aggregates.
//
// Semantics:
//
//	SELECT <measures> FROM <from> WHERE <filter>
//
// Every measure must be an Agg. Over an empty set COUNT yields 0 and the
// other functions yield absence.
type Aggregate struct {
	From     string
	Filter   Predicate
	Measures []Projection
}

func (Aggregate) queryNode() {}

// Insert adds one row and yields its generated id.
type Insert struct {
	Table  string
	Values []Assignment
}

func (Insert) queryNode() {}

// Update changes every row matching Filter in one statement.
//
// Set expressions are evaluated against the row being updated, so
// "stock = stock - 1" never reads a stale value.
type Update struct {
	Table  string
	Set    []Assignment
	Filter Predicate
}

func (Update) queryNode() {}

// Delete removes every row matching Filter in one statement. Child rows go
// with it through ON DELETE CASCADE.
type Delete struct {
	Table  string
	Filter Predicate
}

func (Delete) queryNode() {}

// Projection is one output column.
type Projection struct {
	Name string
	Expr Expr
}

// Order is one ORDER BY key.
type Order struct {
	Expr Expr
	Desc bool
}

// Assignment sets one field in Insert or Update.
type Assignment struct {
	Field string
	Expr  Expr
}

// Normalize returns q with any pointer indirection removed.
func Normalize(q Query) Query {
	switch v := q.(type) {
	case *Select:
		return *v
	case *Aggregate:
		return *v
	case *Insert:
		return *v
	case *Update:
		return *v
	case *Delete:
		return *v
	default:
		return q
	}
}
