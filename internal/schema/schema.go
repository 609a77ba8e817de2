// Package schema describes the commerce schema that every query is built
// against: six tables, their columns, and the named relationships between
// them.
//
// The schema is static. Query builders reference columns by logical field
// name ("price") and relationships by name ("items"); the SQL compiler maps
// those onto physical columns ("price_cents") and join conditions.
//
// Relationship paths are dot separated and are resolved left to right from a
// root table:
//
//	products: items.order.customer.id
//	          └─ many ─┘└ one ┘└── one ──┘
//
// A path fans out when any hop is a to-many relation. Fan-out paths may be
// used in filters (the compiler deduplicates) and inside correlated
// subqueries, but never as plain projected columns.
package schema

import (
	"fmt"
	"strings"
)

// Table names.
const (
	Customers  = "customers"
	Products   = "products"
	Orders     = "orders"
	OrderItems = "order_items"
	Reviews    = "reviews"
	Tags       = "tags"
)

// Kind is the semantic type of a column or expression.
type Kind int

const (
	KindInt Kind = iota
	KindText
	KindMoney    // fixed-point decimal, stored as integer minor units
	KindDate     // calendar date, stored as YYYY-MM-DD
	KindJSON     // JSON object
	KindTextList // ordered list of strings
	KindBool
	KindFloat
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindText:
		return "text"
	case KindMoney:
		return "money"
	case KindDate:
		return "date"
	case KindJSON:
		return "json"
	case KindTextList:
		return "text_list"
	case KindBool:
		return "bool"
	case KindFloat:
		return "float"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MoneyScale is the number of decimal places carried by KindMoney values.
const MoneyScale = 2

// Column is one stored field of a table.
type Column struct {
	Field string // logical name used by query builders
	SQL   string // physical column name
	Kind  Kind
}

// Cardinality says how many target rows a relation reaches per source row.
type Cardinality int

const (
	One Cardinality = iota
	Many
)

// Relation is a named traversal from one table to another.
//
// The join condition is always target.ToColumn = source.FromColumn, which
// covers both directions of a foreign key:
//
//	orders.customer: customers.id = orders.customer_id  (One)
//	customers.orders: orders.customer_id = customers.id (Many)
type Relation struct {
	Name        string
	From        string
	To          string
	FromColumn  string
	ToColumn    string
	Cardinality Cardinality
}

// Table describes one entity table.
type Table struct {
	Name      string
	Columns   []Column
	Relations []Relation
}

// Column looks up a column by logical field name.
func (t *Table) Column(field string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Field == field {
			return c, true
		}
	}
	return Column{}, false
}

// Relation looks up a relation by name.
func (t *Table) Relation(name string) (Relation, bool) {
	for _, r := range t.Relations {
		if r.Name == name {
			return r, true
		}
	}
	return Relation{}, false
}

// Schema is a set of tables.
type Schema struct {
	tables map[string]*Table
	order  []string
}

// New builds a schema from table definitions. Relations must point at
// tables that are part of the same schema.
func New(tables ...*Table) (*Schema, error) {
	s := &Schema{tables: make(map[string]*Table, len(tables))}
	for _, t := range tables {
		if _, dup := s.tables[t.Name]; dup {
			return nil, fmt.Errorf("duplicate table %q", t.Name)
		}
		s.tables[t.Name] = t
		s.order = append(s.order, t.Name)
	}
	for _, t := range tables {
		for _, r := range t.Relations {
			target, ok := s.tables[r.To]
			if !ok {
				return nil, fmt.Errorf("relation %s.%s: unknown table %q", t.Name, r.Name, r.To)
			}
			if !hasSQLColumn(t, r.FromColumn) {
				return nil, fmt.Errorf("relation %s.%s: unknown column %q", t.Name, r.Name, r.FromColumn)
			}
			if !hasSQLColumn(target, r.ToColumn) {
				return nil, fmt.Errorf("relation %s.%s: unknown column %s.%s", t.Name, r.Name, r.To, r.ToColumn)
			}
		}
	}
	return s, nil
}

func hasSQLColumn(t *Table, name string) bool {
	for _, c := range t.Columns {
		if c.SQL == name {
			return true
		}
	}
	return false
}

// Table returns the named table.
func (s *Schema) Table(name string) (*Table, bool) {
	t, ok := s.tables[name]
	return t, ok
}

// Tables returns all tables in declaration order.
func (s *Schema) Tables() []*Table {
	out := make([]*Table, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.tables[name])
	}
	return out
}

// Path is a resolved field reference.
type Path struct {
	Root   string
	Hops   []Relation
	Column Column
}

// FansOut reports whether any hop reaches more than one row.
func (p Path) FansOut() bool {
	for _, h := range p.Hops {
		if h.Cardinality == Many {
			return true
		}
	}
	return false
}

// Table returns the table that owns the final column.
func (p Path) Table() string {
	if len(p.Hops) == 0 {
		return p.Root
	}
	return p.Hops[len(p.Hops)-1].To
}

// Resolve walks a dot separated field reference from root.
// All segments but the last must be relation names; the last must be a
// column of the table reached.
func (s *Schema) Resolve(root, ref string) (Path, error) {
	t, ok := s.tables[root]
	if !ok {
		return Path{}, fmt.Errorf("unknown table %q", root)
	}
	if ref == "" {
		return Path{}, fmt.Errorf("empty field reference on %s", root)
	}

	parts := strings.Split(ref, ".")
	p := Path{Root: root}
	for _, seg := range parts[:len(parts)-1] {
		rel, ok := t.Relation(seg)
		if !ok {
			return Path{}, fmt.Errorf("%s: unknown relation %q on %s", ref, seg, t.Name)
		}
		p.Hops = append(p.Hops, rel)
		t = s.tables[rel.To]
	}

	field := parts[len(parts)-1]
	col, ok := t.Column(field)
	if !ok {
		return Path{}, fmt.Errorf("%s: unknown field %q on %s", ref, field, t.Name)
	}
	p.Column = col
	return p, nil
}

// ResolveRelation returns a relation of root by name.
func (s *Schema) ResolveRelation(root, name string) (Relation, error) {
	t, ok := s.tables[root]
	if !ok {
		return Relation{}, fmt.Errorf("unknown table %q", root)
	}
	rel, ok := t.Relation(name)
	if !ok {
		return Relation{}, fmt.Errorf("unknown relation %q on %s", name, root)
	}
	return rel, nil
}
