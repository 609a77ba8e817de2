package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/shopq/internal/queryir"
	"github.com/roach88/shopq/internal/schema"
)

// Output describes one result column of a compiled statement.
type Output struct {
	Name string
	Kind schema.Kind
}

// Statement is a compiled query: SQL text with placeholders and the
// arguments that fill them, in order.
type Statement struct {
	SQL  string
	Args []any

	// Columns lists result columns for Select and Aggregate.
	Columns []Output

	// Returning is set for inserts that report the new id through a
	// RETURNING clause instead of LastInsertId.
	Returning bool
}

// SQLCompiler compiles QueryIR to parameterized SQL.
//
// CRITICAL: Select statements always end in a deterministic ORDER BY.
// CRITICAL: All values are parameterized, never interpolated.
type SQLCompiler struct {
	schema  *schema.Schema
	dialect Dialect
}

// NewSQLCompiler creates a compiler for the given schema and dialect.
func NewSQLCompiler(s *schema.Schema, d Dialect) *SQLCompiler {
	return &SQLCompiler{schema: s, dialect: d}
}

// Dialect returns the dialect statements are rendered in.
func (c *SQLCompiler) Dialect() Dialect {
	return c.dialect
}

// Compile validates q against the schema and converts it to a Statement.
func (c *SQLCompiler) Compile(q queryir.Query) (Statement, error) {
	if q == nil {
		return Statement{}, fmt.Errorf("cannot compile nil query")
	}
	if err := queryir.Validate(c.schema, q).Err(); err != nil {
		return Statement{}, err
	}

	b := &builder{schema: c.schema, dialect: c.dialect}

	var (
		st  Statement
		err error
	)
	switch query := queryir.Normalize(q).(type) {
	case queryir.Select:
		st, err = b.compileSelect(query)
	case queryir.Aggregate:
		st, err = b.compileAggregate(query)
	case queryir.Insert:
		st, err = b.compileInsert(query)
	case queryir.Update:
		st, err = b.compileUpdate(query)
	case queryir.Delete:
		st, err = b.compileDelete(query)
	default:
		return Statement{}, fmt.Errorf("unsupported query type: %T", q)
	}
	if err != nil {
		return Statement{}, err
	}

	st.SQL = c.dialect.rebind(st.SQL)
	return st, nil
}

// builder holds the state of one compilation.
type builder struct {
	schema  *schema.Schema
	dialect Dialect
	aliases int
}

// scope is one FROM clause: a table, its alias and the to-one or semi-join
// tables joined onto it.
type scope struct {
	table  string
	alias  string
	joins  []string
	joined map[string]string // relation path prefix → alias
}

func (b *builder) newScope(table string) *scope {
	alias := fmt.Sprintf("t%d", b.aliases)
	b.aliases++
	return &scope{table: table, alias: alias, joined: map[string]string{}}
}

// tableScope is used by UPDATE and DELETE, which reference the table by name.
func tableScope(table string) *scope {
	return &scope{table: table, alias: table, joined: map[string]string{}}
}

func (sc *scope) from() string {
	if len(sc.joins) == 0 {
		return fmt.Sprintf("%s %s", sc.table, sc.alias)
	}
	return fmt.Sprintf("%s %s %s", sc.table, sc.alias, strings.Join(sc.joins, " "))
}

// column renders a field reference, adding a LEFT JOIN per relation hop.
// Joins are shared between references with the same prefix.
func (b *builder) column(sc *scope, ref string) (string, error) {
	p, err := b.schema.Resolve(sc.table, ref)
	if err != nil {
		return "", err
	}

	alias := sc.alias
	prefix := ""
	for _, hop := range p.Hops {
		if prefix == "" {
			prefix = hop.Name
		} else {
			prefix += "." + hop.Name
		}
		if next, ok := sc.joined[prefix]; ok {
			alias = next
			continue
		}

		next := fmt.Sprintf("t%d", b.aliases)
		b.aliases++
		from, to, err := b.joinColumns(hop)
		if err != nil {
			return "", err
		}
		sc.joins = append(sc.joins, fmt.Sprintf("LEFT JOIN %s %s ON %s.%s = %s.%s",
			hop.To, next, next, to, alias, from))
		sc.joined[prefix] = next
		alias = next
	}

	return fmt.Sprintf("%s.%s", alias, p.Column.SQL), nil
}

// joinColumns returns the physical column names on both sides of a relation.
func (b *builder) joinColumns(rel schema.Relation) (from, to string, err error) {
	src, ok := b.schema.Table(rel.From)
	if !ok {
		return "", "", fmt.Errorf("unknown table %q", rel.From)
	}
	dst, ok := b.schema.Table(rel.To)
	if !ok {
		return "", "", fmt.Errorf("unknown table %q", rel.To)
	}
	fc, ok := src.Column(rel.FromColumn)
	if !ok {
		return "", "", fmt.Errorf("unknown column %s.%s", rel.From, rel.FromColumn)
	}
	tc, ok := dst.Column(rel.ToColumn)
	if !ok {
		return "", "", fmt.Errorf("unknown column %s.%s", rel.To, rel.ToColumn)
	}
	return fc.SQL, tc.SQL, nil
}

// compileSelect compiles a queryir.Select to SQL.
// MANDATORY: Includes ORDER BY ending in a unique key.
func (b *builder) compileSelect(q queryir.Select) (Statement, error) {
	root := b.newScope(q.From)

	projections := q.Columns
	if len(projections) == 0 {
		t, _ := b.schema.Table(q.From)
		for _, col := range t.Columns {
			projections = append(projections, queryir.As(col.Field, queryir.C(col.Field)))
		}
	}

	var args []any
	parts := make([]string, 0, len(projections))
	outputs := make([]Output, 0, len(projections))
	for _, p := range projections {
		sql, pargs, err := b.expr(root, p.Expr)
		if err != nil {
			return Statement{}, fmt.Errorf("projection %s: %w", p.Name, err)
		}
		kind, err := queryir.InferKind(b.schema, q.From, p.Expr)
		if err != nil {
			return Statement{}, fmt.Errorf("projection %s: %w", p.Name, err)
		}
		parts = append(parts, fmt.Sprintf("%s AS %s", sql, b.dialect.quote(p.Name)))
		args = append(args, pargs...)
		outputs = append(outputs, Output{Name: p.Name, Kind: kind})
	}

	whereSQL, whereArgs, err := b.where(root, q.Filter)
	if err != nil {
		return Statement{}, fmt.Errorf("compile filter: %w", err)
	}

	var groupKeys []string
	for _, ref := range q.GroupBy {
		col, err := b.column(root, ref)
		if err != nil {
			return Statement{}, fmt.Errorf("group by: %w", err)
		}
		groupKeys = append(groupKeys, col)
	}

	orderSQL, orderArgs, err := b.orderBy(root, q.OrderBy, groupKeys)
	if err != nil {
		return Statement{}, fmt.Errorf("compile order by: %w", err)
	}

	sql := fmt.Sprintf("SELECT %s FROM %s", strings.Join(parts, ", "), root.from())
	if whereSQL != "" {
		sql += " WHERE " + whereSQL
		args = append(args, whereArgs...)
	}
	if len(groupKeys) > 0 {
		sql += " GROUP BY " + strings.Join(groupKeys, ", ")
	}

	// MANDATORY: Always add ORDER BY
	sql += " ORDER BY " + orderSQL
	args = append(args, orderArgs...)

	if q.Limit > 0 {
		sql += " LIMIT ?"
		args = append(args, int64(q.Limit))
	}

	return Statement{SQL: sql, Args: args, Columns: outputs}, nil
}

// orderBy renders explicit keys followed by the stable tiebreaker: the group
// keys for grouped selects, the root id otherwise.
func (b *builder) orderBy(root *scope, orders []queryir.Order, groupKeys []string) (string, []any, error) {
	var (
		keys   []string
		args   []any
		seenID bool
	)
	for _, o := range orders {
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}

		if ref, ok := queryir.NormalizeExpr(o.Expr).(queryir.OutputRef); ok {
			keys = append(keys, fmt.Sprintf("%s %s", b.dialect.quote(ref.Name), dir))
			continue
		}
		if col, ok := queryir.NormalizeExpr(o.Expr).(queryir.Col); ok && col.Ref == "id" {
			seenID = true
		}

		sql, eargs, err := b.expr(root, o.Expr)
		if err != nil {
			return "", nil, err
		}
		keys = append(keys, fmt.Sprintf("%s %s", sql, dir))
		args = append(args, eargs...)
	}

	if len(groupKeys) > 0 {
		for _, k := range groupKeys {
			keys = append(keys, k+" ASC")
		}
	} else if !seenID {
		keys = append(keys, root.alias+".id ASC")
	}

	return strings.Join(keys, ", "), args, nil
}

// compileAggregate compiles a one-row aggregate. Measures are computed over
// distinct root rows even when the filter crosses a fan-out relation.
func (b *builder) compileAggregate(q queryir.Aggregate) (Statement, error) {
	root := b.newScope(q.From)

	var args []any
	parts := make([]string, 0, len(q.Measures))
	outputs := make([]Output, 0, len(q.Measures))
	for _, m := range q.Measures {
		sql, margs, err := b.expr(root, m.Expr)
		if err != nil {
			return Statement{}, fmt.Errorf("measure %s: %w", m.Name, err)
		}
		kind, err := queryir.InferKind(b.schema, q.From, m.Expr)
		if err != nil {
			return Statement{}, fmt.Errorf("measure %s: %w", m.Name, err)
		}
		parts = append(parts, fmt.Sprintf("%s AS %s", sql, b.dialect.quote(m.Name)))
		args = append(args, margs...)
		outputs = append(outputs, Output{Name: m.Name, Kind: kind})
	}

	whereSQL, whereArgs, err := b.where(root, q.Filter)
	if err != nil {
		return Statement{}, fmt.Errorf("compile filter: %w", err)
	}

	sql := fmt.Sprintf("SELECT %s FROM %s", strings.Join(parts, ", "), root.from())
	if whereSQL != "" {
		sql += " WHERE " + whereSQL
		args = append(args, whereArgs...)
	}

	return Statement{SQL: sql, Args: args, Columns: outputs}, nil
}

func (b *builder) compileInsert(q queryir.Insert) (Statement, error) {
	t, _ := b.schema.Table(q.Table)

	cols := make([]string, 0, len(q.Values))
	marks := make([]string, 0, len(q.Values))
	args := make([]any, 0, len(q.Values))
	for _, a := range q.Values {
		col, _ := t.Column(a.Field)
		lit := queryir.NormalizeExpr(a.Expr).(queryir.Lit)
		v, err := b.dialect.param(lit.Value)
		if err != nil {
			return Statement{}, fmt.Errorf("value for %s: %w", a.Field, err)
		}
		cols = append(cols, col.SQL)
		marks = append(marks, "?")
		args = append(args, v)
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		q.Table, strings.Join(cols, ", "), strings.Join(marks, ", "))

	st := Statement{SQL: sql, Args: args}
	if b.dialect == Postgres {
		st.SQL += " RETURNING id"
		st.Returning = true
	}
	return st, nil
}

// compileUpdate renders one UPDATE. Set expressions read the row being
// updated, so guarded read-modify-write needs no separate read.
func (b *builder) compileUpdate(q queryir.Update) (Statement, error) {
	t, _ := b.schema.Table(q.Table)
	sc := tableScope(q.Table)

	var args []any
	sets := make([]string, 0, len(q.Set))
	for _, a := range q.Set {
		col, _ := t.Column(a.Field)
		sql, eargs, err := b.expr(sc, a.Expr)
		if err != nil {
			return Statement{}, fmt.Errorf("set %s: %w", a.Field, err)
		}
		sets = append(sets, fmt.Sprintf("%s = %s", col.SQL, sql))
		args = append(args, eargs...)
	}

	sql := fmt.Sprintf("UPDATE %s SET %s", q.Table, strings.Join(sets, ", "))
	if q.Filter != nil {
		whereSQL, whereArgs, err := b.predicate(sc, q.Filter)
		if err != nil {
			return Statement{}, fmt.Errorf("compile filter: %w", err)
		}
		sql += " WHERE " + whereSQL
		args = append(args, whereArgs...)
	}

	return Statement{SQL: sql, Args: args}, nil
}

func (b *builder) compileDelete(q queryir.Delete) (Statement, error) {
	sc := tableScope(q.Table)
	whereSQL, args, err := b.predicate(sc, q.Filter)
	if err != nil {
		return Statement{}, fmt.Errorf("compile filter: %w", err)
	}
	return Statement{
		SQL:  fmt.Sprintf("DELETE FROM %s WHERE %s", q.Table, whereSQL),
		Args: args,
	}, nil
}

// where renders a filter for sc. A filter that reaches across a fan-out
// relation becomes a semi-join on the root id, so each root row is returned
// at most once however many related rows match.
func (b *builder) where(sc *scope, p queryir.Predicate) (string, []any, error) {
	if p == nil {
		return "", nil, nil
	}
	if !b.fansOut(sc.table, p) {
		return b.predicate(sc, p)
	}

	semi := b.newScope(sc.table)
	sql, args, err := b.predicate(semi, p)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("%s.id IN (SELECT %s.id FROM %s WHERE %s)",
		sc.alias, semi.alias, semi.from(), sql), args, nil
}

func (b *builder) fansOut(table string, p queryir.Predicate) bool {
	for _, ref := range queryir.PredicateRefs(p) {
		path, err := b.schema.Resolve(table, ref)
		if err == nil && path.FansOut() {
			return true
		}
	}
	return false
}

// predicate compiles a queryir.Predicate to an SQL condition.
// CRITICAL: Values NEVER interpolated - always use ? placeholders.
func (b *builder) predicate(sc *scope, p queryir.Predicate) (string, []any, error) {
	switch pred := queryir.NormalizePredicate(p).(type) {
	case nil:
		return "1 = 1", nil, nil // Always true
	case queryir.Compare:
		left, args, err := b.expr(sc, pred.Left)
		if err != nil {
			return "", nil, err
		}
		v, err := b.dialect.param(queryir.BoundFor(pred.Op, pred.Value))
		if err != nil {
			return "", nil, fmt.Errorf("convert value: %w", err)
		}
		return fmt.Sprintf("%s %s ?", left, pred.Op), append(args, v), nil
	case queryir.IContains:
		col, err := b.column(sc, pred.Field)
		if err != nil {
			return "", nil, err
		}
		return b.dialect.iContains(col), []any{likePattern(pred.Substring)}, nil
	case queryir.YearEquals:
		col, err := b.column(sc, pred.Field)
		if err != nil {
			return "", nil, err
		}
		return b.dialect.year(col) + " = ?", []any{int64(pred.Year)}, nil
	case queryir.HasElement:
		col, err := b.column(sc, pred.Field)
		if err != nil {
			return "", nil, err
		}
		return b.dialect.hasElement(col), []any{pred.Element}, nil
	case queryir.And:
		if len(pred.Predicates) == 0 {
			return "1 = 1", nil, nil // Always true (vacuous truth)
		}
		return b.junction(sc, pred.Predicates, " AND ")
	case queryir.Or:
		if len(pred.Predicates) == 0 {
			return "1 = 0", nil, nil
		}
		return b.junction(sc, pred.Predicates, " OR ")
	case queryir.Not:
		sql, args, err := b.predicate(sc, pred.Predicate)
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("NOT (%s)", sql), args, nil
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (b *builder) junction(sc *scope, preds []queryir.Predicate, sep string) (string, []any, error) {
	var (
		parts []string
		args  []any
	)
	for _, p := range preds {
		sql, pargs, err := b.predicate(sc, p)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		args = append(args, pargs...)
	}
	if len(parts) == 1 {
		return parts[0], args, nil
	}
	return "(" + strings.Join(parts, sep) + ")", args, nil
}

// expr compiles a scalar expression evaluated against rows of sc.
func (b *builder) expr(sc *scope, e queryir.Expr) (string, []any, error) {
	switch x := queryir.NormalizeExpr(e).(type) {
	case queryir.Col:
		col, err := b.column(sc, x.Ref)
		return col, nil, err
	case queryir.Lit:
		v, err := b.dialect.param(x.Value)
		if err != nil {
			return "", nil, fmt.Errorf("convert value: %w", err)
		}
		return "?", []any{v}, nil
	case queryir.Arith:
		l, r, args, err := b.pair(sc, x.Left, x.Right)
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("(%s %s %s)", l, x.Op, r), args, nil
	case queryir.Greatest:
		l, r, args, err := b.pair(sc, x.Left, x.Right)
		if err != nil {
			return "", nil, err
		}
		return b.dialect.greatest(l, r), args, nil
	case queryir.Agg:
		if x.Arg == nil {
			return fmt.Sprintf("%s(*)", x.Func), nil, nil
		}
		arg, args, err := b.expr(sc, x.Arg)
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("%s(%s)", x.Func, arg), args, nil
	case queryir.JSONNumber:
		col, err := b.column(sc, x.Ref)
		if err != nil {
			return "", nil, err
		}
		return b.dialect.jsonNumber(col, x.Key), nil, nil
	case queryir.Subquery:
		return b.subquery(sc, x)
	case queryir.Exceeds:
		inner, args, err := b.expr(sc, x.Expr)
		if err != nil {
			return "", nil, err
		}
		v, err := b.dialect.param(queryir.BoundFor(queryir.OpGt, x.Threshold))
		if err != nil {
			return "", nil, fmt.Errorf("convert threshold: %w", err)
		}
		return fmt.Sprintf("CASE WHEN %s > ? THEN 1 ELSE 0 END", inner), append(args, v), nil
	case queryir.Rank:
		return b.rank(sc, x)
	case queryir.OutputRef:
		return b.dialect.quote(x.Name), nil, nil
	default:
		return "", nil, fmt.Errorf("unsupported expression type: %T", e)
	}
}

func (b *builder) pair(sc *scope, left, right queryir.Expr) (string, string, []any, error) {
	l, largs, err := b.expr(sc, left)
	if err != nil {
		return "", "", nil, err
	}
	r, rargs, err := b.expr(sc, right)
	if err != nil {
		return "", "", nil, err
	}
	return l, r, append(largs, rargs...), nil
}

// rank renders a window rank. NULLs sort after every value in both
// directions.
func (b *builder) rank(sc *scope, r queryir.Rank) (string, []any, error) {
	by, args, err := b.expr(sc, r.By)
	if err != nil {
		return "", nil, err
	}
	fn := "RANK"
	if r.Dense {
		fn = "DENSE_RANK"
	}
	dir := "ASC"
	if r.Desc {
		dir = "DESC"
	}

	// by appears twice, so do its arguments.
	all := append(append([]any{}, args...), args...)
	return fmt.Sprintf("%s() OVER (ORDER BY (%s IS NULL), %s %s)", fn, by, by, dir), all, nil
}

// subquery renders a correlated scalar subquery over the rows Relation
// reaches from the current row of parent.
func (b *builder) subquery(parent *scope, sq queryir.Subquery) (string, []any, error) {
	rel, err := b.schema.ResolveRelation(parent.table, sq.Relation)
	if err != nil {
		return "", nil, err
	}
	from, to, err := b.joinColumns(rel)
	if err != nil {
		return "", nil, err
	}

	child := b.newScope(rel.To)
	value, args, err := b.expr(child, sq.Value)
	if err != nil {
		return "", nil, fmt.Errorf("subquery %s: %w", sq.Relation, err)
	}

	conds := []string{fmt.Sprintf("%s.%s = %s.%s", child.alias, to, parent.alias, from)}
	if sq.Filter != nil {
		filter, fargs, err := b.where(child, sq.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("subquery %s: %w", sq.Relation, err)
		}
		conds = append(conds, filter)
		args = append(args, fargs...)
	}

	var tail string
	if len(sq.OrderBy) > 0 {
		keys := make([]string, 0, len(sq.OrderBy))
		for _, o := range sq.OrderBy {
			key, oargs, err := b.expr(child, o.Expr)
			if err != nil {
				return "", nil, fmt.Errorf("subquery %s: %w", sq.Relation, err)
			}
			dir := "ASC"
			if o.Desc {
				dir = "DESC"
			}
			keys = append(keys, key+" "+dir)
			args = append(args, oargs...)
		}
		tail = " ORDER BY " + strings.Join(keys, ", ") + " LIMIT 1"
	}

	return fmt.Sprintf("(SELECT %s FROM %s WHERE %s%s)",
		value, child.from(), strings.Join(conds, " AND "), tail), args, nil
}
