package queryir

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/shopq/internal/schema"
)

// ValidationResult contains the structural problems found in a query.
type ValidationResult struct {
	// Valid is true when Problems is empty.
	Valid bool

	// Problems lists every issue found, in traversal order.
	Problems []string
}

// Err returns nil for a valid query and an error listing every problem
// otherwise.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return fmt.Errorf("invalid query: %s", strings.Join(r.Problems, "; "))
}

// Validate checks a query against the schema.
//
// Rules:
//  1. Tables, fields and relations must exist
//  2. Projected plain fields must not fan out (use a Subquery)
//  3. Aggregates only in Aggregate measures, grouped Selects and Subquery values
//  4. Rank and Exceeds only as top-level projections of a Select
//  5. Literals must match the kind of what they are compared with
//  6. Update and Delete filters stay on the target table
//
// Validate is a pure function with no side effects.
func Validate(s *schema.Schema, q Query) ValidationResult {
	v := &validator{schema: s, problems: []string{}}
	v.validateQuery(q)

	return ValidationResult{
		Valid:    len(v.problems) == 0,
		Problems: v.problems,
	}
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IsIdent reports whether name is safe to use as an SQL alias or JSON key.
func IsIdent(name string) bool {
	return identPattern.MatchString(name)
}

// validator accumulates problems during traversal.
type validator struct {
	schema   *schema.Schema
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

// exprCtx says what is allowed where an expression appears.
type exprCtx struct {
	table    string
	allowAgg bool
	fanOut   bool // fan-out paths allowed (filters)
	top      bool // top-level projection of a Select
	grouped  bool
	inFilter bool
}

func (v *validator) validateQuery(q Query) {
	if q == nil {
		v.addProblem("nil query")
		return
	}

	switch query := Normalize(q).(type) {
	case Select:
		v.validateSelect(query)
	case Aggregate:
		v.validateAggregate(query)
	case Insert:
		v.validateInsert(query)
	case Update:
		v.validateUpdate(query)
	case Delete:
		v.validateDelete(query)
	default:
		v.addProblem("unknown query type: %T", q)
	}
}

func (v *validator) table(name string) (*schema.Table, bool) {
	t, ok := v.schema.Table(name)
	if !ok {
		v.addProblem("unknown table %q", name)
	}
	return t, ok
}

func (v *validator) validateNames(projections []Projection) map[string]bool {
	names := make(map[string]bool, len(projections))
	for _, p := range projections {
		if !IsIdent(p.Name) {
			v.addProblem("projection name %q is not an identifier", p.Name)
		}
		if names[p.Name] {
			v.addProblem("duplicate projection name %q", p.Name)
		}
		names[p.Name] = true
	}
	return names
}

func (v *validator) validateSelect(sel Select) {
	if _, ok := v.table(sel.From); !ok {
		return
	}
	if sel.Limit < 0 {
		v.addProblem("negative limit %d", sel.Limit)
	}

	grouped := len(sel.GroupBy) > 0
	groupSet := make(map[string]bool, len(sel.GroupBy))
	for _, ref := range sel.GroupBy {
		p, err := v.schema.Resolve(sel.From, ref)
		if err != nil {
			v.addProblem("group by: %v", err)
			continue
		}
		if p.FansOut() {
			v.addProblem("group by %q fans out", ref)
		}
		groupSet[ref] = true
	}

	outputs := v.validateNames(sel.Columns)
	for _, p := range sel.Columns {
		if grouped {
			v.validateGroupedProjection(sel.From, p, groupSet)
			continue
		}
		v.validateExpr(exprCtx{table: sel.From, top: true}, p.Expr)
	}

	v.validatePredicate(sel.From, sel.Filter)

	for _, o := range sel.OrderBy {
		switch e := NormalizeExpr(o.Expr).(type) {
		case OutputRef:
			if !outputs[e.Name] {
				v.addProblem("order by unknown output %q", e.Name)
			}
		case Col:
			if grouped && !groupSet[e.Ref] {
				v.addProblem("order by %q is not a group key", e.Ref)
				continue
			}
			v.validateExpr(exprCtx{table: sel.From}, e)
		default:
			if grouped {
				v.addProblem("grouped select can only order by outputs or group keys")
				continue
			}
			v.validateExpr(exprCtx{table: sel.From}, e)
		}
	}
}

func (v *validator) validateGroupedProjection(table string, p Projection, groupSet map[string]bool) {
	switch e := NormalizeExpr(p.Expr).(type) {
	case Agg:
		v.validateExpr(exprCtx{table: table, allowAgg: true, grouped: true}, e)
	case Col:
		if !groupSet[e.Ref] {
			v.addProblem("projection %q must be a group key or an aggregate", p.Name)
		}
	default:
		v.addProblem("projection %q must be a group key or an aggregate", p.Name)
	}
}

func (v *validator) validateAggregate(agg Aggregate) {
	if _, ok := v.table(agg.From); !ok {
		return
	}
	if len(agg.Measures) == 0 {
		v.addProblem("aggregate on %s has no measures", agg.From)
	}
	v.validateNames(agg.Measures)
	for _, m := range agg.Measures {
		if _, ok := NormalizeExpr(m.Expr).(Agg); !ok {
			v.addProblem("measure %q is not an aggregate", m.Name)
			continue
		}
		v.validateExpr(exprCtx{table: agg.From, allowAgg: true}, m.Expr)
	}
	v.validatePredicate(agg.From, agg.Filter)
}

func (v *validator) validateInsert(ins Insert) {
	t, ok := v.table(ins.Table)
	if !ok {
		return
	}
	if len(ins.Values) == 0 {
		v.addProblem("insert into %s has no values", ins.Table)
	}
	seen := make(map[string]bool, len(ins.Values))
	for _, a := range ins.Values {
		col, ok := v.assignable(t, a.Field)
		if !ok {
			continue
		}
		if seen[a.Field] {
			v.addProblem("field %q assigned twice", a.Field)
		}
		seen[a.Field] = true

		lit, ok := NormalizeExpr(a.Expr).(Lit)
		if !ok || lit.Value == nil {
			v.addProblem("insert value for %q must be a literal", a.Field)
			continue
		}
		if !compatible(col.Kind, lit.Value.Kind()) {
			v.addProblem("field %q is %s, got %s", a.Field, col.Kind, lit.Value.Kind())
		}
	}
}

func (v *validator) validateUpdate(up Update) {
	t, ok := v.table(up.Table)
	if !ok {
		return
	}
	if len(up.Set) == 0 {
		v.addProblem("update of %s sets nothing", up.Table)
	}
	for _, a := range up.Set {
		col, ok := v.assignable(t, a.Field)
		if !ok {
			continue
		}
		v.validateExpr(exprCtx{table: up.Table}, a.Expr)
		if k, err := InferKind(v.schema, up.Table, a.Expr); err == nil && !compatible(col.Kind, k) {
			v.addProblem("field %q is %s, got %s", a.Field, col.Kind, k)
		}
	}
	v.validatePredicate(up.Table, up.Filter)
	v.requireLocalFilter(up.Table, up.Filter)
}

func (v *validator) validateDelete(del Delete) {
	if _, ok := v.table(del.Table); !ok {
		return
	}
	if del.Filter == nil {
		v.addProblem("delete from %s without a filter", del.Table)
		return
	}
	v.validatePredicate(del.Table, del.Filter)
	v.requireLocalFilter(del.Table, del.Filter)
}

func (v *validator) assignable(t *schema.Table, field string) (schema.Column, bool) {
	if field == "id" {
		v.addProblem("id of %s is generated", t.Name)
		return schema.Column{}, false
	}
	col, ok := t.Column(field)
	if !ok {
		v.addProblem("unknown field %q on %s", field, t.Name)
	}
	return col, ok
}

func (v *validator) requireLocalFilter(table string, p Predicate) {
	for _, ref := range PredicateRefs(p) {
		if strings.Contains(ref, ".") {
			v.addProblem("write filter on %s traverses %q", table, ref)
		}
	}
}

// validateExpr recursively validates an expression node.
func (v *validator) validateExpr(ctx exprCtx, e Expr) {
	switch x := NormalizeExpr(e).(type) {
	case nil:
		v.addProblem("nil expression")
	case Col:
		v.validateRef(ctx, x.Ref)
	case Lit:
		if x.Value == nil {
			v.addProblem("literal without value")
		}
	case Arith:
		inner := ctx
		inner.top = false
		v.validateExpr(inner, x.Left)
		v.validateExpr(inner, x.Right)
		v.checkKind(ctx.table, x)
	case Greatest:
		inner := ctx
		inner.top = false
		v.validateExpr(inner, x.Left)
		v.validateExpr(inner, x.Right)
		v.checkKind(ctx.table, x)
	case Agg:
		if !ctx.allowAgg {
			v.addProblem("%s outside an Aggregate, grouped Select or Subquery", x.Func)
			return
		}
		if x.Arg != nil {
			v.validateExpr(exprCtx{table: ctx.table}, x.Arg)
		}
		v.checkKind(ctx.table, x)
	case JSONNumber:
		if !IsIdent(x.Key) {
			v.addProblem("json key %q is not an identifier", x.Key)
		}
		v.validateRef(ctx, x.Ref)
		v.checkKind(ctx.table, x)
	case Subquery:
		if ctx.inFilter {
			v.addProblem("subquery inside a filter")
			return
		}
		v.validateSubquery(ctx.table, x)
	case Exceeds:
		if !ctx.top {
			v.addProblem("Exceeds must be a top-level projection")
			return
		}
		if x.Threshold == nil {
			v.addProblem("Exceeds without threshold")
			return
		}
		inner := ctx
		inner.top = false
		v.validateExpr(inner, x.Expr)
		if k, err := InferKind(v.schema, ctx.table, x.Expr); err == nil && !compatible(k, x.Threshold.Kind()) {
			v.addProblem("Exceeds compares %s with %s", k, x.Threshold.Kind())
		}
	case Rank:
		if !ctx.top || ctx.grouped {
			v.addProblem("Rank must be a top-level projection of an ungrouped Select")
			return
		}
		inner := ctx
		inner.top = false
		v.validateExpr(inner, x.By)
	case OutputRef:
		v.addProblem("output reference %q outside ORDER BY", x.Name)
	default:
		v.addProblem("unknown expression type: %T", e)
	}
}

func (v *validator) validateRef(ctx exprCtx, ref string) {
	p, err := v.schema.Resolve(ctx.table, ref)
	if err != nil {
		v.addProblem("%v", err)
		return
	}
	if p.FansOut() && !ctx.fanOut {
		v.addProblem("path %q fans out from %s; use a Subquery", ref, ctx.table)
	}
}

func (v *validator) checkKind(table string, e Expr) {
	if _, err := InferKind(v.schema, table, e); err != nil {
		v.addProblem("%v", err)
	}
}

func (v *validator) validateSubquery(table string, sq Subquery) {
	rel, err := v.schema.ResolveRelation(table, sq.Relation)
	if err != nil {
		v.addProblem("subquery: %v", err)
		return
	}
	if rel.Cardinality != schema.Many {
		v.addProblem("subquery over to-one relation %q; reference its fields directly", sq.Relation)
	}

	child := rel.To
	v.validatePredicate(child, sq.Filter)

	_, isAgg := NormalizeExpr(sq.Value).(Agg)
	if len(sq.OrderBy) == 0 {
		if !isAgg {
			v.addProblem("subquery over %q needs an aggregate value or an ORDER BY", sq.Relation)
			return
		}
		v.validateExpr(exprCtx{table: child, allowAgg: true}, sq.Value)
		return
	}

	if isAgg {
		v.addProblem("subquery over %q orders rows but aggregates them", sq.Relation)
		return
	}
	v.validateExpr(exprCtx{table: child}, sq.Value)
	for _, o := range sq.OrderBy {
		v.validateExpr(exprCtx{table: child}, o.Expr)
	}
}

// validatePredicate recursively validates a predicate node.
func (v *validator) validatePredicate(table string, p Predicate) {
	if p == nil {
		return // nil predicates are valid (no filter)
	}

	ctx := exprCtx{table: table, fanOut: true, inFilter: true}

	switch pred := NormalizePredicate(p).(type) {
	case nil:
		return
	case Compare:
		if !pred.Op.Valid() {
			v.addProblem("unknown operator %q", pred.Op)
		}
		if pred.Value == nil {
			v.addProblem("comparison without value")
			return
		}
		v.validateExpr(ctx, pred.Left)
		k, err := InferKind(v.schema, table, pred.Left)
		if err != nil {
			return
		}
		if k == schema.KindJSON || k == schema.KindTextList {
			v.addProblem("cannot compare %s values", k)
			return
		}
		if !compatible(k, pred.Value.Kind()) {
			v.addProblem("comparison of %s with %s", k, pred.Value.Kind())
		}
	case IContains:
		v.checkFieldKind(table, pred.Field, schema.KindText)
	case YearEquals:
		v.checkFieldKind(table, pred.Field, schema.KindDate)
	case HasElement:
		v.checkFieldKind(table, pred.Field, schema.KindTextList)
	case And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(table, sub)
		}
	case Or:
		for _, sub := range pred.Predicates {
			v.validatePredicate(table, sub)
		}
	case Not:
		if pred.Predicate == nil {
			v.addProblem("NOT without predicate")
			return
		}
		v.validatePredicate(table, pred.Predicate)
	default:
		v.addProblem("unknown predicate type: %T", p)
	}
}

func (v *validator) checkFieldKind(table, field string, want schema.Kind) {
	p, err := v.schema.Resolve(table, field)
	if err != nil {
		v.addProblem("%v", err)
		return
	}
	if p.Column.Kind != want {
		v.addProblem("%s is %s, not %s", field, p.Column.Kind, want)
	}
}

// compatible reports whether a literal of kind lit may stand where kind col
// is expected.
func compatible(col, lit schema.Kind) bool {
	if col == lit {
		return true
	}
	numeric := func(k schema.Kind) bool { return k == schema.KindInt || k == schema.KindFloat }
	return numeric(col) && numeric(lit)
}

// PredicateRefs returns every field reference a predicate makes against its
// own table, in traversal order. References inside subqueries are relative
// to another table and are not included.
func PredicateRefs(p Predicate) []string {
	var refs []string
	var walkExpr func(e Expr)
	walkExpr = func(e Expr) {
		switch x := NormalizeExpr(e).(type) {
		case Col:
			refs = append(refs, x.Ref)
		case JSONNumber:
			refs = append(refs, x.Ref)
		case Arith:
			walkExpr(x.Left)
			walkExpr(x.Right)
		case Greatest:
			walkExpr(x.Left)
			walkExpr(x.Right)
		case Agg:
			if x.Arg != nil {
				walkExpr(x.Arg)
			}
		}
	}

	var walk func(p Predicate)
	walk = func(p Predicate) {
		switch pred := NormalizePredicate(p).(type) {
		case Compare:
			walkExpr(pred.Left)
		case IContains:
			refs = append(refs, pred.Field)
		case YearEquals:
			refs = append(refs, pred.Field)
		case HasElement:
			refs = append(refs, pred.Field)
		case And:
			for _, sub := range pred.Predicates {
				walk(sub)
			}
		case Or:
			for _, sub := range pred.Predicates {
				walk(sub)
			}
		case Not:
			walk(pred.Predicate)
		}
	}
	walk(p)
	return refs
}
