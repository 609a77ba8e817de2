package harness

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	q "github.com/roach88/shopq/internal/queryir"
	"github.com/roach88/shopq/internal/schema"
	"github.com/roach88/shopq/internal/shop"
	"github.com/roach88/shopq/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for i, event := range e.Trace {
			if event.Type == EventInvocation {
				fmt.Fprintf(&buf, "  [%d] %s %v\n", i+1, event.Action, event.Args)
			}
		}
	}

	return buf.String()
}

// assertTraceContains checks if the trace contains an invocation matching
// the specified action and args (subset match).
func assertTraceContains(trace []TraceEvent, assertion Assertion, saved map[string]int64) error {
	args, err := resolveRefs(assertion.Args, saved)
	if err != nil {
		return fmt.Errorf("trace_contains args: %w", err)
	}
	want, err := normalize(args)
	if err != nil {
		return fmt.Errorf("trace_contains args: %w", err)
	}
	for _, event := range trace {
		if event.Type != EventInvocation || event.Action != assertion.Action {
			continue
		}
		if len(assertion.Args) == 0 {
			return nil
		}
		if _, ok := subset(event.Args, want, "args"); ok {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("action %s with args %v", assertion.Action, assertion.Args),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks if actions appear in the specified order.
// Actions don't need to be consecutive (intervening actions are allowed).
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	// Find first position of each expected action
	positions := make(map[string]int)
	for i, event := range trace {
		if event.Type != EventInvocation {
			continue
		}
		for _, expected := range assertion.Actions {
			if event.Action == expected && positions[expected] == 0 {
				positions[expected] = i + 1 // 1-indexed for readability
			}
		}
	}

	for _, action := range assertion.Actions {
		if positions[action] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all actions present: %v", assertion.Actions),
				Actual:   fmt.Sprintf("missing action: %s", action),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(assertion.Actions); i++ {
		prev := assertion.Actions[i-1]
		curr := assertion.Actions[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("actions in order: %v", assertion.Actions),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}

	return nil
}

// assertTraceCount checks if the action appears exactly the specified number of times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Type == EventInvocation && event.Action == assertion.Action {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.Action),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertFinalState checks that exactly one row of the table matches Where
// and that it holds the Expect values. The lookup is an ordinary compiled
// query, so where values are bound parameters.
func assertFinalState(actx *AssertionContext, assertion Assertion) error {
	ctx, saved := actx.Ctx, actx.Saved
	if ctx == nil {
		ctx = context.Background()
	}
	table, ok := schema.Commerce().Table(assertion.Table)
	if !ok {
		return fmt.Errorf("final_state: unknown table %q", assertion.Table)
	}

	where, err := resolveRefs(assertion.Where, saved)
	if err != nil {
		return fmt.Errorf("final_state where: %w", err)
	}
	filter, err := buildFilter(table, where.(map[string]any))
	if err != nil {
		return err
	}

	st, err := actx.Service.Compiler().Compile(q.Select{From: table.Name, Filter: filter})
	if err != nil {
		return fmt.Errorf("final_state: %w", err)
	}
	rows, err := actx.Store.Query(ctx, st)
	if err != nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("query table %s", assertion.Table),
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}

	whereDesc := formatWhereClause(assertion.Where)
	switch len(rows) {
	case 0:
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("row in %s where %s", assertion.Table, whereDesc),
			Actual:   "row not found",
		}
	case 1:
	default:
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("exactly one row in %s where %s", assertion.Table, whereDesc),
			Actual:   "multiple rows matched (assertion is ambiguous)",
		}
	}

	actual, err := normalize(rowValues(rows[0]))
	if err != nil {
		return err
	}
	expected, err := resolveRefs(assertion.Expect, saved)
	if err != nil {
		return fmt.Errorf("final_state expect: %w", err)
	}
	want, err := normalize(expected)
	if err != nil {
		return err
	}

	row := actual.(map[string]any)
	for _, key := range sortedKeys(want.(map[string]any)) {
		if _, exists := row[key]; !exists {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q to exist", key),
				Actual:   fmt.Sprintf("field %q not present in columns: %v", key, sortedKeys(row)),
			}
		}
	}
	if path, ok := subset(actual, want, "row"); !ok {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("%s = %v", path, lookup(want, path)),
			Actual:   fmt.Sprintf("%s = %v", path, lookup(actual, path)),
		}
	}
	return nil
}

// buildFilter turns where into field equality predicates, typed by the
// column they compare against. Keys are sorted for determinism.
func buildFilter(table *schema.Table, where map[string]any) (q.Predicate, error) {
	if len(where) == 0 {
		return nil, nil
	}
	preds := make([]q.Predicate, 0, len(where))
	for _, key := range sortedKeys(where) {
		col, ok := table.Column(key)
		if !ok {
			return nil, fmt.Errorf("final_state: unknown column %s.%s", table.Name, key)
		}
		v, err := literal(col.Kind, where[key])
		if err != nil {
			return nil, fmt.Errorf("final_state: %s: %w", key, err)
		}
		preds = append(preds, q.Eq(key, v))
	}
	return q.AllOf(preds...), nil
}

// literal converts a YAML scalar into a value of kind k.
func literal(k schema.Kind, v any) (q.Value, error) {
	switch k {
	case schema.KindInt:
		switch n := v.(type) {
		case int:
			return q.Int(n), nil
		case int64:
			return q.Int(n), nil
		case float64:
			return q.Int(int64(n)), nil
		}
	case schema.KindFloat:
		switch n := v.(type) {
		case int:
			return q.Float(float64(n)), nil
		case float64:
			return q.Float(n), nil
		}
	case schema.KindText:
		if s, ok := v.(string); ok {
			return q.String(s), nil
		}
	case schema.KindBool:
		if b, ok := v.(bool); ok {
			return q.Bool(b), nil
		}
	case schema.KindMoney:
		d, err := decimal.NewFromString(fmt.Sprint(v))
		if err != nil {
			return nil, err
		}
		return q.MoneyOf(d), nil
	case schema.KindDate:
		if s, ok := v.(string); ok {
			t, err := time.Parse(schema.DateLayout, s)
			if err != nil {
				return nil, err
			}
			return q.Date{Time: t}, nil
		}
	default:
		return nil, fmt.Errorf("%s columns cannot be filtered on", k)
	}
	return nil, fmt.Errorf("%v (%T) is not a %s value", v, v, k)
}

// rowValues renders dates the way scenarios write them.
func rowValues(r store.Row) map[string]any {
	out := make(map[string]any, len(r))
	for k, v := range r {
		if t, ok := v.(time.Time); ok {
			v = t.Format(schema.DateLayout)
		}
		out[k] = v
	}
	return out
}

// formatWhereClause creates a human-readable description of WHERE conditions.
func formatWhereClause(where map[string]any) string {
	if len(where) == 0 {
		return "(no conditions)"
	}
	parts := make([]string, 0, len(where))
	for _, k := range sortedKeys(where) {
		parts = append(parts, fmt.Sprintf("%s=%v", k, where[k]))
	}
	return strings.Join(parts, " AND ")
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// subset reports whether expected is contained in actual. Maps match when
// every expected key matches; lists match element-wise and must have the
// same length; scalars must be equal. On mismatch it returns the path of
// the first difference.
func subset(actual, expected any, path string) (string, bool) {
	switch exp := expected.(type) {
	case map[string]any:
		act, ok := actual.(map[string]any)
		if !ok {
			return path, false
		}
		for _, k := range sortedKeys(exp) {
			av, exists := act[k]
			if !exists {
				return path + "." + k, false
			}
			if p, ok := subset(av, exp[k], path+"."+k); !ok {
				return p, false
			}
		}
		return "", true
	case []any:
		act, ok := actual.([]any)
		if !ok || len(act) != len(exp) {
			return path, false
		}
		for i := range exp {
			if p, ok := subset(act[i], exp[i], fmt.Sprintf("%s[%d]", path, i)); !ok {
				return p, false
			}
		}
		return "", true
	default:
		if reflect.DeepEqual(actual, expected) {
			return "", true
		}
		return path, false
	}
}

// lookup follows a path produced by subset. The first segment names the
// root.
func lookup(v any, path string) any {
	segs := strings.Split(path, ".")
	for i, seg := range segs {
		name, rest, _ := strings.Cut(seg, "[")
		if i > 0 {
			m, ok := v.(map[string]any)
			if !ok {
				return nil
			}
			v = m[name]
		}
		for rest != "" {
			idx, tail, _ := strings.Cut(rest, "]")
			n, err := strconv.Atoi(idx)
			l, ok := v.([]any)
			if err != nil || !ok || n >= len(l) {
				return nil
			}
			v = l[n]
			rest = strings.TrimPrefix(tail, "[")
		}
	}
	return v
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Ctx     context.Context
	Store   *store.Store
	Service *shop.Service

	// Saved resolves "$name" references in final_state assertions.
	Saved map[string]int64
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides database access for final_state assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			var saved map[string]int64
			if actx != nil {
				saved = actx.Saved
			}
			err = assertTraceContains(result.Trace, assertion, saved)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertFinalState:
			if actx == nil || actx.Store == nil || actx.Service == nil {
				err = fmt.Errorf("assertion[%d]: final_state requires database context", i)
			} else {
				err = assertFinalState(actx, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	return errs
}
