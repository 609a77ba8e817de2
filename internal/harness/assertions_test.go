package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	q "github.com/roach88/shopq/internal/queryir"
	"github.com/roach88/shopq/internal/schema"
)

func sampleTrace() []TraceEvent {
	r := NewResult()
	r.AddInvocationTrace("AddCustomer", map[string]any{"name": "Ada"})
	r.AddCompletionTrace("AddCustomer", CaseSuccess, map[string]any{"id": float64(1)})
	r.AddInvocationTrace("AddOrder", map[string]any{"customer_id": float64(1)})
	r.AddCompletionTrace("AddOrder", CaseSuccess, map[string]any{"id": float64(1)})
	r.AddInvocationTrace("AddOrder", map[string]any{"customer_id": float64(2)})
	r.AddCompletionTrace("AddOrder", "NOT_FOUND", nil)
	return r.Trace
}

func TestResult_SeqIncreases(t *testing.T) {
	trace := sampleTrace()
	for i, e := range trace {
		assert.Equal(t, int64(i+1), e.Seq)
	}
}

func TestAssertTraceContains(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceContains(trace, Assertion{Action: "AddOrder"}, nil))
	assert.NoError(t, assertTraceContains(trace, Assertion{Action: "AddOrder", Args: map[string]any{"customer_id": 2}}, nil))
	assert.NoError(t, assertTraceContains(trace,
		Assertion{Action: "AddOrder", Args: map[string]any{"customer_id": "$bob"}},
		map[string]int64{"bob": 2}))

	err := assertTraceContains(trace, Assertion{Action: "AddOrder", Args: map[string]any{"customer_id": 3}}, nil)
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, AssertTraceContains, ae.Type)
	assert.Contains(t, ae.Error(), "[3] AddOrder")
}

func TestAssertTraceOrder(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceOrder(trace, Assertion{Actions: []string{"AddCustomer", "AddOrder"}}))

	err := assertTraceOrder(trace, Assertion{Actions: []string{"AddOrder", "AddCustomer"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "should be before")

	err = assertTraceOrder(trace, Assertion{Actions: []string{"AddCustomer", "DeleteOrder"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing action: DeleteOrder")
}

func TestAssertTraceCount(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceCount(trace, Assertion{Action: "AddOrder", Count: 2}))
	assert.NoError(t, assertTraceCount(trace, Assertion{Action: "DeleteOrder", Count: 0}))

	err := assertTraceCount(trace, Assertion{Action: "AddCustomer", Count: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 occurrences")
}

func TestEvaluateAssertions_FinalStateNeedsDatabase(t *testing.T) {
	errs := EvaluateAssertions(NewResult(), []Assertion{{Type: AssertFinalState, Table: "orders"}}, nil)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "requires database context")
}

func TestSubset(t *testing.T) {
	actual := map[string]any{
		"total": float64(2),
		"items": []any{
			map[string]any{"id": float64(1), "name": "Ada"},
			map[string]any{"id": float64(2), "name": "Bob"},
		},
	}

	tests := []struct {
		name     string
		expected any
		path     string
		ok       bool
	}{
		{"extra keys ignored", map[string]any{"total": float64(2)}, "", true},
		{"nested match", map[string]any{"items": []any{map[string]any{"id": float64(1)}, map[string]any{}}}, "", true},
		{"scalar mismatch", map[string]any{"total": float64(3)}, "result.total", false},
		{"list length", map[string]any{"items": []any{map[string]any{}}}, "result.items", false},
		{"element mismatch", map[string]any{"items": []any{map[string]any{}, map[string]any{"name": "Cyd"}}}, "result.items[1].name", false},
		{"missing key", map[string]any{"count": float64(2)}, "result.count", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, ok := subset(actual, tt.expected, "result")
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.path, path)
		})
	}

	assert.Equal(t, "Bob", lookup(actual, "result.items[1].name"))
	assert.Nil(t, lookup(actual, "result.items[5].name"))
}

func TestLiteral(t *testing.T) {
	v, err := literal(schema.KindInt, 3)
	require.NoError(t, err)
	assert.Equal(t, q.Int(3), v)

	v, err = literal(schema.KindMoney, "899.99")
	require.NoError(t, err)
	assert.Equal(t, int64(89999), v.(q.Money).MinorUnits())

	v, err = literal(schema.KindDate, "2024-02-10")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-10", v.(q.Date).String())

	_, err = literal(schema.KindText, 5)
	assert.Error(t, err)

	_, err = literal(schema.KindJSON, "{}")
	assert.Error(t, err)
}

func TestBuildFilter_UnknownColumn(t *testing.T) {
	table, ok := schema.Commerce().Table(schema.Orders)
	require.True(t, ok)

	_, err := buildFilter(table, map[string]any{"status": "paid"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown column orders.status")
}

func TestRun_FinalStateFailures(t *testing.T) {
	s := mustParse(t, `
name: final_state_failures
description: row lookups report missing rows and wrong values
setup:
  - action: AddCustomer
    args: { name: Ada, email: ada@example.com }
    save: ada
  - action: AddCustomer
    args: { name: Bob, email: bob@example.com }
flow:
  - invoke: ListCustomers
assertions:
  - type: final_state
    table: customers
    where: { name: Cyd }
    expect: { id: 1 }
  - type: final_state
    table: customers
    where: { id: $ada }
    expect: { name: Bob }
  - type: final_state
    table: customers
    expect: { id: 1 }
  - type: final_state
    table: customers
    where: { id: $ada }
    expect: { phone: "555" }
`)
	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 4)
	assert.Contains(t, result.Errors[0], "row not found")
	assert.Contains(t, result.Errors[1], "row.name = Bob")
	assert.Contains(t, result.Errors[2], "multiple rows matched")
	assert.Contains(t, result.Errors[3], `field "phone" to exist`)
}
