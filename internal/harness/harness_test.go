package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, doc string) *Scenario {
	t.Helper()
	s, err := ParseScenario([]byte(doc))
	require.NoError(t, err)
	return s
}

func TestRun_SavesAndResolvesReferences(t *testing.T) {
	s := mustParse(t, `
name: refs
description: saved ids flow into later args
setup:
  - action: AddCustomer
    args: { name: Ada, email: ada@example.com }
    save: ada
flow:
  - invoke: AddOrder
    args: { customer_id: $ada }
    save: order
  - invoke: CustomerOrders
    args: { customer_id: $ada }
    expect:
      case: Success
      result: { total: 1, items: [{ id: $order, customer_id: $ada }] }
`)
	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, map[string]int64{"ada": 1, "order": 1}, result.Saved)
	assert.Len(t, result.Trace, 6)
}

func TestRun_CaseMismatchFails(t *testing.T) {
	s := mustParse(t, `
name: mismatch
description: a missing order is NOT_FOUND, not Success
flow:
  - invoke: GetOrder
    args: { id: 7 }
`)
	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected case Success, got NOT_FOUND")
}

func TestRun_ResultMismatchFails(t *testing.T) {
	s := mustParse(t, `
name: result_mismatch
description: subset comparison reports the differing path
flow:
  - invoke: AddCustomer
    args: { name: Ada, email: ada@example.com }
    expect:
      case: Success
      result: { name: Bob }
`)
	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "result.name does not match: expected Bob, got Ada")
}

func TestRun_ValidationOutcome(t *testing.T) {
	s := mustParse(t, `
name: validation
description: invalid input completes with VALIDATION and field details
flow:
  - invoke: AddProduct
    args: { name: Mouse, price: "-1", stock: 1 }
    expect:
      case: VALIDATION
      result: { code: VALIDATION, details: { price: must not be negative } }
`)
	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_AdvanceDays(t *testing.T) {
	s := mustParse(t, `
name: clock
description: orders are dated by the scenario clock
date: 2024-03-30
setup:
  - action: AddCustomer
    args: { name: Ada, email: ada@example.com }
    save: ada
flow:
  - advance_days: 3
  - invoke: AddOrder
    args: { customer_id: $ada }
    expect:
      case: Success
      result: { created_at: "2024-04-02T00:00:00Z" }
`)
	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	var clockEvents []TraceEvent
	for _, e := range result.Trace {
		if e.Type == EventClock {
			clockEvents = append(clockEvents, e)
		}
	}
	require.Len(t, clockEvents, 1)
	assert.Equal(t, "2024-04-02", clockEvents[0].Result)
}

func TestRun_UnknownReference(t *testing.T) {
	s := mustParse(t, `
name: dangling
description: references must be saved first
flow:
  - invoke: GetCustomer
    args: { id: $ghost }
`)
	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown reference "$ghost"`)
}

func TestRun_SetupMustSucceed(t *testing.T) {
	s := mustParse(t, `
name: bad_setup
description: setup failures abort the scenario
setup:
  - action: AddOrder
    args: { customer_id: 1 }
flow:
  - invoke: ListOrders
`)
	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "setup step 0 (AddOrder): NOT_FOUND")
}

func TestRun_UnknownArgument(t *testing.T) {
	s := mustParse(t, `
name: typo
description: misspelled args are scenario errors
flow:
  - invoke: GetCustomer
    args: { ident: 1 }
`)
	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode args")
}

func TestRun_SaveNeedsID(t *testing.T) {
	s := mustParse(t, `
name: save_list
description: lists have no id to save
flow:
  - invoke: ListCustomers
    save: all
`)
	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "result has no id")
}

func TestResolveRefs(t *testing.T) {
	saved := map[string]int64{"ada": 3}

	got, err := resolveRefs(map[string]any{
		"id":    "$ada",
		"ids":   []any{"$ada", 4},
		"price": "$$5",
		"name":  "plain",
	}, saved)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"id":    int64(3),
		"ids":   []any{int64(3), 4},
		"price": "$5",
		"name":  "plain",
	}, got)
}
