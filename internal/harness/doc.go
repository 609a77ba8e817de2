// Package harness runs end-to-end scenarios against the shop service.
//
// A scenario seeds a fresh database, invokes service operations, checks
// their outcomes and asserts on the resulting trace and tables.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	date: 2024-01-15            # clock date for new orders
//	fixture: catalog.cue        # optional CUE catalog, ids saved as $customers.<key>
//	setup:
//	  - action: AddCustomer
//	    args: { name: Ada, email: ada@example.com }
//	    save: ada
//	flow:
//	  - invoke: AddOrder
//	    args: { customer_id: $ada }
//	    save: first
//	  - advance_days: 3
//	  - invoke: GetOrder
//	    args: { id: 99 }
//	    expect:
//	      case: NOT_FOUND
//	assertions:
//	  - type: trace_count
//	    action: AddOrder
//	    count: 1
//	  - type: final_state
//	    table: orders
//	    where: { id: $first }
//	    expect: { created_at: "2024-01-15" }
//
// # Outcomes
//
// A step completes with case "Success" or with the code of the shop error
// it returned (NOT_FOUND, DUPLICATE, VALIDATION, UNEXPECTED). Steps
// without an expect clause must succeed. Expected results are compared
// with the JSON form of the actual result as a subset: extra map keys are
// ignored, lists must have the same length.
//
// # Assertion Types
//
//   - trace_contains: an operation appears in the trace with matching args
//   - trace_order: operations appear in the given order
//   - trace_count: an operation appears exactly N times
//   - final_state: exactly one row matches and holds the expected values
//
// # Deterministic Testing
//
// Every scenario runs in its own in-memory SQLite database with a
// testutil.DeterministicClock and sequential operation ids, so traces are
// identical across runs and can be compared with golden files.
package harness
