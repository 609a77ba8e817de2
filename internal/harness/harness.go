package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/shopq/internal/fixture"
	"github.com/roach88/shopq/internal/schema"
	"github.com/roach88/shopq/internal/shop"
	"github.com/roach88/shopq/internal/store"
	"github.com/roach88/shopq/internal/testutil"
)

// Harness runs one scenario against a fresh database.
type Harness struct {
	store  *store.Store
	svc    *shop.Service
	clock  *testutil.DeterministicClock
	logger *slog.Logger
	saved  map[string]int64
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database with a deterministic
// clock and operation ids, so repeated runs produce identical traces.
//
// Execution flow:
// 1. Create fresh in-memory database
// 2. Apply the fixture, if any
// 3. Execute setup steps
// 4. Execute flow steps with expect validation
// 5. Evaluate assertions
//
// The returned error reports a broken scenario (bad reference, failing
// setup); failed expectations are reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	date, err := scenario.date()
	if err != nil {
		return nil, fmt.Errorf("invalid scenario date: %w", err)
	}
	clock := testutil.NewDeterministicClock(date.Year(), date.Month(), date.Day())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests

	h := &Harness{
		store: st,
		svc: shop.NewService(st,
			shop.WithClock(clock),
			shop.WithIDGenerator(testutil.NewSequenceIDGenerator("op")),
			shop.WithLogger(logger)),
		clock:  clock,
		logger: logger,
		saved:  map[string]int64{},
	}

	result := NewResult()
	if scenario.Fixture != "" {
		if err := h.applyFixture(ctx, scenario.Fixture); err != nil {
			return nil, fmt.Errorf("failed to apply fixture: %w", err)
		}
	}

	if err := h.executeSetup(ctx, scenario.Setup, result); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	if err := h.executeFlow(ctx, scenario.Flow, result); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}

	actx := &AssertionContext{
		Ctx:     ctx,
		Store:   st,
		Service: h.svc,
		Saved:   h.saved,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	for k, v := range h.saved {
		result.Saved[k] = v
	}
	return result, nil
}

// applyFixture loads the catalog and saves its ids as "<section>.<key>".
func (h *Harness) applyFixture(ctx context.Context, path string) error {
	cat, err := fixture.Load(path)
	if err != nil {
		return err
	}
	res, err := fixture.Apply(ctx, h.svc, cat, h.logger)
	if err != nil {
		return err
	}
	for section, ids := range map[string]map[string]int64{
		"customers": res.Customers,
		"products":  res.Products,
		"orders":    res.Orders,
	} {
		for key, id := range ids {
			h.saved[section+"."+key] = id
		}
	}
	return nil
}

// executeSetup runs setup steps. Every setup step must succeed.
func (h *Harness) executeSetup(ctx context.Context, setup []ActionStep, result *Result) error {
	for i, step := range setup {
		outcome, value, err := h.invoke(ctx, step.Action, step.Args, step.Save, result)
		if err != nil {
			return fmt.Errorf("setup step %d (%s): %w", i, step.Action, err)
		}
		if outcome != CaseSuccess {
			return fmt.Errorf("setup step %d (%s): %s: %v", i, step.Action, outcome, value)
		}
	}
	return nil
}

// executeFlow runs flow steps and validates expect clauses.
//
// Each step:
// 1. Resolves "$name" references in its args
// 2. Invokes the operation through the service
// 3. Records invocation and completion in the trace
// 4. Compares the outcome with the expect clause (default: Success)
func (h *Harness) executeFlow(ctx context.Context, flow []FlowStep, result *Result) error {
	for i, step := range flow {
		if step.AdvanceDays != 0 {
			h.clock.AdvanceDays(step.AdvanceDays)
			result.AddClockTrace(h.clock.Now().Format(schema.DateLayout))
			continue
		}

		outcome, value, err := h.invoke(ctx, step.Invoke, step.Args, step.Save, result)
		if err != nil {
			return fmt.Errorf("flow step %d (%s): %w", i, step.Invoke, err)
		}

		expected := CaseSuccess
		if step.Expect != nil {
			expected = step.Expect.Case
		}
		if outcome != expected {
			result.AddError(fmt.Sprintf("flow[%d] %s: expected case %s, got %s: %v",
				i, step.Invoke, expected, outcome, value))
			continue
		}

		if step.Expect != nil && step.Expect.Result != nil {
			expected, err := resolveRefs(step.Expect.Result, h.saved)
			if err != nil {
				return fmt.Errorf("flow step %d (%s): expected result: %w", i, step.Invoke, err)
			}
			want, err := normalize(expected)
			if err != nil {
				return fmt.Errorf("flow step %d (%s): expected result: %w", i, step.Invoke, err)
			}
			if path, ok := subset(value, want, "result"); !ok {
				result.AddError(fmt.Sprintf("flow[%d] %s: %s does not match: expected %v, got %v",
					i, step.Invoke, path, lookup(want, path), lookup(value, path)))
			}
		}

		h.logger.Info("flow step completed",
			"step", i,
			"action", step.Invoke,
			"output_case", outcome,
		)
	}
	return nil
}

// invoke runs one operation and records it in the trace. It returns the
// outcome case and the JSON form of the result (or of the error).
func (h *Harness) invoke(ctx context.Context, action string, rawArgs map[string]any, save string, result *Result) (string, any, error) {
	op, ok := operations[action]
	if !ok {
		return "", nil, fmt.Errorf("unknown operation %q", action)
	}

	resolved, err := resolveRefs(rawArgs, h.saved)
	if err != nil {
		return "", nil, err
	}
	args, _ := resolved.(map[string]any)
	if args == nil {
		args = map[string]any{}
	}

	normArgs, err := normalize(args)
	if err != nil {
		return "", nil, fmt.Errorf("args: %w", err)
	}
	result.AddInvocationTrace(action, normArgs)

	out, callErr := op(ctx, h.svc, args)

	var se *shop.Error
	switch {
	case callErr == nil:
	case errors.As(callErr, &se):
		value := errorValue(se)
		result.AddCompletionTrace(action, string(se.Code), value)
		return string(se.Code), value, nil
	default:
		return "", nil, callErr
	}

	value, err := normalize(out)
	if err != nil {
		return "", nil, fmt.Errorf("result: %w", err)
	}
	result.AddCompletionTrace(action, CaseSuccess, value)

	if save != "" {
		id, ok := idOf(value)
		if !ok {
			return "", nil, fmt.Errorf("save %q: result has no id", save)
		}
		h.saved[save] = id
	}
	return CaseSuccess, value, nil
}

func errorValue(se *shop.Error) map[string]any {
	v := map[string]any{"code": string(se.Code), "message": se.Message}
	if len(se.Details) > 0 {
		details := make(map[string]any, len(se.Details))
		for k, d := range se.Details {
			details[k] = d
		}
		v["details"] = details
	}
	return v
}

// normalize converts v to its JSON form: maps, slices, float64, string,
// bool and nil.
func normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// idOf extracts the "id" of a result, or of its "product" or "order".
func idOf(v any) (int64, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return 0, false
	}
	if id, ok := m["id"].(float64); ok {
		return int64(id), true
	}
	for _, nested := range []string{"product", "order"} {
		if id, ok := idOf(m[nested]); ok {
			return id, true
		}
	}
	return 0, false
}

// resolveRefs replaces "$name" strings with saved ids. "$$" escapes a
// literal dollar sign.
func resolveRefs(v any, saved map[string]int64) (any, error) {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			r, err := resolveRefs(val, saved)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = r
		}
		return out, nil
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			r, err := resolveRefs(val, saved)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = r
		}
		return out, nil
	case string:
		if strings.HasPrefix(x, "$$") {
			return x[1:], nil
		}
		if name, ok := strings.CutPrefix(x, "$"); ok {
			id, found := saved[name]
			if !found {
				return nil, fmt.Errorf("unknown reference %q", x)
			}
			return id, nil
		}
		return x, nil
	default:
		return v, nil
	}
}
