package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/shopq/internal/schema"
)

// DefaultDate is the clock date scenarios run at unless they set one.
const DefaultDate = "2024-01-15"

// Scenario is an end-to-end test of service operations.
// It seeds the database, runs a flow of operations with expected outcomes
// and asserts on the resulting trace and final table contents.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Date is the YYYY-MM-DD date new orders get. Defaults to DefaultDate.
	Date string `yaml:"date,omitempty"`

	// Fixture is an optional CUE catalog applied before setup.
	// Relative paths are resolved against the base path given at load time.
	Fixture string `yaml:"fixture,omitempty"`

	// Setup steps must succeed; they establish state for the flow.
	Setup []ActionStep `yaml:"setup,omitempty"`

	// Flow contains the operations under test with expected outcomes.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the final trace and tables.
	// Supported types: trace_contains, trace_order, trace_count, final_state
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// ActionStep is one setup operation.
type ActionStep struct {
	// Action is the operation name (e.g., "AddCustomer").
	Action string `yaml:"action"`

	// Args are the operation arguments. String values of the form "$name"
	// are replaced by the id saved under name.
	Args map[string]any `yaml:"args"`

	// Save stores the id of the result under this name.
	Save string `yaml:"save,omitempty"`
}

// FlowStep is one step of the main flow: an operation or a clock move.
type FlowStep struct {
	// Invoke is the operation name.
	Invoke string `yaml:"invoke,omitempty"`

	// Args are the operation arguments, with "$name" references.
	Args map[string]any `yaml:"args,omitempty"`

	// Save stores the id of the result under this name.
	Save string `yaml:"save,omitempty"`

	// AdvanceDays moves the clock forward instead of invoking anything.
	AdvanceDays int `yaml:"advance_days,omitempty"`

	// Expect specifies the expected outcome. If nil the step must succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies an expected outcome.
type ExpectClause struct {
	// Case is "Success" or an error code such as "NOT_FOUND".
	Case string `yaml:"case"`

	// Result is matched as a subset of the JSON form of the result.
	// Lists must have the same length; maps may have extra keys.
	Result any `yaml:"result,omitempty"`
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": operation appears in trace with args
	// - "trace_order": operations appear in order
	// - "trace_count": operation appears exactly N times
	// - "final_state": exactly one row matches where and has expect values
	Type string `yaml:"type"`

	// Action is the operation name (trace_contains, trace_count).
	Action string `yaml:"action,omitempty"`

	// Args are matched as a subset of the invocation args (trace_contains).
	Args map[string]any `yaml:"args,omitempty"`

	// Table is the table name (final_state).
	Table string `yaml:"table,omitempty"`

	// Where holds field equality filters (final_state).
	Where map[string]any `yaml:"where,omitempty"`

	// Expect contains expected field values (final_state).
	Expect map[string]any `yaml:"expect,omitempty"`

	// Count is the expected number of occurrences (trace_count).
	Count int `yaml:"count,omitempty"`

	// Actions is the expected operation order (trace_order).
	Actions []string `yaml:"actions,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
)

// Outcome cases besides the shop error codes.
const (
	CaseSuccess = "Success"
)

// LoadScenario reads and parses a scenario YAML file. A relative fixture
// path is resolved against the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the fixture path relative to basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Fixture != "" && !filepath.IsAbs(scenario.Fixture) && basePath != "" {
		scenario.Fixture = filepath.Join(basePath, scenario.Fixture)
	}
	if scenario.Fixture != "" {
		if _, err := os.Stat(scenario.Fixture); err != nil {
			return nil, fmt.Errorf("invalid scenario: fixture file not found: %s", scenario.Fixture)
		}
	}

	return scenario, nil
}

// ParseScenario decodes and validates a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	// Reject unknown fields so typos like "assertion:" fail loudly.
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// date returns the scenario clock date.
func (s *Scenario) date() (time.Time, error) {
	d := s.Date
	if d == "" {
		d = DefaultDate
	}
	return time.Parse(schema.DateLayout, d)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if _, err := s.date(); err != nil {
		return fmt.Errorf("date must be YYYY-MM-DD: %q", s.Date)
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	for i, step := range s.Setup {
		if step.Action == "" {
			return fmt.Errorf("setup[%d]: action is required", i)
		}
		if _, ok := operations[step.Action]; !ok {
			return fmt.Errorf("setup[%d]: unknown operation %q", i, step.Action)
		}
	}

	for i, step := range s.Flow {
		switch {
		case step.Invoke == "" && step.AdvanceDays == 0:
			return fmt.Errorf("flow[%d]: invoke or advance_days is required", i)
		case step.Invoke != "" && step.AdvanceDays != 0:
			return fmt.Errorf("flow[%d]: invoke and advance_days are exclusive", i)
		case step.AdvanceDays < 0:
			return fmt.Errorf("flow[%d]: advance_days must be positive", i)
		}
		if step.Invoke != "" {
			if _, ok := operations[step.Invoke]; !ok {
				return fmt.Errorf("flow[%d]: unknown operation %q", i, step.Invoke)
			}
		}
		if step.Expect != nil && step.Expect.Case == "" {
			return fmt.Errorf("flow[%d].expect: case is required", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Actions) == 0 {
			return fmt.Errorf("assertions[%d]: actions list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for final_state", index)
		}
		if _, ok := schema.Commerce().Table(a.Table); !ok {
			return fmt.Errorf("assertions[%d]: unknown table %q (have %s)", index, a.Table, tableNames())
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

func tableNames() string {
	tables := schema.Commerce().Tables()
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.Name
	}
	return strings.Join(names, ", ")
}
