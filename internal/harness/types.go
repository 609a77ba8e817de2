package harness

// Trace event types.
const (
	EventInvocation = "invocation"
	EventCompletion = "completion"
	EventClock      = "clock"
)

// TraceEvent is one entry of a scenario trace: an operation invocation, its
// completion, or a clock move.
type TraceEvent struct {
	Type       string `json:"type"`
	Action     string `json:"action,omitempty"`
	Args       any    `json:"args,omitempty"`
	OutputCase string `json:"output_case,omitempty"`
	Result     any    `json:"result,omitempty"`
	Seq        int64  `json:"seq"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace contains all invocations and completions in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Saved maps save names to result ids.
	Saved map[string]int64 `json:"saved,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		Saved:  map[string]int64{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

func (r *Result) nextSeq() int64 {
	return int64(len(r.Trace) + 1)
}

// AddInvocationTrace adds an invocation to the trace.
func (r *Result) AddInvocationTrace(action string, args any) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:   EventInvocation,
		Action: action,
		Args:   args,
		Seq:    r.nextSeq(),
	})
}

// AddCompletionTrace adds a completion to the trace.
func (r *Result) AddCompletionTrace(action, outputCase string, result any) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:       EventCompletion,
		Action:     action,
		OutputCase: outputCase,
		Result:     result,
		Seq:        r.nextSeq(),
	})
}

// AddClockTrace records the clock date after a move.
func (r *Result) AddClockTrace(date string) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:   EventClock,
		Result: date,
		Seq:    r.nextSeq(),
	})
}
