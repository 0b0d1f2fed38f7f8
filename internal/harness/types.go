package harness

// Output is what a scenario's query compiled to and, when data was
// seeded, what it selected.
type Output struct {
	Target string `json:"target"`

	// Source is the table or collection the query reads.
	Source string `json:"source,omitempty"`

	// Statement is the full rendered SQL statement (sql target only).
	Statement string `json:"statement,omitempty"`

	// Filter is the rendered WHERE expression for sql, or the canonical
	// JSON filter for doc. Empty for a sql query without WHERE.
	Filter     string   `json:"filter,omitempty"`
	Params     []any    `json:"params,omitempty"`
	Projection []string `json:"projection,omitempty"`

	// Keys holds the key values of the selected records when the scenario
	// seeds data.
	Keys []any `json:"keys,omitempty"`

	ErrorCode string `json:"error_code,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass is true when every expectation holds.
	Pass bool `json:"pass"`

	Output Output `json:"output"`

	// Errors contains expectation failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(target string) *Result {
	return &Result{
		Pass:   true,
		Output: Output{Target: target},
		Errors: []string{},
	}
}

// AddError records a failed expectation and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
