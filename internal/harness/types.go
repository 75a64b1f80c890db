package harness

// Render is the outcome of rendering a scenario's document with one dialect.
type Render struct {
	Dialect   string `json:"dialect"`
	SQL       string `json:"sql,omitempty"`
	Constants []any  `json:"constants,omitempty"`

	// ErrorCode is the render error code, empty on success.
	ErrorCode string `json:"error,omitempty"`
	// Err is the full render error message.
	Err string `json:"-"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every expectation matched.
	Pass bool `json:"pass"`

	// RunID correlates the log records of one run. It is not part of the
	// golden snapshot.
	RunID string `json:"run_id"`

	// Renders holds one entry per expected dialect, sorted by dialect name.
	Renders []Render `json:"renders"`

	// Rows holds the rows returned by the execute step, nil if the scenario
	// has none.
	Rows [][]any `json:"rows,omitempty"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(runID string) *Result {
	return &Result{
		Pass:    true,
		RunID:   runID,
		Renders: []Render{},
		Errors:  []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddRender records the outcome of one dialect.
func (r *Result) AddRender(render Render) {
	r.Renders = append(r.Renders, render)
}

// Render returns the outcome for a dialect.
func (r *Result) Render(dialect string) (Render, bool) {
	for _, rd := range r.Renders {
		if rd.Dialect == dialect {
			return rd, true
		}
	}
	return Render{}, false
}
