package harness

import (
	"github.com/roach88/nlq/internal/queryir"
	"github.com/roach88/nlq/internal/store"
)

// Result is the outcome of running a scenario.
type Result struct {
	// Pass is true if every assertion of every case held.
	Pass bool

	// Outputs holds one entry per case, in case order.
	Outputs []CaseOutput

	// Errors contains assertion failure messages.
	Errors []string
}

// CaseOutput is what the harness observed for one case.
type CaseOutput struct {
	Text        string
	QueryID     string
	Description queryir.QueryDescription

	// Canonical is the description's canonical JSON decoded into plain
	// maps, the form "matches" assertions compare against.
	Canonical map[string]any

	// Execution is set when the scenario has rows. ExecError holds the
	// store's error when execution failed.
	Execution *store.Result
	ExecError error
}

// NewResult creates a new Result with Pass=true.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Outputs: []CaseOutput{},
		Errors:  []string{},
	}
}

// AddError adds an error message and sets Pass to false.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Pass = false
}
