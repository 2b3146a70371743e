package harness

import (
	"github.com/roach88/marginalia/internal/engine"
	"github.com/roach88/marginalia/internal/interaction"
	"github.com/roach88/marginalia/internal/workspace"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success.
	// True if all assertions held.
	Pass bool `json:"pass"`

	// Intents is the trace of intents the scripted events produced,
	// in emission order. Used for trace assertions and golden
	// comparison.
	Intents []interaction.Intent `json:"intents"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Layout is the initial render pass, before any events.
	Layout *engine.Layout `json:"-"`

	// Final is the render pass after every intent applied. Identical
	// to Layout when the scenario scripts no events.
	Final *engine.Layout `json:"-"`

	// State is the workspace state after intents applied.
	State workspace.Snapshot `json:"-"`
}

// NewResult creates a new passing result.
// Used as the starting point for scenario execution.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Intents: []interaction.Intent{},
		Errors:  []string{},
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddIntent records one emitted intent in the trace.
func (r *Result) AddIntent(in interaction.Intent) {
	r.Intents = append(r.Intents, in)
}
