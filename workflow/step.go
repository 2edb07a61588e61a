package workflow

import "context"

// Step is a named fallible operation over a shared Context (spec §4.1).
// Steps must be idempotent with respect to observable side effects when
// re-executed on a resumed snapshot: the engine re-enters the step whose
// index equals current_step, so a step must not assume any transient
// in-memory state survives a suspend/resume cycle.
type Step interface {
	// Name identifies the step for tracing, snapshots, and diagnostics.
	Name() string
	// Execute runs the step against ctx, mutating it in place, and returns
	// the decision that tells the engine how to proceed.
	Execute(ctx context.Context, wc *Context) (Decision, error)
}

// StepFunc adapts a plain function to the Step interface, grounded on the
// teacher's WorkflowFunc/ActivityFunc function-value pattern.
type StepFunc struct {
	StepName string
	Fn       func(ctx context.Context, wc *Context) (Decision, error)
}

// Name implements Step.
func (f StepFunc) Name() string { return f.StepName }

// Execute implements Step.
func (f StepFunc) Execute(ctx context.Context, wc *Context) (Decision, error) {
	return f.Fn(ctx, wc)
}

// NewStep builds a Step from a name and function, the common case for
// leaf (non-combinator) steps.
func NewStep(name string, fn func(ctx context.Context, wc *Context) (Decision, error)) Step {
	return StepFunc{StepName: name, Fn: fn}
}
