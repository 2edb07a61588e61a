// Package workflow implements the step-based workflow executor (spec §3/§4):
// a Context flows through a named Definition's Steps, each of which returns
// a Decision telling the Engine how to proceed (continue, retrieve
// memories, execute tools, respond, suspend, or terminate). Suspended runs
// are snapshotted to a SnapshotStore and resumed later, possibly by a
// different process.
package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/flowkit/agentcore/corerr"
	"github.com/flowkit/agentcore/resource"
	"github.com/flowkit/agentcore/telemetry"
)

// Result is returned by Execute and ResumeFromSnapshot.
type Result struct {
	// Completed is true when the run finished via Respond, Terminate, or
	// step-list exhaustion. It is false when the run suspended.
	Completed bool
	// Response holds the final text when the run completed via Respond (or
	// the context's LastResponse, if any, on exhaustion).
	Response string
	// SnapshotID identifies the saved snapshot when Completed is false.
	SnapshotID string
	Context    *Context
}

// Options configures an Engine, grounded on the teacher's functional-option
// Options-struct-plus-New pattern (runtime/agent/engine).
type Options struct {
	SnapshotStore  SnapshotStore
	EventWaiter    EventWaiter
	MemorySearcher MemorySearcher
	ToolExecutor   ToolExecutor
	Telemetry      telemetry.Provider

	// CheckpointEvery, when > 0, causes the Engine to save an internal
	// auto-checkpoint snapshot after every N completed top-level steps (a
	// combinator counts as one), so a crash mid-run loses at most N-1 of
	// them (spec §5
	// auto-checkpointing). Auto-checkpoints use SuspendScheduled and are
	// transparent to callers: Execute keeps running after writing one.
	CheckpointEvery int

	// SnapshotRetention bounds how long a retired snapshot is kept before
	// CleanupSnapshots removes it (spec §5 retention policy).
	SnapshotRetention time.Duration
}

// Engine runs Definitions in process against a resource-scoped
// SnapshotStore and a set of collaborators, following the teacher's
// engine.Engine shape as a concrete type rather than an interface. A
// durable variant lives in workflow/temporalengine; it runs the same
// Step/Decision contract through its own Temporal workflow loop, not
// through this type's run method.
type Engine struct {
	opts Options
}

// New constructs an Engine. A nil SnapshotStore is valid only for
// Definitions that never suspend; Execute returns a corerr.Config error if
// a step suspends with no SnapshotStore configured.
func New(opts Options) *Engine {
	if opts.Telemetry.Logger == nil {
		opts.Telemetry = telemetry.Noop()
	}
	if opts.SnapshotRetention == 0 {
		opts.SnapshotRetention = 7 * 24 * time.Hour
	}
	return &Engine{opts: opts}
}

// Execute runs def from a freshly constructed Context seeded with input.
func (e *Engine) Execute(ctx context.Context, res resource.ID, def Definition, input map[string]any) (Result, error) {
	if def.InputSchema.Fields != nil || len(def.InputSchema.Required) > 0 {
		if err := def.InputSchema.Validate(input); err != nil {
			return Result{}, corerr.Wrap(corerr.InvariantViolation, "workflow.input", err)
		}
	}
	wc := NewContext(def.MaxSteps)
	for k, v := range input {
		wc.Data[k] = v
	}
	return e.run(ctx, res, def, wc, 0)
}

// ResumeFromSnapshot resumes a previously suspended run of def, identified
// by snapshotID. def must be the same Definition (or a compatible one) that
// produced the snapshot: step indices are positional.
func (e *Engine) ResumeFromSnapshot(ctx context.Context, def Definition, snapshotID string) (Result, error) {
	if e.opts.SnapshotStore == nil {
		return Result{}, corerr.New(corerr.Config, "resume requires a SnapshotStore")
	}
	snap, err := e.opts.SnapshotStore.Resume(ctx, snapshotID)
	if err != nil {
		return Result{}, corerr.Wrap(corerr.NotFound, "workflow.resume", err)
	}
	return e.run(ctx, snap.Resource, def, snap.Context, snap.StepIndex)
}

// ListSnapshots returns suspended-run snapshots scoped to res.
func (e *Engine) ListSnapshots(ctx context.Context, res resource.ID) ([]Snapshot, error) {
	if e.opts.SnapshotStore == nil {
		return nil, corerr.New(corerr.Config, "ListSnapshots requires a SnapshotStore")
	}
	return e.opts.SnapshotStore.List(ctx, res)
}

// CleanupSnapshots deletes retired snapshots older than the configured
// retention window, returning the number removed (spec §5).
func (e *Engine) CleanupSnapshots(ctx context.Context) (int, error) {
	if e.opts.SnapshotStore == nil {
		return 0, corerr.New(corerr.Config, "CleanupSnapshots requires a SnapshotStore")
	}
	cutoff := time.Now().Add(-e.opts.SnapshotRetention)
	return e.opts.SnapshotStore.Cleanup(ctx, cutoff)
}

// run is the step-dispatch loop: it re-enters def.Steps starting at
// fromStep, invoking collaborators for RetrieveMemories/ExecuteTools
// decisions and handling Respond/Suspend/Terminate. Both Execute and
// ResumeFromSnapshot funnel through here. workflow/temporalengine does not
// call it; its runDefinition and executeStepActivity repeat this dispatch
// for the Temporal path.
func (e *Engine) run(ctx context.Context, res resource.ID, def Definition, wc *Context, fromStep int) (Result, error) {
	log := e.opts.Telemetry.Logger
	sinceCheckpoint := 0

	for i := fromStep; i < len(def.Steps); i++ {
		if !wc.ShouldContinue() {
			return e.finish(ctx, res, def, wc)
		}
		step := def.Steps[i]
		wc.AdvanceStep()

		dec, err := step.Execute(ctx, wc)
		if err != nil {
			return Result{}, corerr.Wrap(corerr.Workflow, "workflow.step."+step.Name(), err)
		}

		switch dec.Kind {
		case DecisionContinue:
			// fall through to next step

		case DecisionRetrieveMemories:
			if e.opts.MemorySearcher == nil {
				return Result{}, corerr.New(corerr.Config, "step requested RetrieveMemories but no MemorySearcher is configured")
			}
			mems, err := e.opts.MemorySearcher.Search(ctx, dec.Query)
			if err != nil {
				return Result{}, corerr.Wrap(corerr.TransientIO, "workflow.memory_search", err)
			}
			wc.AppendMemories(mems...)

		case DecisionExecuteTools:
			if e.opts.ToolExecutor == nil {
				return Result{}, corerr.New(corerr.Config, "step requested ExecuteTools but no ToolExecutor is configured")
			}
			for _, call := range dec.Tools {
				res, err := e.opts.ToolExecutor.Execute(ctx, call)
				if err != nil {
					return Result{}, corerr.Wrap(corerr.TransientIO, "workflow.tool_exec."+call.Name, err)
				}
				res.CallID = call.CallID
				res.Name = call.Name
				wc.SetToolResult(res)
			}

		case DecisionRespond:
			wc.LastResponse = dec.Text
			return e.finish(ctx, res, def, wc)

		case DecisionTerminate:
			return Result{Completed: true, Context: wc}, nil

		case DecisionSuspend:
			if dec.Reason.Kind == SuspendWaitingForEvent && e.opts.EventWaiter != nil {
				payload, err := e.opts.EventWaiter.Wait(ctx, res.String(), dec.Reason.EventID, dec.Reason.TimeoutMS)
				if err == nil {
					wc.SetMetadata("last_event_payload", fmt.Sprintf("%v", payload))
					continue
				}
				// fall through to suspend-and-snapshot on wait error
				// (timeout, cancellation, or no inline delivery available).
			}
			return e.suspend(ctx, res, wc, i, dec.Reason)

		default:
			return Result{}, corerr.Newf(corerr.InvariantViolation, "step %q returned unknown decision kind %q", step.Name(), dec.Kind)
		}

		sinceCheckpoint++
		if e.opts.CheckpointEvery > 0 && sinceCheckpoint >= e.opts.CheckpointEvery && e.opts.SnapshotStore != nil {
			if err := e.checkpoint(ctx, res, wc, i+1); err != nil {
				log.Warn(ctx, "workflow auto-checkpoint failed", "error", err)
			}
			sinceCheckpoint = 0
		}
	}

	return e.finish(ctx, res, def, wc)
}

func (e *Engine) finish(ctx context.Context, res resource.ID, def Definition, wc *Context) (Result, error) {
	if def.OutputSchema.Fields != nil || len(def.OutputSchema.Required) > 0 {
		if err := def.OutputSchema.Validate(wc.Data); err != nil {
			return Result{}, corerr.Wrap(corerr.InvariantViolation, "workflow.output", err)
		}
	}
	return Result{Completed: true, Response: wc.LastResponse, Context: wc}, nil
}

func (e *Engine) suspend(ctx context.Context, res resource.ID, wc *Context, stepIndex int, reason SuspendReason) (Result, error) {
	if e.opts.SnapshotStore == nil {
		return Result{}, corerr.New(corerr.Config, "step suspended but no SnapshotStore is configured")
	}
	id := snapshotID(res, stepIndex)
	snap := Snapshot{
		ID:         id,
		Resource:   res,
		// StepIndex equals the suspended step's own index, not the next one:
		// resume must re-enter the step that suspended (spec §4.1/§4.2) so its
		// gating logic (e.g. re-reading a now-granted approval) runs again.
		StepIndex:  stepIndex,
		Context:    wc,
		Reason:     DeriveResumeCondition(reason),
		CreatedAt:  time.Now(),
	}
	if err := e.opts.SnapshotStore.Save(ctx, snap); err != nil {
		return Result{}, corerr.Wrap(corerr.TransientIO, "workflow.snapshot_save", err)
	}
	return Result{Completed: false, SnapshotID: id, Context: wc}, nil
}

func (e *Engine) checkpoint(ctx context.Context, res resource.ID, wc *Context, stepIndex int) error {
	snap := Snapshot{
		ID:        snapshotID(res, stepIndex) + "-checkpoint",
		Resource:  res,
		StepIndex: stepIndex,
		Context:   wc.Clone(),
		Reason:    DeriveResumeCondition(Scheduled()),
		CreatedAt: time.Now(),
	}
	return e.opts.SnapshotStore.Save(ctx, snap)
}

func snapshotID(res resource.ID, stepIndex int) string {
	return fmt.Sprintf("%s-step%d", res.String(), stepIndex)
}
