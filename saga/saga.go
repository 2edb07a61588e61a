// Package saga implements the forward/compensating transaction orchestrator
// (spec §4.4): a SagaOrchestrator runs a list of SagaSteps' forward actions
// in order, retrying each up to its own budget with a bounded backoff, and
// on failure unwinds every already-committed step's compensation in LIFO
// order, handing each compensation the exact value its forward action
// produced.
package saga

import (
	"context"
	"math/rand"
	"time"

	"github.com/flowkit/agentcore/corerr"
	"github.com/flowkit/agentcore/telemetry"
)

// backoffBase and backoffCap bound the delay between forward retries,
// grounded on the teacher pack's exponential-backoff-with-jitter retry
// helper (nevindra-oasis's WithRetry): base * 2^attempt, jittered and
// capped so a high max_retries can't stall a saga indefinitely.
const (
	backoffBase = 50 * time.Millisecond
	backoffCap  = 2 * time.Second
)

// HistoryEntry records one committed forward step, in the order it
// completed. Compensation walks this slice in reverse and hands each
// step's stored Result back to its Compensate call (spec §4.4 step 3).
type HistoryEntry struct {
	StepID   string
	StepName string
	Result   any
}

// SagaContext carries the shared state forward actions and compensations
// read and write, analogous to workflow.Context but scoped to a single
// saga run. History is append-only and populated by Orchestrator.Run, not
// by steps themselves.
type SagaContext struct {
	Data    map[string]any
	History []HistoryEntry
}

// NewSagaContext constructs an empty SagaContext.
func NewSagaContext() *SagaContext {
	return &SagaContext{Data: make(map[string]any)}
}

// SagaStep is a single forward transaction with an associated compensation
// and a per-step retry budget (spec §4.4: `{id, name, forward_fn,
// compensate_fn, max_retries}`). Compensate is only called for steps whose
// Forward has already succeeded, in reverse (LIFO) order relative to
// Forward invocation, and receives the exact value the successful Forward
// call returned.
type SagaStep interface {
	ID() string
	Name() string
	// MaxRetries bounds additional forward attempts beyond the first: the
	// orchestrator attempts Forward up to 1+MaxRetries times.
	MaxRetries() int
	Forward(ctx context.Context, sc *SagaContext) (any, error)
	Compensate(ctx context.Context, sc *SagaContext, storedResult any) error
}

// FuncStep adapts plain functions to the SagaStep interface.
type FuncStep struct {
	StepID   string
	StepName string
	Retries  int

	ForwardFn func(ctx context.Context, sc *SagaContext) (any, error)
	CompFn    func(ctx context.Context, sc *SagaContext, storedResult any) error
}

// ID implements SagaStep. Falls back to StepName when StepID is unset,
// since most saga definitions don't need ids and names distinct.
func (f FuncStep) ID() string {
	if f.StepID != "" {
		return f.StepID
	}
	return f.StepName
}

// Name implements SagaStep.
func (f FuncStep) Name() string { return f.StepName }

// MaxRetries implements SagaStep.
func (f FuncStep) MaxRetries() int { return f.Retries }

// Forward implements SagaStep.
func (f FuncStep) Forward(ctx context.Context, sc *SagaContext) (any, error) {
	return f.ForwardFn(ctx, sc)
}

// Compensate implements SagaStep.
func (f FuncStep) Compensate(ctx context.Context, sc *SagaContext, storedResult any) error {
	if f.CompFn == nil {
		return nil
	}
	return f.CompFn(ctx, sc, storedResult)
}

// ResultKind enumerates the closed set of saga outcomes (spec §4.4).
type ResultKind string

const (
	// ResultCompleted means every step's Forward succeeded.
	ResultCompleted ResultKind = "completed"
	// ResultCompensated means a step failed and every prior step's
	// Compensate succeeded.
	ResultCompensated ResultKind = "compensated"
	// ResultFailed means a step failed AND at least one compensation also
	// failed, leaving the system in a state requiring manual intervention.
	ResultFailed ResultKind = "failed"
)

// Result reports the outcome of Orchestrator.Run.
type Result struct {
	Kind Kind
	// FailedStep names the step whose Forward failed (after exhausting its
	// retries), for Compensated and Failed results. Empty for Completed.
	FailedStep string
	// ForwardErr is the error that triggered compensation.
	ForwardErr error
	// FinalResult is the last step's stored Forward value, set only for
	// ResultCompleted.
	FinalResult any
	// CompensatedSteps lists the names of every step whose Compensate ran
	// successfully, in LIFO order (spec §4.4 invariant: equals the forward
	// steps that completed before the failing one, reversed).
	CompensatedSteps []string
	// CompensationErrs maps step name to the error returned by its
	// Compensate call, for any compensation that itself failed. Non-empty
	// only for ResultFailed.
	CompensationErrs map[string]error
	Context          *SagaContext
}

// Kind is an alias retained for the ResultKind naming used by callers that
// pattern-match on saga.Result.Kind.
type Kind = ResultKind

// Orchestrator runs a fixed list of SagaSteps with LIFO compensation on
// failure, grounded on the teacher's sequential-activity-with-rollback
// pattern used by its Temporal workflow definitions.
type Orchestrator struct {
	steps     []SagaStep
	byID      map[string]SagaStep
	telemetry telemetry.Provider
}

// New constructs an Orchestrator over steps, executed in the given order.
func New(telemetryProvider telemetry.Provider, steps ...SagaStep) *Orchestrator {
	if telemetryProvider.Logger == nil {
		telemetryProvider = telemetry.Noop()
	}
	byID := make(map[string]SagaStep, len(steps))
	for _, s := range steps {
		byID[s.ID()] = s
	}
	return &Orchestrator{steps: steps, byID: byID, telemetry: telemetryProvider}
}

// Run executes every step's Forward in order, retrying each up to its own
// budget. On the first step that exhausts its retries, it compensates every
// already-committed step in reverse order and returns a Result describing
// the outcome.
func (o *Orchestrator) Run(ctx context.Context, sc *SagaContext) Result {
	var last any

	for _, step := range o.steps {
		res, err := o.runForwardWithRetry(ctx, step, sc)
		if err != nil {
			return o.compensate(ctx, sc, step.Name(), err)
		}
		sc.History = append(sc.History, HistoryEntry{StepID: step.ID(), StepName: step.Name(), Result: res})
		last = res
	}

	return Result{Kind: ResultCompleted, FinalResult: last, Context: sc}
}

// runForwardWithRetry attempts step.Forward up to 1+step.MaxRetries()
// times, separated by a bounded backoff (spec §4.4 step 1).
func (o *Orchestrator) runForwardWithRetry(ctx context.Context, step SagaStep, sc *SagaContext) (any, error) {
	log := o.telemetry.Logger
	attempts := 1 + step.MaxRetries()
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		start := time.Now()
		res, err := step.Forward(ctx, sc)
		if err == nil {
			return res, nil
		}
		lastErr = err
		log.Warn(ctx, "saga forward attempt failed",
			"step", step.Name(), "attempt", attempt+1, "attempts", attempts,
			"error", err, "duration", time.Since(start))

		if attempt < attempts-1 {
			if werr := waitBackoff(ctx, attempt); werr != nil {
				return nil, werr
			}
		}
	}
	return nil, lastErr
}

// waitBackoff sleeps the bounded, jittered backoff for retry attempt
// (0-indexed), or returns ctx.Err() if ctx is cancelled first.
func waitBackoff(ctx context.Context, attempt int) error {
	delay := backoffBase * time.Duration(1<<uint(attempt))
	if delay > backoffCap {
		delay = backoffCap
	}
	delay += time.Duration(rand.Int63n(int64(delay)/2 + 1))

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// compensate unwinds sc.History in reverse order, continuing through every
// entry even if one compensation fails so the caller sees the complete set
// of compensation failures and the complete set of steps that did
// compensate successfully.
func (o *Orchestrator) compensate(ctx context.Context, sc *SagaContext, failedStep string, forwardErr error) Result {
	log := o.telemetry.Logger
	var compensated []string
	var compErrs map[string]error

	for i := len(sc.History) - 1; i >= 0; i-- {
		entry := sc.History[i]
		step, ok := o.byID[entry.StepID]
		if !ok {
			continue
		}
		if err := step.Compensate(ctx, sc, entry.Result); err != nil {
			if compErrs == nil {
				compErrs = make(map[string]error)
			}
			compErrs[entry.StepName] = err
			log.Error(ctx, "saga compensation failed", "step", entry.StepName, "error", err)
			continue
		}
		compensated = append(compensated, entry.StepName)
	}

	if len(compErrs) > 0 {
		return Result{
			Kind:             ResultFailed,
			FailedStep:       failedStep,
			ForwardErr:       forwardErr,
			CompensatedSteps: compensated,
			CompensationErrs: compErrs,
			Context:          sc,
		}
	}
	return Result{
		Kind:             ResultCompensated,
		FailedStep:       failedStep,
		ForwardErr:       corerr.Wrap(corerr.Workflow, "saga."+failedStep, forwardErr),
		CompensatedSteps: compensated,
		Context:          sc,
	}
}
