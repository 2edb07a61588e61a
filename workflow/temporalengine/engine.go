// Package temporalengine provides a Temporal-backed durable execution path
// for workflow.Definition runs, grounded on the teacher's
// runtime/agent/engine/temporal adapter (client/worker lifecycle, OTEL
// instrumentation wiring) but narrowed to this module's Definition/Context
// contract: a single generic Temporal workflow function (runDefinition)
// sequences def.Steps with its own loop inside the workflow goroutine, and
// each step, together with any memory/tool collaborator call it requests,
// runs in a Temporal activity so it gets Temporal's retry and history
// semantics rather than the in-process engine's own.
//
// Engine does not implement workflow.Engine's interface shape (this module
// keeps that as a concrete struct, not a formal interface - see
// workflow/engine.go's doc comment and DESIGN.md); it exposes an analogous
// StartRun/RegisterDefinition/Worker surface instead, so callers choose a
// backend by which package they import rather than by an interface value.
package temporalengine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	tworkflow "go.temporal.io/sdk/workflow"

	"github.com/flowkit/agentcore/corerr"
	"github.com/flowkit/agentcore/resource"
	"github.com/flowkit/agentcore/telemetry"
	"github.com/flowkit/agentcore/workflow"
)

// activityTimeout bounds a single step's activity execution. Steps that
// call an LLM or a slow tool should keep well under this; a step needing
// longer belongs behind its own Suspend/resume rather than a single
// activity call.
const activityTimeout = 5 * time.Minute

func durationMS(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// Options configures the Temporal engine adapter. Either Client or
// ClientOptions must be provided, mirroring the teacher's lazy-client
// pattern so callers don't have to stand up a connection before
// registering definitions.
type Options struct {
	// Client is a pre-configured Temporal client. If nil, the adapter
	// creates a lazy client from ClientOptions.
	Client client.Client

	// ClientOptions constructs the Temporal client when Client is nil.
	ClientOptions *client.Options

	// TaskQueue is the default queue this engine's worker polls. Required.
	TaskQueue string

	// WorkerOptions tunes the underlying Temporal worker (concurrency,
	// identity, interceptors).
	WorkerOptions worker.Options

	// DisableWorkerAutoStart disables starting the worker on New; the
	// caller must call Worker().Run() or Worker().Start() explicitly.
	DisableWorkerAutoStart bool

	Telemetry telemetry.Provider

	// MemorySearcher and ToolExecutor back the def.Steps' RetrieveMemories
	// and ExecuteTools decisions, invoked as Temporal activities so
	// Temporal's own retry policy governs them rather than the in-process
	// engine's.
	MemorySearcher workflow.MemorySearcher
	ToolExecutor   workflow.ToolExecutor
}

// Engine drives workflow.Definition runs as Temporal workflows.
type Engine struct {
	client      client.Client
	closeClient bool
	taskQueue   string
	worker      worker.Worker
	telemetry   telemetry.Provider

	mu   sync.RWMutex
	defs map[string]workflow.Definition

	searcher workflow.MemorySearcher
	executor workflow.ToolExecutor
}

// New constructs a Temporal-backed Engine and registers its generic
// workflow/activity handlers with a worker on opts.TaskQueue.
func New(opts Options) (*Engine, error) {
	if opts.TaskQueue == "" {
		return nil, corerr.New(corerr.Config, "temporalengine: TaskQueue is required")
	}
	if opts.Telemetry.Logger == nil {
		opts.Telemetry = telemetry.Noop()
	}

	cli := opts.Client
	closeClient := false
	if cli == nil {
		if opts.ClientOptions == nil {
			return nil, corerr.New(corerr.Config, "temporalengine: Client or ClientOptions is required")
		}
		var err error
		cli, err = client.NewLazyClient(*opts.ClientOptions)
		if err != nil {
			return nil, corerr.Wrap(corerr.TransientIO, "temporalengine.new_client", err)
		}
		closeClient = true
	}

	e := &Engine{
		client:      cli,
		closeClient: closeClient,
		taskQueue:   opts.TaskQueue,
		telemetry:   opts.Telemetry,
		defs:        make(map[string]workflow.Definition),
		searcher:    opts.MemorySearcher,
		executor:    opts.ToolExecutor,
	}

	w := worker.New(cli, opts.TaskQueue, opts.WorkerOptions)
	w.RegisterWorkflowWithOptions(e.runDefinition, tworkflow.RegisterOptions{Name: "agentcore.run_definition"})
	w.RegisterActivityWithOptions(e.executeStepActivity, activity.RegisterOptions{Name: "agentcore.execute_step"})
	e.worker = w

	if !opts.DisableWorkerAutoStart {
		if err := w.Start(); err != nil {
			return nil, corerr.Wrap(corerr.TransientIO, "temporalengine.worker_start", err)
		}
	}
	return e, nil
}

// RegisterDefinition makes def resumable under name by Temporal workflow
// runs; the Definition itself travels via closure capture inside this
// process, not through Temporal's history, so every worker process that
// might pick up def's workflow executions must register it identically.
func (e *Engine) RegisterDefinition(def workflow.Definition) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.defs[def.Name] = def
}

// Worker returns the underlying Temporal worker for manual Start/Stop
// control when DisableWorkerAutoStart was set.
func (e *Engine) Worker() worker.Worker {
	return e.worker
}

// Close stops the worker and, if this Engine created the client, closes it.
func (e *Engine) Close() {
	if e.worker != nil {
		e.worker.Stop()
	}
	if e.closeClient {
		e.client.Close()
	}
}

// runRequest is the input to the generic Temporal workflow: which
// registered Definition to run and the seed input data.
type runRequest struct {
	DefinitionName string
	Input          map[string]any
	Resource       resource.ID
}

// StartRun starts def (already registered via RegisterDefinition) as a new
// Temporal workflow execution and returns its run ID immediately; the
// caller observes completion via the Temporal client (GetWorkflow /
// signals), not via this call's return value, matching Temporal's
// fire-and-track model rather than the in-process engine's synchronous
// Execute.
func (e *Engine) StartRun(ctx context.Context, workflowID string, res resource.ID, def workflow.Definition, input map[string]any) (client.WorkflowRun, error) {
	e.RegisterDefinition(def)
	opts := client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: e.taskQueue,
	}
	req := runRequest{DefinitionName: def.Name, Input: input, Resource: res}
	run, err := e.client.ExecuteWorkflow(ctx, opts, "agentcore.run_definition", req)
	if err != nil {
		return nil, corerr.Wrap(corerr.TransientIO, "temporalengine.start_run", err)
	}
	return run, nil
}

// SignalEvent delivers an externally-sourced event to a suspended run
// waiting via workflow.SuspendWaitingForEvent, by Temporal signal name
// eventID.
func (e *Engine) SignalEvent(ctx context.Context, workflowID, eventID string, payload any) error {
	if err := e.client.SignalWorkflow(ctx, workflowID, "", eventID, payload); err != nil {
		return corerr.Wrap(corerr.TransientIO, "temporalengine.signal_event", err)
	}
	return nil
}

// stepRequest/stepResponse cross the workflow/activity boundary once per
// step invocation: the activity does the actual (non-deterministic) work -
// running step.Execute plus dispatching any RetrieveMemories/ExecuteTools
// decision it returns against the engine's collaborators - and hands back
// only the resulting decision kind and updated Context, which is all
// Temporal's workflow goroutine needs to keep going deterministically.
type stepRequest struct {
	DefinitionName string
	StepIndex      int
	Context        *workflow.Context
}

type stepResponse struct {
	Kind    workflow.DecisionKind
	Text    string
	Reason  workflow.SuspendReason
	Context *workflow.Context
}

// runDefinition is the single generic Temporal workflow function every
// Definition runs through. Workflow code must be deterministic, so each
// step's actual execution (including any LLM/tool/memory I/O it performs)
// happens inside executeStepActivity; this function only sequences steps,
// applies Temporal's step budget/suspend semantics, and waits on
// tworkflow.GetSignalChannel for SuspendWaitingForEvent decisions in place
// of the in-process engine's EventWaiter.
func (e *Engine) runDefinition(tctx tworkflow.Context, req runRequest) (workflow.Result, error) {
	e.mu.RLock()
	def, ok := e.defs[req.DefinitionName]
	e.mu.RUnlock()
	if !ok {
		return workflow.Result{}, fmt.Errorf("temporalengine: definition %q is not registered on this worker", req.DefinitionName)
	}

	ao := tworkflow.ActivityOptions{StartToCloseTimeout: activityTimeout}
	actx := tworkflow.WithActivityOptions(tctx, ao)

	wc := workflow.NewContext(def.MaxSteps)
	for k, v := range req.Input {
		wc.Data[k] = v
	}

	for i := 0; i < len(def.Steps) && wc.ShouldContinue(); i++ {
		var resp stepResponse
		sreq := stepRequest{DefinitionName: req.DefinitionName, StepIndex: i, Context: wc}
		if err := tworkflow.ExecuteActivity(actx, "agentcore.execute_step", sreq).Get(tctx, &resp); err != nil {
			return workflow.Result{}, fmt.Errorf("workflow.step[%d]: %w", i, err)
		}
		wc = resp.Context

		switch resp.Kind {
		case workflow.DecisionContinue, workflow.DecisionRetrieveMemories, workflow.DecisionExecuteTools:
			continue

		case workflow.DecisionRespond:
			return workflow.Result{Completed: true, Response: resp.Text, Context: wc}, nil

		case workflow.DecisionTerminate:
			return workflow.Result{Completed: true, Context: wc}, nil

		case workflow.DecisionSuspend:
			if resp.Reason.Kind == workflow.SuspendWaitingForEvent {
				sig := tworkflow.GetSignalChannel(tctx, resp.Reason.EventID)
				var payload any
				if resp.Reason.TimeoutMS > 0 {
					received, _ := sig.ReceiveWithTimeout(tctx, durationMS(resp.Reason.TimeoutMS), &payload)
					if !received {
						return workflow.Result{Completed: false, Context: wc}, nil
					}
				} else {
					sig.Receive(tctx, &payload)
				}
				wc.SetMetadata("last_event_payload", fmt.Sprintf("%v", payload))
				continue
			}
			// Scheduled/waiting-for-approval suspensions have no Temporal
			// signal counterpart here: the workflow execution simply ends
			// and a new one is started later via StartRun, seeded from the
			// Context a caller persisted from this Result.
			return workflow.Result{Completed: false, Context: wc}, nil

		default:
			return workflow.Result{}, fmt.Errorf("step[%d] returned unknown decision kind %q", i, resp.Kind)
		}
	}

	return workflow.Result{Completed: true, Response: wc.LastResponse, Context: wc}, nil
}

// executeStepActivity runs one step of a registered Definition and, if it
// returns RetrieveMemories or ExecuteTools, dispatches that against the
// Engine's collaborators before returning - folding the in-process engine's
// run-loop side effects into a single activity invocation.
func (e *Engine) executeStepActivity(ctx context.Context, req stepRequest) (stepResponse, error) {
	e.mu.RLock()
	def, ok := e.defs[req.DefinitionName]
	e.mu.RUnlock()
	if !ok {
		return stepResponse{}, corerr.Newf(corerr.InvariantViolation, "temporalengine: definition %q is not registered", req.DefinitionName)
	}
	if req.StepIndex < 0 || req.StepIndex >= len(def.Steps) {
		return stepResponse{}, corerr.Newf(corerr.InvariantViolation, "temporalengine: step index %d out of range for %q", req.StepIndex, req.DefinitionName)
	}
	wc := req.Context
	wc.AdvanceStep()
	step := def.Steps[req.StepIndex]

	dec, err := step.Execute(ctx, wc)
	if err != nil {
		return stepResponse{}, corerr.Wrap(corerr.Workflow, "workflow.step."+step.Name(), err)
	}

	switch dec.Kind {
	case workflow.DecisionRetrieveMemories:
		if e.searcher == nil {
			return stepResponse{}, corerr.New(corerr.Config, "temporalengine: no MemorySearcher configured")
		}
		mems, err := e.searcher.Search(ctx, dec.Query)
		if err != nil {
			return stepResponse{}, corerr.Wrap(corerr.TransientIO, "workflow.memory_search", err)
		}
		wc.AppendMemories(mems...)

	case workflow.DecisionExecuteTools:
		if e.executor == nil {
			return stepResponse{}, corerr.New(corerr.Config, "temporalengine: no ToolExecutor configured")
		}
		for _, call := range dec.Tools {
			res, err := e.executor.Execute(ctx, call)
			if err != nil {
				return stepResponse{}, corerr.Wrap(corerr.TransientIO, "workflow.tool_exec."+call.Name, err)
			}
			res.CallID = call.CallID
			res.Name = call.Name
			wc.SetToolResult(res)
		}

	case workflow.DecisionRespond:
		wc.LastResponse = dec.Text
	}

	return stepResponse{Kind: dec.Kind, Text: dec.Text, Reason: dec.Reason, Context: wc}, nil
}
