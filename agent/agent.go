// Package agent implements the Agent process wrapper the Coordinator
// dispatches tasks to (spec §6.2): Process(prompt) → text, internally
// driven by a minimal two-step workflow.Engine run (retrieve memories, then
// generate a response) built from the
// same step primitives as any other workflow (so the agent "eats its own
// dog food" rather than hand-rolling a bespoke loop).
package agent

import (
	"context"

	"github.com/flowkit/agentcore/llm"
	"github.com/flowkit/agentcore/memory"
	"github.com/flowkit/agentcore/resource"
	"github.com/flowkit/agentcore/tools"
	"github.com/flowkit/agentcore/workflow"
)

// Options configures an Agent.
type Options struct {
	ID           string
	SystemPrompt string
	LLM          llm.Client
	Memory       memory.Store // optional
	Tools        tools.Registry
	MaxSteps     int
}

// Agent wraps an LlmClient, optional MemoryStore, and a Tools registry
// behind the narrow Process(prompt) contract the Coordinator depends on
// (coordinator.AgentProcessor).
type Agent struct {
	opts   Options
	engine *workflow.Engine
	def    workflow.Definition
}

// New constructs an Agent. A nil Memory is valid: the reasoning loop skips
// RetrieveMemories when no memory searcher is configured.
func New(opts Options) *Agent {
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = 10
	}
	engine := workflow.New(workflow.Options{
		MemorySearcher: newMemorySearcher(opts.LLM, opts.Memory),
		ToolExecutor:   newToolExecutor(opts.Tools),
	})
	builder := workflow.NewBuilder("agent-reasoning-loop").WithMaxSteps(opts.MaxSteps)
	for _, step := range reasoningSteps(opts) {
		builder.AddStep(step)
	}
	def, _ := builder.Build()
	return &Agent{opts: opts, engine: engine, def: def}
}

// Process implements coordinator.AgentProcessor: it runs prompt through
// the agent's internal reasoning loop and returns the final response text.
func (a *Agent) Process(ctx context.Context, prompt string) (string, error) {
	res := resource.New("agent", a.opts.ID)
	result, err := a.engine.Execute(ctx, res, a.def, map[string]any{"prompt": prompt})
	if err != nil {
		return "", err
	}
	if !result.Completed {
		return "", nil
	}
	return result.Response, nil
}
