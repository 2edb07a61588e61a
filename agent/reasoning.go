package agent

import (
	"context"
	"fmt"

	"github.com/flowkit/agentcore/llm"
	"github.com/flowkit/agentcore/memory"
	"github.com/flowkit/agentcore/tools"
	"github.com/flowkit/agentcore/workflow"
)

// retrieveStep asks the engine to pull relevant memories for the prompt
// before generation, when a MemoryStore is configured.
func retrieveStep(opts Options) workflow.Step {
	return workflow.NewStep("retrieve_memories", func(_ context.Context, wc *workflow.Context) (workflow.Decision, error) {
		if opts.Memory == nil {
			return workflow.Continue(), nil
		}
		prompt, _ := wc.Data["prompt"].(string)
		return workflow.RetrieveMemories(prompt), nil
	})
}

// generateStep issues the LLM call and responds with its text; it is the
// second and last step of the agent's loop, whose shape spec §6.2 leaves
// unspecified.
func generateStep(opts Options) workflow.Step {
	return workflow.NewStep("generate_respond", func(ctx context.Context, wc *workflow.Context) (workflow.Decision, error) {
		prompt, _ := wc.Data["prompt"].(string)

		var messages []llm.Message
		if opts.SystemPrompt != "" {
			messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: opts.SystemPrompt})
		}
		for _, mem := range wc.Memories {
			messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: fmt.Sprintf("%v", mem.Payload)})
		}
		messages = append(messages, llm.Message{Role: llm.RoleUser, Content: prompt})

		resp, err := opts.LLM.Generate(ctx, messages)
		if err != nil {
			return workflow.Decision{}, err
		}
		return workflow.Respond(resp.Text), nil
	})
}

// reasoningSteps returns the agent's full step list: retrieve-then-generate.
func reasoningSteps(opts Options) []workflow.Step {
	return []workflow.Step{retrieveStep(opts), generateStep(opts)}
}

// memorySearcher adapts an llm.Client (for embedding) and a memory.Store
// (for vector search) to workflow.MemorySearcher.
type memorySearcher struct {
	llmClient llm.Client
	store     memory.Store
}

func newMemorySearcher(llmClient llm.Client, store memory.Store) workflow.MemorySearcher {
	if store == nil {
		return nil
	}
	return &memorySearcher{llmClient: llmClient, store: store}
}

// Search implements workflow.MemorySearcher.
func (m *memorySearcher) Search(ctx context.Context, query string) ([]workflow.Memory, error) {
	emb, err := m.llmClient.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	matches, err := m.store.Search(ctx, emb.Vector, 5, 0.0)
	if err != nil {
		return nil, err
	}
	out := make([]workflow.Memory, len(matches))
	for i, match := range matches {
		out[i] = workflow.Memory{ID: match.Record.ID, Payload: match.Record.Content}
	}
	return out, nil
}

// toolExecutor adapts a tools.Registry to workflow.ToolExecutor.
type toolExecutor struct {
	registry tools.Registry
}

func newToolExecutor(registry tools.Registry) workflow.ToolExecutor {
	if registry == nil {
		return nil
	}
	return &toolExecutor{registry: registry}
}

// Execute implements workflow.ToolExecutor.
func (t *toolExecutor) Execute(ctx context.Context, call workflow.ToolInvocation) (workflow.ToolResult, error) {
	res, err := t.registry.Execute(ctx, call.Name, call.Args)
	if err != nil {
		return workflow.ToolResult{}, err
	}
	return workflow.ToolResult{CallID: call.CallID, Name: call.Name, Content: res.Content, IsError: res.IsError}, nil
}
