package workflow

import "context"

// MemorySearcher resolves a DecisionRetrieveMemories query into Memory
// entries. The engine depends only on this narrow interface rather than on
// the memory package directly, so embedding (turning query text into a
// vector) stays a concern of whoever composes an Engine, not of the engine
// itself. A typical implementation embeds query via an LLM client and then
// calls memory.Store.Search.
type MemorySearcher interface {
	Search(ctx context.Context, query string) ([]Memory, error)
}

// ToolExecutor resolves a DecisionExecuteTools request into ToolResults.
// The engine depends only on this interface rather than on the tools
// package directly.
type ToolExecutor interface {
	Execute(ctx context.Context, call ToolInvocation) (ToolResult, error)
}

// EventWaiter is the subset of the event bus the engine needs to implement
// DecisionSuspend with SuspendWaitingForEvent: blocking (with an optional
// timeout) until an event is delivered, without the engine needing to know
// about subscriptions, buffering, or delivery ordering (see eventbus).
type EventWaiter interface {
	// Wait blocks until eventID is delivered for workflowID, ctx is
	// cancelled, or timeoutMS (if non-zero) elapses, returning the event
	// payload on success.
	Wait(ctx context.Context, workflowID, eventID string, timeoutMS int64) (any, error)
}
