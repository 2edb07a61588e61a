package workflow

import "maps"

// Context is the mutable state a Step reads and writes (spec §3). A single
// Context instance flows through one workflow run; parallel combinators work
// on shallow clones (see Clone) and merge their results back into the
// parent before the run continues.
//
// Invariants: Messages is append-only within a run; StepCount is
// non-decreasing; the first message, when present, may be a System message
// which must survive history truncation (see TruncateHistory).
type Context struct {
	Messages    []Message
	Metadata    map[string]string
	ToolResults map[string]ToolResult
	Memories    []Memory

	// Data holds the structured (JSON-like) working payload used by input/
	// output schema validation and the map() combinator. It is distinct from
	// Metadata's free-form string scratchpad because schema validation and
	// map() need typed values, not just strings.
	Data map[string]any

	StepCount int
	MaxSteps  int

	// LastResponse holds the text passed to the most recent Respond
	// decision, returned as the run's output when the step list is
	// exhausted without an explicit Respond.
	LastResponse string
}

// NewContext constructs an empty Context with the given step budget.
func NewContext(maxSteps int) *Context {
	return &Context{
		Metadata:    make(map[string]string),
		ToolResults: make(map[string]ToolResult),
		Data:        make(map[string]any),
		MaxSteps:    maxSteps,
	}
}

// ShouldContinue reports whether the run may advance to another step.
func (c *Context) ShouldContinue() bool {
	return c.StepCount < c.MaxSteps
}

// AdvanceStep increments the step counter. The engine calls this once per
// step invocation, including each child invocation inside a loop/foreach
// combinator, so max_steps bounds the total number of step invocations
// (spec §8 property 6), not just the number of top-level combinators.
func (c *Context) AdvanceStep() {
	c.StepCount++
}

// AppendMessage appends a message to the conversation history. Messages are
// append-only: callers must not mutate or remove existing entries.
func (c *Context) AppendMessage(m Message) {
	c.Messages = append(c.Messages, m)
}

// SystemMessage returns the leading System message, if any. The first
// message, when present, may be a System message and must survive any
// history truncation performed by a step.
func (c *Context) SystemMessage() (Message, bool) {
	if len(c.Messages) == 0 || c.Messages[0].Role != RoleSystem {
		return Message{}, false
	}
	return c.Messages[0], true
}

// TruncateHistory keeps the leading System message (if any) plus the last
// keep non-system messages, discarding older ones. Used by steps that need
// to bound prompt size without losing the system prompt.
func (c *Context) TruncateHistory(keep int) {
	sys, hasSys := c.SystemMessage()
	rest := c.Messages
	if hasSys {
		rest = c.Messages[1:]
	}
	if len(rest) > keep {
		rest = rest[len(rest)-keep:]
	}
	if hasSys {
		c.Messages = append([]Message{sys}, rest...)
		return
	}
	c.Messages = rest
}

// SetMetadata stores a scratchpad value under key.
func (c *Context) SetMetadata(key, value string) {
	if c.Metadata == nil {
		c.Metadata = make(map[string]string)
	}
	c.Metadata[key] = value
}

// GetMetadata reads a scratchpad value.
func (c *Context) GetMetadata(key string) (string, bool) {
	v, ok := c.Metadata[key]
	return v, ok
}

// SetToolResult records the result of a tool invocation under its call id.
func (c *Context) SetToolResult(r ToolResult) {
	if c.ToolResults == nil {
		c.ToolResults = make(map[string]ToolResult)
	}
	c.ToolResults[r.CallID] = r
}

// AppendMemories appends retrieved memories to the opaque memories list.
func (c *Context) AppendMemories(mems ...Memory) {
	c.Memories = append(c.Memories, mems...)
}

// Clone produces a shallow-but-independent copy of c for use by a parallel
// combinator child: maps and slices are copied so mutations performed by
// one child are invisible to siblings until the parallel combinator merges
// results back into the parent (spec §8 property 10, "Parallel isolation").
func (c *Context) Clone() *Context {
	out := &Context{
		Messages:     append([]Message(nil), c.Messages...),
		Metadata:     maps.Clone(c.Metadata),
		ToolResults:  maps.Clone(c.ToolResults),
		Memories:     append([]Memory(nil), c.Memories...),
		Data:         maps.Clone(c.Data),
		StepCount:    c.StepCount,
		MaxSteps:     c.MaxSteps,
		LastResponse: c.LastResponse,
	}
	if out.Metadata == nil {
		out.Metadata = make(map[string]string)
	}
	if out.ToolResults == nil {
		out.ToolResults = make(map[string]ToolResult)
	}
	if out.Data == nil {
		out.Data = make(map[string]any)
	}
	return out
}

// MergeFrom folds a completed child clone's state back into c. Child
// metadata and data entries overwrite c's entries (last-writer-wins); when
// merging several children, callers must invoke MergeFrom in child-index
// order so the merge is deterministic (spec §9 open question, resolved in
// DESIGN.md). Messages appended by the child (beyond the length the child
// was cloned with) are appended to c. StepCount advances to the max
// observed across merges so the budget reflects work actually done.
func (c *Context) MergeFrom(base, child *Context) {
	baseLen := len(base.Messages)
	if len(child.Messages) > baseLen {
		c.Messages = append(c.Messages, child.Messages[baseLen:]...)
	}
	for k, v := range child.Metadata {
		c.Metadata[k] = v
	}
	for k, v := range child.ToolResults {
		c.ToolResults[k] = v
	}
	for k, v := range child.Data {
		c.Data[k] = v
	}
	if len(child.Memories) > len(base.Memories) {
		c.Memories = append(c.Memories, child.Memories[len(base.Memories):]...)
	}
	if child.StepCount > c.StepCount {
		c.StepCount = child.StepCount
	}
}
