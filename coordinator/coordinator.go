// Package coordinator implements the Organization Coordinator (spec
// §4.5): it spawns agents, dispatches ready workspace tasks honoring
// dependency/priority/phase ordering, and drains per-agent mailboxes for
// cross-agent message passing.
package coordinator

import (
	"context"
	"fmt"
	"sync"

	"github.com/flowkit/agentcore/task"
	"github.com/flowkit/agentcore/telemetry"
)

// learningContext is the fixed "learning organization" appendix every
// role's prompt ends with (spec §4.5; verbatim in spirit from the Rust
// original's LEARNING_CONTEXT constant — see SPEC_FULL.md).
const learningContext = `ORGANIZATIONAL LEARNING:
You are part of a learning organization. Before performing tasks:
1. Query organizational memory for relevant past experiences, best practices, and lessons learned.
2. Apply learned patterns and successful approaches from similar past work.
3. After completing tasks, document key learnings, decisions, and outcomes for future reference.
4. Share insights with collaborators to build collective organizational knowledge.`

// RolePrompt composes the full system prompt for role: role-specific
// description, capability summary, the fixed learning-organization
// appendix, and role-specific learning behaviors, in that order (spec
// §4.5 "a static role descriptor plus a fixed 'learning organization'
// appendix").
func RolePrompt(role task.Role) string {
	return fmt.Sprintf("%s\n\n%s\n\n%s\n\n%s",
		task.Description(role), task.Capabilities(role), learningContext, task.LearningBehavior(role))
}

// AgentProcessor is the capability the Coordinator dispatches tasks and
// messages to. It is satisfied by agent.Agent.
type AgentProcessor interface {
	Process(ctx context.Context, prompt string) (string, error)
}

// Message is a single cross-agent notification delivered via mailboxes.
type Message struct {
	From string
	To   string
	Body string
}

// Coordinator owns an Organization's agent registry and per-agent
// mailboxes, grounded on the teacher's actor-with-mailbox guidance (spec
// §9 redesign flag against mutex-wrapped shared agents).
type Coordinator struct {
	mu        sync.Mutex
	org       *task.Organization
	agents    map[string]AgentProcessor
	mailboxes map[string][]Message
	telemetry telemetry.Provider
}

// New constructs a Coordinator over org.
func New(org *task.Organization, telemetryProvider telemetry.Provider) *Coordinator {
	if telemetryProvider.Logger == nil {
		telemetryProvider = telemetry.Noop()
	}
	return &Coordinator{
		org:       org,
		agents:    make(map[string]AgentProcessor),
		mailboxes: make(map[string][]Message),
		telemetry: telemetryProvider,
	}
}

// SpawnAgent registers proc as the live process for the organization
// agent identified by agentID.
func (c *Coordinator) SpawnAgent(agentID string, proc AgentProcessor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.agents[agentID] = proc
}

// SendMessage enqueues body onto to's mailbox, attributed to from.
// Delivery is at-least-once within the process; ordering is FIFO per
// (from, to) pair by construction since each mailbox is a single
// append-only slice drained in order (spec §4.5).
func (c *Coordinator) SendMessage(from, to, body string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mailboxes[to] = append(c.mailboxes[to], Message{From: from, To: to, Body: body})
}

// ProcessMessages drains every mailbox, dispatching each message to its
// recipient agent's Process method. Processing failures are logged and do
// not halt the drain of other mailboxes/messages.
func (c *Coordinator) ProcessMessages(ctx context.Context) {
	c.mu.Lock()
	pending := c.mailboxes
	c.mailboxes = make(map[string][]Message)
	c.mu.Unlock()

	log := c.telemetry.Logger
	for to, msgs := range pending {
		c.mu.Lock()
		proc, ok := c.agents[to]
		c.mu.Unlock()
		if !ok {
			log.Warn(ctx, "message addressed to unknown agent", "agent_id", to)
			continue
		}
		for _, m := range msgs {
			if _, err := proc.Process(ctx, m.Body); err != nil {
				log.Error(ctx, "mailbox message processing failed", "from", m.From, "to", m.To, "error", err)
			}
		}
	}
}
