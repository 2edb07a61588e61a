package coordinator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flowkit/agentcore/corerr"
	"github.com/flowkit/agentcore/task"
	"github.com/flowkit/agentcore/telemetry"
)

type fakeProcessor struct {
	response string
	err      error
}

func (f *fakeProcessor) Process(context.Context, string) (string, error) {
	return f.response, f.err
}

func newTestOrg() *task.Organization {
	org := task.NewOrganization("test-org")
	ws := task.NewWorkspace("ws1", "Launch", "")
	org.Workspaces[ws.ID] = ws
	return org
}

func TestExecuteWorkspaceRunsDependentTasksInOrder(t *testing.T) {
	org := newTestOrg()
	c := New(org, telemetry.Noop())
	c.SpawnAgent("agent-a", &fakeProcessor{response: "done-a"})
	c.SpawnAgent("agent-b", &fakeProcessor{response: "done-b"})

	t1 := &task.Task{ID: "t1", Description: "first", AssignedTo: []string{"agent-a"}, Status: task.StatusPending}
	t2 := &task.Task{ID: "t2", Description: "second", AssignedTo: []string{"agent-b"}, Status: task.StatusPending, Dependencies: []string{"t1"}}

	results, err := c.ExecuteWorkspace(context.Background(), "ws1", t1, t2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		require.Equal(t, task.StatusCompleted, r.Status)
	}
}

func TestExecuteWorkspaceFailsTasksWithMissingAgent(t *testing.T) {
	org := newTestOrg()
	c := New(org, telemetry.Noop())

	t1 := &task.Task{ID: "t1", Description: "first", AssignedTo: []string{"ghost"}, Status: task.StatusPending}
	results, err := c.ExecuteWorkspace(context.Background(), "ws1", t1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, task.StatusFailed, results[0].Status)
}

func TestExecuteWorkspaceUnknownWorkspace(t *testing.T) {
	c := New(task.NewOrganization("test-org"), telemetry.Noop())
	_, err := c.ExecuteWorkspace(context.Background(), "missing")
	require.Error(t, err)
}

func TestExecuteWorkspaceRejectsUnresolvableDependencyAsInvariantViolation(t *testing.T) {
	org := newTestOrg()
	c := New(org, telemetry.Noop())
	c.SpawnAgent("agent-a", &fakeProcessor{response: "done-a"})

	orphan := &task.Task{ID: "t1", Description: "first", AssignedTo: []string{"agent-a"}, Status: task.StatusPending, Dependencies: []string{"ghost-task"}}

	results, err := c.ExecuteWorkspace(context.Background(), "ws1", orphan)
	require.Error(t, err)
	require.Nil(t, results)
	kind, ok := corerr.KindOf(err)
	require.True(t, ok)
	require.Equal(t, corerr.InvariantViolation, kind, "unresolvable dependency ids must be fatal, not silently Blocked")
}

func TestProcessMessagesContinuesAfterFailure(t *testing.T) {
	org := task.NewOrganization("test-org")
	c := New(org, telemetry.Noop())
	c.SpawnAgent("agent-a", &fakeProcessor{err: errors.New("boom")})
	c.SendMessage("system", "agent-a", "hello")
	c.ProcessMessages(context.Background())
	// No panic and mailbox drained is the success condition here.
	c.mu.Lock()
	defer c.mu.Unlock()
	require.Empty(t, c.mailboxes["agent-a"])
}
