package coordinator

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/flowkit/agentcore/corerr"
	"github.com/flowkit/agentcore/task"
)

// TaskResult records the outcome of dispatching a single task.
type TaskResult struct {
	TaskID string
	Status task.Status
	Error  string
}

// ExecuteWorkspace installs tasks into the workspace identified by
// workspaceID and runs the ready-task loop (spec §4.5/§6.1
// coordinate_workspace_project(ws_id, tasks)): validate that every
// dependency id named by any task in the combined set (previously
// installed plus newly given) resolves to a task in that same set, then
// repeatedly collect ready tasks, dispatch them in (priority desc, phase
// asc, insertion order), and mark outcomes. An unresolvable dependency id
// is a fatal graph-construction error (spec §7 InvariantViolation), not a
// silently Blocked task. Tasks sharing the same priority level are
// dispatched concurrently.
func (c *Coordinator) ExecuteWorkspace(ctx context.Context, workspaceID string, tasks ...*task.Task) ([]TaskResult, error) {
	c.mu.Lock()
	ws, ok := c.org.Workspaces[workspaceID]
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("workspace %q not found", workspaceID)
	}

	for _, t := range tasks {
		ws.AddTask(t)
	}

	byID := ws.ByID()
	for _, t := range ws.Tasks {
		for _, dep := range t.Dependencies {
			if _, ok := byID[dep]; !ok {
				return nil, corerr.Newf(corerr.InvariantViolation,
					"task %q depends on unresolvable task %q", t.ID, dep)
			}
		}
	}

	var results []TaskResult

	for {
		ready := ws.ReadyTasks()
		if len(ready) == 0 {
			if anyPending(ws) {
				blockPending(ws, &results)
			}
			break
		}

		groups := groupByPriority(ready)
		for _, group := range groups {
			var mu sync.Mutex
			for _, t := range group {
				t.Status = task.StatusInProgress
			}
			g, gctx := errgroup.WithContext(ctx)
			for _, t := range group {
				t := t
				g.Go(func() error {
					res := c.dispatch(gctx, t)
					mu.Lock()
					results = append(results, res)
					mu.Unlock()
					return nil
				})
			}
			_ = g.Wait()
		}
	}

	return results, nil
}

// dispatch runs a single task against its primary assignee, notifying any
// additional assignees via mailbox message passing (spec §4.5: "if
// multiple assignees, the first is primary, others are notified via
// message passing").
func (c *Coordinator) dispatch(ctx context.Context, t *task.Task) TaskResult {
	if len(t.AssignedTo) == 0 {
		t.Status = task.StatusFailed
		t.Error = "task has no assigned agent"
		return TaskResult{TaskID: t.ID, Status: t.Status, Error: t.Error}
	}

	primary := t.AssignedTo[0]
	c.mu.Lock()
	proc, ok := c.agents[primary]
	c.mu.Unlock()
	if !ok {
		t.Status = task.StatusFailed
		t.Error = fmt.Sprintf("agent %q not spawned", primary)
		return TaskResult{TaskID: t.ID, Status: t.Status, Error: t.Error}
	}

	for _, other := range t.AssignedTo[1:] {
		c.SendMessage(primary, other, fmt.Sprintf("task %q has begun", t.ID))
	}

	out, err := proc.Process(ctx, t.Description)
	if err != nil {
		t.Status = task.StatusFailed
		t.Error = err.Error()
		return TaskResult{TaskID: t.ID, Status: t.Status, Error: t.Error}
	}

	t.Status = task.StatusCompleted
	if t.ArtifactsProduced == nil {
		t.ArtifactsProduced = make(map[string]any)
	}
	t.ArtifactsProduced["output"] = out
	return TaskResult{TaskID: t.ID, Status: t.Status}
}

func anyPending(ws *task.Workspace) bool {
	for _, t := range ws.Tasks {
		if t.Status == task.StatusPending {
			return true
		}
	}
	return false
}

func blockPending(ws *task.Workspace, results *[]TaskResult) {
	for _, t := range ws.Tasks {
		if t.Status == task.StatusPending {
			t.Status = task.StatusBlocked
			*results = append(*results, TaskResult{TaskID: t.ID, Status: task.StatusBlocked})
		}
	}
}

// groupByPriority partitions ready (already priority/phase/insertion
// sorted) into consecutive runs sharing one priority level, preserving
// relative order, so each run can be dispatched concurrently while
// distinct priority levels remain sequential.
func groupByPriority(ready []*task.Task) [][]*task.Task {
	var groups [][]*task.Task
	var current []*task.Task
	for _, t := range ready {
		if len(current) > 0 && current[0].Priority != t.Priority {
			groups = append(groups, current)
			current = nil
		}
		current = append(current, t)
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups
}
