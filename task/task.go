// Package task defines the workspace task graph data model (spec §3/§4.5):
// Tasks with dependencies, priority, and phase ordering, grouped into
// Workspaces.
package task

// Status is the closed set of lifecycle states a Task may be in.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusBlocked    Status = "blocked"
)

// Priority orders ready-task dispatch within a workspace (descending).
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

// Task is a single unit of workspace work.
type Task struct {
	ID          string
	Description string
	TaskType    string

	AssignedTo []string // agent ids; first is primary, rest are notified
	Status     Status

	Phase        int
	Dependencies []string
	Priority     Priority

	ArtifactsProduced map[string]any
	Error             string

	// insertionOrder breaks ties between tasks of equal priority and
	// phase, set by Workspace.AddTask to the order tasks were added.
	insertionOrder int
}

// Ready reports whether t is eligible for dispatch: status is Pending and
// every dependency (looked up in byID) has status Completed (spec §3).
func (t Task) Ready(byID map[string]*Task) bool {
	if t.Status != StatusPending {
		return false
	}
	for _, dep := range t.Dependencies {
		d, ok := byID[dep]
		if !ok || d.Status != StatusCompleted {
			return false
		}
	}
	return true
}

// Workspace is a named container of tasks with assigned agent members.
type Workspace struct {
	ID            string
	Name          string
	Description   string
	MemberAgents  []string
	Tasks         []*Task
	nextInsertion int
}

// NewWorkspace constructs an empty Workspace.
func NewWorkspace(id, name, description string, members ...string) *Workspace {
	return &Workspace{ID: id, Name: name, Description: description, MemberAgents: members}
}

// AddTask appends t to the workspace, stamping its insertion order.
func (w *Workspace) AddTask(t *Task) {
	t.insertionOrder = w.nextInsertion
	w.nextInsertion++
	w.Tasks = append(w.Tasks, t)
}

// ByID indexes the workspace's tasks for dependency lookups.
func (w *Workspace) ByID() map[string]*Task {
	m := make(map[string]*Task, len(w.Tasks))
	for _, t := range w.Tasks {
		m[t.ID] = t
	}
	return m
}

// ReadyTasks returns every currently ready task, ordered by
// (priority desc, phase asc, insertion order) per spec §4.5.
func (w *Workspace) ReadyTasks() []*Task {
	byID := w.ByID()
	var ready []*Task
	for _, t := range w.Tasks {
		if t.Ready(byID) {
			ready = append(ready, t)
		}
	}
	sortReady(ready)
	return ready
}

func sortReady(tasks []*Task) {
	// insertion sort: the expected ready-set size per iteration is small
	// and the ordering must be stable, so a simple stable sort is clearer
	// here than pulling in sort.Slice with a composite less-func.
	for i := 1; i < len(tasks); i++ {
		for j := i; j > 0 && less(tasks[j], tasks[j-1]); j-- {
			tasks[j], tasks[j-1] = tasks[j-1], tasks[j]
		}
	}
}

func less(a, b *Task) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	if a.Phase != b.Phase {
		return a.Phase < b.Phase
	}
	return a.insertionOrder < b.insertionOrder
}

// OrganizationAgent is an agent's identity within an Organization.
type OrganizationAgent struct {
	ID       string
	Name     string
	Role     Role
	Category Category
}

// Organization is a collection of agents and workspaces.
type Organization struct {
	Name       string
	Agents     map[string]OrganizationAgent
	Workspaces map[string]*Workspace
}

// NewOrganization constructs an empty Organization.
func NewOrganization(name string) *Organization {
	return &Organization{Name: name, Agents: make(map[string]OrganizationAgent), Workspaces: make(map[string]*Workspace)}
}
