// Package storage defines the resource-scoped UnifiedStorage interface
// (spec §5): durable persistence for suspended workflows, memory threads,
// traces, and evaluation datasets/scores, all partitioned by resource.ID so
// a single backend can serve many tenants/projects.
package storage

import (
	"context"
	"time"

	"github.com/flowkit/agentcore/resource"
	"github.com/flowkit/agentcore/workflow"
)

// Thread groups a sequence of Messages under a logical conversation,
// scoped to a resource.
type Thread struct {
	ID        string
	Resource  resource.ID
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
	Metadata  map[string]string
}

// ThreadMessage is a single persisted message within a Thread.
type ThreadMessage struct {
	ID        string
	ThreadID  string
	Role      workflow.Role
	Content   string
	CreatedAt time.Time
}

// Trace records a single workflow step invocation for observability and
// replay debugging.
type Trace struct {
	ID         string
	Resource   resource.ID
	WorkflowID string
	StepIndex  int
	StepName   string
	Decision   workflow.DecisionKind
	StartedAt  time.Time
	DurationMS int64
	Error      string
}

// EvalDataset groups EvalCases used to score a workflow or agent over time.
type EvalDataset struct {
	ID          string
	Resource    resource.ID
	Name        string
	Description string
	CreatedAt   time.Time
}

// EvalCase is a single input/expected-output pair within a dataset.
type EvalCase struct {
	ID        string
	DatasetID string
	Input     map[string]any
	Expected  map[string]any
}

// EvalScore records one scored item within an evaluation run (spec
// §3/§4.6's EvalDataset/EvalRun/EvalScore model). Scores are grouped by
// RunID, not by dataset: a single eval run typically scores many items
// drawn from one dataset, and Stats.EvalRuns counts distinct RunID values.
type EvalScore struct {
	ID         string
	Resource   resource.ID
	RunID      string
	ItemID     string
	MetricName string
	Score      float64
	Reason     string
	ScorerName string
	ScoredAt   time.Time
}

// RetentionPolicy bounds how long each record class is kept before
// maintenance sweeps may remove it (spec §5).
type RetentionPolicy struct {
	Snapshots time.Duration
	Traces    time.Duration
	Threads   time.Duration
}

// Stats summarizes a resource's storage occupancy for observability.
type Stats struct {
	SnapshotCount int
	ThreadCount   int
	MessageCount  int
	TraceCount    int
	// EvalRuns is the number of distinct EvalScore.RunID values recorded
	// for the resource (spec §4.6 invariant: stats.eval_runs equals the
	// number of distinct run_id values across stored scores).
	EvalRuns int
}

// UnifiedStorage is the single persistence surface the engine, coordinator,
// and eval tooling depend on (spec §5). Implementations must partition all
// data by resource.ID: no operation may observe or mutate another
// resource's records.
type UnifiedStorage interface {
	workflow.SnapshotStore

	CreateThread(ctx context.Context, res resource.ID, title string) (Thread, error)
	AppendMessage(ctx context.Context, threadID string, msg ThreadMessage) error
	// ListMessages returns a thread's messages in timestamp order, with a
	// stable tie-break by message id (spec §4.6 get_messages(thread_id,
	// limit?)). limit <= 0 means unbounded.
	ListMessages(ctx context.Context, threadID string, limit int) ([]ThreadMessage, error)
	ListThreads(ctx context.Context, res resource.ID) ([]Thread, error)

	RecordTrace(ctx context.Context, t Trace) error
	ListTraces(ctx context.Context, res resource.ID, workflowID string) ([]Trace, error)

	CreateEvalDataset(ctx context.Context, res resource.ID, name, description string) (EvalDataset, error)
	AddEvalCase(ctx context.Context, datasetID string, input, expected map[string]any) (EvalCase, error)
	// RecordEvalScore stores one scored item under runID (spec §4.6
	// store_score); itemID must name an existing EvalCase.
	RecordEvalScore(ctx context.Context, res resource.ID, runID, itemID, metricName string, score float64, reason, scorerName string) (EvalScore, error)
	// ListEvalScores returns every score recorded under runID (spec §4.6
	// get_scores(run_id)).
	ListEvalScores(ctx context.Context, runID string) ([]EvalScore, error)

	Stats(ctx context.Context, res resource.ID) (Stats, error)
	// ApplyRetention deletes records older than the policy's thresholds,
	// returning counts removed per class, keyed by "snapshots", "traces",
	// "threads". Only retired (already resumed) snapshots are removed;
	// snapshots that were never resumed are kept regardless of age. Traces
	// are aged by start time and threads, with their messages, by last
	// update. A zero duration leaves that class untouched.
	ApplyRetention(ctx context.Context, policy RetentionPolicy) (map[string]int, error)
}
