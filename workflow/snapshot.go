package workflow

import (
	"context"
	"time"

	"github.com/flowkit/agentcore/resource"
)

// Snapshot captures a suspended run's complete state so it can be resumed
// later, possibly by a different process (spec §3/§5). The snapshot layer
// intentionally does not know about SuspendReason's richer fields; it only
// stores the ResumeCondition derived from the reason, so storage backends
// never need SuspendReason's full type (see DeriveResumeCondition).
type Snapshot struct {
	ID         string
	Resource   resource.ID
	WorkflowID string

	StepIndex int
	Context   *Context

	Reason    ResumeCondition
	CreatedAt time.Time

	// Retired is set once a snapshot has been consumed by a successful
	// resume; it is kept (rather than deleted outright) by stores that
	// implement retention windows rather than immediate deletion.
	Retired bool
}

// SnapshotStore persists and retrieves suspended-run snapshots. Resume must
// be atomic: two concurrent Resume calls for the same snapshot ID must not
// both succeed (spec §8 property "Atomic resume"; see mongostore for the
// FindOneAndUpdate-backed implementation and inmem for the mutex-backed one).
type SnapshotStore interface {
	Save(ctx context.Context, snap Snapshot) error
	// Resume atomically loads and retires the snapshot with id, returning
	// an error (a corerr NotFound in storage/inmem and storage/mongostore)
	// if it is absent or has already been resumed.
	Resume(ctx context.Context, id string) (Snapshot, error)
	List(ctx context.Context, res resource.ID) ([]Snapshot, error)
	// Cleanup deletes retired snapshots older than olderThan, returning the
	// count removed (spec §5 retention policy).
	Cleanup(ctx context.Context, olderThan time.Time) (int, error)
}
