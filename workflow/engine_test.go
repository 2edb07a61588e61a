package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/flowkit/agentcore/resource"
)

var errNotFound = errors.New("snapshot not found")

func respondStep(text string) Step {
	return NewStep("respond", func(context.Context, *Context) (Decision, error) {
		return Respond(text), nil
	})
}

func TestEngineExecuteRespond(t *testing.T) {
	def, err := NewBuilder("greet").AddStep(respondStep("hello")).Build()
	require.NoError(t, err)

	eng := New(Options{})
	res, err := eng.Execute(context.Background(), resource.New("test", "r1"), def, nil)
	require.NoError(t, err)
	require.True(t, res.Completed)
	require.Equal(t, "hello", res.Response)
}

func TestEngineSuspendRequiresSnapshotStore(t *testing.T) {
	suspend := NewStep("pause", func(context.Context, *Context) (Decision, error) {
		return Suspend(UserPause()), nil
	})
	def, err := NewBuilder("pausing").AddStep(suspend).Build()
	require.NoError(t, err)

	eng := New(Options{})
	_, err = eng.Execute(context.Background(), resource.New("test", "r2"), def, nil)
	require.Error(t, err)
}

// TestEngineSuspendAndResumeReEntersTheSuspendedStep mirrors the
// human-approval gating pattern: a step checks metadata before deciding
// whether to proceed, suspending when the approval isn't present yet.
// Resume must re-execute that same step (not the one after it) so it
// re-reads the now-granted approval and proceeds on its own, matching
// spec §4.1/§4.2's re-entry rule.
func TestEngineSuspendAndResumeReEntersTheSuspendedStep(t *testing.T) {
	executions := 0
	approvalGate := NewStep("await_approval", func(_ context.Context, wc *Context) (Decision, error) {
		executions++
		if v, _ := wc.GetMetadata("human_approval"); v != "granted" {
			return Suspend(UserPause()), nil
		}
		wc.Data["touched"] = true
		return Continue(), nil
	})
	final := respondStep("resumed")
	def, err := NewBuilder("suspendable").AddStep(approvalGate).AddStep(final).Build()
	require.NoError(t, err)

	store := newMemorySnapshotStore()
	eng := New(Options{SnapshotStore: store})

	res, err := eng.Execute(context.Background(), resource.New("test", "r3"), def, nil)
	require.NoError(t, err)
	require.False(t, res.Completed)
	require.NotEmpty(t, res.SnapshotID)
	require.Equal(t, 1, executions)
	require.Nil(t, res.Context.Data["touched"], "the gated step must not have advanced past suspension")

	// Simulate the approval being granted out-of-band (e.g. a human
	// approving via a separate API call) and the approved state being
	// re-stored under the same snapshot id before resuming, mirroring the
	// original suspend/resume walkthrough's approve-then-resume flow.
	approved := store.snaps[res.SnapshotID]
	approved.Context.SetMetadata("human_approval", "granted")
	approved.Retired = false
	require.NoError(t, store.Save(context.Background(), approved))

	resumed, err := eng.ResumeFromSnapshot(context.Background(), def, res.SnapshotID)
	require.NoError(t, err)
	require.True(t, resumed.Completed)
	require.Equal(t, "resumed", resumed.Response)
	require.Equal(t, 2, executions, "resume must re-execute the suspended step, not skip it")
	require.Equal(t, true, resumed.Context.Data["touched"])
}

func TestEngineMaxStepsExhaustion(t *testing.T) {
	loop := NewStep("noop", func(_ context.Context, wc *Context) (Decision, error) {
		return Continue(), nil
	})
	def, err := NewBuilder("bounded").WithMaxSteps(2).AddStep(loop).AddStep(loop).AddStep(loop).Build()
	require.NoError(t, err)

	eng := New(Options{})
	res, err := eng.Execute(context.Background(), resource.New("test", "r4"), def, nil)
	require.NoError(t, err)
	require.True(t, res.Completed)
	require.Equal(t, 2, res.Context.StepCount)
}

// memorySnapshotStore is a minimal in-package SnapshotStore used only by
// this test file, so workflow's own tests don't depend on storage/inmem
// (which imports workflow) and create an import cycle.
type memorySnapshotStore struct {
	snaps map[string]Snapshot
}

func newMemorySnapshotStore() *memorySnapshotStore {
	return &memorySnapshotStore{snaps: make(map[string]Snapshot)}
}

func (m *memorySnapshotStore) Save(_ context.Context, snap Snapshot) error {
	m.snaps[snap.ID] = snap
	return nil
}

func (m *memorySnapshotStore) Resume(_ context.Context, id string) (Snapshot, error) {
	snap, ok := m.snaps[id]
	if !ok {
		return Snapshot{}, errNotFound
	}
	snap.Retired = true
	m.snaps[id] = snap
	return snap, nil
}

func (m *memorySnapshotStore) List(_ context.Context, res resource.ID) ([]Snapshot, error) {
	var out []Snapshot
	for _, s := range m.snaps {
		if s.Resource == res {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memorySnapshotStore) Cleanup(context.Context, time.Time) (int, error) {
	return 0, nil
}
