// Package inmem provides an in-memory implementation of
// storage.UnifiedStorage. It is intended for tests and local development;
// production deployments should use a durable implementation (see
// storage/mongostore).
package inmem

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flowkit/agentcore/corerr"
	"github.com/flowkit/agentcore/resource"
	"github.com/flowkit/agentcore/storage"
	"github.com/flowkit/agentcore/workflow"
)

// Store is an in-memory, mutex-guarded implementation of
// storage.UnifiedStorage. It is safe for concurrent use.
type Store struct {
	mu sync.RWMutex

	snapshots map[string]workflow.Snapshot
	threads   map[string]storage.Thread
	messages  map[string][]storage.ThreadMessage
	traces    []storage.Trace
	datasets  map[string]storage.EvalDataset
	cases     map[string]storage.EvalCase
	scores    map[string][]storage.EvalScore
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		snapshots: make(map[string]workflow.Snapshot),
		threads:   make(map[string]storage.Thread),
		messages:  make(map[string][]storage.ThreadMessage),
		datasets:  make(map[string]storage.EvalDataset),
		cases:     make(map[string]storage.EvalCase),
		scores:    make(map[string][]storage.EvalScore),
	}
}

func (s *Store) nextID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// Save implements workflow.SnapshotStore.
func (s *Store) Save(_ context.Context, snap workflow.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snap.ID] = snap
	return nil
}

// Resume implements workflow.SnapshotStore, atomically loading and
// retiring the snapshot.
func (s *Store) Resume(_ context.Context, id string) (workflow.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snapshots[id]
	if !ok || snap.Retired {
		return workflow.Snapshot{}, corerr.Newf(corerr.NotFound, "snapshot %q not found", id)
	}
	snap.Retired = true
	s.snapshots[id] = snap
	return snap, nil
}

// List implements workflow.SnapshotStore.
func (s *Store) List(_ context.Context, res resource.ID) ([]workflow.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []workflow.Snapshot
	for _, snap := range s.snapshots {
		if !snap.Retired && snap.Resource == res {
			out = append(out, snap)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Cleanup implements workflow.SnapshotStore.
func (s *Store) Cleanup(_ context.Context, olderThan time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, snap := range s.snapshots {
		if snap.Retired && snap.CreatedAt.Before(olderThan) {
			delete(s.snapshots, id)
			n++
		}
	}
	return n, nil
}

// CreateThread implements storage.UnifiedStorage.
func (s *Store) CreateThread(_ context.Context, res resource.ID, title string) (storage.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	t := storage.Thread{ID: s.nextID("thread"), Resource: res, Title: title, CreatedAt: now, UpdatedAt: now}
	s.threads[t.ID] = t
	return t, nil
}

// AppendMessage implements storage.UnifiedStorage.
func (s *Store) AppendMessage(_ context.Context, threadID string, msg storage.ThreadMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.threads[threadID]
	if !ok {
		return corerr.Newf(corerr.NotFound, "thread %q not found", threadID)
	}
	msg.ThreadID = threadID
	if msg.ID == "" {
		msg.ID = s.nextID("msg")
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	s.messages[threadID] = append(s.messages[threadID], msg)
	t.UpdatedAt = msg.CreatedAt
	s.threads[threadID] = t
	return nil
}

// ListMessages implements storage.UnifiedStorage, returning messages in
// timestamp order with a stable tie-break by message id (spec §4.6
// get_messages(thread_id, limit?)).
func (s *Store) ListMessages(_ context.Context, threadID string, limit int) ([]storage.ThreadMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]storage.ThreadMessage(nil), s.messages[threadID]...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ListThreads implements storage.UnifiedStorage.
func (s *Store) ListThreads(_ context.Context, res resource.ID) ([]storage.Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []storage.Thread
	for _, t := range s.threads {
		if t.Resource == res {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// RecordTrace implements storage.UnifiedStorage.
func (s *Store) RecordTrace(_ context.Context, t storage.Trace) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == "" {
		t.ID = s.nextID("trace")
	}
	s.traces = append(s.traces, t)
	return nil
}

// ListTraces implements storage.UnifiedStorage.
func (s *Store) ListTraces(_ context.Context, res resource.ID, workflowID string) ([]storage.Trace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []storage.Trace
	for _, t := range s.traces {
		if t.Resource == res && (workflowID == "" || t.WorkflowID == workflowID) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StepIndex < out[j].StepIndex })
	return out, nil
}

// CreateEvalDataset implements storage.UnifiedStorage.
func (s *Store) CreateEvalDataset(_ context.Context, res resource.ID, name, description string) (storage.EvalDataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := storage.EvalDataset{ID: s.nextID("dataset"), Resource: res, Name: name, Description: description, CreatedAt: time.Now().UTC()}
	s.datasets[d.ID] = d
	return d, nil
}

// AddEvalCase implements storage.UnifiedStorage.
func (s *Store) AddEvalCase(_ context.Context, datasetID string, input, expected map[string]any) (storage.EvalCase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.datasets[datasetID]; !ok {
		return storage.EvalCase{}, corerr.Newf(corerr.NotFound, "dataset %q not found", datasetID)
	}
	c := storage.EvalCase{ID: s.nextID("case"), DatasetID: datasetID, Input: input, Expected: expected}
	s.cases[c.ID] = c
	return c, nil
}

// RecordEvalScore implements storage.UnifiedStorage, grouping scores by
// runID rather than by dataset (spec §3/§4.6: scores are indexed by
// run_id; stats.eval_runs counts distinct run_id values).
func (s *Store) RecordEvalScore(_ context.Context, res resource.ID, runID, itemID, metricName string, score float64, reason, scorerName string) (storage.EvalScore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cases[itemID]; !ok {
		return storage.EvalScore{}, corerr.Newf(corerr.NotFound, "eval case %q not found", itemID)
	}
	sc := storage.EvalScore{
		ID:         s.nextID("score"),
		Resource:   res,
		RunID:      runID,
		ItemID:     itemID,
		MetricName: metricName,
		Score:      score,
		Reason:     reason,
		ScorerName: scorerName,
		ScoredAt:   time.Now().UTC(),
	}
	s.scores[runID] = append(s.scores[runID], sc)
	return sc, nil
}

// ListEvalScores implements storage.UnifiedStorage (spec §4.6
// get_scores(run_id)).
func (s *Store) ListEvalScores(_ context.Context, runID string) ([]storage.EvalScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]storage.EvalScore(nil), s.scores[runID]...), nil
}

// Stats implements storage.UnifiedStorage.
func (s *Store) Stats(_ context.Context, res resource.ID) (storage.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var st storage.Stats
	for _, snap := range s.snapshots {
		if !snap.Retired && snap.Resource == res {
			st.SnapshotCount++
		}
	}
	for id, t := range s.threads {
		if t.Resource == res {
			st.ThreadCount++
			st.MessageCount += len(s.messages[id])
		}
	}
	for _, t := range s.traces {
		if t.Resource == res {
			st.TraceCount++
		}
	}
	for _, scores := range s.scores {
		if len(scores) > 0 && scores[0].Resource == res {
			st.EvalRuns++
		}
	}
	return st, nil
}

// ApplyRetention implements storage.UnifiedStorage.
func (s *Store) ApplyRetention(_ context.Context, policy storage.RetentionPolicy) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := map[string]int{"snapshots": 0, "traces": 0, "threads": 0}
	now := time.Now()

	if policy.Snapshots > 0 {
		cutoff := now.Add(-policy.Snapshots)
		for id, snap := range s.snapshots {
			if snap.Retired && snap.CreatedAt.Before(cutoff) {
				delete(s.snapshots, id)
				removed["snapshots"]++
			}
		}
	}
	if policy.Traces > 0 {
		cutoff := now.Add(-policy.Traces)
		kept := s.traces[:0]
		for _, t := range s.traces {
			if t.StartedAt.Before(cutoff) {
				removed["traces"]++
				continue
			}
			kept = append(kept, t)
		}
		s.traces = kept
	}
	if policy.Threads > 0 {
		cutoff := now.Add(-policy.Threads)
		for id, t := range s.threads {
			if t.UpdatedAt.Before(cutoff) {
				delete(s.threads, id)
				delete(s.messages, id)
				removed["threads"]++
			}
		}
	}
	return removed, nil
}
