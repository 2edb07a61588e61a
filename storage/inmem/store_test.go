package inmem

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/flowkit/agentcore/resource"
	"github.com/flowkit/agentcore/storage"
	"github.com/flowkit/agentcore/workflow"
)

func TestResumeIsAtomicAndRetires(t *testing.T) {
	s := New()
	res := resource.New("test", "r1")
	snap := workflow.Snapshot{ID: "snap-1", Resource: res, StepIndex: 2, Context: workflow.NewContext(10), CreatedAt: time.Now()}
	require.NoError(t, s.Save(context.Background(), snap))

	got, err := s.Resume(context.Background(), "snap-1")
	require.NoError(t, err)
	require.Equal(t, "snap-1", got.ID)

	_, err = s.Resume(context.Background(), "snap-1")
	require.Error(t, err, "a second Resume of the same snapshot must fail")
}

func TestListExcludesRetiredSnapshots(t *testing.T) {
	s := New()
	res := resource.New("test", "r2")
	require.NoError(t, s.Save(context.Background(), workflow.Snapshot{ID: "a", Resource: res, Context: workflow.NewContext(10), CreatedAt: time.Now()}))
	require.NoError(t, s.Save(context.Background(), workflow.Snapshot{ID: "b", Resource: res, Context: workflow.NewContext(10), CreatedAt: time.Now()}))

	_, err := s.Resume(context.Background(), "a")
	require.NoError(t, err)

	list, err := s.List(context.Background(), res)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "b", list[0].ID)
}

func TestThreadAndMessageLifecycle(t *testing.T) {
	s := New()
	res := resource.New("test", "r3")
	thread, err := s.CreateThread(context.Background(), res, "support ticket")
	require.NoError(t, err)
	require.NotEmpty(t, thread.ID)

	err = s.AppendMessage(context.Background(), thread.ID, storage.ThreadMessage{Role: workflow.RoleUser, Content: "hello"})
	require.NoError(t, err)

	msgs, err := s.ListMessages(context.Background(), thread.ID, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
}

func TestListMessagesOrdersByTimestampWithMessageIDTieBreakAndHonorsLimit(t *testing.T) {
	s := New()
	res := resource.New("test", "r4")
	thread, err := s.CreateThread(context.Background(), res, "ordering")
	require.NoError(t, err)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.AppendMessage(context.Background(), thread.ID, storage.ThreadMessage{ID: "msg-b", Content: "second-tie", CreatedAt: base}))
	require.NoError(t, s.AppendMessage(context.Background(), thread.ID, storage.ThreadMessage{ID: "msg-a", Content: "first-tie", CreatedAt: base}))
	require.NoError(t, s.AppendMessage(context.Background(), thread.ID, storage.ThreadMessage{ID: "msg-z", Content: "earliest", CreatedAt: base.Add(-time.Hour)}))

	all, err := s.ListMessages(context.Background(), thread.ID, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, []string{"earliest", "first-tie", "second-tie"}, []string{all[0].Content, all[1].Content, all[2].Content})

	limited, err := s.ListMessages(context.Background(), thread.ID, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	require.Equal(t, "earliest", limited[0].Content)
	require.Equal(t, "first-tie", limited[1].Content)
}

func TestEvalScoresAreGroupedByRunIDAndCountedInStats(t *testing.T) {
	s := New()
	res := resource.New("test", "r5")
	dataset, err := s.CreateEvalDataset(context.Background(), res, "regression", "")
	require.NoError(t, err)
	caseA, err := s.AddEvalCase(context.Background(), dataset.ID, map[string]any{"q": "a"}, nil)
	require.NoError(t, err)
	caseB, err := s.AddEvalCase(context.Background(), dataset.ID, map[string]any{"q": "b"}, nil)
	require.NoError(t, err)

	_, err = s.RecordEvalScore(context.Background(), res, "run-1", caseA.ID, "accuracy", 1.0, "", "judge")
	require.NoError(t, err)
	_, err = s.RecordEvalScore(context.Background(), res, "run-1", caseB.ID, "accuracy", 0.5, "", "judge")
	require.NoError(t, err)
	_, err = s.RecordEvalScore(context.Background(), res, "run-2", caseA.ID, "accuracy", 0.8, "", "judge")
	require.NoError(t, err)

	run1, err := s.ListEvalScores(context.Background(), "run-1")
	require.NoError(t, err)
	require.Len(t, run1, 2)

	run2, err := s.ListEvalScores(context.Background(), "run-2")
	require.NoError(t, err)
	require.Len(t, run2, 1)

	stats, err := s.Stats(context.Background(), res)
	require.NoError(t, err)
	require.Equal(t, 2, stats.EvalRuns, "eval_runs must equal the number of distinct run_id values")
}
