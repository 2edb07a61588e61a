package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/flowkit/agentcore/corerr"
	"github.com/flowkit/agentcore/resource"
	"github.com/flowkit/agentcore/storage"
)

type threadDoc struct {
	ID        string            `bson:"_id"`
	Namespace string            `bson:"namespace"`
	Name      string            `bson:"name"`
	Title     string            `bson:"title"`
	CreatedAt time.Time         `bson:"created_at"`
	UpdatedAt time.Time         `bson:"updated_at"`
	Metadata  map[string]string `bson:"metadata,omitempty"`
}

// CreateThread implements storage.UnifiedStorage.
func (s *Store) CreateThread(ctx context.Context, res resource.ID, title string) (storage.Thread, error) {
	ctxT, cancel := s.withTimeout(ctx)
	defer cancel()

	now := time.Now().UTC()
	id := primitive.NewObjectID().Hex()
	doc := threadDoc{ID: id, Namespace: res.Namespace, Name: res.Name, Title: title, CreatedAt: now, UpdatedAt: now}
	if _, err := s.threads.InsertOne(ctxT, doc); err != nil {
		return storage.Thread{}, corerr.Wrap(corerr.TransientIO, "mongostore.create_thread", err)
	}
	return storage.Thread{ID: id, Resource: res, Title: title, CreatedAt: now, UpdatedAt: now}, nil
}

// AppendMessage implements storage.UnifiedStorage.
func (s *Store) AppendMessage(ctx context.Context, threadID string, msg storage.ThreadMessage) error {
	ctxT, cancel := s.withTimeout(ctx)
	defer cancel()

	if msg.ID == "" {
		msg.ID = primitive.NewObjectID().Hex()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	doc := bson.M{
		"_id":        msg.ID,
		"thread_id":  threadID,
		"role":       string(msg.Role),
		"content":    msg.Content,
		"created_at": msg.CreatedAt,
	}
	if _, err := s.messages.InsertOne(ctxT, doc); err != nil {
		return corerr.Wrap(corerr.TransientIO, "mongostore.append_message", err)
	}
	_, err := s.threads.UpdateOne(ctxT, bson.M{"_id": threadID}, bson.M{"$set": bson.M{"updated_at": msg.CreatedAt}})
	if err != nil {
		return corerr.Wrap(corerr.TransientIO, "mongostore.touch_thread", err)
	}
	return nil
}

// ListMessages implements storage.UnifiedStorage, returning messages in
// timestamp order with a stable tie-break by message id (spec §4.6
// get_messages(thread_id, limit?)).
func (s *Store) ListMessages(ctx context.Context, threadID string, limit int) ([]storage.ThreadMessage, error) {
	ctxT, cancel := s.withTimeout(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := s.messages.Find(ctxT, bson.M{"thread_id": threadID}, opts)
	if err != nil {
		return nil, corerr.Wrap(corerr.TransientIO, "mongostore.list_messages", err)
	}
	defer cur.Close(ctxT)

	var out []storage.ThreadMessage
	for cur.Next(ctxT) {
		var doc struct {
			ID        string    `bson:"_id"`
			ThreadID  string    `bson:"thread_id"`
			Role      string    `bson:"role"`
			Content   string    `bson:"content"`
			CreatedAt time.Time `bson:"created_at"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, corerr.Wrap(corerr.InvariantViolation, "mongostore.decode_message", err)
		}
		out = append(out, storage.ThreadMessage{
			ID: doc.ID, ThreadID: doc.ThreadID, Content: doc.Content, CreatedAt: doc.CreatedAt,
		})
	}
	return out, cur.Err()
}

// ListThreads implements storage.UnifiedStorage.
func (s *Store) ListThreads(ctx context.Context, res resource.ID) ([]storage.Thread, error) {
	ctxT, cancel := s.withTimeout(ctx)
	defer cancel()

	cur, err := s.threads.Find(ctxT, bson.M{"namespace": res.Namespace, "name": res.Name},
		options.Find().SetSort(bson.M{"created_at": 1}))
	if err != nil {
		return nil, corerr.Wrap(corerr.TransientIO, "mongostore.list_threads", err)
	}
	defer cur.Close(ctxT)

	var out []storage.Thread
	for cur.Next(ctxT) {
		var doc threadDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, corerr.Wrap(corerr.InvariantViolation, "mongostore.decode_thread", err)
		}
		out = append(out, storage.Thread{
			ID: doc.ID, Resource: res, Title: doc.Title,
			CreatedAt: doc.CreatedAt, UpdatedAt: doc.UpdatedAt, Metadata: doc.Metadata,
		})
	}
	return out, cur.Err()
}

// RecordTrace implements storage.UnifiedStorage.
func (s *Store) RecordTrace(ctx context.Context, t storage.Trace) error {
	ctxT, cancel := s.withTimeout(ctx)
	defer cancel()

	if t.ID == "" {
		t.ID = primitive.NewObjectID().Hex()
	}
	doc := bson.M{
		"_id":         t.ID,
		"namespace":   t.Resource.Namespace,
		"name":        t.Resource.Name,
		"workflow_id": t.WorkflowID,
		"step_index":  t.StepIndex,
		"step_name":   t.StepName,
		"decision":    string(t.Decision),
		"started_at":  t.StartedAt,
		"duration_ms": t.DurationMS,
		"error":       t.Error,
	}
	if _, err := s.traces.InsertOne(ctxT, doc); err != nil {
		return corerr.Wrap(corerr.TransientIO, "mongostore.record_trace", err)
	}
	return nil
}

// ListTraces implements storage.UnifiedStorage.
func (s *Store) ListTraces(ctx context.Context, res resource.ID, workflowID string) ([]storage.Trace, error) {
	ctxT, cancel := s.withTimeout(ctx)
	defer cancel()

	filter := bson.M{"namespace": res.Namespace, "name": res.Name}
	if workflowID != "" {
		filter["workflow_id"] = workflowID
	}
	cur, err := s.traces.Find(ctxT, filter, options.Find().SetSort(bson.M{"step_index": 1}))
	if err != nil {
		return nil, corerr.Wrap(corerr.TransientIO, "mongostore.list_traces", err)
	}
	defer cur.Close(ctxT)

	var out []storage.Trace
	for cur.Next(ctxT) {
		var doc struct {
			ID         string    `bson:"_id"`
			WorkflowID string    `bson:"workflow_id"`
			StepIndex  int       `bson:"step_index"`
			StepName   string    `bson:"step_name"`
			Decision   string    `bson:"decision"`
			StartedAt  time.Time `bson:"started_at"`
			DurationMS int64     `bson:"duration_ms"`
			Error      string    `bson:"error"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, corerr.Wrap(corerr.InvariantViolation, "mongostore.decode_trace", err)
		}
		out = append(out, storage.Trace{
			ID: doc.ID, Resource: res, WorkflowID: doc.WorkflowID, StepIndex: doc.StepIndex,
			StepName: doc.StepName, StartedAt: doc.StartedAt, DurationMS: doc.DurationMS, Error: doc.Error,
		})
	}
	return out, cur.Err()
}

// CreateEvalDataset implements storage.UnifiedStorage.
func (s *Store) CreateEvalDataset(ctx context.Context, res resource.ID, name, description string) (storage.EvalDataset, error) {
	ctxT, cancel := s.withTimeout(ctx)
	defer cancel()

	id := primitive.NewObjectID().Hex()
	now := time.Now().UTC()
	doc := bson.M{"_id": id, "namespace": res.Namespace, "name": name, "description": description, "created_at": now}
	if _, err := s.datasets.InsertOne(ctxT, doc); err != nil {
		return storage.EvalDataset{}, corerr.Wrap(corerr.TransientIO, "mongostore.create_dataset", err)
	}
	return storage.EvalDataset{ID: id, Resource: res, Name: name, Description: description, CreatedAt: now}, nil
}

// AddEvalCase implements storage.UnifiedStorage.
func (s *Store) AddEvalCase(ctx context.Context, datasetID string, input, expected map[string]any) (storage.EvalCase, error) {
	ctxT, cancel := s.withTimeout(ctx)
	defer cancel()

	id := primitive.NewObjectID().Hex()
	doc := bson.M{"_id": id, "dataset_id": datasetID, "input": input, "expected": expected}
	if _, err := s.cases.InsertOne(ctxT, doc); err != nil {
		return storage.EvalCase{}, corerr.Wrap(corerr.TransientIO, "mongostore.add_case", err)
	}
	return storage.EvalCase{ID: id, DatasetID: datasetID, Input: input, Expected: expected}, nil
}

// RecordEvalScore implements storage.UnifiedStorage, grouping scores by
// run_id rather than by dataset (spec §3/§4.6).
func (s *Store) RecordEvalScore(ctx context.Context, res resource.ID, runID, itemID, metricName string, score float64, reason, scorerName string) (storage.EvalScore, error) {
	ctxT, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.cases.FindOne(ctxT, bson.M{"_id": itemID}).Err(); err != nil {
		if err == mongodriver.ErrNoDocuments {
			return storage.EvalScore{}, corerr.Newf(corerr.NotFound, "eval case %q not found", itemID)
		}
		return storage.EvalScore{}, corerr.Wrap(corerr.TransientIO, "mongostore.find_case", err)
	}

	id := primitive.NewObjectID().Hex()
	now := time.Now().UTC()
	doc := bson.M{
		"_id": id, "namespace": res.Namespace, "name": res.Name,
		"run_id": runID, "item_id": itemID, "metric_name": metricName,
		"score": score, "reason": reason, "scorer_name": scorerName, "scored_at": now,
	}
	if _, err := s.scores.InsertOne(ctxT, doc); err != nil {
		return storage.EvalScore{}, corerr.Wrap(corerr.TransientIO, "mongostore.record_score", err)
	}
	return storage.EvalScore{
		ID: id, Resource: res, RunID: runID, ItemID: itemID, MetricName: metricName,
		Score: score, Reason: reason, ScorerName: scorerName, ScoredAt: now,
	}, nil
}

// ListEvalScores implements storage.UnifiedStorage (spec §4.6
// get_scores(run_id)).
func (s *Store) ListEvalScores(ctx context.Context, runID string) ([]storage.EvalScore, error) {
	ctxT, cancel := s.withTimeout(ctx)
	defer cancel()

	cur, err := s.scores.Find(ctxT, bson.M{"run_id": runID}, options.Find().SetSort(bson.M{"scored_at": 1}))
	if err != nil {
		return nil, corerr.Wrap(corerr.TransientIO, "mongostore.list_scores", err)
	}
	defer cur.Close(ctxT)

	var out []storage.EvalScore
	for cur.Next(ctxT) {
		var doc struct {
			ID         string    `bson:"_id"`
			Namespace  string    `bson:"namespace"`
			Name       string    `bson:"name"`
			RunID      string    `bson:"run_id"`
			ItemID     string    `bson:"item_id"`
			MetricName string    `bson:"metric_name"`
			Score      float64   `bson:"score"`
			Reason     string    `bson:"reason"`
			ScorerName string    `bson:"scorer_name"`
			ScoredAt   time.Time `bson:"scored_at"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, corerr.Wrap(corerr.InvariantViolation, "mongostore.decode_score", err)
		}
		out = append(out, storage.EvalScore{
			ID:         doc.ID,
			Resource:   resource.ID{Namespace: doc.Namespace, Name: doc.Name},
			RunID:      doc.RunID, ItemID: doc.ItemID, MetricName: doc.MetricName,
			Score: doc.Score, Reason: doc.Reason, ScorerName: doc.ScorerName, ScoredAt: doc.ScoredAt,
		})
	}
	return out, cur.Err()
}

// Stats implements storage.UnifiedStorage.
func (s *Store) Stats(ctx context.Context, res resource.ID) (storage.Stats, error) {
	ctxT, cancel := s.withTimeout(ctx)
	defer cancel()

	filter := bson.M{"namespace": res.Namespace, "name": res.Name}
	snapCount, err := s.snapshots.CountDocuments(ctxT, bson.M{"namespace": res.Namespace, "name": res.Name, "retired": bson.M{"$ne": true}})
	if err != nil {
		return storage.Stats{}, corerr.Wrap(corerr.TransientIO, "mongostore.stats_snapshots", err)
	}
	threadCount, err := s.threads.CountDocuments(ctxT, filter)
	if err != nil {
		return storage.Stats{}, corerr.Wrap(corerr.TransientIO, "mongostore.stats_threads", err)
	}
	traceCount, err := s.traces.CountDocuments(ctxT, filter)
	if err != nil {
		return storage.Stats{}, corerr.Wrap(corerr.TransientIO, "mongostore.stats_traces", err)
	}
	runIDs, err := s.scores.Distinct(ctxT, "run_id", filter)
	if err != nil {
		return storage.Stats{}, corerr.Wrap(corerr.TransientIO, "mongostore.stats_eval_runs", err)
	}
	return storage.Stats{
		SnapshotCount: int(snapCount),
		ThreadCount:   int(threadCount),
		TraceCount:    int(traceCount),
		EvalRuns:      len(runIDs),
	}, nil
}

// ApplyRetention implements storage.UnifiedStorage.
func (s *Store) ApplyRetention(ctx context.Context, policy storage.RetentionPolicy) (map[string]int, error) {
	ctxT, cancel := s.withTimeout(ctx)
	defer cancel()

	removed := map[string]int{"snapshots": 0, "traces": 0, "threads": 0}
	now := time.Now()

	if policy.Snapshots > 0 {
		res, err := s.snapshots.DeleteMany(ctxT, bson.M{"retired": true, "created_at": bson.M{"$lt": now.Add(-policy.Snapshots)}})
		if err != nil {
			return nil, corerr.Wrap(corerr.TransientIO, "mongostore.retention_snapshots", err)
		}
		removed["snapshots"] = int(res.DeletedCount)
	}
	if policy.Traces > 0 {
		res, err := s.traces.DeleteMany(ctxT, bson.M{"started_at": bson.M{"$lt": now.Add(-policy.Traces)}})
		if err != nil {
			return nil, corerr.Wrap(corerr.TransientIO, "mongostore.retention_traces", err)
		}
		removed["traces"] = int(res.DeletedCount)
	}
	if policy.Threads > 0 {
		cutoff := now.Add(-policy.Threads)
		cur, err := s.threads.Find(ctxT, bson.M{"updated_at": bson.M{"$lt": cutoff}})
		if err != nil {
			return nil, corerr.Wrap(corerr.TransientIO, "mongostore.retention_threads_find", err)
		}
		var ids []string
		for cur.Next(ctxT) {
			var doc struct {
				ID string `bson:"_id"`
			}
			if err := cur.Decode(&doc); err == nil {
				ids = append(ids, doc.ID)
			}
		}
		cur.Close(ctxT)
		if len(ids) > 0 {
			if _, err := s.messages.DeleteMany(ctxT, bson.M{"thread_id": bson.M{"$in": ids}}); err != nil {
				return nil, corerr.Wrap(corerr.TransientIO, "mongostore.retention_messages", err)
			}
			res, err := s.threads.DeleteMany(ctxT, bson.M{"_id": bson.M{"$in": ids}})
			if err != nil {
				return nil, corerr.Wrap(corerr.TransientIO, "mongostore.retention_threads", err)
			}
			removed["threads"] = int(res.DeletedCount)
		}
	}
	return removed, nil
}
