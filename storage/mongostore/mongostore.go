// Package mongostore implements storage.UnifiedStorage against MongoDB,
// grounded on the teacher's features/session/mongo Store+Client layering.
// Because UnifiedStorage has only this one durable backend in scope, the
// Store/Client split collapses into a single type here; the thin-delegation
// shape is preserved in spirit by keeping every method a short translation
// to a bson.Collection call.
package mongostore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/flowkit/agentcore/corerr"
	"github.com/flowkit/agentcore/resource"
	"github.com/flowkit/agentcore/storage"
	"github.com/flowkit/agentcore/workflow"
)

const (
	defaultSnapshotsCollection = "agentcore_snapshots"
	defaultThreadsCollection   = "agentcore_threads"
	defaultMessagesCollection  = "agentcore_messages"
	defaultTracesCollection    = "agentcore_traces"
	defaultDatasetsCollection  = "agentcore_eval_datasets"
	defaultCasesCollection     = "agentcore_eval_cases"
	defaultScoresCollection    = "agentcore_eval_scores"
	defaultOpTimeout           = 5 * time.Second
)

// Options configures Store.
type Options struct {
	Client   *mongodriver.Client
	Database string
	Timeout  time.Duration
}

// Store implements storage.UnifiedStorage against MongoDB collections.
type Store struct {
	snapshots *mongodriver.Collection
	threads   *mongodriver.Collection
	messages  *mongodriver.Collection
	traces    *mongodriver.Collection
	datasets  *mongodriver.Collection
	cases     *mongodriver.Collection
	scores    *mongodriver.Collection
	timeout   time.Duration
}

// New returns a Store backed by MongoDB.
func New(opts Options) (*Store, error) {
	if opts.Client == nil {
		return nil, errors.New("mongo client is required")
	}
	if opts.Database == "" {
		return nil, errors.New("database name is required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultOpTimeout
	}
	db := opts.Client.Database(opts.Database)
	return &Store{
		snapshots: db.Collection(defaultSnapshotsCollection),
		threads:   db.Collection(defaultThreadsCollection),
		messages:  db.Collection(defaultMessagesCollection),
		traces:    db.Collection(defaultTracesCollection),
		datasets:  db.Collection(defaultDatasetsCollection),
		cases:     db.Collection(defaultCasesCollection),
		scores:    db.Collection(defaultScoresCollection),
		timeout:   timeout,
	}, nil
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, s.timeout)
}

type snapshotDoc struct {
	ID         string          `bson:"_id"`
	Namespace  string          `bson:"namespace"`
	Name       string          `bson:"name"`
	StepIndex  int             `bson:"step_index"`
	ContextRaw bson.Raw        `bson:"context"`
	ReasonKind string          `bson:"reason_kind"`
	EventID    string          `bson:"event_id,omitempty"`
	At         time.Time       `bson:"at,omitempty"`
	DurationMS int64           `bson:"duration_ms,omitempty"`
	CreatedAt  time.Time       `bson:"created_at"`
	Retired    bool            `bson:"retired"`
}

// Save implements workflow.SnapshotStore.
func (s *Store) Save(ctx context.Context, snap workflow.Snapshot) error {
	ctxT, cancel := s.withTimeout(ctx)
	defer cancel()

	raw, err := bson.Marshal(snap.Context)
	if err != nil {
		return corerr.Wrap(corerr.InvariantViolation, "mongostore.marshal_context", err)
	}
	doc := snapshotDoc{
		ID:         snap.ID,
		Namespace:  snap.Resource.Namespace,
		Name:       snap.Resource.Name,
		StepIndex:  snap.StepIndex,
		ContextRaw: raw,
		ReasonKind: string(snap.Reason.Kind),
		EventID:    snap.Reason.EventID,
		At:         snap.Reason.At,
		DurationMS: snap.Reason.DurationMS,
		CreatedAt:  snap.CreatedAt,
		Retired:    snap.Retired,
	}
	_, err = s.snapshots.ReplaceOne(ctxT, bson.M{"_id": snap.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return corerr.Wrap(corerr.TransientIO, "mongostore.save_snapshot", err)
	}
	return nil
}

// Resume implements workflow.SnapshotStore. It uses FindOneAndUpdate with
// an unretired filter so concurrent Resume calls for the same id race on a
// single atomic write: only one observes matched+modified (spec §8
// "Atomic resume").
func (s *Store) Resume(ctx context.Context, id string) (workflow.Snapshot, error) {
	ctxT, cancel := s.withTimeout(ctx)
	defer cancel()

	var doc snapshotDoc
	err := s.snapshots.FindOneAndUpdate(
		ctxT,
		bson.M{"_id": id, "retired": bson.M{"$ne": true}},
		bson.M{"$set": bson.M{"retired": true}},
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return workflow.Snapshot{}, corerr.Newf(corerr.NotFound, "snapshot %q not found or already resumed", id)
		}
		return workflow.Snapshot{}, corerr.Wrap(corerr.TransientIO, "mongostore.resume", err)
	}
	return docToSnapshot(doc)
}

// List implements workflow.SnapshotStore.
func (s *Store) List(ctx context.Context, res resource.ID) ([]workflow.Snapshot, error) {
	ctxT, cancel := s.withTimeout(ctx)
	defer cancel()

	cur, err := s.snapshots.Find(ctxT, bson.M{
		"namespace": res.Namespace,
		"name":      res.Name,
		"retired":   bson.M{"$ne": true},
	}, options.Find().SetSort(bson.M{"created_at": 1}))
	if err != nil {
		return nil, corerr.Wrap(corerr.TransientIO, "mongostore.list_snapshots", err)
	}
	defer cur.Close(ctxT)

	var out []workflow.Snapshot
	for cur.Next(ctxT) {
		var doc snapshotDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, corerr.Wrap(corerr.InvariantViolation, "mongostore.decode_snapshot", err)
		}
		snap, err := docToSnapshot(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, cur.Err()
}

// Cleanup implements workflow.SnapshotStore.
func (s *Store) Cleanup(ctx context.Context, olderThan time.Time) (int, error) {
	ctxT, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.snapshots.DeleteMany(ctxT, bson.M{
		"retired":    true,
		"created_at": bson.M{"$lt": olderThan},
	})
	if err != nil {
		return 0, corerr.Wrap(corerr.TransientIO, "mongostore.cleanup", err)
	}
	return int(res.DeletedCount), nil
}

func docToSnapshot(doc snapshotDoc) (workflow.Snapshot, error) {
	var wc workflow.Context
	if len(doc.ContextRaw) > 0 {
		if err := bson.Unmarshal(doc.ContextRaw, &wc); err != nil {
			return workflow.Snapshot{}, corerr.Wrap(corerr.InvariantViolation, "mongostore.unmarshal_context", err)
		}
	}
	return workflow.Snapshot{
		ID:        doc.ID,
		Resource:  resource.New(doc.Namespace, doc.Name),
		StepIndex: doc.StepIndex,
		Context:   &wc,
		Reason: workflow.ResumeCondition{
			Kind:       workflow.SuspendReasonKind(doc.ReasonKind),
			EventID:    doc.EventID,
			At:         doc.At,
			DurationMS: doc.DurationMS,
		},
		CreatedAt: doc.CreatedAt,
		Retired:   doc.Retired,
	}, nil
}
