// Package redisbus provides a cross-process implementation of
// workflow.EventWaiter backed by Redis Streams, for deployments where the
// process suspending a run is not the process that later delivers the
// event (spec §4.3). It mirrors the envelope/options shape of the
// teacher's Pulse sink but talks to Redis directly via go-redis rather
// than through an internal client wrapper.
package redisbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/flowkit/agentcore/corerr"
)

// Envelope wraps an event payload for transmission over a Redis stream.
type Envelope struct {
	WorkflowID string    `json:"workflow_id"`
	EventType  string    `json:"event_type"`
	Payload    any       `json:"payload"`
	SentAt     time.Time `json:"sent_at"`
}

// Options configures a Bus.
type Options struct {
	// Client is the Redis client used for XAdd/XRead. Required.
	Client *redis.Client
	// StreamName derives the Redis stream key for a (workflowID, eventType)
	// pair. Defaults to "agentcore:events:<workflowID>:<eventType>".
	StreamName func(workflowID, eventType string) string
	// ReadBlock bounds how long a single XRead call blocks before retrying;
	// Wait loops XRead calls until timeoutMS elapses or ctx is cancelled.
	// Defaults to 2s.
	ReadBlock time.Duration
}

// Bus is a Redis Streams-backed event bus.
type Bus struct {
	client     *redis.Client
	streamName func(string, string) string
	readBlock  time.Duration
}

// New constructs a Bus from opts.
func New(opts Options) (*Bus, error) {
	if opts.Client == nil {
		return nil, corerr.New(corerr.Config, "redisbus: Client is required")
	}
	name := opts.StreamName
	if name == nil {
		name = func(workflowID, eventType string) string {
			return fmt.Sprintf("agentcore:events:%s:%s", workflowID, eventType)
		}
	}
	block := opts.ReadBlock
	if block <= 0 {
		block = 2 * time.Second
	}
	return &Bus{client: opts.Client, streamName: name, readBlock: block}, nil
}

// SendEvent publishes payload as an entry on the stream for (workflowID,
// eventType).
func (b *Bus) SendEvent(ctx context.Context, workflowID, eventType string, payload any) error {
	env := Envelope{WorkflowID: workflowID, EventType: eventType, Payload: payload, SentAt: time.Now()}
	raw, err := json.Marshal(env)
	if err != nil {
		return corerr.Wrap(corerr.InvariantViolation, "redisbus.marshal", err)
	}
	stream := b.streamName(workflowID, eventType)
	if err := b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{"envelope": raw},
	}).Err(); err != nil {
		return corerr.Wrap(corerr.TransientIO, "redisbus.xadd", err)
	}
	return nil
}

// Wait implements workflow.EventWaiter by polling XRead from the tail of
// the stream (entries older than the wait start are ignored) until an
// entry arrives, ctx is cancelled, or timeoutMS elapses.
func (b *Bus) Wait(ctx context.Context, workflowID, eventType string, timeoutMS int64) (any, error) {
	stream := b.streamName(workflowID, eventType)
	lastID := "$"

	deadline := time.Time{}
	if timeoutMS > 0 {
		deadline = time.Now().Add(time.Duration(timeoutMS) * time.Millisecond)
	}

	for {
		if !deadline.IsZero() && time.Now().After(deadline) {
			return nil, corerr.Newf(corerr.TransientIO, "timed out after %dms waiting for event %q", timeoutMS, eventType)
		}
		select {
		case <-ctx.Done():
			return nil, corerr.Wrap(corerr.Cancelled, "redisbus.wait", ctx.Err())
		default:
		}

		res, err := b.client.XRead(ctx, &redis.XReadArgs{
			Streams: []string{stream, lastID},
			Block:   b.readBlock,
			Count:   1,
		}).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, corerr.Wrap(corerr.Cancelled, "redisbus.wait", ctx.Err())
			}
			return nil, corerr.Wrap(corerr.TransientIO, "redisbus.xread", err)
		}
		for _, s := range res {
			for _, msg := range s.Messages {
				lastID = msg.ID
				raw, ok := msg.Values["envelope"].(string)
				if !ok {
					continue
				}
				var env Envelope
				if err := json.Unmarshal([]byte(raw), &env); err != nil {
					return nil, corerr.Wrap(corerr.InvariantViolation, "redisbus.unmarshal", err)
				}
				return env.Payload, nil
			}
		}
	}
}
