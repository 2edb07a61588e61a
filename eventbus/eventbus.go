// Package eventbus implements the in-process event bus that wakes
// suspended workflows waiting on an external event (spec §4.3). Events are
// scoped per workflow and per event type: SendEvent delivers to exactly the
// subscribers registered for (workflowID, eventType), in FIFO order, with a
// bounded per-subscriber buffer that drops the oldest undelivered event
// when full rather than blocking the publisher.
package eventbus

import (
	"context"
	"sync"

	"github.com/flowkit/agentcore/corerr"
)

// DefaultBufferSize bounds the number of undelivered events held per
// subscription before the oldest is dropped (spec §4.3 backpressure policy).
const DefaultBufferSize = 32

// Bus is the in-process event bus. It implements workflow.EventWaiter (see
// Wait) and is called directly by producers via SendEvent.
type Bus struct {
	mu          sync.Mutex
	bufferSize  int
	subscribers map[string][]*subscription
}

type subscription struct {
	ch     chan any
	closed bool
}

// New constructs an empty Bus. bufferSize, if <= 0, defaults to
// DefaultBufferSize.
func New(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Bus{bufferSize: bufferSize, subscribers: make(map[string][]*subscription)}
}

func key(workflowID, eventType string) string { return workflowID + "\x00" + eventType }

// Subscribe registers interest in events of eventType for workflowID,
// returning a channel that receives payloads in send order and an unsub
// function that must be called when the caller is done listening.
func (b *Bus) Subscribe(workflowID, eventType string) (<-chan any, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub := &subscription{ch: make(chan any, b.bufferSize)}
	k := key(workflowID, eventType)
	b.subscribers[k] = append(b.subscribers[k], sub)
	unsub := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subscribers[k]
		for i, s := range subs {
			if s == sub {
				b.subscribers[k] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		if !sub.closed {
			sub.closed = true
			close(sub.ch)
		}
	}
	return sub.ch, unsub
}

// SendEvent delivers payload to every subscriber of (workflowID, eventType).
// If a subscriber's buffer is full, the oldest buffered payload is dropped
// to make room, so SendEvent never blocks.
func (b *Bus) SendEvent(workflowID, eventType string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subscribers[key(workflowID, eventType)] {
		for {
			select {
			case sub.ch <- payload:
			default:
				select {
				case <-sub.ch:
				default:
				}
				continue
			}
			break
		}
	}
}

// Wait blocks until an event of eventType is delivered for workflowID, ctx
// is cancelled, or timeoutMS (if non-zero) elapses. It implements
// workflow.EventWaiter.
func (b *Bus) Wait(ctx context.Context, workflowID, eventType string, timeoutMS int64) (any, error) {
	ch, unsub := b.Subscribe(workflowID, eventType)
	defer unsub()

	if timeoutMS <= 0 {
		select {
		case payload, ok := <-ch:
			if !ok {
				return nil, corerr.New(corerr.Cancelled, "event subscription closed")
			}
			return payload, nil
		case <-ctx.Done():
			return nil, corerr.Wrap(corerr.Cancelled, "eventbus.wait", ctx.Err())
		}
	}

	timer := newTimer(timeoutMS)
	defer timer.Stop()
	select {
	case payload, ok := <-ch:
		if !ok {
			return nil, corerr.New(corerr.Cancelled, "event subscription closed")
		}
		return payload, nil
	case <-timer.C:
		return nil, corerr.Newf(corerr.TransientIO, "timed out after %dms waiting for event %q", timeoutMS, eventType)
	case <-ctx.Done():
		return nil, corerr.Wrap(corerr.Cancelled, "eventbus.wait", ctx.Err())
	}
}
