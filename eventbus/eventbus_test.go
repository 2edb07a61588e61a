package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSendEventDeliversToSubscriber(t *testing.T) {
	b := New(4)
	ch, unsub := b.Subscribe("wf-1", "approved")
	defer unsub()

	b.SendEvent("wf-1", "approved", map[string]any{"ok": true})

	select {
	case payload := <-ch:
		require.Equal(t, map[string]any{"ok": true}, payload)
	case <-time.After(time.Second):
		t.Fatal("expected delivery within timeout")
	}
}

func TestSendEventScopedToWorkflowAndType(t *testing.T) {
	b := New(4)
	ch, unsub := b.Subscribe("wf-1", "approved")
	defer unsub()

	b.SendEvent("wf-2", "approved", "wrong workflow")
	b.SendEvent("wf-1", "rejected", "wrong type")

	select {
	case <-ch:
		t.Fatal("subscriber should not have received an event for a different workflow/type")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestWaitTimesOutWithoutDelivery(t *testing.T) {
	b := New(4)
	_, err := b.Wait(context.Background(), "wf-1", "never", 20)
	require.Error(t, err)
}

func TestWaitReturnsDeliveredPayload(t *testing.T) {
	b := New(4)
	done := make(chan struct{})
	go func() {
		time.Sleep(10 * time.Millisecond)
		b.SendEvent("wf-1", "approved", "payload")
		close(done)
	}()

	payload, err := b.Wait(context.Background(), "wf-1", "approved", 0)
	require.NoError(t, err)
	require.Equal(t, "payload", payload)
	<-done
}
