package core

import (
	"context"
	"sync"
	"testing"
	"time"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// recorderHandle collects delivered messages.
type recorderHandle struct {
	mu   sync.Mutex
	msgs []*Message
}

func (r *recorderHandle) Deliver(_ context.Context, msg *Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return nil
}

func (r *recorderHandle) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

// stuckHandle never accepts a delivery; it waits out the caller's deadline.
type stuckHandle struct{}

func (stuckHandle) Deliver(ctx context.Context, _ *Message) error {
	<-ctx.Done()
	return ctx.Err()
}
