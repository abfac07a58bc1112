package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	defaultDeliveryTimeout     = 3 * time.Second
	defaultDeliveryConcurrency = 32
)

// Dispatcher performs fan-out delivery with per-recipient outcomes.
// Deliveries are independent: one recipient failing, timing out, or being
// unreachable never blocks or rolls back the others.
type Dispatcher struct {
	registry    *Registry
	resolver    *Resolver
	timeout     time.Duration
	concurrency int
}

func newDispatcher(registry *Registry, resolver *Resolver, timeout time.Duration, concurrency int) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultDeliveryTimeout
	}
	if concurrency <= 0 {
		concurrency = defaultDeliveryConcurrency
	}
	return &Dispatcher{
		registry:    registry,
		resolver:    resolver,
		timeout:     timeout,
		concurrency: concurrency,
	}
}

// Dispatch resolves the destination, removes the sender from the effective
// set, and scatters independent delivery attempts. The sender, when part of
// the resolved set, is still reported as Skipped(self) so callers can tell
// exclusion-by-design from failure. Resolution errors abort the dispatch;
// delivery errors never do.
func (d *Dispatcher) Dispatch(ctx context.Context, msg *Message) (DeliveryReport, error) {
	recipients, err := d.resolver.Resolve(msg)
	if err != nil {
		return nil, err
	}

	// Partition the sender out before the scatter starts so the self-skip
	// write never shares the map with a delivery goroutine.
	report := make(DeliveryReport, len(recipients))
	targets := make([]string, 0, len(recipients))
	for name := range recipients {
		if name == msg.Sender {
			report[name] = Skipped(ReasonSelf)
			continue
		}
		targets = append(targets, name)
	}

	var mu sync.Mutex

	g := new(errgroup.Group)
	g.SetLimit(d.concurrency)

	for _, name := range targets {
		g.Go(func() error {
			out := d.deliver(ctx, name, msg)
			mu.Lock()
			report[name] = out
			mu.Unlock()
			return nil
		})
	}

	// Goroutines never return errors; Wait only joins the scatter.
	_ = g.Wait()
	return report, nil
}

// deliver attempts one bounded delivery.
func (d *Dispatcher) deliver(ctx context.Context, recipient string, msg *Message) DeliveryOutcome {
	handle, ok := d.registry.Lookup(recipient)
	if !ok {
		return Failed(ReasonUnreachable)
	}

	dctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := handle.Deliver(dctx, msg); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Failed(ReasonTimeout)
		}
		return Failed(ReasonUnreachable)
	}
	return Delivered()
}
