package messaging

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"collegium/internal/shared/events"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestBusDeliversToSubscribers(t *testing.T) {
	bus := NewBus(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())

	var mu sync.Mutex
	received := map[string][]string{}
	done := make(chan struct{}, 2)
	record := func(group string) func(context.Context, events.Envelope) error {
		return func(_ context.Context, event events.Envelope) error {
			mu.Lock()
			received[group] = append(received[group], event.EventID)
			mu.Unlock()
			done <- struct{}{}
			return nil
		}
	}

	if err := bus.Subscribe(ctx, "decision.fixed", "cg-a", record("cg-a")); err != nil {
		t.Fatalf("subscribe cg-a failed: %v", err)
	}
	if err := bus.Subscribe(ctx, "decision.fixed", "cg-b", record("cg-b")); err != nil {
		t.Fatalf("subscribe cg-b failed: %v", err)
	}

	if err := bus.Publish(ctx, "decision.fixed", events.Envelope{EventID: "event-1", EventType: "decision.fixed"}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for delivery %d", i+1)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	for _, group := range []string{"cg-a", "cg-b"} {
		if len(received[group]) != 1 || received[group][0] != "event-1" {
			t.Fatalf("group %s received %v", group, received[group])
		}
	}

	cancel()
	bus.Wait()
}

func TestBusIgnoresUnrelatedTopics(t *testing.T) {
	bus := NewBus(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())

	delivered := make(chan string, 2)
	if err := bus.Subscribe(ctx, "round.opened", "cg", func(_ context.Context, event events.Envelope) error {
		delivered <- event.EventID
		return nil
	}); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	if err := bus.Publish(ctx, "vote.cast", events.Envelope{EventID: "event-other"}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if err := bus.Publish(ctx, "round.opened", events.Envelope{EventID: "event-match"}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	select {
	case id := <-delivered:
		if id != "event-match" {
			t.Fatalf("received %s, want event-match", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for matching topic")
	}
	select {
	case id := <-delivered:
		t.Fatalf("unexpected delivery %s", id)
	case <-time.After(50 * time.Millisecond):
	}

	cancel()
	bus.Wait()
}
