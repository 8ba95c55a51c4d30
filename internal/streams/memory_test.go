package streams

import (
	"context"
	"testing"
	"time"

	"github.com/jimdaga/nextrend/internal/generation"
)

func collect(t *testing.T, ch <-chan Event) []Event {
	t.Helper()
	var got []Event
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return got
			}
			got = append(got, ev)
		case <-timeout:
			t.Fatalf("timed out after %d events", len(got))
		}
	}
}

func TestMemoryBrokerReplaysThenFollows(t *testing.T) {
	b := NewMemoryBroker()
	ctx := context.Background()

	b.Publish(ctx, "b1", SlotEvent(generation.Update{Index: 0, Status: generation.StatusGenerating}))
	b.Publish(ctx, "b1", SlotEvent(generation.Update{Index: 0, Status: generation.StatusDone, Content: "hi"}))

	ch, err := b.Subscribe(ctx, "b1")
	if err != nil {
		t.Fatal(err)
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		b.Publish(ctx, "b1", SlotEvent(generation.Update{Index: 1, Status: generation.StatusDone}))
		b.Publish(ctx, "b1", DoneEvent())
		b.Publish(ctx, "b1", SlotEvent(generation.Update{Index: 2}))
	}()

	got := collect(t, ch)
	if len(got) != 4 {
		t.Fatalf("expected 4 events up to done, got %d", len(got))
	}
	if got[1].Update.Content != "hi" {
		t.Errorf("expected replayed content, got %q", got[1].Update.Content)
	}
	if got[3].Kind != EventDone {
		t.Errorf("expected done last, got %s", got[3].Kind)
	}
}

func TestMemoryBrokerSubscribersAreIndependent(t *testing.T) {
	b := NewMemoryBroker()
	ctx := context.Background()

	a, _ := b.Subscribe(ctx, "b1")
	c, _ := b.Subscribe(ctx, "b1")
	other, _ := b.Subscribe(ctx, "b2")

	b.Publish(ctx, "b1", ErrorEvent("Content generation failed. Please try again."))

	for _, ch := range []<-chan Event{a, c} {
		got := collect(t, ch)
		if len(got) != 1 || got[0].Kind != EventError {
			t.Errorf("expected a single error event, got %+v", got)
		}
	}

	select {
	case ev := <-other:
		t.Errorf("expected nothing on another batch, got %+v", ev)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestMemoryBrokerStopsOnCancel(t *testing.T) {
	b := NewMemoryBroker()
	ctx, cancel := context.WithCancel(context.Background())

	ch, _ := b.Subscribe(ctx, "b1")
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Errorf("expected channel to close without events")
		}
	case <-time.After(time.Second):
		t.Fatal("subscription did not close after cancel")
	}
}

func TestMemoryBrokerDropsUnpublishedTopic(t *testing.T) {
	b := NewMemoryBroker()
	ctx, cancel := context.WithCancel(context.Background())

	ch, _ := b.Subscribe(ctx, "expired-batch")
	if b.Len() != 1 {
		t.Fatalf("expected topic while subscribed, got %d", b.Len())
	}
	cancel()
	for range ch {
	}

	deadline := time.Now().Add(time.Second)
	for b.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if b.Len() != 0 {
		t.Errorf("expected unpublished topic removed, got %d topics", b.Len())
	}
}

func TestMemoryBrokerSubscribeBeforePublish(t *testing.T) {
	b := NewMemoryBroker()
	ch, _ := b.Subscribe(context.Background(), "b1")

	b.Publish(context.Background(), "b1", DoneEvent())

	select {
	case ev, ok := <-ch:
		if !ok || ev.Kind != EventDone {
			t.Errorf("expected done event, got %+v (open=%t)", ev, ok)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber missed the event published after it joined")
	}
	if b.Len() != 1 {
		t.Errorf("expected published topic kept until its TTL, got %d", b.Len())
	}
}
