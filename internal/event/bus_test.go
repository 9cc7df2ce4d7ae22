package event

import (
	"context"
	"strings"
	"testing"
	"time"

	"commander/internal/metrics"
)

func receiveEvent[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case value, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed before event arrived")
		}
		return value
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for event")
	}
	var zero T
	return zero
}

func TestBusPublishReachesSubscriber(t *testing.T) {
	bus := NewBus[TerminalEvent](context.Background(), BusOptions{Name: "terminal", Registry: &metrics.Registry{}})
	defer bus.Close()

	ch, cancel := bus.Subscribe()
	defer cancel()

	bus.Publish(NewTerminalOutput("session-1", []byte("hello")))

	got := receiveEvent(t, ch)
	if got.SessionID != "session-1" {
		t.Fatalf("session id = %q, want %q", got.SessionID, "session-1")
	}
	if string(got.Data) != "hello" {
		t.Fatalf("data = %q, want %q", got.Data, "hello")
	}
}

func TestBusSubscribeFiltered(t *testing.T) {
	bus := NewBus[WatchEvent](context.Background(), BusOptions{Name: "watch", Registry: &metrics.Registry{}})
	defer bus.Close()

	ch, cancel := bus.SubscribeFiltered(func(ev WatchEvent) bool {
		return strings.Contains(ev.Path, "plans")
	})
	defer cancel()

	bus.Publish(NewWatchEvent(TasksChanged, "/home/u/tasks/list.json"))
	bus.Publish(NewWatchEvent(PlansChanged, "/home/u/plans/sprint.md"))

	got := receiveEvent(t, ch)
	if got.EventType != PlansChanged {
		t.Fatalf("event type = %q, want %q", got.EventType, PlansChanged)
	}
}

func TestBusSubscribeTypes(t *testing.T) {
	bus := NewBus[TerminalEvent](context.Background(), BusOptions{Name: "terminal", Registry: &metrics.Registry{}})
	defer bus.Close()

	ch, cancel := bus.SubscribeTypes(TerminalExit)
	defer cancel()

	bus.Publish(NewTerminalOutput("session-2", []byte("ignored")))
	bus.Publish(NewTerminalExit("session-2"))

	got := receiveEvent(t, ch)
	if got.EventType != TerminalExit {
		t.Fatalf("event type = %q, want %q", got.EventType, TerminalExit)
	}
}

func TestBusDropsWhenSubscriberFull(t *testing.T) {
	registry := &metrics.Registry{}
	bus := NewBus[TerminalEvent](context.Background(), BusOptions{
		Name:                 "terminal",
		SubscriberBufferSize: 1,
		Registry:             registry,
	})
	defer bus.Close()

	_, cancel := bus.Subscribe()
	defer cancel()

	bus.Publish(NewTerminalOutput("s", []byte("first")))
	bus.Publish(NewTerminalOutput("s", []byte("second")))

	var out strings.Builder
	if err := registry.WritePrometheus(&out); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	if !strings.Contains(out.String(), `commander_events_dropped_total{bus="terminal"} 1`) {
		t.Fatalf("expected one dropped event, metrics:\n%s", out.String())
	}
}

func TestBusCancelClosesChannel(t *testing.T) {
	bus := NewBus[WatchEvent](context.Background(), BusOptions{Name: "watch", Registry: &metrics.Registry{}})
	defer bus.Close()

	ch, cancel := bus.Subscribe()
	if bus.SubscriberCount() != 1 {
		t.Fatalf("subscriber count = %d, want 1", bus.SubscriberCount())
	}

	cancel()

	if bus.SubscriberCount() != 0 {
		t.Fatalf("subscriber count after cancel = %d, want 0", bus.SubscriberCount())
	}
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel to be closed after cancel")
	}
}

func TestBusCloseStopsDelivery(t *testing.T) {
	bus := NewBus[WatchEvent](context.Background(), BusOptions{Name: "watch", Registry: &metrics.Registry{}})

	ch, cancel := bus.Subscribe()
	defer cancel()

	bus.Close()
	bus.Publish(NewWatchEvent(ProjectsStale, ""))

	if _, ok := <-ch; ok {
		t.Fatalf("expected closed channel after bus close")
	}
}

func TestBusMaxSubscribers(t *testing.T) {
	bus := NewBus[WatchEvent](context.Background(), BusOptions{Name: "watch", MaxSubscribers: 1, Registry: &metrics.Registry{}})
	defer bus.Close()

	_, cancelFirst := bus.Subscribe()
	defer cancelFirst()

	ch, cancelSecond := bus.Subscribe()
	defer cancelSecond()

	if _, ok := <-ch; ok {
		t.Fatalf("expected rejected subscriber to get a closed channel")
	}
	if bus.SubscriberCount() != 1 {
		t.Fatalf("subscriber count = %d, want 1", bus.SubscriberCount())
	}
}
