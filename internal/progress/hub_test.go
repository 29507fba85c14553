package progress

import (
	"testing"
)

func TestHubPublishReachesSessionSubscribers(t *testing.T) {
	hub := NewHub(nil)
	events, cancel := hub.Subscribe("sess-1")
	defer cancel()

	otherEvents, otherCancel := hub.Subscribe("sess-2")
	defer otherCancel()

	hub.Publish("sess-1", Event{Type: "chunk", Chunk: 1, Total: 3})

	select {
	case ev := <-events:
		if ev.Type != "chunk" || ev.Chunk != 1 || ev.Total != 3 {
			t.Fatalf("unexpected event: %+v", ev)
		}
	default:
		t.Fatal("expected an event for sess-1")
	}

	select {
	case ev := <-otherEvents:
		t.Fatalf("sess-2 received sess-1 event: %+v", ev)
	default:
	}
}

func TestHubPublishWithoutSubscribersIsSafe(t *testing.T) {
	hub := NewHub(nil)
	hub.Publish("nobody", Event{Type: "chunk"})
}

func TestHubSlowSubscriberDropsEvents(t *testing.T) {
	hub := NewHub(nil)
	events, cancel := hub.Subscribe("sess-1")
	defer cancel()

	for i := 0; i < 100; i++ {
		hub.Publish("sess-1", Event{Type: "chunk", Chunk: i})
	}

	// Buffer is bounded; publishing never blocked and extra events were dropped.
	count := 0
	for {
		select {
		case <-events:
			count++
			continue
		default:
		}
		break
	}
	if count == 0 || count > 16 {
		t.Fatalf("unexpected buffered event count: %d", count)
	}
}

func TestHubCancelClosesChannel(t *testing.T) {
	hub := NewHub(nil)
	events, cancel := hub.Subscribe("sess-1")

	cancel()
	cancel() // idempotent

	if _, ok := <-events; ok {
		t.Fatal("expected closed channel after cancel")
	}

	hub.Publish("sess-1", Event{Type: "chunk"})
}
