package broadcast

import (
	"io"
	"log/slog"
	"testing"
)

func newTestHub(buffer int) *Hub {
	return NewHub(buffer, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHub_PublishReachesSubscribers(t *testing.T) {
	hub := newTestHub(4)
	defer hub.Close()

	first, cancelFirst := hub.Subscribe("event-001")
	defer cancelFirst()
	second, cancelSecond := hub.Subscribe("event-001")
	defer cancelSecond()
	other, cancelOther := hub.Subscribe("event-002")
	defer cancelOther()

	hub.Publish("event-001", "round-start")

	for name, ch := range map[string]<-chan any{"first": first, "second": second} {
		select {
		case msg := <-ch:
			if msg != "round-start" {
				t.Fatalf("%s subscriber received %v", name, msg)
			}
		default:
			t.Fatalf("%s subscriber received nothing", name)
		}
	}

	select {
	case msg := <-other:
		t.Fatalf("subscriber of another event received %v", msg)
	default:
	}
}

func TestHub_CancelClosesStream(t *testing.T) {
	hub := newTestHub(4)
	defer hub.Close()

	ch, cancel := hub.Subscribe("event-001")
	if hub.SubscriberCount("event-001") != 1 {
		t.Fatalf("expected one subscriber, got %d", hub.SubscriberCount("event-001"))
	}

	cancel()
	if _, open := <-ch; open {
		t.Fatalf("expected the stream to be closed")
	}
	if hub.SubscriberCount("event-001") != 0 {
		t.Fatalf("subscriber not removed after cancel")
	}

	// A second cancel must be a no-op.
	cancel()

	hub.Publish("event-001", "after-cancel")
}

func TestHub_PublishNeverBlocks(t *testing.T) {
	hub := newTestHub(1)
	defer hub.Close()

	ch, cancel := hub.Subscribe("event-001")
	defer cancel()

	hub.Publish("event-001", "kept")
	hub.Publish("event-001", "dropped")

	if msg := <-ch; msg != "kept" {
		t.Fatalf("expected the first message, got %v", msg)
	}
	select {
	case msg := <-ch:
		t.Fatalf("expected the overflow message to be dropped, got %v", msg)
	default:
	}
}

func TestHub_CloseTerminatesEverything(t *testing.T) {
	hub := newTestHub(4)

	first, _ := hub.Subscribe("event-001")
	second, _ := hub.Subscribe("event-002")

	hub.Close()

	for name, ch := range map[string]<-chan any{"first": first, "second": second} {
		if _, open := <-ch; open {
			t.Fatalf("%s stream still open after Close", name)
		}
	}

	// Activity after Close must not panic.
	hub.Publish("event-001", "late")
	late, cancel := hub.Subscribe("event-001")
	cancel()
	if _, open := <-late; open {
		t.Fatalf("subscription after Close must return a closed stream")
	}
	hub.Close()
}
