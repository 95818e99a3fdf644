package sse

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/climatehub/collab-backend/internal/platform/logger"
	"github.com/climatehub/collab-backend/internal/realtime"
)

func testHub(t *testing.T) *Hub {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return NewHub(log)
}

func msgFor(topic, kind string) realtime.Message {
	return realtime.Message{
		Topic:           topic,
		Kind:            kind,
		UserID:          uuid.New(),
		Payload:         json.RawMessage(`{}`),
		ServerTimestamp: time.Now().UTC(),
	}
}

func TestHubBroadcastReachesTopicSubscribers(t *testing.T) {
	hub := testHub(t)

	a := hub.NewClient(uuid.New())
	b := hub.NewClient(uuid.New())
	c := hub.NewClient(uuid.New())

	hub.AddTopic(a, "collab:s1")
	hub.AddTopic(b, "collab:s1")
	hub.AddTopic(c, "collab:s2")

	hub.Broadcast(msgFor("collab:s1", "zoom"))

	for _, cl := range []*Client{a, b} {
		select {
		case got := <-cl.Outbound:
			if got.Kind != "zoom" {
				t.Fatalf("unexpected kind %s", got.Kind)
			}
		default:
			t.Fatalf("expected delivery to subscriber")
		}
	}
	select {
	case <-c.Outbound:
		t.Fatalf("client on another topic must not receive")
	default:
	}
}

func TestHubRemoveTopicStopsDelivery(t *testing.T) {
	hub := testHub(t)
	cl := hub.NewClient(uuid.New())

	hub.AddTopic(cl, "collab:s1")
	hub.RemoveTopic(cl, "collab:s1")
	hub.Broadcast(msgFor("collab:s1", "pan"))

	select {
	case <-cl.Outbound:
		t.Fatalf("unsubscribed client must not receive")
	default:
	}
	if hub.SubscriberCount("collab:s1") != 0 {
		t.Fatalf("expected empty topic to be dropped")
	}
}

func TestHubSlowClientDoesNotBlock(t *testing.T) {
	hub := testHub(t)
	slow := hub.NewClient(uuid.New())
	hub.AddTopic(slow, "collab:s1")

	// Fill the outbound buffer and keep going; Broadcast must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < cap(slow.Outbound)+10; i++ {
			hub.Broadcast(msgFor("collab:s1", "cursor_move"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Broadcast blocked on a slow client")
	}
	if len(slow.Outbound) != cap(slow.Outbound) {
		t.Fatalf("expected full buffer, got %d", len(slow.Outbound))
	}
}

func TestHubCloseClientRemovesSubscriptions(t *testing.T) {
	hub := testHub(t)
	cl := hub.NewClient(uuid.New())
	hub.AddTopic(cl, "collab:s1")
	hub.AddTopic(cl, "collab:s1:cursors")

	hub.CloseClient(cl)

	if hub.SubscriberCount("collab:s1") != 0 || hub.SubscriberCount("collab:s1:cursors") != 0 {
		t.Fatalf("expected all subscriptions removed")
	}
	if _, open := <-cl.Outbound; open {
		t.Fatalf("expected outbound channel closed")
	}
}

func TestHubCloseClientTwice(t *testing.T) {
	hub := testHub(t)
	cl := hub.NewClient(uuid.New())
	hub.AddTopic(cl, "collab:s1")

	// A reconnect closes the replaced client from the new request while
	// the old stream goroutine closes it again on unwind.
	hub.CloseClient(cl)
	hub.CloseClient(cl)

	select {
	case <-cl.done:
	default:
		t.Fatalf("expected done channel closed")
	}
}
