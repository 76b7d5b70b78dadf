package hub

import (
	"encoding/json"
	"testing"
	"time"
)

func TestBroadcastEvent_Envelope(t *testing.T) {
	h := New("test")

	err := h.BroadcastEvent(EventStatus, map[string]interface{}{"fps": 29.7})
	if err != nil {
		t.Fatalf("BroadcastEvent failed: %v", err)
	}

	var msg Message
	select {
	case msg = <-h.broadcast:
	default:
		t.Fatal("expected a queued message")
	}

	var ev Event
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		t.Fatalf("message is not a valid event: %v", err)
	}
	if ev.Kind != EventStatus {
		t.Errorf("kind = %q, want %q", ev.Kind, EventStatus)
	}
	if ev.Time.IsZero() {
		t.Error("event time must be set")
	}
	payload, ok := ev.Payload.(map[string]interface{})
	if !ok || payload["fps"] != 29.7 {
		t.Errorf("payload = %v, want fps 29.7", ev.Payload)
	}
}

func TestBroadcastEvent_UnencodablePayload(t *testing.T) {
	h := New("test")
	if err := h.BroadcastEvent(EventStatus, make(chan int)); err == nil {
		t.Error("expected an encode error")
	}
}

func TestClientCount_RegisterAndStop(t *testing.T) {
	h := New("test")
	go h.Run()
	defer h.Stop()

	if h.ClientCount() != 0 {
		t.Fatalf("fresh hub has %d clients", h.ClientCount())
	}

	c := NewClient(h, nil)
	waitForCount(t, h, 1)

	// Broadcasts reach the registered client's queue.
	if err := h.BroadcastEvent(EventCursor, map[string]interface{}{"x": 1.0}); err != nil {
		t.Fatalf("BroadcastEvent failed: %v", err)
	}
	select {
	case <-c.send:
	case <-time.After(time.Second):
		t.Fatal("registered client never received the broadcast")
	}

	h.Stop()
	waitForCount(t, h, 0)
}

func waitForCount(t *testing.T, h *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if h.ClientCount() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("client count = %d, want %d", h.ClientCount(), want)
}
