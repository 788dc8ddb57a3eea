package ws

import (
	"encoding/json"
	"testing"
	"time"

	"watchwhat/internal/model"
)

func recv(t *testing.T, ch chan []byte) *Message {
	t.Helper()
	select {
	case data := <-ch:
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("failed to unmarshal message: %v", err)
		}
		return &msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestHubDeliversInOrder(t *testing.T) {
	hub := NewHub()

	conn := &Connection{SessionID: "s1", Send: make(chan []byte, 16)}
	hub.Register(conn)

	hub.BroadcastToSession("s1", model.EventParticipantJoined, map[string]string{"n": "1"})
	hub.BroadcastToSession("s1", model.EventMovieSubmitted, map[string]string{"n": "2"})
	hub.BroadcastToSession("s1", model.EventVoteCast, map[string]string{"n": "3"})

	want := []model.EventType{
		model.EventParticipantJoined,
		model.EventMovieSubmitted,
		model.EventVoteCast,
	}
	for i, w := range want {
		msg := recv(t, conn.Send)
		if msg.Type != w {
			t.Errorf("event %d: expected %s, got %s", i, w, msg.Type)
		}
	}
}

func TestHubScopesBySession(t *testing.T) {
	hub := NewHub()

	a := &Connection{SessionID: "a", Send: make(chan []byte, 16)}
	b := &Connection{SessionID: "b", Send: make(chan []byte, 16)}
	hub.Register(a)
	hub.Register(b)

	hub.BroadcastToSession("a", model.EventVoteCast, map[string]string{})

	msg := recv(t, a.Send)
	if msg.Type != model.EventVoteCast {
		t.Errorf("expected vote_cast on session a, got %s", msg.Type)
	}

	select {
	case data := <-b.Send:
		t.Errorf("session b received a foreign event: %s", data)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHubUnregisterClosesSend(t *testing.T) {
	hub := NewHub()

	conn := &Connection{SessionID: "s1", Send: make(chan []byte, 16)}
	hub.Register(conn)
	hub.Unregister(conn)

	select {
	case _, ok := <-conn.Send:
		if ok {
			t.Error("expected send channel to be closed, got a message")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for channel close")
	}

	// Broadcasting after the last subscriber left must not block or panic.
	hub.BroadcastToSession("s1", model.EventVoteCast, map[string]string{})
}

func TestHubDropsWhenSubscriberIsFull(t *testing.T) {
	hub := NewHub()

	conn := &Connection{SessionID: "s1", Send: make(chan []byte, 1)}
	hub.Register(conn)

	hub.BroadcastToSession("s1", model.EventVoteCast, map[string]string{"n": "1"})
	hub.BroadcastToSession("s1", model.EventVoteCast, map[string]string{"n": "2"})
	hub.BroadcastToSession("s1", model.EventVoteCast, map[string]string{"n": "3"})

	// Give the dispatch loop time to run while the subscriber is not
	// reading. The buffer holds one event; the rest are dropped.
	time.Sleep(200 * time.Millisecond)

	msg := recv(t, conn.Send)
	var payload map[string]string
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		t.Fatalf("failed to unmarshal payload: %v", err)
	}
	if payload["n"] != "1" {
		t.Errorf("expected first event to survive, got %q", payload["n"])
	}

	select {
	case data := <-conn.Send:
		t.Errorf("expected later events to be dropped, got %s", data)
	case <-time.After(100 * time.Millisecond):
	}
}
