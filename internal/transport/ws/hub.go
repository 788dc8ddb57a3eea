package ws

import (
	"encoding/json"
	"log/slog"
	"sync"

	"watchwhat/internal/model"
)

// Message is the WebSocket envelope format.
type Message struct {
	Type    model.EventType `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub manages the subscribers of each session and fans events out to them.
// A single goroutine drains the broadcast channel, so each subscriber sees a
// session's events in the order the mutations were committed. Delivery is
// best-effort: a subscriber whose buffer is full misses the event and is
// expected to resync from the snapshot it gets on reconnect.
type Hub struct {
	// sessionID -> connections
	conns map[string]map[*Connection]struct{}

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *broadcastMessage
}

// Connection represents one subscriber of a session.
type Connection struct {
	SessionID string
	Send      chan []byte
}

type broadcastMessage struct {
	sessionID string
	message   *Message
}

// NewHub creates a hub and starts its dispatch loop.
func NewHub() *Hub {
	h := &Hub{
		conns:      make(map[string]map[*Connection]struct{}),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *broadcastMessage, 256),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if h.conns[conn.SessionID] == nil {
				h.conns[conn.SessionID] = make(map[*Connection]struct{})
			}
			h.conns[conn.SessionID][conn] = struct{}{}
			h.mu.Unlock()
			slog.Debug("subscriber connected", "session_id", conn.SessionID)

		case conn := <-h.unregister:
			h.mu.Lock()
			if subs, ok := h.conns[conn.SessionID]; ok {
				if _, ok := subs[conn]; ok {
					delete(subs, conn)
					close(conn.Send)
					if len(subs) == 0 {
						delete(h.conns, conn.SessionID)
					}
				}
			}
			h.mu.Unlock()
			slog.Debug("subscriber disconnected", "session_id", conn.SessionID)

		case msg := <-h.broadcast:
			data, err := json.Marshal(msg.message)
			if err != nil {
				slog.Error("failed to marshal event", "error", err)
				continue
			}
			h.mu.RLock()
			for conn := range h.conns[msg.sessionID] {
				select {
				case conn.Send <- data:
				default:
					// Subscriber too slow; it resyncs on reconnect.
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a subscriber.
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a subscriber and closes its send channel.
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// BroadcastToSession queues an event for every subscriber of a session
// (implements service.Broadcaster).
func (h *Hub) BroadcastToSession(sessionID string, event model.EventType, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("failed to marshal event payload", "event", event, "error", err)
		return
	}
	h.broadcast <- &broadcastMessage{
		sessionID: sessionID,
		message: &Message{
			Type:    event,
			Payload: data,
		},
	}
}
