package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"watchwhat/internal/model"
	"watchwhat/internal/service"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for dev
	},
}

// Handler upgrades subscriber connections and wires them into the hub.
type Handler struct {
	hub        *Hub
	authSvc    *service.AuthService
	sessionSvc *service.SessionService
}

func NewHandler(hub *Hub, authSvc *service.AuthService, sessionSvc *service.SessionService) *Handler {
	return &Handler{
		hub:        hub,
		authSvc:    authSvc,
		sessionSvc: sessionSvc,
	}
}

// SessionWS handles GET /v1/ws/sessions/{id}. The participant token rides in
// the token query param. After the upgrade the subscriber receives a full
// session snapshot, so a reconnect never needs event replay.
func (h *Handler) SessionWS(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	token := r.URL.Query().Get("token")

	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.authSvc.ValidateParticipantToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	if claims.SessionID != sessionID {
		http.Error(w, "token not valid for this session", http.StatusForbidden)
		return
	}

	if _, err := h.sessionSvc.GetSession(r.Context(), sessionID); err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "session_id", sessionID, "error", err)
		return
	}

	conn := &Connection{
		SessionID: sessionID,
		Send:      make(chan []byte, 256),
	}
	h.hub.Register(conn)

	// The snapshot is fetched after registration and written before the pumps
	// start draining queued events, so the seed state is never older than a
	// mutation whose event this connection misses.
	detail, err := h.sessionSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		slog.Error("failed to load session snapshot", "session_id", sessionID, "error", err)
		h.hub.Unregister(conn)
		wsConn.Close()
		return
	}
	if snapshot, err := snapshotMessage(detail); err == nil {
		wsConn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := wsConn.WriteMessage(websocket.TextMessage, snapshot); err != nil {
			h.hub.Unregister(conn)
			wsConn.Close()
			return
		}
	}

	slog.Info("participant subscribed", "session_id", sessionID, "participant_id", claims.ParticipantID)

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn)
}

func snapshotMessage(detail *model.SessionDetail) ([]byte, error) {
	payload, err := json.Marshal(detail)
	if err != nil {
		return nil, err
	}
	return json.Marshal(&Message{
		Type:    model.EventSessionSnapshot,
		Payload: payload,
	})
}

func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection) {
	defer func() {
		h.hub.Unregister(conn)
		wsConn.Close()
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, _, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("websocket read error", "session_id", conn.SessionID, "error", err)
			}
			break
		}
		// Clients only listen on this stream; mutations go over REST.
	}
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
