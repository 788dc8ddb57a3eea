package service

import "watchwhat/internal/model"

// Broadcaster pushes a typed event to every subscriber of a session (avoids
// an import cycle with the ws package). Implementations must only enqueue:
// delivery happens off the caller's goroutine, so services may broadcast
// while still holding the session lock without blocking on slow subscribers.
type Broadcaster interface {
	BroadcastToSession(sessionID string, event model.EventType, payload interface{})
}
