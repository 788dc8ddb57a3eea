package service

import "sync"

// sessionLocks serializes mutating operations per session. Two concurrent
// casts for the same session run one after the other; different sessions do
// not contend. Locks are never reclaimed; a mutex per session the process
// has touched is a negligible footprint.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *sessionLocks) get(sessionID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[sessionID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[sessionID] = m
	}
	return m
}
