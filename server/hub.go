package server

import (
	"sync"
)

// Hub tracks the open viewer sessions per participant.
type Hub struct {
	sessions map[string]map[*Session]struct{}
	mu       sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{sessions: map[string]map[*Session]struct{}{}}
}

func (h *Hub) Register(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sessions[s.User] == nil {
		h.sessions[s.User] = map[*Session]struct{}{}
	}
	h.sessions[s.User][s] = struct{}{}
}

// Unregister removes s and closes its send queue. The session must not
// queue messages afterwards.
func (h *Hub) Unregister(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if userSessions, ok := h.sessions[s.User]; ok {
		if _, ok := userSessions[s]; !ok {
			return
		}
		delete(userSessions, s)
		if len(userSessions) == 0 {
			delete(h.sessions, s.User)
		}
		close(s.send)
	}
}

// Broadcast queues payload for every session of user, or for all sessions
// when user is empty. Slow sessions drop the message.
func (h *Hub) Broadcast(user string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for u, userSessions := range h.sessions {
		if user != "" && u != user {
			continue
		}
		for s := range userSessions {
			select {
			case s.send <- payload:
			default:
			}
		}
	}
}

// Count returns the number of open sessions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, userSessions := range h.sessions {
		n += len(userSessions)
	}
	return n
}
