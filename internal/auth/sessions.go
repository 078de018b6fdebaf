package auth

import "sync"

// EventType classifies a session state change.
type EventType string

const (
	EventLogin   EventType = "login"
	EventLogout  EventType = "logout"
	EventExpired EventType = "expired" // refresh exhausted, re-login required
)

// Event describes one session state change.
type Event struct {
	Type  EventType
	Email string
}

// Sessions is an explicit publish-subscribe broadcaster for session
// changes. It replaces the ambient global events the web dashboard
// used: consumers subscribe and get an unsubscribe func back, nothing
// observes session state by side channel.
type Sessions struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
}

// NewSessions creates an empty broadcaster.
func NewSessions() *Sessions {
	return &Sessions{subs: make(map[int]chan Event)}
}

// Subscribe registers a listener. The returned cancel func must be
// called to release the channel; events are dropped for slow consumers
// rather than blocking the publisher.
func (s *Sessions) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan Event, 8)
	s.subs[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

// Publish delivers an event to every subscriber without blocking.
func (s *Sessions) Publish(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
