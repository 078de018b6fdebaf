package query

import (
	"sync"

	"agencydesk/internal/api"
	"agencydesk/internal/logging"
)

// MutationKind classifies a mutation for its cache side effects.
type MutationKind string

const (
	MutationCreate MutationKind = "create"
	MutationUpdate MutationKind = "update"
	MutationDelete MutationKind = "delete" // soft delete and restore both land here
	MutationToggle MutationKind = "toggle-status"
)

// ApplyMutationEffects applies the per-entity cache rules after a
// successful mutation:
//
//	create  -> invalidate lists + stats
//	update  -> write result into the detail slot, invalidate lists
//	delete  -> invalidate lists + stats, evict the detail entry
//	toggle  -> invalidate lists + stats + detail
func (c *Cache) ApplyMutationEffects(entity string, kind MutationKind, id string, result interface{}) {
	switch kind {
	case MutationCreate:
		c.InvalidateKind(entity, KindList)
		c.InvalidateKind(entity, KindStats)
	case MutationUpdate:
		if id != "" && result != nil {
			c.Set(DetailKey(entity, id), result)
		}
		c.InvalidateKind(entity, KindList)
	case MutationDelete:
		c.InvalidateKind(entity, KindList)
		c.InvalidateKind(entity, KindStats)
		if id != "" {
			c.Evict(DetailKey(entity, id))
		}
	case MutationToggle:
		c.InvalidateKind(entity, KindList)
		c.InvalidateKind(entity, KindStats)
		if id != "" {
			c.Invalidate(DetailKey(entity, id))
		}
	}
	logging.Cache("mutation %s on %s (id=%s) applied", kind, entity, id)
}

// Level classifies a user-visible notice.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notice is a user-visible notification raised by a mutation outcome.
type Notice struct {
	Level   Level
	Message string
}

// Notices broadcasts mutation outcomes to the UI. Mutations never fail
// silently: a failed mutation raises an error notice with the server's
// message (or the fallback) and the error still propagates to the
// caller so dialogs can stay open.
type Notices struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Notice
}

// NewNotices creates an empty broadcaster.
func NewNotices() *Notices {
	return &Notices{subs: make(map[int]chan Notice)}
}

// Subscribe registers a listener; cancel releases it.
func (n *Notices) Subscribe() (<-chan Notice, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	ch := make(chan Notice, 16)
	n.subs[id] = ch

	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if c, ok := n.subs[id]; ok {
			delete(n.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

// Publish delivers without blocking.
func (n *Notices) Publish(notice Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.subs {
		select {
		case ch <- notice:
		default:
		}
	}
}

// Success raises a success notice.
func (n *Notices) Success(message string) {
	n.Publish(Notice{Level: LevelSuccess, Message: message})
}

// Failure raises an error notice carrying the server's message when the
// error holds one.
func (n *Notices) Failure(err error, fallback string) {
	n.Publish(Notice{Level: LevelError, Message: api.ErrorMessage(err, fallback)})
}
