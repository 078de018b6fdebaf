// Package query is the client-side cache between the entity services
// and the UI: keyed query entries with idle/loading/success/error
// states, keep-previous-data on list refetches, in-flight
// de-duplication, and the mutation side-effect rules that keep cached
// lists, stats and details consistent.
package query

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"agencydesk/internal/logging"
)

// Kind classifies what a cache entry holds.
type Kind string

const (
	KindList     Kind = "list"
	KindStats    Kind = "stats"
	KindDetail   Kind = "detail"
	KindDropdown Kind = "dropdown"
)

// Key identifies one cache entry: entity + kind + a hash of the params
// (the id, for detail entries).
type Key struct {
	Entity string
	Kind   Kind
	Hash   string
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Entity, k.Kind, k.Hash)
}

// ListKey builds a key for a parameterized list query.
func ListKey(entity string, params interface{}) Key {
	return Key{Entity: entity, Kind: KindList, Hash: hashParams(params)}
}

// DetailKey builds a key for a single-entity query.
func DetailKey(entity, id string) Key {
	return Key{Entity: entity, Kind: KindDetail, Hash: id}
}

// StatsKey builds a key for the aggregate-counts query.
func StatsKey(entity string) Key {
	return Key{Entity: entity, Kind: KindStats}
}

// DropdownKey builds a key for the {value,label} options query.
func DropdownKey(entity string) Key {
	return Key{Entity: entity, Kind: KindDropdown}
}

func hashParams(params interface{}) string {
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Sprintf("%v", params)
	}
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:8])
}

// Status is the lifecycle state of an entry.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

// Snapshot is a read-only view of an entry. Data stays populated while
// a refetch is loading so list pages never flash to empty.
type Snapshot struct {
	Status Status
	Data   interface{}
	Err    error
	Stale  bool // Data is from a previous resolution
}

type entry struct {
	status Status
	data   interface{}
	err    error
	fresh  bool // false after invalidation; Fetch will refetch
}

// Cache holds all query entries. Entries are independent; identical
// in-flight fetches are collapsed by key.
type Cache struct {
	mu      sync.RWMutex
	entries map[Key]*entry
	group   singleflight.Group

	subMu  sync.Mutex
	nextID int
	subs   map[int]chan Key
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[Key]*entry),
		subs:    make(map[int]chan Key),
	}
}

// Fetch returns the cached value for key, or runs fn to resolve it.
// Fresh successful entries are returned without a network trip;
// invalidated or failed entries refetch, keeping any previous data
// visible in Peek while the fetch is in flight.
func (c *Cache) Fetch(ctx context.Context, key Key, fn func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	if e.status == StatusSuccess && e.fresh {
		data := e.data
		c.mu.Unlock()
		return data, nil
	}
	e.status = StatusLoading
	c.mu.Unlock()
	c.notify(key)

	logging.CacheDebug("fetch %s", key)
	v, err, shared := c.group.Do(key.String(), func() (interface{}, error) {
		return fn(ctx)
	})
	if shared {
		logging.CacheDebug("fetch %s shared an in-flight call", key)
	}

	c.mu.Lock()
	if err != nil {
		e.status = StatusError
		e.err = err
	} else {
		e.status = StatusSuccess
		e.data = v
		e.err = nil
		e.fresh = true
	}
	c.mu.Unlock()
	c.notify(key)

	return v, err
}

// Peek returns the entry's current snapshot without fetching.
func (c *Cache) Peek(key Key) (Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok {
		return Snapshot{Status: StatusIdle}, false
	}
	return Snapshot{
		Status: e.status,
		Data:   e.data,
		Err:    e.err,
		Stale:  e.status == StatusLoading && e.data != nil,
	}, true
}

// Set writes a resolved value directly into an entry, bypassing a
// refetch round trip (used after update mutations).
func (c *Cache) Set(key Key, data interface{}) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	e.status = StatusSuccess
	e.data = data
	e.err = nil
	e.fresh = true
	c.mu.Unlock()
	c.notify(key)
}

// Invalidate marks one entry stale; the next Fetch refetches it.
func (c *Cache) Invalidate(key Key) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		e.fresh = false
	}
	c.mu.Unlock()
	c.notify(key)
}

// InvalidateKind marks every entry of an entity+kind stale. List keys
// vary by params, so mutations sweep the whole kind.
func (c *Cache) InvalidateKind(entity string, kind Kind) {
	c.mu.Lock()
	var touched []Key
	for k, e := range c.entries {
		if k.Entity == entity && k.Kind == kind {
			e.fresh = false
			touched = append(touched, k)
		}
	}
	c.mu.Unlock()
	for _, k := range touched {
		c.notify(k)
	}
	logging.Cache("invalidated %s/%s (%d entries)", entity, kind, len(touched))
}

// Evict removes an entry entirely.
func (c *Cache) Evict(key Key) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	c.notify(key)
}

// Subscribe registers for change notifications. Slow consumers drop
// notifications rather than blocking cache writers.
func (c *Cache) Subscribe() (<-chan Key, func()) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	id := c.nextID
	c.nextID++
	ch := make(chan Key, 64)
	c.subs[id] = ch

	cancel := func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		if s, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(s)
		}
	}
	return ch, cancel
}

func (c *Cache) notify(key Key) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- key:
		default:
		}
	}
}
