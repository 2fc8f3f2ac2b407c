package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type entry struct {
	store    *Store
	lastSeen time.Time
}

// Registry maps session ids to stores and forgets sessions idle longer than ttl.
// When maxEntries is reached, creating a session evicts the least recently seen one.
type Registry struct {
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
	entries    map[string]*entry
}

// NewRegistry creates a registry. A non-positive ttl keeps sessions forever and a
// non-positive maxEntries leaves the registry unbounded.
func NewRegistry(ttl time.Duration, maxEntries int) *Registry {
	return &Registry{
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
		entries:    make(map[string]*entry),
	}
}

// NewID returns a fresh random session id.
func NewID() string {
	return uuid.NewString()
}

// Get returns the store for id, creating it when missing or expired. The second
// return value reports whether a new store was created.
func (r *Registry) Get(id string) (*Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if e, ok := r.entries[id]; ok && !r.expired(e, now) {
		e.lastSeen = now
		return e.store, false
	}
	if _, ok := r.entries[id]; !ok {
		r.makeRoom(now)
	}
	store := NewStore()
	r.entries[id] = &entry{store: store, lastSeen: now}
	return store, true
}

// makeRoom drops expired sessions, then the least recently seen one, until a new
// session fits. Callers hold r.mu.
func (r *Registry) makeRoom(now time.Time) {
	if r.maxEntries <= 0 || len(r.entries) < r.maxEntries {
		return
	}
	for id, e := range r.entries {
		if r.expired(e, now) {
			delete(r.entries, id)
		}
	}
	for len(r.entries) >= r.maxEntries {
		var (
			oldestID string
			oldest   time.Time
		)
		for id, e := range r.entries {
			if oldestID == "" || e.lastSeen.Before(oldest) {
				oldestID, oldest = id, e.lastSeen
			}
		}
		delete(r.entries, oldestID)
	}
}

// Lookup returns the store for id without creating one.
func (r *Registry) Lookup(id string) (*Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok || r.expired(e, r.now()) {
		return nil, false
	}
	return e.store, true
}

// Delete drops a session.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
}

// Sweep removes expired sessions and returns how many were removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	removed := 0
	for id, e := range r.entries {
		if r.expired(e, now) {
			delete(r.entries, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of tracked sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry) expired(e *entry, now time.Time) bool {
	return r.ttl > 0 && now.Sub(e.lastSeen) > r.ttl
}
