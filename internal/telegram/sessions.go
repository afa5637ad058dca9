package telegram

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"slotbot/internal/scheduling"
	"slotbot/internal/telemetry"
)

type sessionEntry struct {
	session *scheduling.Session
	created time.Time
}

// registry keeps live signup sessions keyed by the id embedded in their
// callback data. Entries older than ttl are evicted on access and by Sweep.
type registry struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[uuid.UUID]*sessionEntry
}

func newRegistry(ttl time.Duration) *registry {
	return &registry{ttl: ttl, now: time.Now, entries: make(map[uuid.UUID]*sessionEntry)}
}

func (r *registry) add(id uuid.UUID, e *sessionEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.created = r.now()
	r.entries[id] = e
	telemetry.SetActiveSessions(len(r.entries))
}

func (r *registry) get(id uuid.UUID) (*sessionEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	if r.expired(e) {
		delete(r.entries, id)
		telemetry.SetActiveSessions(len(r.entries))
		return nil, false
	}
	return e, true
}

func (r *registry) remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
	telemetry.SetActiveSessions(len(r.entries))
}

// Sweep drops expired sessions and returns how many were removed.
func (r *registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, e := range r.entries {
		if r.expired(e) {
			delete(r.entries, id)
			n++
		}
	}
	telemetry.SetActiveSessions(len(r.entries))
	return n
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *registry) expired(e *sessionEntry) bool {
	return r.ttl > 0 && r.now().Sub(e.created) > r.ttl
}
