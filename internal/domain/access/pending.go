package access

import (
	"sync"
	"time"
)

type pendingRegistry struct {
	mu      sync.Mutex
	changes map[string]PendingChange
}

func newPendingRegistry() *pendingRegistry {
	return &pendingRegistry{changes: make(map[string]PendingChange)}
}

func (r *pendingRegistry) put(change PendingChange) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes[change.ID] = change
}

// take removes and returns the change if actorID owns it and it has not expired.
func (r *pendingRegistry) take(id, actorID string, now time.Time) (PendingChange, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.purge(now)
	change, ok := r.changes[id]
	if !ok {
		return PendingChange{}, ErrChangeNotFound
	}
	if change.ActorID != actorID {
		return PendingChange{}, ErrChangeForbidden
	}
	delete(r.changes, id)
	return change, nil
}

func (r *pendingRegistry) get(id string, now time.Time) (PendingChange, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.purge(now)
	change, ok := r.changes[id]
	return change, ok
}

func (r *pendingRegistry) sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.purge(now)
}

func (r *pendingRegistry) purge(now time.Time) int {
	removed := 0
	for id, change := range r.changes {
		if !now.Before(change.ExpiresAt) {
			delete(r.changes, id)
			removed++
		}
	}
	return removed
}
