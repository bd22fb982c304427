package confirm

import (
	"sync"
	"time"

	"github.com/giygas/prescriptions-api/metrics"
)

// Registry keeps sessions addressable by ID across HTTP requests.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Add stores s under its ID.
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	r.sessions[s.ID()] = s
	n := len(r.sessions)
	r.mu.Unlock()

	metrics.ConfirmationSessionsOpen.Set(float64(n))
}

// Get returns the session for id or ErrSessionNotFound.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Remove forgets id. Unknown IDs are ignored.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	n := len(r.sessions)
	r.mu.Unlock()

	metrics.ConfirmationSessionsOpen.Set(float64(n))
}

// Len returns the number of tracked sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep drops closed sessions and sessions idle for longer than maxAge.
// Sessions with an action in flight are always kept.
func (r *Registry) Sweep(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	r.mu.Lock()
	removed := 0
	for id, s := range r.sessions {
		if s.discardable(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	n := len(r.sessions)
	r.mu.Unlock()

	metrics.ConfirmationSessionsOpen.Set(float64(n))
	return removed
}
