package transport

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultIdleTimeout evicts a session after one hour without traffic.
const DefaultIdleTimeout = time.Hour

// Session is the registry's view of a live session.
type Session interface {
	SessionID() string
	Close() error
}

// Registry tracks live sessions for one transport and evicts them when the
// idle deadline elapses. All mutation happens under one lock; an eviction
// timer re-checks membership so a fire racing Remove is harmless.
type Registry[T Session] struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*registryEntry[T]
	logger   *zap.Logger
	closed   bool
}

type registryEntry[T Session] struct {
	session T
	timer   *time.Timer
}

// NewRegistry creates a registry with the given idle timeout; non-positive
// ttl falls back to the default.
func NewRegistry[T Session](ttl time.Duration, logger *zap.Logger) *Registry[T] {
	if ttl <= 0 {
		ttl = DefaultIdleTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry[T]{
		ttl:      ttl,
		sessions: make(map[string]*registryEntry[T]),
		logger:   logger,
	}
}

// Add registers session and starts its idle deadline. A registry that was
// shut down closes the session instead of registering it.
func (r *Registry[T]) Add(session T) {
	id := session.SessionID()
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		_ = session.Close()
		return
	}
	entry := &registryEntry[T]{session: session}
	entry.timer = time.AfterFunc(r.ttl, func() {
		r.evict(id)
	})
	r.sessions[id] = entry
	r.mu.Unlock()
}

// Lookup resolves id and, when found, resets its idle deadline.
func (r *Registry[T]) Lookup(id string) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[id]
	if !ok {
		var zero T
		return zero, false
	}
	entry.timer.Reset(r.ttl)
	return entry.session, true
}

// Remove unregisters id and stops its deadline. The caller owns closing the
// session.
func (r *Registry[T]) Remove(id string) {
	r.mu.Lock()
	if entry, ok := r.sessions[id]; ok {
		entry.timer.Stop()
		delete(r.sessions, id)
	}
	r.mu.Unlock()
}

// Len reports the number of live sessions.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Shutdown closes every session and rejects further registration.
func (r *Registry[T]) Shutdown() {
	r.mu.Lock()
	r.closed = true
	entries := make([]*registryEntry[T], 0, len(r.sessions))
	for _, entry := range r.sessions {
		entries = append(entries, entry)
	}
	r.sessions = make(map[string]*registryEntry[T])
	r.mu.Unlock()

	for _, entry := range entries {
		entry.timer.Stop()
		if err := entry.session.Close(); err != nil && !errors.Is(err, ErrSessionClosed) {
			r.logger.Warn("session close failed on shutdown",
				zap.String("session", entry.session.SessionID()), zap.Error(err))
		}
	}
}

func (r *Registry[T]) evict(id string) {
	r.mu.Lock()
	entry, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	if !ok {
		return
	}
	if err := entry.session.Close(); err != nil && !errors.Is(err, ErrSessionClosed) {
		r.logger.Warn("idle session close failed", zap.String("session", id), zap.Error(err))
		return
	}
	r.logger.Debug("idle session evicted", zap.String("session", id))
}
