package ws

import "sync"

// Session is the write side of a live student connection as seen by the
// notification path.
type Session interface {
	WriteJSON(v interface{}) error
	Open() bool
	Close() error
}

// Registry tracks the single live direct-notification connection per student.
// Registering again for the same student replaces the previous connection;
// entries never outlive their transport.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]Session)}
}

// Register stores the session for the subject, closing any prior one. Last
// writer wins.
func (r *Registry) Register(subjectID string, session Session) {
	if subjectID == "" || session == nil {
		return
	}
	r.mu.Lock()
	prior := r.conns[subjectID]
	r.conns[subjectID] = session
	r.mu.Unlock()

	if prior != nil && prior != session {
		// Close outside the lock; Close may block on the peer.
		go func() { _ = prior.Close() }()
	}
}

// Unregister removes the subject's entry if it still refers to the given
// session. The instance check keeps a stale connection's teardown from
// evicting its replacement. No-op when absent.
func (r *Registry) Unregister(subjectID string, session Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.conns[subjectID]
	if !ok {
		return
	}
	if session != nil && current != session {
		return
	}
	delete(r.conns, subjectID)
}

// Lookup returns the live session for a subject.
func (r *Registry) Lookup(subjectID string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.conns[subjectID]
	return session, ok
}

// Len reports the number of registered connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
