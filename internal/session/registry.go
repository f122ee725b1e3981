package session

import "sync"

// Transport is the live connection a session rides on. The websocket layer
// implements it; tests use in-memory fakes.
type Transport interface {
	ID() string
	Emit(event string, payload any) error
}

// Info carries the profile fields cached alongside a live connection.
type Info struct {
	Name  string
	Email string
	Role  string
}

// Session binds an authenticated user identity to its live transport.
type Session struct {
	UserID    string
	Name      string
	Email     string
	Role      string
	Transport Transport
}

// Registry is the single source of truth for "is user X reachable right
// now". One live session per user: a second connection for the same user
// replaces the first (last-connect-wins). Process-lifetime state only, no
// persistence.
type Registry struct {
	mu          sync.RWMutex
	byUser      map[string]*Session
	byTransport map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		byUser:      map[string]*Session{},
		byTransport: map[string]string{},
	}
}

// Register inserts or overwrites the session for userID. Idempotent, no
// error path.
func (r *Registry) Register(userID string, info Info, transport Transport) *Session {
	s := &Session{
		UserID:    userID,
		Name:      info.Name,
		Email:     info.Email,
		Role:      info.Role,
		Transport: transport,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.byUser[userID]; ok {
		delete(r.byTransport, prev.Transport.ID())
	}
	r.byUser[userID] = s
	r.byTransport[transport.ID()] = userID
	return s
}

// Lookup returns the live session for userID. Callers must treat a miss as
// "deliver nothing" rather than an error.
func (r *Registry) Lookup(userID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byUser[userID]
	return s, ok
}

// UnregisterTransport removes the session bound to transportID and returns
// it. A stale transport (already replaced by a newer connection for the
// same user) is removed from the index only.
func (r *Registry) UnregisterTransport(transportID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.byTransport[transportID]
	if !ok {
		return nil, false
	}
	delete(r.byTransport, transportID)

	s, ok := r.byUser[userID]
	if !ok || s.Transport.ID() != transportID {
		return nil, false
	}
	delete(r.byUser, userID)
	return s, true
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}
