package realtime

import (
	"sync"

	"github.com/google/uuid"
)

// Conn is the transport surface the registry and dispatcher need. The
// production implementation wraps a gorilla/websocket connection; tests use
// in-memory fakes.
type Conn interface {
	// SendEvent writes an application event frame to the peer.
	SendEvent(event Event) error

	// Ping writes a heartbeat control frame, kept distinct from
	// application messages so clients never confuse the two.
	Ping() error

	// Close tears down the underlying transport.
	Close() error
}

// Registry tracks live, authenticated connections keyed by user id. A user
// may hold several concurrent connections (one per tab or device). The
// registry is an injected dependency, never package-global state, so tests
// instantiate isolated instances.
//
// Mutation is whole-entry add/remove under a mutex; entries are never
// edited in place.
type Registry struct {
	mu     sync.RWMutex
	users  map[Conn]uuid.UUID
	byUser map[uuid.UUID]map[Conn]struct{}
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		users:  make(map[Conn]uuid.UUID),
		byUser: make(map[uuid.UUID]map[Conn]struct{}),
	}
}

// Add registers conn under userID. A connection is added exactly once, at
// the moment its handshake completes.
func (r *Registry) Add(userID uuid.UUID, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.users[conn] = userID
	set, ok := r.byUser[userID]
	if !ok {
		set = make(map[Conn]struct{})
		r.byUser[userID] = set
	}
	set[conn] = struct{}{}
}

// Remove unregisters conn. It is unconditional and idempotent: removing a
// connection that was never added (or already removed) is a no-op.
func (r *Registry) Remove(conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.users[conn]
	if !ok {
		return
	}
	delete(r.users, conn)

	if set, ok := r.byUser[userID]; ok {
		delete(set, conn)
		if len(set) == 0 {
			delete(r.byUser, userID)
		}
	}
}

// All returns a snapshot of every registered connection.
func (r *Registry) All() []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]Conn, 0, len(r.users))
	for conn := range r.users {
		conns = append(conns, conn)
	}
	return conns
}

// ForUsers returns a snapshot of the connections bound to any of the given
// user ids. Each connection appears once, so a user with several concurrent
// connections receives one copy per connection.
func (r *Registry) ForUsers(userIDs []uuid.UUID) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var conns []Conn
	for _, userID := range userIDs {
		for conn := range r.byUser[userID] {
			conns = append(conns, conn)
		}
	}
	return conns
}

// Contains reports whether the user has at least one registered connection.
func (r *Registry) Contains(userID uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID]) > 0
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}
