package realtime

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// fakeConn is an in-memory Conn that records delivered events.
type fakeConn struct {
	mu      sync.Mutex
	events  []Event
	pings   int
	closed  bool
	sendErr error
	pingErr error
}

func (c *fakeConn) SendEvent(event Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	c.events = append(c.events, event)
	return nil
}

func (c *fakeConn) Ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pingErr != nil {
		return c.pingErr
	}
	c.pings++
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) eventTypes() []EventType {
	c.mu.Lock()
	defer c.mu.Unlock()
	types := make([]EventType, len(c.events))
	for i, e := range c.events {
		types[i] = e.Type
	}
	return types
}

func TestRegistry_AddRemove(t *testing.T) {
	r := NewRegistry()
	userID := uuid.New()
	conn := &fakeConn{}

	r.Add(userID, conn)
	assert.Equal(t, 1, r.Len())
	assert.True(t, r.Contains(userID))

	r.Remove(conn)
	assert.Equal(t, 0, r.Len())
	assert.False(t, r.Contains(userID))
}

func TestRegistry_RemoveIsIdempotent(t *testing.T) {
	r := NewRegistry()
	conn := &fakeConn{}

	// Removing a connection that was never added must be a no-op.
	r.Remove(conn)

	r.Add(uuid.New(), conn)
	r.Remove(conn)
	r.Remove(conn)
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_MultipleConnectionsPerUser(t *testing.T) {
	r := NewRegistry()
	userID := uuid.New()
	first, second := &fakeConn{}, &fakeConn{}

	r.Add(userID, first)
	r.Add(userID, second)

	conns := r.ForUsers([]uuid.UUID{userID})
	assert.Len(t, conns, 2)

	r.Remove(first)
	assert.True(t, r.Contains(userID))
	r.Remove(second)
	assert.False(t, r.Contains(userID))
}

func TestRegistry_ForUsersExcludesOthers(t *testing.T) {
	r := NewRegistry()
	alice, bob, carol := uuid.New(), uuid.New(), uuid.New()
	aliceConn, bobConn, carolConn := &fakeConn{}, &fakeConn{}, &fakeConn{}

	r.Add(alice, aliceConn)
	r.Add(bob, bobConn)
	r.Add(carol, carolConn)

	conns := r.ForUsers([]uuid.UUID{alice, bob})
	assert.Len(t, conns, 2)
	for _, conn := range conns {
		assert.NotSame(t, carolConn, conn)
	}
}

func TestRegistry_ConcurrentAddRemove(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conn := &fakeConn{}
			r.Add(uuid.New(), conn)
			r.Remove(conn)
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, r.Len())
}

var errConnGone = errors.New("connection gone")
