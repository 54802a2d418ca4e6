package realtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/taskhub-api/internal/platform/logger"
)

// Dispatcher pushes events to registered connections. Delivery is
// best-effort: a failed send is logged, the connection is dropped from the
// registry, and neither the caller nor the other peers are affected. There
// is no acknowledgment or replay; a client offline at emission time
// re-fetches state on reconnect.
type Dispatcher struct {
	registry *Registry
	logger   *slog.Logger
}

// NewDispatcher creates a Dispatcher over the given registry.
func NewDispatcher(registry *Registry, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		logger:   logger.With("component", "dispatcher"),
	}
}

// Broadcast sends the event to every currently registered connection.
func (d *Dispatcher) Broadcast(ctx context.Context, event Event) {
	d.send(ctx, event, d.registry.All())
}

// SendToUsers sends the event to every connection bound to an identity in
// userIDs. A user with multiple concurrent connections receives the event
// once per connection; users outside the set receive nothing.
func (d *Dispatcher) SendToUsers(ctx context.Context, event Event, userIDs []uuid.UUID) {
	d.send(ctx, event, d.registry.ForUsers(userIDs))
}

func (d *Dispatcher) send(ctx context.Context, event Event, conns []Conn) {
	log := logger.FromContextOrDefault(ctx, d.logger)

	for _, conn := range conns {
		if err := conn.SendEvent(event); err != nil {
			log.Warn("failed to send event, dropping connection",
				"event_type", event.Type,
				"error", err)
			d.registry.Remove(conn)
			_ = conn.Close()
		}
	}
}

// RunHeartbeat pings every registered connection at the given interval
// until ctx is canceled. Peers that fail the ping are closed and removed;
// their read pumps observe the close and finish their own cleanup, which
// the registry's idempotent Remove makes safe.
func (d *Dispatcher) RunHeartbeat(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, conn := range d.registry.All() {
				if err := conn.Ping(); err != nil {
					d.logger.Debug("heartbeat failed, dropping connection",
						"error", err)
					d.registry.Remove(conn)
					_ = conn.Close()
				}
			}
		}
	}
}
