// Package realtime implements the WebSocket notification layer: a registry
// of session-authenticated connections, a best-effort broadcast dispatcher,
// and the handshake handler that binds transports to principals. Heartbeat
// traffic uses control frames and never mixes with application events.
package realtime
