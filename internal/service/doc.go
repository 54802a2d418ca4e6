// Package service implements the application's business operations on top
// of the store interfaces: the task lifecycle, channel membership and
// messaging, and notification fanout to connected clients.
//
// Mutations run inside retried transactions via store.RetryExecutor.
// Work that accompanies a successful mutation but is allowed to fail,
// like participant attachment or notification records, is reported as
// SideEffects instead of errors so callers can distinguish partial
// success from failure.
package service
