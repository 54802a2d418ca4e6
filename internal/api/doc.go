// Package api exposes the task, channel and notification services over
// HTTP. Handlers decode and validate request payloads, resolve the
// authenticated user from the session middleware's context value, call
// the service layer, and translate service errors into the API's status
// code taxonomy with sanitized messages.
package api
