package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/taskhub-api/internal/store"
)

// Sentinel errors surfaced by the service layer. Handlers map these onto
// HTTP status codes; everything else is treated as an internal failure.
var (
	// ErrTaskNotFound indicates that the task does not exist.
	ErrTaskNotFound = errors.New("task not found")

	// ErrChannelNotFound indicates that the channel does not exist.
	ErrChannelNotFound = errors.New("channel not found")

	// ErrMemberNotFound indicates that the user has no membership row in
	// the channel.
	ErrMemberNotFound = errors.New("channel member not found")

	// ErrAlreadyMember indicates that the user already has a membership
	// row in the channel.
	ErrAlreadyMember = errors.New("user is already a channel member")

	// ErrNotificationNotFound indicates that the notification does not
	// exist.
	ErrNotificationNotFound = errors.New("notification not found")
)

// ServiceError wraps errors from the service layer with operation context.
type ServiceError struct {
	// Operation is the operation that failed (e.g. "create_task").
	Operation string
	// Message is a human-readable description of the error.
	Message string
	// Err is the underlying error that caused the failure.
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// wrapStoreError maps store-level sentinels onto service-level ones and
// wraps everything else with operation context. Errors the caller is meant
// to branch on pass through unwrapped.
func wrapStoreError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, store.ErrTaskNotFound):
		return ErrTaskNotFound
	case errors.Is(err, store.ErrChannelNotFound):
		return ErrChannelNotFound
	case errors.Is(err, store.ErrMembershipNotFound):
		return ErrMemberNotFound
	case errors.Is(err, store.ErrAlreadyMember):
		return ErrAlreadyMember
	case errors.Is(err, store.ErrNotificationNotFound):
		return ErrNotificationNotFound
	}

	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
