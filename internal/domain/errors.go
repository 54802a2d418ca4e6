// Package domain defines the core business entities and errors.
package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrUnauthenticated is returned when no authenticated principal is
	// available for an operation that requires one.
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrUnauthorized is returned when an operation is not permitted
	// for the acting user.
	ErrUnauthorized = errors.New("unauthorized operation")
)
