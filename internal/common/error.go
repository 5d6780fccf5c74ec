// Package common defines shared constants and sentinel errors used across
// the Appli server layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal      = errors.New("internal error")
	ErrorNotConfigured = errors.New("not configured")

	// Validation errors.
	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidStatus = errors.New("invalid application status")

	// Auth errors. ErrUnauthenticated deliberately carries no detail about
	// which check failed.
	ErrUnauthenticated    = errors.New("not authenticated")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrForbidden          = errors.New("forbidden")

	// Startup errors.
	ErrConfiguration = errors.New("configuration error")
)
