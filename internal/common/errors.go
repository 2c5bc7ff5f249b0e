// Package common defines shared constants and sentinel errors used across
// the Sendly server layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")
	ErrorValidation   = errors.New("validation error")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Session registry errors.
	ErrCannotRevokeCurrentSession = errors.New("cannot revoke the current session")

	// Two-factor errors.
	ErrTwoFactorAlreadyEnabled = errors.New("two-factor authentication is already enabled")
	ErrTwoFactorNotPending     = errors.New("two-factor setup has not been started")
	ErrTwoFactorNotEnabled     = errors.New("two-factor authentication is not enabled")
	ErrInvalidTwoFactorCode    = errors.New("invalid two-factor code")

	// Scheduling errors.
	ErrNotScheduled      = errors.New("email is no longer pending")
	ErrScheduleInThePast = errors.New("scheduled time must be in the future")
)
