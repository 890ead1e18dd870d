// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service/transport layers.
var (
	// ErrValidation indicates missing or malformed required input. Never retried.
	ErrValidation = errors.New("validation")

	// ErrNotConfigured indicates a required external capability has no credentials.
	ErrNotConfigured = errors.New("not configured")

	// ErrSignature indicates a webhook authenticity check failed.
	ErrSignature = errors.New("signature verification failed")

	// ErrStoreUnavailable indicates the durable backend could not serve a call.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrNotifier indicates the operator notification could not be delivered.
	ErrNotifier = errors.New("notifier")

	// ErrRateLimited indicates too many submissions from one client.
	ErrRateLimited = errors.New("rate limited")

	// ErrUnauthorized indicates failed authentication/authorization.
	ErrUnauthorized = errors.New("unauthorized")
)
