// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates failed authentication (bad credentials or token).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotOwner indicates the entity exists but belongs to another user.
	ErrNotOwner = errors.New("not authorized")

	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., email taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrValidation indicates a request that failed input validation.
	ErrValidation = errors.New("validation failed")

	// ErrUpstream indicates a failure in an external AI provider call or its response.
	ErrUpstream = errors.New("upstream provider error")
)
