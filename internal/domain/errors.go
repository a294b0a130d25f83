package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrRateLimited     = errors.New("rate limited")
	ErrConfiguration   = errors.New("configuration error")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidHex      = errors.New("invalid hex payload")
	ErrAdminCapMissing = errors.New("admin capability not configured")
	ErrMarketResolved  = errors.New("market already resolved")
	ErrSubmission      = errors.New("submission failed")
	ErrWrongNetwork    = errors.New("wrong network")
	ErrSigningFailed   = errors.New("signing failed")
	ErrInvalidIntent   = errors.New("invalid intent")
	ErrLockHeld        = errors.New("lock held")

	// ErrStaleScope marks a fetch whose scope changed before it completed.
	// Callers drop the result; it is never shown to a user.
	ErrStaleScope = errors.New("stale scope")
)
