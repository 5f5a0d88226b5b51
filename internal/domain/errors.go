package domain

import "errors"

// Authentication errors.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrAuthFailed      = errors.New("authentication failed")
	ErrSessionInactive = errors.New("session is not active")
	ErrMissingIdentity = errors.New("missing identity in session")
)

// Profile caching errors.
var (
	ErrSessionUnavailable = errors.New("session unavailable")
	ErrMissingSubject     = errors.New("missing subject claim")
	ErrMissingAccessToken = errors.New("missing access token")
	ErrProfileNotFound    = errors.New("profile not found")
)

// Token errors.
var (
	ErrTokenGeneration   = errors.New("token generation failed")
	ErrBackendSecretWeak = errors.New("backend token secret too weak")
)

// External service errors.
var (
	ErrKratosUnavailable = errors.New("identity provider unavailable")
	ErrCacheUnavailable  = errors.New("cache unavailable")
)

// Rate limiting errors.
var (
	ErrRateLimited = errors.New("rate limit exceeded")
)
