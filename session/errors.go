package session

import "errors"

var (
	// ErrAuthExpired is returned by Refresh when the backend refused to issue
	// a new access token. The session has been cleared.
	ErrAuthExpired = errors.New("session expired")
	// ErrTokenMalformed is returned when an access token's expiry cannot be
	// decoded. The session has been cleared.
	ErrTokenMalformed = errors.New("access token malformed")
	// ErrSessionSuperseded is returned by Refresh when the session was
	// replaced or cleared while the request was in flight. The result was
	// discarded.
	ErrSessionSuperseded = errors.New("session superseded")
	// ErrNoBackend is returned when a backend operation is requested from a
	// Store configured without one.
	ErrNoBackend = errors.New("session backend not configured")
)
