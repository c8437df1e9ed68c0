package parkauth

import (
	"errors"

	"github.com/MrEthical07/parkauth/guard"
	"github.com/MrEthical07/parkauth/session"
)

var (
	// ErrInvalidCredentials is returned by SignIn when the backend rejects
	// the email and password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrBuilderUsed is returned by a second Build on the same Builder.
	ErrBuilderUsed = errors.New("builder already used")
	// ErrClientClosed is returned by operations on a closed Client.
	ErrClientClosed = errors.New("client closed")

	ErrAuthExpired       = session.ErrAuthExpired
	ErrTokenMalformed    = session.ErrTokenMalformed
	ErrSessionSuperseded = session.ErrSessionSuperseded
	ErrRouteNotFound     = guard.ErrRouteNotFound
	ErrRedirectLoop      = guard.ErrRedirectLoop
)
