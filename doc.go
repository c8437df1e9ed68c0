// Package parkauth is the client-side session core of the parking
// reservation application: an in-memory access token renewed ahead of
// expiry, a refresh token carried in a cookie with double-submit CSRF
// protection, and a navigation guard that gates routes on the session.
//
// A [Client] is assembled by [Builder]:
//
//	client, err := parkauth.New().
//		WithConfig(cfg).
//		WithLogger(logger).
//		Build()
//
// It wires the notification channel, session store, request gateway,
// backend API, guard and router together. All Client methods are safe for
// concurrent use.
//
// # Architecture boundaries
//
// The root package only wires. Token decoding lives in jwt, timers and
// state in session, header injection in gateway, route decisions in guard
// and user messages in notify. Subpackages never import the root package.
package parkauth
