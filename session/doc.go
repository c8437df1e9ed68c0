// Package session holds the client's authentication state: the in-memory
// access token, the cached user profile and the renewal timer that refreshes
// the token before it expires.
//
// # Lifecycle
//
// A [Store] starts unauthenticated. [Store.Login] or a successful
// [Store.Refresh] populates it; [Store.Logout] or a failed refresh tears it
// down. [Store.CheckSession] is the bootstrap step: it restores the persisted
// profile and, when a profile exists without a live token, attempts one
// refresh. It always latches [Store.AuthReady].
//
// # Concurrency
//
// State is guarded by a mutex that is never held across a backend call.
// Concurrent refreshes within one session generation share a single backend
// request. Every login and every clear starts a new generation; a refresh
// result from an older generation is discarded with [ErrSessionSuperseded].
//
// # Persistence
//
// Only the user profile is persisted, through a [ProfileStore]. The access
// token lives in memory and is recovered after a restart through the refresh
// cookie.
package session
