// Package events carries session lifecycle events (login, refresh, clear,
// logout, guard decisions) from the client components to pluggable sinks.
//
// Emission is asynchronous: a [Dispatcher] buffers events and forwards them
// to its [Sink] on a single goroutine, so a slow sink never stalls a
// navigation or a token renewal. When the buffer is full the dispatcher
// either drops (counting drops) or blocks until the caller's context ends.
package events
