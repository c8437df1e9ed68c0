// Package api holds typed calls to the parking backend's auth and user
// endpoints, built on the request gateway.
package api
