// Package jwt decodes the expiry of bearer tokens held by the client and,
// for the development backend, issues and verifies access and refresh tokens.
//
// # Client side
//
// The client never holds a verification key. [ExpiresAt] and [Decode] read
// the claims segment without checking the signature; the backend remains the
// only authority on validity. A token that cannot be decoded is reported as
// [ErrMalformedToken].
//
// # Server side
//
// [Manager] signs tokens with HS256 or Ed25519 and is only used by the
// devserver package and by tests.
package jwt
