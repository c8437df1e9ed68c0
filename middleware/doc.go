// Package middleware holds the HTTP guards used by the development backend.
//
// # Guards
//
//   - [RequireAccess] verifies a bearer access token. It is stateless and
//     never touches Redis.
//   - [RequireRefresh] verifies the refresh cookie, the double-submit CSRF
//     header and the revocation list.
//
// Both inject the verified claims into the request context, readable with
// [ClaimsFromContext]. Rejections are written as 401 with a JSON body of the
// form {"msg": "..."}.
package middleware
