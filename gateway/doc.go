// Package gateway is the outbound HTTP layer shared by every backend call.
//
// A [Gateway] owns an *http.Client whose transport adds two headers to each
// request before it is sent:
//
//   - Authorization: Bearer <token>, when a token is held and the request
//     does not target the refresh endpoint. The refresh call authenticates
//     with its cookie and must never carry a stale bearer token.
//   - X-CSRF-TOKEN, echoing the csrf_refresh_token cookie when present.
//
// The transport never retries and never touches the request body. Cookies
// are carried by an [http.CookieJar]; [JarCookieReader] exposes the readable
// anti-CSRF cookie from the same jar.
package gateway
