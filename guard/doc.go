// Package guard decides whether a navigation may proceed given the current
// session, and resolves paths against the static route table.
//
// [Guard.Before] applies its rules in a fixed order and returns the first
// outcome that fires:
//
//  1. wait for the session bootstrap when it has not completed,
//  2. send unauthenticated visitors of protected routes to the login route,
//  3. reject non-admins on admin routes, keeping them where they were,
//  4. send signed-in users away from guest-only routes to the home route,
//  5. otherwise allow.
//
// Rules 2 and 3 also show a notification. A denied navigation is a
// [Decision], never an error.
//
// [Router] keeps the current location and follows redirects, re-running the
// guard for each redirect target.
package guard
