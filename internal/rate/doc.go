// Package rate implements fixed-window Redis counters used to throttle login
// and refresh attempts on the development backend.
//
// Each window is an INCR plus an EXPIRE on the first hit. Key layout under
// the configured prefix:
//   - <prefix>:login:<email>  failed logins per account
//   - <prefix>:ip:<addr>      failed logins per client address
//   - <prefix>:refresh:<sub>  refresh calls per account
package rate
