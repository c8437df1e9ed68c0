package internaldefs

import "github.com/MrEthical07/parkauth/metrics"

// CounterDef names one counter.
type CounterDef struct {
	ID   metrics.ID
	Name string
	Help string
}

// HistogramDef names one histogram.
type HistogramDef struct {
	ID   metrics.ID
	Name string
	Help string
}

// DroppedEventsName is the counter for events lost to dispatcher backpressure.
const (
	DroppedEventsName = "parkauth_events_dropped_total"
	DroppedEventsHelp = "Dropped session events due to dispatcher backpressure."
)

var CounterDefs = []CounterDef{
	{ID: metrics.LoginSuccess, Name: "parkauth_login_success_total", Help: "Sessions established by login."},
	{ID: metrics.LoginFailure, Name: "parkauth_login_failure_total", Help: "Login requests rejected by the backend."},
	{ID: metrics.RefreshSuccess, Name: "parkauth_refresh_success_total", Help: "Successful access-token refreshes."},
	{ID: metrics.RefreshFailure, Name: "parkauth_refresh_failure_total", Help: "Failed access-token refreshes."},
	{ID: metrics.RefreshShared, Name: "parkauth_refresh_shared_total", Help: "Refresh callers that joined an in-flight refresh."},
	{ID: metrics.RefreshSuperseded, Name: "parkauth_refresh_superseded_total", Help: "Refresh results discarded after the session changed."},
	{ID: metrics.RenewalScheduled, Name: "parkauth_renewal_scheduled_total", Help: "Renewal timers armed ahead of expiry."},
	{ID: metrics.RenewalImmediate, Name: "parkauth_renewal_immediate_total", Help: "Renewals triggered immediately because the token was inside the buffer."},
	{ID: metrics.TokenMalformed, Name: "parkauth_token_malformed_total", Help: "Access tokens whose expiry could not be decoded."},
	{ID: metrics.SessionCleared, Name: "parkauth_session_cleared_total", Help: "Local session teardowns."},
	{ID: metrics.Logout, Name: "parkauth_logout_total", Help: "Logout operations."},
	{ID: metrics.LogoutBackendFailure, Name: "parkauth_logout_backend_failure_total", Help: "Logout calls whose backend invalidation failed."},
	{ID: metrics.GuardAllow, Name: "parkauth_guard_allow_total", Help: "Navigations allowed by the guard."},
	{ID: metrics.GuardLoginRedirect, Name: "parkauth_guard_login_redirect_total", Help: "Navigations redirected to login."},
	{ID: metrics.GuardReject, Name: "parkauth_guard_reject_total", Help: "Navigations rejected for missing admin role."},
	{ID: metrics.GuardHomeRedirect, Name: "parkauth_guard_home_redirect_total", Help: "Guest-only navigations redirected home."},
	{ID: metrics.NotificationShown, Name: "parkauth_notification_shown_total", Help: "Notifications shown to the user."},
	{ID: metrics.ProfileFetchFailure, Name: "parkauth_profile_fetch_failure_total", Help: "Failed profile fetches."},
}

var HistogramDefs = []HistogramDef{
	{ID: metrics.RefreshLatency, Name: "parkauth_refresh_latency_seconds", Help: "Refresh round-trip latency histogram."},
}

var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates raw to the fixed bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
