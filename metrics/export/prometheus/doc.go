// Package prometheus renders client session metrics in Prometheus text
// exposition format.
//
// [NewExporter] reads from any [Source] (the parkauth Client satisfies it) and
// exposes an [http.Handler]. Counter names are prefixed parkauth_*_total; the
// single histogram is parkauth_refresh_latency_seconds.
//
// Nothing is registered in a global Prometheus registry; callers mount the
// handler themselves.
package prometheus
