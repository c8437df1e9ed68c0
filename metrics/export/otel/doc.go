// Package otel binds client session metrics to OpenTelemetry observable
// instruments.
//
// [NewExporter] registers an Int64ObservableCounter per counter and an
// Int64ObservableGauge per histogram bucket. A single callback reads the
// source snapshot on each collection cycle. Callers own the MeterProvider.
package otel
