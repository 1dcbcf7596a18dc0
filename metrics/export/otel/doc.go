// Package otel provides OpenTelemetry metric exporter bindings for authcore
// counters and histograms.
//
// [NewExporter] registers Int64ObservableCounter instruments for each core
// metric and Int64ObservableGauge per histogram bucket. A single callback
// reads the provider's metrics snapshot on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider — callers supply the Meter.
//   - Mutate provider state.
package otel
