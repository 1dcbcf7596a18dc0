// Package prometheus exposes authcore metrics as a Prometheus collector.
//
// [NewExporter] accepts an [authcore.Provider] and implements
// [prometheus.Collector] over its metrics snapshot. Counter names are
// prefixed authcore_*_total; the single histogram is
// authcore_session_lookup_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in the global Prometheus registry — callers mount
//     the Handler or register the collector themselves.
//   - Mutate provider state.
package prometheus
