// Package prometheus provides Prometheus collectors for medcore metrics.
//
// [NewPrometheusExporter] accepts a [medcore.Engine] and exposes an [http.Handler]
// that renders all medcore counters and histograms in Prometheus text exposition format.
// Counter names are prefixed medcore_*_total; the single histogram is
// medcore_verify_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry — callers mount the Handler.
//   - Mutate engine state.
package prometheus
