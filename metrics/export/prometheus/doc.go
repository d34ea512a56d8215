// Package prometheus renders regulator metrics in the Prometheus text exposition format.
//
// [NewExporter] reads a metrics source (usually a *regulator.Regulator) on every scrape.
// Counters are named regulator_*_total; the single histogram is
// regulator_regulate_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry; callers mount the Handler.
//   - Mutate regulator state.
package prometheus
