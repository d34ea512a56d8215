// Package otel binds regulator metrics to OpenTelemetry observable instruments.
//
// [NewExporter] registers an Int64ObservableCounter per regulator counter and an
// Int64ObservableGauge per histogram bucket. One callback reads the source snapshot on
// each collection cycle.
//
// # What this package must NOT do
//
//   - Own the MeterProvider; callers supply the Meter.
//   - Mutate regulator state.
package otel
