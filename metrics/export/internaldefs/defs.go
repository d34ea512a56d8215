package internaldefs

import (
	"github.com/MrEthical07/regulator"
)

// Def names one exported series.
type Def struct {
	ID   regulator.MetricID
	Name string
	Help string
}

// AuditDroppedName is the counter exported for dispatcher backpressure drops.
const AuditDroppedName = "regulator_audit_dropped_total"

// CounterDefs lists every exported counter.
var CounterDefs = []Def{
	{ID: regulator.MetricRegulateSuccess, Name: "regulator_regulate_success_total", Help: "Regulate calls that dispatched without error."},
	{ID: regulator.MetricRegulateConflict, Name: "regulator_regulate_conflict_total", Help: "Regulate calls rejected by the conflict table."},
	{ID: regulator.MetricRegulateOutOfRange, Name: "regulator_regulate_out_of_range_total", Help: "Regulate calls rejected because a set bit had no usable action."},
	{ID: regulator.MetricActionInvoked, Name: "regulator_action_invoked_total", Help: "Individual action invocations."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []Def{
	{ID: regulator.MetricRegulateLatency, Name: "regulator_regulate_latency_seconds", Help: "Regulate latency histogram."},
}

// HistogramBounds are the Prometheus "le" labels matching the core bucket layout.
var HistogramBounds = [8]string{
	"0.00001",
	"0.00005",
	"0.0001",
	"0.0005",
	"0.001",
	"0.005",
	"0.01",
	"+Inf",
}

// HistogramBoundSuffix are instrument-name-safe forms of HistogramBounds.
var HistogramBoundSuffix = [8]string{
	"0_00001",
	"0_00005",
	"0_0001",
	"0_0005",
	"0_001",
	"0_005",
	"0_01",
	"inf",
}

// NormalizeBuckets copies up to eight raw buckets, zero-filling the rest.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	copy(out[:], raw)
	return out
}

// CumulativeBuckets converts per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i, v := range raw {
		running += v
		out[i] = running
	}
	return out
}
