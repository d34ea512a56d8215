// Package regulator provides a bit-selected action dispatcher with conflict checking.
//
// A [Regulator] binds an ordered list of actions to bit positions 0..N of a selector
// value. [Regulator.Regulate] first scans a conflict table; if the selector shares a bit
// with the union of any entry's "from" and "to" values, it fails with
// [ErrConflictDetected] and runs nothing. Otherwise it runs the action of every set bit,
// from the highest bit down to bit 0, each mutating the caller's item in place.
//
// Selectors are any type satisfying [sigma.Sigma]; the sigma package ships 8- to 512-bit
// masks.
//
// # Architecture boundaries
//
// regulator is the public surface. Audit buffering lives in internal/audit; rule-set
// files, persistence, and selector tokens live in the ruleset, store, and token packages,
// which depend on this package and never the reverse.
//
// # Concurrency
//
// A Regulator is immutable after construction. Regulate holds no locks and may run
// concurrently as long as each call supplies its own item. Metrics are atomic and the
// audit dispatcher is goroutine-safe.
package regulator
