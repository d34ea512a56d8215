// Package sigma provides the bit-set capability contract used by the regulator, fixed-width
// mask types that satisfy it, a mask codec, and name-to-bit helpers.
//
// # Mask sizes
//
// Supported widths: 8, 16, 32, 64, 128, 256, and 512 bits. Widths up to 64 are plain
// unsigned integers; wider masks are fixed arrays of uint64 words. All masks are
// comparable values, so they can key a conflict table, and their zero value is the empty
// set.
//
// # Architecture boundaries
//
// This package is a pure in-memory data structure with no I/O. It provides the codec
// (EncodeMask/DecodeMask) used by rule-set stores and selector tokens.
//
// # What this package must NOT do
//
//   - Access Redis, databases, or the network.
//   - Import regulator, ruleset, store, or token.
//   - Resize a mask after construction.
package sigma
