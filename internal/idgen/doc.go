// Package idgen issues globally unique 64-bit identifiers across an
// auto-scaling fleet without a central sequencer process.
//
// Two independent, mutually incompatible schemes are provided:
//
//   - Time-ordered: 41-bit epoch-relative milliseconds, a 10-bit machine
//     slot leased from the coordination store, and a 12-bit per-millisecond
//     counter. IDs are minted locally with no store round-trip.
//   - Centralized sequence: a 51-bit counter kept in the store, reserved in
//     batches with one atomic increment, plus two 6-bit random salts.
//
// IDs cross the wire as base-10 strings so callers with less than 64 bits of
// integer precision never truncate them.
package idgen
