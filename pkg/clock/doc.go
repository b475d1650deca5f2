// Package clock implements the clock authority for the VIREL safety gate.
//
// The authority owns the two counters that order every safety decision:
//
//   - The epoch counter: a generation number for decisions. It advances
//     exactly once per completed decision cycle and never wraps. Exhausting
//     the configured epoch range is terminal for the protocol.
//   - The Lamport clock: a logical counter advanced on every processed
//     event (vote, timer tick, mode transition). It totally orders events
//     within an epoch; across epochs ordering is lexicographic on
//     (epoch, lamport) because the Lamport clock restarts at zero when the
//     epoch advances.
//
// All other components read these counters; only the authority mutates
// them. Epoch advances notify registered hooks so that epoch-scoped state
// (the vote ledger's active window, the provisional countdown) can be
// reset atomically with the rollover.
package clock
