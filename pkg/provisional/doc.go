// Package provisional implements the bounded countdown that limits how
// long the safety gate may remain in an uncertain, pending-quorum
// condition.
//
// The countdown is tick-driven: it owns no wall clock and no goroutine.
// An external scheduler drives the clock authority's tick path, and each
// tick decrements the armed countdown. Reaching zero produces a single
// EXPIRED result, which the state machine consumes as a safety trigger.
// Expiry is never an error.
//
// Only one countdown is meaningful at a time (the one governing the
// current pending decision), so arming overwrites any running countdown.
package provisional
