// Package persistence provides runtime state persistence for VIREL gates.
//
// This package handles the JSON serialization of the gate's committed
// runtime state (mode, epoch, Lamport counter) so the safety posture
// survives daemon restarts. The CBOR audit log is handled separately
// by the log package's FileLogger.
package persistence
