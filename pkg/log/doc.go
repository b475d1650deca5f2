// Package log provides the audit log for the VIREL safety gate.
//
// Every event the gate processes (votes, countdown ticks, mode
// transitions, connection lifecycle, errors) can be captured as an
// Event and handed to a Logger. Gate-layer events carry the epoch and
// Lamport stamp assigned by the clock authority, so a recorded stream
// is totally ordered by (epoch, lamport) regardless of wall-clock skew
// between domains.
//
// Loggers are pluggable: NoopLogger discards, SlogAdapter bridges to
// log/slog for console output, FileLogger appends CBOR-encoded events
// to a file, and MultiLogger fans out to several sinks. Reader streams
// events back out of a CBOR audit file with optional filtering.
package log
