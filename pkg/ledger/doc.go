// Package ledger implements the per-domain vote ledger for the VIREL
// safety gate.
//
// Each participating domain casts HALT and RES votes into the ledger.
// Votes are append-only per domain and scoped to the active epoch: when
// the epoch advances the active window resets and votes from prior
// epochs are no longer evaluated (historical storage is an external
// concern).
//
// The quorum outcome is computed from each domain's latest vote in the
// active epoch, where "latest" means the vote with the highest Lamport
// stamp, never network arrival order. A decision requires full
// participation: until every domain has voted at least once the outcome
// stays PENDING, and the bounded provisional countdown guarantees that
// a PENDING state cannot persist indefinitely.
package ledger
