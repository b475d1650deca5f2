// Package gate implements the VIREL safety state machine.
//
// The gate decides whether a set of independently-administered domains
// may operate normally (OPERATIONAL) or must hold in a conservative
// fallback (SAFE_ON). It consumes domain votes, countdown ticks, and
// quorum outcomes, and is the single writer for every piece of protocol
// state: epoch, Lamport clock, vote ledger, provisional countdown, and
// mode. All mutations are serialized through one lock so that no
// interleaving can leave two domains permanently disagreeing about the
// authoritative epoch.
//
// # States
//
//   - OPERATIONAL: normal service.
//   - PENDING_SAFE: a HALT or RES vote opened scrutiny; the provisional
//     countdown bounds how long the question may stay open.
//   - SAFE_ON: fencing in effect.
//
// Externally only OPERATIONAL and SAFE_ON are visible; PENDING_SAFE
// reports the last committed mode. A pending question resolves by
// quorum (HALT or RESUME) or by countdown expiry, which always resolves
// to SAFE_ON: when liveness and safety conflict, safety wins.
//
// Every resolved question advances the epoch. Exhausting the epoch
// range freezes the gate in its last committed mode; all further calls
// return ErrProtocolHalted and operators must intervene.
package gate
