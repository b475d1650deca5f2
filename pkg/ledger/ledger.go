package ledger

import (
	"errors"
	"fmt"
	"sync"
)

// Ledger errors.
var (
	// ErrStaleEpoch indicates a vote was cast for an epoch other than
	// the active one. The vote is dropped, never retried.
	ErrStaleEpoch = errors.New("vote epoch is not the active epoch")

	// ErrUnknownDomain indicates a vote from a domain outside the
	// configured membership set.
	ErrUnknownDomain = errors.New("unknown domain")
)

// Vote is a single domain's request token.
type Vote uint8

const (
	// VoteHalt requests fencing: the system should fall back to SAFE_ON.
	VoteHalt Vote = 1

	// VoteResume requests recovery: the system may return to OPERATIONAL.
	VoteResume Vote = 2
)

// String returns the wire token for the vote.
func (v Vote) String() string {
	switch v {
	case VoteHalt:
		return "HALT"
	case VoteResume:
		return "RES"
	default:
		return "UNKNOWN"
	}
}

// IsValid reports whether v is a known vote token.
func (v Vote) IsValid() bool {
	return v == VoteHalt || v == VoteResume
}

// ParseVote converts a wire token into a Vote.
func ParseVote(token string) (Vote, error) {
	switch token {
	case "HALT":
		return VoteHalt, nil
	case "RES":
		return VoteResume, nil
	default:
		return 0, fmt.Errorf("unknown vote token %q", token)
	}
}

// Outcome is the aggregate quorum decision for an epoch.
type Outcome uint8

const (
	// OutcomePending means no decision yet: missing participants or an
	// exact tie. Ties favor safety by never resolving to RESUME.
	OutcomePending Outcome = 0

	// OutcomeHalt means a strict majority of latest votes is HALT.
	OutcomeHalt Outcome = 1

	// OutcomeResume means a strict majority of latest votes is RES.
	OutcomeResume Outcome = 2
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "PENDING"
	case OutcomeHalt:
		return "HALT"
	case OutcomeResume:
		return "RESUME"
	default:
		return "UNKNOWN"
	}
}

// Entry is one recorded vote with its Lamport stamp.
type Entry struct {
	Vote    Vote
	Lamport uint64
}

// Ledger records votes per domain for the active epoch.
// Appends are serialized; reads may run concurrently.
type Ledger struct {
	mu sync.RWMutex

	// Fixed membership. Domains are never created or destroyed here.
	domains map[string]struct{}

	// Active epoch and its vote sequences.
	epoch uint64
	votes map[string][]Entry
}

// New creates a ledger for the given fixed domain set, starting at epoch.
func New(domains []string, epoch uint64) *Ledger {
	l := &Ledger{
		domains: make(map[string]struct{}, len(domains)),
		epoch:   epoch,
		votes:   make(map[string][]Entry, len(domains)),
	}
	for _, d := range domains {
		l.domains[d] = struct{}{}
		l.votes[d] = nil
	}
	return l
}

// Epoch returns the active epoch.
func (l *Ledger) Epoch() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.epoch
}

// Domains returns the configured domain set.
func (l *Ledger) Domains() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]string, 0, len(l.domains))
	for d := range l.domains {
		out = append(out, d)
	}
	return out
}

// Knows reports whether domain belongs to the configured set.
func (l *Ledger) Knows(domain string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.domains[domain]
	return ok
}

// Record appends a vote for domain in the given epoch.
// Returns ErrUnknownDomain for domains outside the membership set and
// ErrStaleEpoch when epoch is not the active epoch.
func (l *Ledger) Record(domain string, v Vote, epoch, lamport uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.domains[domain]; !ok {
		return ErrUnknownDomain
	}
	if epoch != l.epoch {
		return ErrStaleEpoch
	}

	l.votes[domain] = append(l.votes[domain], Entry{Vote: v, Lamport: lamport})
	return nil
}

// Reset advances the active-epoch view. All recorded votes are
// discarded; sequences for prior epochs are immutable by construction
// and not retained.
func (l *Ledger) Reset(epoch uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.epoch = epoch
	for d := range l.votes {
		l.votes[d] = nil
	}
}

// Latest returns domain's most recent vote in the active epoch, selected
// by Lamport stamp. The second return is false if the domain has not
// voted (abstained) or is unknown.
func (l *Ledger) Latest(domain string) (Vote, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.latestLocked(domain)
}

func (l *Ledger) latestLocked(domain string) (Vote, bool) {
	entries := l.votes[domain]
	if len(entries) == 0 {
		return 0, false
	}
	best := entries[0]
	for _, e := range entries[1:] {
		if e.Lamport > best.Lamport {
			best = e
		}
	}
	return best.Vote, true
}

// HasHalt reports whether domain has any HALT vote on record for the
// active epoch. Used for audit checks: a fenced system must trace back
// to at least one HALT request.
func (l *Ledger) HasHalt(domain string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, e := range l.votes[domain] {
		if e.Vote == VoteHalt {
			return true
		}
	}
	return false
}

// Participation returns the number of domains with at least one vote in
// the active epoch.
func (l *Ledger) Participation() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := 0
	for d := range l.domains {
		if len(l.votes[d]) > 0 {
			n++
		}
	}
	return n
}

// Outcome evaluates the quorum decision for the given epoch.
//
// The result depends only on each domain's latest vote, so it is
// independent of append order. A decision requires every domain to have
// voted in the active epoch; a strict majority of latest votes then
// decides. Missing participants or an exact tie yield PENDING.
// Evaluating any epoch other than the active one yields PENDING: prior
// epochs are already decided and their votes discarded.
func (l *Ledger) Outcome(epoch uint64) Outcome {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if epoch != l.epoch {
		return OutcomePending
	}

	halt, resume := 0, 0
	for d := range l.domains {
		v, ok := l.latestLocked(d)
		if !ok {
			return OutcomePending
		}
		switch v {
		case VoteHalt:
			halt++
		case VoteResume:
			resume++
		}
	}

	total := len(l.domains)
	switch {
	case halt*2 > total:
		return OutcomeHalt
	case resume*2 > total:
		return OutcomeResume
	default:
		return OutcomePending
	}
}
