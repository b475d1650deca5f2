package clock

import (
	"errors"
	"sync"
)

// Default counter bounds. Both are deliberately generous: hitting either
// in production indicates a runaway event source, not normal operation.
const (
	// DefaultEpochMax is the default upper bound for the epoch counter.
	DefaultEpochMax = 1 << 32

	// DefaultLamportMax is the default upper bound for the Lamport clock
	// within a single epoch.
	DefaultLamportMax = 1 << 32
)

// Authority errors.
var (
	// ErrClockOverflow indicates the Lamport clock reached its per-epoch
	// bound. The caller recovers by forcing an epoch rollover.
	ErrClockOverflow = errors.New("lamport clock overflow")

	// ErrEpochExhausted indicates the epoch counter reached its bound.
	// This is terminal: no further safety decisions can be made and the
	// condition must be surfaced to operators.
	ErrEpochExhausted = errors.New("epoch counter exhausted")
)

// Snapshot is a read-only view of the authority's counters.
type Snapshot struct {
	Epoch   uint64
	Lamport uint64
}

// Config holds the authority's counter bounds and starting values.
type Config struct {
	// EpochMax is the inclusive upper bound for the epoch counter.
	// Zero selects DefaultEpochMax.
	EpochMax uint64

	// LamportMax is the inclusive upper bound for the Lamport clock.
	// Zero selects DefaultLamportMax.
	LamportMax uint64

	// Epoch and Lamport are the starting counter values, used when
	// resuming from a persisted snapshot.
	Epoch   uint64
	Lamport uint64
}

// Authority owns the epoch counter and the Lamport clock.
// It is safe for concurrent use.
type Authority struct {
	mu sync.RWMutex

	epoch   uint64
	lamport uint64

	epochMax   uint64
	lamportMax uint64

	// Hooks invoked after each successful epoch advance, in registration
	// order, while the lock is held. Hooks must not call back into the
	// authority.
	onEpochAdvance []func(epoch uint64)
}

// NewAuthority creates a clock authority from cfg.
func NewAuthority(cfg Config) *Authority {
	a := &Authority{
		epoch:      cfg.Epoch,
		lamport:    cfg.Lamport,
		epochMax:   cfg.EpochMax,
		lamportMax: cfg.LamportMax,
	}
	if a.epochMax == 0 {
		a.epochMax = DefaultEpochMax
	}
	if a.lamportMax == 0 {
		a.lamportMax = DefaultLamportMax
	}
	return a
}

// Current returns a snapshot of the counters.
func (a *Authority) Current() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return Snapshot{Epoch: a.epoch, Lamport: a.lamport}
}

// AdvanceLamport increments the Lamport clock and returns the new value.
// Returns ErrClockOverflow if the increment would exceed the per-epoch
// bound; the clock is left unchanged in that case.
func (a *Authority) AdvanceLamport() (uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.lamport >= a.lamportMax {
		return a.lamport, ErrClockOverflow
	}
	a.lamport++
	return a.lamport, nil
}

// AdvanceEpoch increments the epoch counter, restarts the Lamport clock
// at zero, and notifies registered hooks. Returns ErrEpochExhausted if
// the increment would exceed the epoch bound; counters are left
// unchanged in that case.
func (a *Authority) AdvanceEpoch() (uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.epoch >= a.epochMax {
		return a.epoch, ErrEpochExhausted
	}
	a.epoch++
	a.lamport = 0

	for _, fn := range a.onEpochAdvance {
		fn(a.epoch)
	}
	return a.epoch, nil
}

// OnEpochAdvance registers a hook invoked after every epoch advance with
// the new epoch value. Hooks run under the authority's lock and must be
// fast and non-reentrant.
func (a *Authority) OnEpochAdvance(fn func(epoch uint64)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onEpochAdvance = append(a.onEpochAdvance, fn)
}
