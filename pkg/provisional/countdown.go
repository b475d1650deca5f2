package provisional

import (
	"errors"
	"sync"
)

// DefaultBudget is the default countdown budget in ticks.
const DefaultBudget = 10

// ErrInvalidBudget indicates a non-positive countdown budget.
var ErrInvalidBudget = errors.New("countdown budget must be positive")

// Status is the result of a single tick.
type Status uint8

const (
	// StatusIdle means no countdown is armed; the tick had no effect.
	StatusIdle Status = iota

	// StatusRunning means the countdown decremented and has ticks left.
	StatusRunning

	// StatusExpired means the countdown just reached zero. Returned
	// exactly once per armed countdown; further ticks are idle until
	// the countdown is re-armed.
	StatusExpired
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "IDLE"
	case StatusRunning:
		return "RUNNING"
	case StatusExpired:
		return "EXPIRED"
	default:
		return "UNKNOWN"
	}
}

// Countdown is a tick-driven bounded wait. Safe for concurrent use.
type Countdown struct {
	mu sync.Mutex

	armed     bool
	remaining int
}

// New creates a disarmed countdown.
func New() *Countdown {
	return &Countdown{}
}

// Start arms the countdown with the given tick budget, overwriting any
// running countdown.
func (c *Countdown) Start(budget int) error {
	if budget <= 0 {
		return ErrInvalidBudget
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.armed = true
	c.remaining = budget
	return nil
}

// Tick consumes one tick. Returns StatusExpired exactly once when the
// budget is spent, StatusRunning while ticks remain, and StatusIdle when
// no countdown is armed.
func (c *Countdown) Tick() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.armed {
		return StatusIdle
	}

	c.remaining--
	if c.remaining > 0 {
		return StatusRunning
	}

	c.armed = false
	c.remaining = 0
	return StatusExpired
}

// Cancel disarms the countdown without expiring it. Safe to call when
// already disarmed.
func (c *Countdown) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.armed = false
	c.remaining = 0
}

// Armed reports whether a countdown is running.
func (c *Countdown) Armed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.armed
}

// Remaining returns the ticks left, or 0 when disarmed.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}
