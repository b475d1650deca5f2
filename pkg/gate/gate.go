package gate

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/virel-protocol/virel-go/pkg/clock"
	"github.com/virel-protocol/virel-go/pkg/ledger"
	"github.com/virel-protocol/virel-go/pkg/log"
	"github.com/virel-protocol/virel-go/pkg/provisional"
)

// Gate errors.
var (
	// ErrProtocolHalted is returned for every call after the epoch
	// counter is exhausted. The gate is frozen in its last committed
	// mode; callers must treat the safety gate as unavailable and apply
	// their own conservative default.
	ErrProtocolHalted = errors.New("safety protocol halted: epoch counter exhausted")

	// ErrInvalidVote indicates a vote token outside {HALT, RES}.
	ErrInvalidVote = errors.New("invalid vote token")

	// ErrNoDomains indicates an empty domain set in the configuration.
	ErrNoDomains = errors.New("at least one domain is required")
)

// Mode is the externally visible operating mode.
type Mode uint8

const (
	// ModeOperational is normal service.
	ModeOperational Mode = 0

	// ModeSafeOn is the conservative fallback: fencing is in effect.
	ModeSafeOn Mode = 1
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeOperational:
		return "OPERATIONAL"
	case ModeSafeOn:
		return "SAFE_ON"
	default:
		return "UNKNOWN"
	}
}

// IsValid reports whether m is a known mode.
func (m Mode) IsValid() bool {
	return m == ModeOperational || m == ModeSafeOn
}

// State is the internal state machine state. PENDING_SAFE refines the
// two external modes with the bounded-wait condition.
type State uint8

const (
	// StateOperational mirrors ModeOperational.
	StateOperational State = 0

	// StatePendingSafe means scrutiny is open: the countdown is armed
	// and the gate is waiting for a quorum decision.
	StatePendingSafe State = 1

	// StateSafeOn mirrors ModeSafeOn.
	StateSafeOn State = 2
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateOperational:
		return "OPERATIONAL"
	case StatePendingSafe:
		return "PENDING_SAFE"
	case StateSafeOn:
		return "SAFE_ON"
	default:
		return "UNKNOWN"
	}
}

// Config holds the gate configuration.
type Config struct {
	// Domains is the fixed set of participating domain identifiers.
	Domains []string

	// EpochMax and LamportMax bound the clock authority's counters.
	// Zero selects the clock package defaults.
	EpochMax   uint64
	LamportMax uint64

	// Budget is the provisional countdown budget in ticks.
	// Zero selects provisional.DefaultBudget.
	Budget int

	// InitialMode is the starting mode. Both modes are valid starting
	// points: a gate may be (re)started mid-incident.
	InitialMode Mode

	// Epoch and Lamport restore persisted counters after a restart.
	Epoch   uint64
	Lamport uint64

	// Logger receives audit events. Nil disables logging.
	Logger log.Logger
}

// Gate is the safety state machine. All state mutations are serialized
// through a single lock; accessors are safe for high-frequency polling.
type Gate struct {
	mu sync.RWMutex

	clk       *clock.Authority
	votes     *ledger.Ledger
	countdown *provisional.Countdown
	budget    int

	state  State
	mode   Mode // last committed external mode
	halted bool

	logger log.Logger

	onModeChange  []func(old, new Mode, snap clock.Snapshot)
	onStateChange []func(old, new State)

	// Callbacks queued during a locked section, fired after unlock.
	pending []func()
}

// New creates a gate from cfg.
func New(cfg Config) (*Gate, error) {
	if len(cfg.Domains) == 0 {
		return nil, ErrNoDomains
	}
	if !cfg.InitialMode.IsValid() {
		return nil, fmt.Errorf("invalid initial mode %d", cfg.InitialMode)
	}
	if cfg.Budget < 0 {
		return nil, provisional.ErrInvalidBudget
	}

	budget := cfg.Budget
	if budget == 0 {
		budget = provisional.DefaultBudget
	}

	g := &Gate{
		clk: clock.NewAuthority(clock.Config{
			EpochMax:   cfg.EpochMax,
			LamportMax: cfg.LamportMax,
			Epoch:      cfg.Epoch,
			Lamport:    cfg.Lamport,
		}),
		votes:     ledger.New(cfg.Domains, cfg.Epoch),
		countdown: provisional.New(),
		budget:    budget,
		logger:    cfg.Logger,
	}
	if g.logger == nil {
		g.logger = log.NoopLogger{}
	}

	switch cfg.InitialMode {
	case ModeSafeOn:
		g.state = StateSafeOn
		g.mode = ModeSafeOn
	default:
		g.state = StateOperational
		g.mode = ModeOperational
	}

	// Epoch advances reset all epoch-scoped state atomically.
	g.clk.OnEpochAdvance(func(epoch uint64) {
		g.votes.Reset(epoch)
		g.countdown.Cancel()
	})

	return g, nil
}

// Mode returns the last committed external mode. PENDING_SAFE reports
// the mode that was in effect when scrutiny opened.
func (g *Gate) Mode() Mode {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.mode
}

// State returns the internal state machine state.
func (g *Gate) State() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// Snapshot returns the current epoch and Lamport clock.
func (g *Gate) Snapshot() clock.Snapshot {
	return g.clk.Current()
}

// Halted reports whether the protocol is frozen.
func (g *Gate) Halted() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.halted
}

// Outcome returns the quorum outcome for the active epoch.
func (g *Gate) Outcome() ledger.Outcome {
	return g.votes.Outcome(g.clk.Current().Epoch)
}

// Remaining returns the provisional countdown's remaining ticks,
// or 0 when no scrutiny is open.
func (g *Gate) Remaining() int {
	return g.countdown.Remaining()
}

// Domains returns the configured domain set.
func (g *Gate) Domains() []string {
	return g.votes.Domains()
}

// OnModeChange registers a callback fired after every committed mode
// change with the clock snapshot taken at the commit. Callbacks run
// outside the gate's lock, in registration order.
func (g *Gate) OnModeChange(fn func(old, new Mode, snap clock.Snapshot)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onModeChange = append(g.onModeChange, fn)
}

// OnStateChange registers a callback fired after every internal state
// transition. Callbacks run outside the gate's lock.
func (g *Gate) OnStateChange(fn func(old, new State)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onStateChange = append(g.onStateChange, fn)
}

// SubmitVote processes one domain vote for the given epoch.
//
// Invalid, unknown-domain, and non-active-epoch votes are dropped with
// a recorded diagnostic and never block the state machine. A valid vote
// is stamped with a fresh Lamport value, appended to the ledger, and
// may open scrutiny or resolve it via quorum.
func (g *Gate) SubmitVote(domain string, v ledger.Vote, epoch uint64) error {
	g.mu.Lock()
	err := g.submitVoteLocked(domain, v, epoch)
	cbs := g.takePendingLocked()
	g.mu.Unlock()

	for _, cb := range cbs {
		cb()
	}
	return err
}

func (g *Gate) submitVoteLocked(domain string, v ledger.Vote, epoch uint64) error {
	if g.halted {
		return ErrProtocolHalted
	}
	if !v.IsValid() {
		g.logDropLocked(domain, v, epoch, "invalid vote token")
		return ErrInvalidVote
	}
	if !g.votes.Knows(domain) {
		g.logDropLocked(domain, v, epoch, "unknown domain")
		return ledger.ErrUnknownDomain
	}
	if active := g.clk.Current().Epoch; epoch != active {
		g.logDropLocked(domain, v, epoch, "stale epoch")
		return ledger.ErrStaleEpoch
	}

	lamport, err := g.clk.AdvanceLamport()
	if errors.Is(err, clock.ErrClockOverflow) {
		// The per-epoch clock budget is spent: force a rollover. The
		// vote's target epoch is stale afterwards, so it is dropped.
		if err := g.rolloverLocked("lamport overflow"); err != nil {
			return err
		}
		g.logDropLocked(domain, v, epoch, "stale epoch after forced rollover")
		return ledger.ErrStaleEpoch
	}

	if err := g.votes.Record(domain, v, epoch, lamport); err != nil {
		g.logDropLocked(domain, v, epoch, err.Error())
		return err
	}
	g.logVoteLocked(domain, v, epoch, lamport)

	switch g.state {
	case StateOperational:
		if v == ledger.VoteHalt {
			// A single domain may open scrutiny.
			g.enterPendingSafeLocked("halt vote from " + domain)
		}
	case StateSafeOn:
		if v == ledger.VoteResume {
			g.enterPendingSafeLocked("resume vote from " + domain)
		}
		// A HALT while already SAFE_ON re-affirms fencing; the Lamport
		// stamp above keeps it in the audit order.
	}

	if g.state == StatePendingSafe && !g.halted {
		switch g.votes.Outcome(g.clk.Current().Epoch) {
		case ledger.OutcomeHalt:
			g.enterSafeOnLocked("halt quorum")
		case ledger.OutcomeResume:
			g.enterOperationalLocked("resume quorum")
		}
	}
	return nil
}

// Tick consumes one tick from the external scheduler. Ticks while no
// scrutiny is open are no-ops. While the countdown is armed, each tick
// is an observed event: it advances the Lamport clock and may expire
// the countdown, which resolves the pending question to SAFE_ON.
func (g *Gate) Tick() error {
	g.mu.Lock()
	err := g.tickLocked()
	cbs := g.takePendingLocked()
	g.mu.Unlock()

	for _, cb := range cbs {
		cb()
	}
	return err
}

func (g *Gate) tickLocked() error {
	if g.halted {
		return ErrProtocolHalted
	}
	if !g.countdown.Armed() {
		return nil
	}

	if _, err := g.clk.AdvanceLamport(); errors.Is(err, clock.ErrClockOverflow) {
		// Rollover restarts the scrutiny window in the new epoch.
		return g.rolloverLocked("lamport overflow")
	}

	if g.countdown.Tick() == provisional.StatusExpired {
		g.logStateLocked(log.StateEntityCountdown, "RUNNING", "EXPIRED", "")
		if g.state == StatePendingSafe {
			// Timeout defaults to the safe choice. Never an error.
			g.enterSafeOnLocked("countdown expired with quorum pending")
		}
	}
	return nil
}

// enterPendingSafeLocked opens scrutiny: arms the countdown and stamps
// the transition.
func (g *Gate) enterPendingSafeLocked(reason string) {
	old := g.state
	g.state = StatePendingSafe
	_ = g.countdown.Start(g.budget)

	if _, err := g.clk.AdvanceLamport(); errors.Is(err, clock.ErrClockOverflow) {
		if g.rolloverLocked("lamport overflow") != nil {
			return
		}
	}

	g.logStateLocked(log.StateEntityGate, old.String(), g.state.String(), reason)
	g.queueStateChangeLocked(old, g.state)
}

// enterSafeOnLocked resolves the pending question to SAFE_ON. The mode
// commits before the epoch advances: fencing must hold even when the
// epoch range is exhausted at the worst moment.
func (g *Gate) enterSafeOnLocked(reason string) {
	oldState := g.state
	oldMode := g.mode
	g.state = StateSafeOn
	g.mode = ModeSafeOn
	g.countdown.Cancel()

	// Exhaustion here still leaves the gate fenced; the halt is
	// recorded inside rolloverLocked.
	_ = g.rolloverLocked(reason)

	if !g.halted {
		// Stamp the transition in the fresh epoch.
		_, _ = g.clk.AdvanceLamport()
	}

	g.logStateLocked(log.StateEntityGate, oldState.String(), g.state.String(), reason)
	g.queueStateChangeLocked(oldState, g.state)
	if oldMode != g.mode {
		snap := g.clk.Current()
		g.logStateLocked(log.StateEntityMode, oldMode.String(), g.mode.String(), reason)
		g.queueModeChangeLocked(oldMode, g.mode, snap)
	}
}

// enterOperationalLocked resolves the pending question to OPERATIONAL.
// The epoch advances first and the mode commits only on success: a gate
// that can no longer issue decisions must not promise normal service.
func (g *Gate) enterOperationalLocked(reason string) {
	if err := g.rolloverLocked(reason); err != nil {
		return
	}

	oldState := g.state
	oldMode := g.mode
	g.state = StateOperational
	g.mode = ModeOperational
	g.countdown.Cancel()
	_, _ = g.clk.AdvanceLamport()

	g.logStateLocked(log.StateEntityGate, oldState.String(), g.state.String(), reason)
	g.queueStateChangeLocked(oldState, g.state)
	if oldMode != g.mode {
		snap := g.clk.Current()
		g.logStateLocked(log.StateEntityMode, oldMode.String(), g.mode.String(), reason)
		g.queueModeChangeLocked(oldMode, g.mode, snap)
	}
}

// rolloverLocked advances the epoch. The clock authority's hooks reset
// the vote ledger and cancel the countdown; if scrutiny was open it is
// re-armed so the question is re-asked in the new epoch. Exhaustion
// freezes the gate.
func (g *Gate) rolloverLocked(reason string) error {
	old := g.clk.Current().Epoch
	epoch, err := g.clk.AdvanceEpoch()
	if errors.Is(err, clock.ErrEpochExhausted) {
		g.haltLocked()
		return ErrProtocolHalted
	}

	g.logStateLocked(log.StateEntityEpoch,
		fmt.Sprintf("%d", old), fmt.Sprintf("%d", epoch), reason)

	if g.state == StatePendingSafe {
		_ = g.countdown.Start(g.budget)
	}
	return nil
}

// haltLocked freezes the gate in its last committed mode.
func (g *Gate) haltLocked() {
	if g.halted {
		return
	}
	g.halted = true
	g.countdown.Cancel()
	g.logStateLocked(log.StateEntityGate, g.state.String(), "HALTED",
		clock.ErrEpochExhausted.Error())
}

func (g *Gate) queueModeChangeLocked(old, new Mode, snap clock.Snapshot) {
	for _, fn := range g.onModeChange {
		fn := fn
		g.pending = append(g.pending, func() { fn(old, new, snap) })
	}
}

func (g *Gate) queueStateChangeLocked(old, new State) {
	for _, fn := range g.onStateChange {
		fn := fn
		g.pending = append(g.pending, func() { fn(old, new) })
	}
}

func (g *Gate) takePendingLocked() []func() {
	cbs := g.pending
	g.pending = nil
	return cbs
}

func (g *Gate) logVoteLocked(domain string, v ledger.Vote, epoch, lamport uint64) {
	g.logger.Log(log.Event{
		Timestamp: time.Now(),
		Direction: log.DirectionIn,
		Layer:     log.LayerGate,
		Category:  log.CategoryVote,
		Epoch:     epoch,
		Lamport:   lamport,
		Domain:    domain,
		Vote: &log.VoteEvent{
			Token:     v.String(),
			VoteEpoch: epoch,
			Accepted:  true,
		},
	})
}

func (g *Gate) logDropLocked(domain string, v ledger.Vote, epoch uint64, reason string) {
	snap := g.clk.Current()
	g.logger.Log(log.Event{
		Timestamp: time.Now(),
		Direction: log.DirectionIn,
		Layer:     log.LayerGate,
		Category:  log.CategoryVote,
		Epoch:     snap.Epoch,
		Lamport:   snap.Lamport,
		Domain:    domain,
		Vote: &log.VoteEvent{
			Token:     v.String(),
			VoteEpoch: epoch,
			Accepted:  false,
			Reason:    reason,
		},
	})
}

func (g *Gate) logStateLocked(entity log.StateEntity, old, new, reason string) {
	snap := g.clk.Current()
	g.logger.Log(log.Event{
		Timestamp: time.Now(),
		Layer:     log.LayerGate,
		Category:  log.CategoryState,
		Epoch:     snap.Epoch,
		Lamport:   snap.Lamport,
		StateChange: &log.StateChangeEvent{
			Entity:   entity,
			OldState: old,
			NewState: new,
			Reason:   reason,
		},
	})
}
