package provisional

import (
	"errors"
	"testing"
)

func TestCountdownInitiallyIdle(t *testing.T) {
	c := New()

	if c.Armed() {
		t.Error("Armed() = true on new countdown, want false")
	}
	if got := c.Tick(); got != StatusIdle {
		t.Errorf("Tick() = %v on disarmed countdown, want IDLE", got)
	}
}

func TestCountdownExpiresOnce(t *testing.T) {
	c := New()
	if err := c.Start(3); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if got := c.Tick(); got != StatusRunning {
		t.Errorf("tick 1 = %v, want RUNNING", got)
	}
	if got := c.Tick(); got != StatusRunning {
		t.Errorf("tick 2 = %v, want RUNNING", got)
	}
	if got := c.Tick(); got != StatusExpired {
		t.Errorf("tick 3 = %v, want EXPIRED", got)
	}

	// Expired exactly once, then idle.
	if got := c.Tick(); got != StatusIdle {
		t.Errorf("tick 4 = %v, want IDLE", got)
	}
	if c.Armed() {
		t.Error("Armed() = true after expiry, want false")
	}
}

func TestCountdownSingleTickBudget(t *testing.T) {
	c := New()
	if err := c.Start(1); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if got := c.Tick(); got != StatusExpired {
		t.Errorf("Tick() = %v with budget 1, want EXPIRED", got)
	}
}

func TestCountdownInvalidBudget(t *testing.T) {
	c := New()

	for _, budget := range []int{0, -1} {
		if err := c.Start(budget); !errors.Is(err, ErrInvalidBudget) {
			t.Errorf("Start(%d) error = %v, want ErrInvalidBudget", budget, err)
		}
	}
	if c.Armed() {
		t.Error("Armed() = true after rejected Start, want false")
	}
}

func TestCountdownRestartOverwrites(t *testing.T) {
	c := New()
	if err := c.Start(2); err != nil {
		t.Fatal(err)
	}
	c.Tick() // 1 remaining

	// Re-arming replaces the running countdown.
	if err := c.Start(3); err != nil {
		t.Fatal(err)
	}
	if got := c.Remaining(); got != 3 {
		t.Errorf("Remaining() = %d after restart, want 3", got)
	}
	if got := c.Tick(); got != StatusRunning {
		t.Errorf("Tick() = %v after restart, want RUNNING", got)
	}
}

func TestCountdownCancel(t *testing.T) {
	c := New()
	if err := c.Start(5); err != nil {
		t.Fatal(err)
	}

	c.Cancel()

	if c.Armed() {
		t.Error("Armed() = true after Cancel, want false")
	}
	if got := c.Tick(); got != StatusIdle {
		t.Errorf("Tick() = %v after Cancel, want IDLE", got)
	}

	// Cancel on a disarmed countdown is a no-op.
	c.Cancel()
}

func TestCountdownRemaining(t *testing.T) {
	c := New()
	if got := c.Remaining(); got != 0 {
		t.Errorf("Remaining() = %d on disarmed countdown, want 0", got)
	}

	if err := c.Start(4); err != nil {
		t.Fatal(err)
	}
	c.Tick()
	if got := c.Remaining(); got != 3 {
		t.Errorf("Remaining() = %d, want 3", got)
	}
}

func TestStatusString(t *testing.T) {
	tests := []struct {
		s    Status
		want string
	}{
		{StatusIdle, "IDLE"},
		{StatusRunning, "RUNNING"},
		{StatusExpired, "EXPIRED"},
		{Status(9), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}
