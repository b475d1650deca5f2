package clock

import (
	"errors"
	"testing"
)

func TestAuthorityInitialState(t *testing.T) {
	a := NewAuthority(Config{})

	snap := a.Current()
	if snap.Epoch != 0 {
		t.Errorf("Epoch = %d, want 0", snap.Epoch)
	}
	if snap.Lamport != 0 {
		t.Errorf("Lamport = %d, want 0", snap.Lamport)
	}
}

func TestAuthorityResume(t *testing.T) {
	a := NewAuthority(Config{Epoch: 7, Lamport: 42})

	snap := a.Current()
	if snap.Epoch != 7 {
		t.Errorf("Epoch = %d, want 7", snap.Epoch)
	}
	if snap.Lamport != 42 {
		t.Errorf("Lamport = %d, want 42", snap.Lamport)
	}
}

func TestAdvanceLamport(t *testing.T) {
	a := NewAuthority(Config{LamportMax: 3})

	for want := uint64(1); want <= 3; want++ {
		got, err := a.AdvanceLamport()
		if err != nil {
			t.Fatalf("AdvanceLamport() error = %v", err)
		}
		if got != want {
			t.Errorf("AdvanceLamport() = %d, want %d", got, want)
		}
	}

	// Fourth advance exceeds LamportMax.
	got, err := a.AdvanceLamport()
	if !errors.Is(err, ErrClockOverflow) {
		t.Errorf("AdvanceLamport() error = %v, want ErrClockOverflow", err)
	}
	if got != 3 {
		t.Errorf("clock moved on overflow: got %d, want 3", got)
	}
}

func TestAdvanceEpochRestartsLamport(t *testing.T) {
	a := NewAuthority(Config{})

	if _, err := a.AdvanceLamport(); err != nil {
		t.Fatalf("AdvanceLamport() error = %v", err)
	}

	epoch, err := a.AdvanceEpoch()
	if err != nil {
		t.Fatalf("AdvanceEpoch() error = %v", err)
	}
	if epoch != 1 {
		t.Errorf("AdvanceEpoch() = %d, want 1", epoch)
	}

	snap := a.Current()
	if snap.Lamport != 0 {
		t.Errorf("Lamport = %d after epoch advance, want 0", snap.Lamport)
	}
}

func TestAdvanceEpochExhausted(t *testing.T) {
	a := NewAuthority(Config{EpochMax: 2, Epoch: 2})

	got, err := a.AdvanceEpoch()
	if !errors.Is(err, ErrEpochExhausted) {
		t.Errorf("AdvanceEpoch() error = %v, want ErrEpochExhausted", err)
	}
	if got != 2 {
		t.Errorf("epoch moved on exhaustion: got %d, want 2", got)
	}
}

func TestOnEpochAdvanceHooks(t *testing.T) {
	a := NewAuthority(Config{})

	var order []int
	a.OnEpochAdvance(func(epoch uint64) {
		if epoch != 1 {
			t.Errorf("hook epoch = %d, want 1", epoch)
		}
		order = append(order, 1)
	})
	a.OnEpochAdvance(func(uint64) {
		order = append(order, 2)
	})

	if _, err := a.AdvanceEpoch(); err != nil {
		t.Fatalf("AdvanceEpoch() error = %v", err)
	}

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("hooks ran %v, want [1 2]", order)
	}

	// Hooks do not fire on exhaustion.
	a2 := NewAuthority(Config{EpochMax: 1, Epoch: 1})
	fired := false
	a2.OnEpochAdvance(func(uint64) { fired = true })
	if _, err := a2.AdvanceEpoch(); !errors.Is(err, ErrEpochExhausted) {
		t.Fatalf("AdvanceEpoch() error = %v, want ErrEpochExhausted", err)
	}
	if fired {
		t.Error("hook fired on exhausted epoch advance")
	}
}

func TestMonotonicity(t *testing.T) {
	a := NewAuthority(Config{LamportMax: 10, EpochMax: 10})

	prev := a.Current()
	for i := 0; i < 30; i++ {
		if _, err := a.AdvanceLamport(); err != nil {
			if _, err := a.AdvanceEpoch(); err != nil {
				t.Fatalf("AdvanceEpoch() error = %v", err)
			}
		}
		cur := a.Current()
		// Lexicographic (epoch, lamport) order never decreases.
		if cur.Epoch < prev.Epoch ||
			(cur.Epoch == prev.Epoch && cur.Lamport < prev.Lamport) {
			t.Fatalf("counters went backwards: %+v -> %+v", prev, cur)
		}
		prev = cur
	}
}
