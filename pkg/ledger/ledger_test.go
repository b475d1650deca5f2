package ledger

import (
	"errors"
	"testing"
)

func newTestLedger() *Ledger {
	return New([]string{"alpha", "beta", "gamma"}, 0)
}

func TestRecordUnknownDomain(t *testing.T) {
	l := newTestLedger()

	err := l.Record("delta", VoteHalt, 0, 1)
	if !errors.Is(err, ErrUnknownDomain) {
		t.Errorf("Record() error = %v, want ErrUnknownDomain", err)
	}
}

func TestRecordStaleEpoch(t *testing.T) {
	l := newTestLedger()
	l.Reset(2)

	tests := []struct {
		name  string
		epoch uint64
	}{
		{"PastEpoch", 1},
		{"FutureEpoch", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := l.Record("alpha", VoteHalt, tt.epoch, 1)
			if !errors.Is(err, ErrStaleEpoch) {
				t.Errorf("Record(epoch=%d) error = %v, want ErrStaleEpoch", tt.epoch, err)
			}
		})
	}

	if err := l.Record("alpha", VoteHalt, 2, 1); err != nil {
		t.Errorf("Record(active epoch) error = %v", err)
	}
}

func TestLatestByLamportStamp(t *testing.T) {
	l := newTestLedger()

	// Appended out of Lamport order on purpose: the network may deliver
	// out of order, the stamp decides.
	if err := l.Record("alpha", VoteResume, 0, 5); err != nil {
		t.Fatal(err)
	}
	if err := l.Record("alpha", VoteHalt, 0, 2); err != nil {
		t.Fatal(err)
	}

	v, ok := l.Latest("alpha")
	if !ok {
		t.Fatal("Latest() reported abstain, want vote")
	}
	if v != VoteResume {
		t.Errorf("Latest() = %v, want RES (higher lamport)", v)
	}
}

func TestLatestAbstain(t *testing.T) {
	l := newTestLedger()

	if _, ok := l.Latest("beta"); ok {
		t.Error("Latest() = vote for domain with no record, want abstain")
	}
	if _, ok := l.Latest("delta"); ok {
		t.Error("Latest() = vote for unknown domain, want abstain")
	}
}

func TestOutcome(t *testing.T) {
	type vote struct {
		domain  string
		v       Vote
		lamport uint64
	}

	tests := []struct {
		name  string
		votes []vote
		want  Outcome
	}{
		{
			name:  "NoVotes",
			votes: nil,
			want:  OutcomePending,
		},
		{
			name:  "SingleHaltIsPending",
			votes: []vote{{"alpha", VoteHalt, 1}},
			want:  OutcomePending,
		},
		{
			name: "MissingParticipantIsPending",
			votes: []vote{
				{"alpha", VoteHalt, 1},
				{"beta", VoteHalt, 2},
			},
			want: OutcomePending,
		},
		{
			name: "ResumeMajority",
			votes: []vote{
				{"alpha", VoteHalt, 1},
				{"beta", VoteResume, 2},
				{"gamma", VoteResume, 3},
			},
			want: OutcomeResume,
		},
		{
			name: "HaltMajority",
			votes: []vote{
				{"alpha", VoteHalt, 1},
				{"beta", VoteHalt, 2},
				{"gamma", VoteResume, 3},
			},
			want: OutcomeHalt,
		},
		{
			name: "LatestVoteWins",
			votes: []vote{
				{"alpha", VoteHalt, 1},
				{"beta", VoteHalt, 2},
				{"gamma", VoteHalt, 3},
				{"beta", VoteResume, 4},
				{"gamma", VoteResume, 5},
			},
			want: OutcomeResume,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestLedger()
			for _, v := range tt.votes {
				if err := l.Record(v.domain, v.v, 0, v.lamport); err != nil {
					t.Fatalf("Record(%+v) error = %v", v, err)
				}
			}
			if got := l.Outcome(0); got != tt.want {
				t.Errorf("Outcome() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOutcomeTieIsPending(t *testing.T) {
	l := New([]string{"alpha", "beta"}, 0)

	if err := l.Record("alpha", VoteHalt, 0, 1); err != nil {
		t.Fatal(err)
	}
	if err := l.Record("beta", VoteResume, 0, 2); err != nil {
		t.Fatal(err)
	}

	if got := l.Outcome(0); got != OutcomePending {
		t.Errorf("Outcome() on 50/50 tie = %v, want PENDING", got)
	}
}

func TestOutcomeOrderIndependent(t *testing.T) {
	// Same latest votes, different append orders.
	orders := [][]struct {
		domain  string
		v       Vote
		lamport uint64
	}{
		{
			{"alpha", VoteHalt, 1},
			{"beta", VoteResume, 2},
			{"gamma", VoteResume, 3},
		},
		{
			{"gamma", VoteResume, 3},
			{"alpha", VoteHalt, 1},
			{"beta", VoteResume, 2},
		},
		{
			{"beta", VoteResume, 2},
			{"gamma", VoteResume, 3},
			{"alpha", VoteHalt, 1},
		},
	}

	for i, order := range orders {
		l := newTestLedger()
		for _, v := range order {
			if err := l.Record(v.domain, v.v, 0, v.lamport); err != nil {
				t.Fatal(err)
			}
		}
		if got := l.Outcome(0); got != OutcomeResume {
			t.Errorf("order %d: Outcome() = %v, want RESUME", i, got)
		}
	}
}

func TestOutcomeNonActiveEpoch(t *testing.T) {
	l := newTestLedger()
	for i, d := range []string{"alpha", "beta", "gamma"} {
		if err := l.Record(d, VoteHalt, 0, uint64(i+1)); err != nil {
			t.Fatal(err)
		}
	}

	if got := l.Outcome(1); got != OutcomePending {
		t.Errorf("Outcome(non-active) = %v, want PENDING", got)
	}
}

func TestResetDiscardsVotes(t *testing.T) {
	l := newTestLedger()
	if err := l.Record("alpha", VoteHalt, 0, 1); err != nil {
		t.Fatal(err)
	}

	l.Reset(1)

	if l.Epoch() != 1 {
		t.Errorf("Epoch() = %d, want 1", l.Epoch())
	}
	if l.Participation() != 0 {
		t.Errorf("Participation() = %d after reset, want 0", l.Participation())
	}
	if l.HasHalt("alpha") {
		t.Error("HasHalt() = true after reset, want false")
	}
}

func TestHasHalt(t *testing.T) {
	l := newTestLedger()
	if err := l.Record("alpha", VoteHalt, 0, 1); err != nil {
		t.Fatal(err)
	}
	if err := l.Record("alpha", VoteResume, 0, 2); err != nil {
		t.Fatal(err)
	}

	// A later RES does not erase the HALT from the record.
	if !l.HasHalt("alpha") {
		t.Error("HasHalt(alpha) = false, want true")
	}
	if l.HasHalt("beta") {
		t.Error("HasHalt(beta) = true, want false")
	}
}

func TestParseVote(t *testing.T) {
	if v, err := ParseVote("HALT"); err != nil || v != VoteHalt {
		t.Errorf("ParseVote(HALT) = %v, %v", v, err)
	}
	if v, err := ParseVote("RES"); err != nil || v != VoteResume {
		t.Errorf("ParseVote(RES) = %v, %v", v, err)
	}
	if _, err := ParseVote("halt"); err == nil {
		t.Error("ParseVote() accepted lowercase token")
	}
	if _, err := ParseVote(""); err == nil {
		t.Error("ParseVote() accepted empty token")
	}
}

func TestVoteString(t *testing.T) {
	tests := []struct {
		v    Vote
		want string
	}{
		{VoteHalt, "HALT"},
		{VoteResume, "RES"},
		{Vote(9), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("Vote(%d).String() = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestOutcomeString(t *testing.T) {
	tests := []struct {
		o    Outcome
		want string
	}{
		{OutcomePending, "PENDING"},
		{OutcomeHalt, "HALT"},
		{OutcomeResume, "RESUME"},
		{Outcome(9), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.o.String(); got != tt.want {
			t.Errorf("Outcome(%d).String() = %q, want %q", tt.o, got, tt.want)
		}
	}
}
