package log

import "testing"

func TestEnumStrings(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"DirectionIn", DirectionIn.String(), "IN"},
		{"DirectionOut", DirectionOut.String(), "OUT"},
		{"DirectionUnknown", Direction(9).String(), "UNKNOWN"},
		{"LayerTransport", LayerTransport.String(), "TRANSPORT"},
		{"LayerWire", LayerWire.String(), "WIRE"},
		{"LayerGate", LayerGate.String(), "GATE"},
		{"LayerUnknown", Layer(9).String(), "UNKNOWN"},
		{"CategoryMessage", CategoryMessage.String(), "MESSAGE"},
		{"CategoryControl", CategoryControl.String(), "CONTROL"},
		{"CategoryState", CategoryState.String(), "STATE"},
		{"CategoryError", CategoryError.String(), "ERROR"},
		{"CategoryVote", CategoryVote.String(), "VOTE"},
		{"EntityConnection", StateEntityConnection.String(), "CONNECTION"},
		{"EntityMode", StateEntityMode.String(), "MODE"},
		{"EntityGate", StateEntityGate.String(), "GATE"},
		{"EntityEpoch", StateEntityEpoch.String(), "EPOCH"},
		{"EntityCountdown", StateEntityCountdown.String(), "COUNTDOWN"},
		{"CtrlPing", ControlMsgPing.String(), "PING"},
		{"CtrlPong", ControlMsgPong.String(), "PONG"},
		{"CtrlClose", ControlMsgClose.String(), "CLOSE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("String() = %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestEncodeDecodeEvent(t *testing.T) {
	ev := Event{
		Direction: DirectionIn,
		Layer:     LayerGate,
		Category:  CategoryVote,
		Epoch:     3,
		Lamport:   17,
		Domain:    "alpha",
		Vote: &VoteEvent{
			Token:     "HALT",
			VoteEpoch: 3,
			Accepted:  true,
		},
	}

	data, err := EncodeEvent(ev)
	if err != nil {
		t.Fatalf("EncodeEvent() error = %v", err)
	}

	got, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent() error = %v", err)
	}

	if got.Epoch != 3 || got.Lamport != 17 || got.Domain != "alpha" {
		t.Errorf("decoded stamps = (%d, %d, %q), want (3, 17, alpha)",
			got.Epoch, got.Lamport, got.Domain)
	}
	if got.Vote == nil || got.Vote.Token != "HALT" || !got.Vote.Accepted {
		t.Errorf("decoded vote = %+v, want accepted HALT", got.Vote)
	}
}
