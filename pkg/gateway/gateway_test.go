package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/virel-protocol/virel-go/pkg/gate"
	"github.com/virel-protocol/virel-go/pkg/transport"
	"github.com/virel-protocol/virel-go/pkg/wire"
)

func startTestGateway(t *testing.T, budget int) *Gateway {
	t.Helper()

	g, err := gate.New(gate.Config{
		Domains: []string{"alpha", "beta", "gamma"},
		Budget:  budget,
	})
	require.NoError(t, err)

	gw, err := New(Config{
		Gate:          g,
		ListenAddress: "127.0.0.1:0",
	})
	require.NoError(t, err)
	require.NoError(t, gw.Start(context.Background()))
	t.Cleanup(func() { gw.Stop() })
	return gw
}

func dialGateway(t *testing.T, gw *Gateway) *transport.ClientConn {
	t.Helper()

	client := transport.NewClient(transport.ClientConfig{ConnectTimeout: 2 * time.Second})
	conn, err := client.Connect(context.Background(), gw.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// call sends a request and returns the matching response, buffering any
// mode notifications that arrive first into notifs.
func call(t *testing.T, conn *transport.ClientConn, req *wire.Request, notifs *[]*wire.ModeNotification) *wire.Response {
	t.Helper()

	data, err := wire.EncodeRequest(req)
	require.NoError(t, err)
	require.NoError(t, conn.Send(data))

	for {
		frame, err := conn.Receive(2 * time.Second)
		require.NoError(t, err)

		msgType, err := wire.PeekMessageType(frame)
		require.NoError(t, err)

		if msgType == wire.MessageTypeNotification {
			if notifs != nil {
				notif, err := wire.DecodeModeNotification(frame)
				require.NoError(t, err)
				*notifs = append(*notifs, notif)
			}
			continue
		}

		resp, err := wire.DecodeResponse(frame)
		require.NoError(t, err)
		require.Equal(t, req.MessageID, resp.MessageID)
		return resp
	}
}

func votePayload(t *testing.T, domain, token string, epoch uint64) []byte {
	t.Helper()
	payload, err := wire.NewPayload(&wire.SubmitVotePayload{
		Domain: domain,
		Vote:   token,
		Epoch:  epoch,
	})
	require.NoError(t, err)
	return payload
}

func TestGetMode(t *testing.T) {
	gw := startTestGateway(t, 5)
	conn := dialGateway(t, gw)

	resp := call(t, conn, &wire.Request{MessageID: 1, Operation: wire.OpGetMode}, nil)
	require.True(t, resp.IsSuccess())

	mode, err := wire.DecodeModePayload(resp.Payload)
	require.NoError(t, err)
	require.Equal(t, "OPERATIONAL", mode.Mode)
	require.EqualValues(t, 0, mode.Epoch)
}

func TestSubmitVoteOpensScrutiny(t *testing.T) {
	gw := startTestGateway(t, 5)
	conn := dialGateway(t, gw)

	resp := call(t, conn, &wire.Request{
		MessageID: 2,
		Operation: wire.OpSubmitVote,
		Payload:   votePayload(t, "alpha", wire.VoteTokenHalt, 0),
	}, nil)
	require.True(t, resp.IsSuccess())

	status, err := wire.DecodeStatusPayload(resp.Payload)
	require.NoError(t, err)
	require.Equal(t, "OPERATIONAL", status.Mode)
	require.Equal(t, "PENDING_SAFE", status.State)
	require.Equal(t, "PENDING", status.Outcome)
	require.Equal(t, 5, status.Remaining)
}

func TestHaltQuorumBroadcastsSafeOn(t *testing.T) {
	gw := startTestGateway(t, 5)
	conn := dialGateway(t, gw)

	var notifs []*wire.ModeNotification
	for i, domain := range []string{"alpha", "beta", "gamma"} {
		resp := call(t, conn, &wire.Request{
			MessageID: uint32(10 + i),
			Operation: wire.OpSubmitVote,
			Payload:   votePayload(t, domain, wire.VoteTokenHalt, 0),
		}, &notifs)
		require.True(t, resp.IsSuccess())
	}

	// The quorum resolution broadcast may arrive interleaved with the
	// final vote response.
	if len(notifs) == 0 {
		frame, err := conn.Receive(2 * time.Second)
		require.NoError(t, err)
		notif, err := wire.DecodeModeNotification(frame)
		require.NoError(t, err)
		notifs = append(notifs, notif)
	}

	require.Len(t, notifs, 1)
	require.Equal(t, "SAFE_ON", notifs[0].Mode)
	require.EqualValues(t, 1, notifs[0].Epoch)
	require.Equal(t, gate.ModeSafeOn, gw.Gate().Mode())
}

func TestTickExpiryBroadcastsSafeOn(t *testing.T) {
	gw := startTestGateway(t, 2)
	conn := dialGateway(t, gw)

	resp := call(t, conn, &wire.Request{
		MessageID: 3,
		Operation: wire.OpSubmitVote,
		Payload:   votePayload(t, "alpha", wire.VoteTokenHalt, 0),
	}, nil)
	require.True(t, resp.IsSuccess())

	require.NoError(t, gw.Tick())
	require.NoError(t, gw.Tick())

	frame, err := conn.Receive(2 * time.Second)
	require.NoError(t, err)
	notif, err := wire.DecodeModeNotification(frame)
	require.NoError(t, err)
	require.Equal(t, "SAFE_ON", notif.Mode)
}

func TestVoteErrorStatuses(t *testing.T) {
	gw := startTestGateway(t, 5)
	conn := dialGateway(t, gw)

	tests := []struct {
		name    string
		payload []byte
		want    wire.Status
	}{
		{"UnknownDomain", votePayload(t, "delta", wire.VoteTokenHalt, 0), wire.StatusUnknownDomain},
		{"StaleEpoch", votePayload(t, "alpha", wire.VoteTokenHalt, 9), wire.StatusStaleEpoch},
		{"MissingPayload", nil, wire.StatusMalformed},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := call(t, conn, &wire.Request{
				MessageID: uint32(20 + i),
				Operation: wire.OpSubmitVote,
				Payload:   tt.payload,
			}, nil)
			require.Equal(t, tt.want, resp.Status)
			require.NotEmpty(t, wire.DecodeErrorPayload(resp.Payload).Message)
		})
	}

	// Rejected votes never disturb the state machine.
	require.Equal(t, gate.StateOperational, gw.Gate().State())
}

func TestUnsupportedOperationRejected(t *testing.T) {
	gw := startTestGateway(t, 5)
	conn := dialGateway(t, gw)

	// Bypass EncodeRequest validation to put a bogus operation on the
	// wire.
	data, err := wire.Marshal(&wire.Request{MessageID: 30, Operation: wire.Operation(9)})
	require.NoError(t, err)
	require.NoError(t, conn.Send(data))

	frame, err := conn.Receive(2 * time.Second)
	require.NoError(t, err)
	resp, err := wire.DecodeResponse(frame)
	require.NoError(t, err)
	require.EqualValues(t, 30, resp.MessageID)
	require.Equal(t, wire.StatusMalformed, resp.Status)
}

func TestGetStatusReflectsHalt(t *testing.T) {
	g, err := gate.New(gate.Config{
		Domains:  []string{"alpha"},
		Budget:   1,
		EpochMax: 1,
		Epoch:    1,
	})
	require.NoError(t, err)

	gw, err := New(Config{Gate: g, ListenAddress: "127.0.0.1:0"})
	require.NoError(t, err)
	require.NoError(t, gw.Start(context.Background()))
	t.Cleanup(func() { gw.Stop() })
	conn := dialGateway(t, gw)

	// Single-domain HALT is an immediate quorum; the rollover after the
	// resolution exhausts the epoch range.
	var notifs []*wire.ModeNotification
	resp := call(t, conn, &wire.Request{
		MessageID: 40,
		Operation: wire.OpSubmitVote,
		Payload:   votePayload(t, "alpha", wire.VoteTokenHalt, 1),
	}, &notifs)
	require.True(t, resp.IsSuccess())

	resp = call(t, conn, &wire.Request{MessageID: 41, Operation: wire.OpGetStatus}, &notifs)
	require.True(t, resp.IsSuccess())

	status, err := wire.DecodeStatusPayload(resp.Payload)
	require.NoError(t, err)
	require.True(t, status.Halted)
	require.Equal(t, "SAFE_ON", status.Mode)

	resp = call(t, conn, &wire.Request{
		MessageID: 42,
		Operation: wire.OpSubmitVote,
		Payload:   votePayload(t, "alpha", wire.VoteTokenResume, 1),
	}, &notifs)
	require.Equal(t, wire.StatusProtocolHalted, resp.Status)
}
