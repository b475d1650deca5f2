package gateway

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/virel-protocol/virel-go/pkg/clock"
	"github.com/virel-protocol/virel-go/pkg/gate"
	"github.com/virel-protocol/virel-go/pkg/ledger"
	"github.com/virel-protocol/virel-go/pkg/log"
	"github.com/virel-protocol/virel-go/pkg/transport"
	"github.com/virel-protocol/virel-go/pkg/wire"
)

// Config configures a gateway.
type Config struct {
	// Gate is the safety state machine served by this gateway.
	Gate *gate.Gate

	// ListenAddress is the TCP listen address (default ":8473").
	ListenAddress string

	// TLSConfig enables TLS when non-nil.
	TLSConfig *tls.Config

	// MaxMessageSize is the maximum wire message size.
	MaxMessageSize uint32

	// Logger receives audit events (optional).
	Logger log.Logger
}

// Gateway serves the VIREL wire protocol for one gate.
type Gateway struct {
	gate   *gate.Gate
	server *transport.Server
	logger log.Logger
}

// New creates a gateway from cfg.
func New(cfg Config) (*Gateway, error) {
	if cfg.Gate == nil {
		return nil, fmt.Errorf("gate is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NoopLogger{}
	}

	gw := &Gateway{
		gate:   cfg.Gate,
		logger: logger,
	}

	server, err := transport.NewServer(transport.ServerConfig{
		Address:        cfg.ListenAddress,
		TLSConfig:      cfg.TLSConfig,
		MaxMessageSize: cfg.MaxMessageSize,
		Logger:         cfg.Logger,
		OnMessage:      gw.handleMessage,
		OnError:        gw.handleTransportError,
	})
	if err != nil {
		return nil, err
	}
	gw.server = server

	// Every committed mode change is pushed to all connected domains.
	cfg.Gate.OnModeChange(func(old, new gate.Mode, snap clock.Snapshot) {
		gw.broadcastMode(new, snap)
	})

	return gw, nil
}

// Start begins serving connections.
func (gw *Gateway) Start(ctx context.Context) error {
	return gw.server.Start(ctx)
}

// Stop closes the listener and all connections.
func (gw *Gateway) Stop() error {
	return gw.server.Stop()
}

// Addr returns the listen address.
func (gw *Gateway) Addr() net.Addr {
	return gw.server.Addr()
}

// ConnectionCount returns the number of connected domain clients.
func (gw *Gateway) ConnectionCount() int {
	return gw.server.ConnectionCount()
}

// Tick forwards one scheduler tick to the gate.
func (gw *Gateway) Tick() error {
	return gw.gate.Tick()
}

// Gate returns the underlying safety state machine.
func (gw *Gateway) Gate() *gate.Gate {
	return gw.gate
}

// broadcastMode pushes a mode notification to every connection.
func (gw *Gateway) broadcastMode(mode gate.Mode, snap clock.Snapshot) {
	data, err := wire.EncodeModeNotification(&wire.ModeNotification{
		Mode:    mode.String(),
		Epoch:   snap.Epoch,
		Lamport: snap.Lamport,
	})
	if err != nil {
		gw.logError("encode mode notification", err)
		return
	}
	gw.server.Broadcast(data)
}

// handleMessage dispatches one decoded frame from a domain client.
func (gw *Gateway) handleMessage(conn *transport.ServerConn, data []byte) {
	req, err := wire.DecodeRequest(data)
	if err != nil {
		gw.respondMalformed(conn, data, err)
		return
	}

	var resp *wire.Response
	switch req.Operation {
	case wire.OpSubmitVote:
		resp = gw.handleSubmitVote(req)
	case wire.OpGetMode:
		resp = gw.handleGetMode(req)
	case wire.OpGetStatus:
		resp = gw.handleGetStatus(req)
	default:
		resp = errorResponse(req.MessageID, wire.StatusUnsupportedOperation,
			fmt.Sprintf("unsupported operation %d", req.Operation))
	}

	gw.send(conn, resp)
}

// respondMalformed answers an undecodable request when the message ID
// can be salvaged; otherwise the frame is dropped with an audit record.
func (gw *Gateway) respondMalformed(conn *transport.ServerConn, data []byte, cause error) {
	gw.logError("decode request", cause)

	var peek struct {
		MessageID uint32 `cbor:"1,keyasint"`
	}
	if err := wire.Unmarshal(data, &peek); err != nil || peek.MessageID == wire.UnsolicitedMessageID {
		return
	}
	gw.send(conn, errorResponse(peek.MessageID, wire.StatusMalformed, cause.Error()))
}

func (gw *Gateway) handleSubmitVote(req *wire.Request) *wire.Response {
	payload, err := wire.DecodeSubmitVotePayload(req.Payload)
	if err != nil {
		return errorResponse(req.MessageID, wire.StatusMalformed, err.Error())
	}

	vote, err := ledger.ParseVote(payload.Vote)
	if err != nil {
		return errorResponse(req.MessageID, wire.StatusMalformed, err.Error())
	}

	if err := gw.gate.SubmitVote(payload.Domain, vote, payload.Epoch); err != nil {
		return errorResponse(req.MessageID, voteStatus(err), err.Error())
	}
	return gw.statusResponse(req.MessageID)
}

func (gw *Gateway) handleGetMode(req *wire.Request) *wire.Response {
	snap := gw.gate.Snapshot()
	payload, err := wire.NewPayload(&wire.ModePayload{
		Mode:    gw.gate.Mode().String(),
		Epoch:   snap.Epoch,
		Lamport: snap.Lamport,
	})
	if err != nil {
		return errorResponse(req.MessageID, wire.StatusMalformed, err.Error())
	}
	return &wire.Response{MessageID: req.MessageID, Status: wire.StatusOK, Payload: payload}
}

func (gw *Gateway) handleGetStatus(req *wire.Request) *wire.Response {
	return gw.statusResponse(req.MessageID)
}

// statusResponse builds an OK response carrying the full gate status.
// SubmitVote acknowledgments reuse it so a voting domain immediately
// sees the state its vote produced.
func (gw *Gateway) statusResponse(messageID uint32) *wire.Response {
	snap := gw.gate.Snapshot()
	payload, err := wire.NewPayload(&wire.StatusPayload{
		Mode:      gw.gate.Mode().String(),
		State:     gw.gate.State().String(),
		Epoch:     snap.Epoch,
		Lamport:   snap.Lamport,
		Halted:    gw.gate.Halted(),
		Outcome:   gw.gate.Outcome().String(),
		Remaining: gw.gate.Remaining(),
	})
	if err != nil {
		return errorResponse(messageID, wire.StatusMalformed, err.Error())
	}
	return &wire.Response{MessageID: messageID, Status: wire.StatusOK, Payload: payload}
}

// voteStatus maps gate errors to wire statuses.
func voteStatus(err error) wire.Status {
	switch {
	case errors.Is(err, gate.ErrProtocolHalted):
		return wire.StatusProtocolHalted
	case errors.Is(err, ledger.ErrUnknownDomain):
		return wire.StatusUnknownDomain
	case errors.Is(err, ledger.ErrStaleEpoch):
		return wire.StatusStaleEpoch
	case errors.Is(err, gate.ErrInvalidVote):
		return wire.StatusMalformed
	default:
		return wire.StatusMalformed
	}
}

func errorResponse(messageID uint32, status wire.Status, message string) *wire.Response {
	payload, err := wire.NewPayload(&wire.ErrorPayload{Message: message})
	if err != nil {
		payload = nil
	}
	return &wire.Response{MessageID: messageID, Status: status, Payload: payload}
}

func (gw *Gateway) send(conn *transport.ServerConn, resp *wire.Response) {
	data, err := wire.EncodeResponse(resp)
	if err != nil {
		gw.logError("encode response", err)
		return
	}
	if err := conn.Send(data); err != nil {
		gw.logError("send response", err)
	}
}

func (gw *Gateway) handleTransportError(conn *transport.ServerConn, err error) {
	gw.logError("transport", err)
}

func (gw *Gateway) logError(context string, err error) {
	gw.logger.Log(log.Event{
		Timestamp: time.Now(),
		Layer:     log.LayerWire,
		Category:  log.CategoryError,
		Error: &log.ErrorEventData{
			Layer:   log.LayerWire,
			Message: err.Error(),
			Context: context,
		},
	})
}
