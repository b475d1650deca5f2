package wire

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// CBOR map keys for message encoding.
// All VIREL messages use integer keys for efficiency.
const (
	// Common message keys
	KeyMessageID  = 1
	KeyOpOrStatus = 2 // Operation (request) or Status (response)
	KeyPayload    = 3

	// Unsolicited-message key (messageId=0): key 2 holds the kind.
	KeyKind = 2
)

// UnsolicitedMessageID marks notifications and control messages.
// Requests and responses must use a non-zero message ID.
const UnsolicitedMessageID uint32 = 0

// KindModeNotification is the key-2 kind value of a mode notification
// in an unsolicited message. Control message types occupy 1-3.
const KindModeNotification uint8 = 0

// Vote tokens as they appear on the wire and in the audit log.
const (
	VoteTokenHalt   = "HALT"
	VoteTokenResume = "RES"
)

// Request represents a VIREL request message from domain to gate.
//
// CBOR encoding:
//
//	{
//	  1: messageId,  // uint32, non-zero
//	  2: operation,  // uint8: 1=SubmitVote, 2=GetMode, 3=GetStatus
//	  3: payload     // operation-specific data
//	}
type Request struct {
	MessageID uint32          `cbor:"1,keyasint"`
	Operation Operation       `cbor:"2,keyasint"`
	Payload   cbor.RawMessage `cbor:"3,keyasint,omitempty"`
}

// Validate checks if the request is valid.
func (r *Request) Validate() error {
	if r.MessageID == UnsolicitedMessageID {
		return fmt.Errorf("messageId 0 is reserved for unsolicited messages")
	}
	if !r.Operation.IsValid() {
		return fmt.Errorf("invalid operation: %d", r.Operation)
	}
	return nil
}

// Response represents a VIREL response message from gate to domain.
//
// CBOR encoding:
//
//	{
//	  1: messageId,  // uint32: matches request
//	  2: status,     // uint8: 0=OK, or error code
//	  3: payload     // operation-specific response data (if OK)
//	}
type Response struct {
	MessageID uint32          `cbor:"1,keyasint"`
	Status    Status          `cbor:"2,keyasint"`
	Payload   cbor.RawMessage `cbor:"3,keyasint,omitempty"`
}

// IsSuccess returns true if the response indicates success.
func (r *Response) IsSuccess() bool {
	return r.Status.IsSuccess()
}

// ModeNotification is the unsolicited broadcast sent to every connected
// domain when the committed mode changes.
//
// CBOR encoding:
//
//	{
//	  1: 0,        // messageId 0 + kind 0 = mode notification
//	  2: 0,
//	  3: mode,     // string: "OPERATIONAL" or "SAFE_ON"
//	  4: epoch,    // uint64: epoch the mode was committed in
//	  5: lamport   // uint64: Lamport stamp of the commit
//	}
type ModeNotification struct {
	Mode    string `cbor:"3,keyasint"`
	Epoch   uint64 `cbor:"4,keyasint"`
	Lamport uint64 `cbor:"5,keyasint"`
}

// SubmitVotePayload is the payload of a SubmitVote request.
//
// CBOR encoding:
//
//	{
//	  1: domain,  // string: voting domain identifier
//	  2: vote,    // string: "HALT" or "RES"
//	  3: epoch    // uint64: target epoch, must be the active epoch
//	}
type SubmitVotePayload struct {
	Domain string `cbor:"1,keyasint"`
	Vote   string `cbor:"2,keyasint"`
	Epoch  uint64 `cbor:"3,keyasint"`
}

// ModePayload is the payload of a GetMode response.
type ModePayload struct {
	Mode    string `cbor:"1,keyasint"`
	Epoch   uint64 `cbor:"2,keyasint"`
	Lamport uint64 `cbor:"3,keyasint"`
}

// StatusPayload is the payload of a GetStatus response.
//
// CBOR encoding:
//
//	{
//	  1: mode,       // string: committed mode
//	  2: state,      // string: internal state, may be PENDING_SAFE
//	  3: epoch,      // uint64
//	  4: lamport,    // uint64
//	  5: halted,     // bool: epoch counter exhausted
//	  6: outcome,    // string: quorum outcome for the active epoch
//	  7: remaining   // int: countdown ticks left, 0 when disarmed
//	}
type StatusPayload struct {
	Mode      string `cbor:"1,keyasint"`
	State     string `cbor:"2,keyasint"`
	Epoch     uint64 `cbor:"3,keyasint"`
	Lamport   uint64 `cbor:"4,keyasint"`
	Halted    bool   `cbor:"5,keyasint"`
	Outcome   string `cbor:"6,keyasint"`
	Remaining int    `cbor:"7,keyasint"`
}

// ErrorPayload represents additional error information in a response.
type ErrorPayload struct {
	Message string `cbor:"1,keyasint,omitempty"`
}

// ControlMessage represents a transport-level control message.
// These are separate from the request/response/notification model and
// share the unsolicited message ID 0.
type ControlMessage struct {
	Type     ControlMessageType `cbor:"2,keyasint"`
	Sequence uint32             `cbor:"3,keyasint,omitempty"`
}

// ControlMessageType represents the type of control message.
type ControlMessageType uint8

const (
	// ControlPing is sent to check connection liveness.
	ControlPing ControlMessageType = 1

	// ControlPong is the response to a ping.
	ControlPong ControlMessageType = 2

	// ControlClose initiates graceful connection close.
	ControlClose ControlMessageType = 3
)

// String returns the control message type name.
func (t ControlMessageType) String() string {
	switch t {
	case ControlPing:
		return "ping"
	case ControlPong:
		return "pong"
	case ControlClose:
		return "close"
	default:
		return "unknown"
	}
}

// IsValid returns true if t is a known control message type.
func (t ControlMessageType) IsValid() bool {
	return t >= ControlPing && t <= ControlClose
}
