package wire

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// encMode is the CBOR encoder mode for VIREL messages.
// Configured for deterministic encoding with integer keys.
var encMode cbor.EncMode

// decMode is the CBOR decoder mode for VIREL messages.
var decMode cbor.DecMode

func init() {
	var err error

	// Configure encoder for deterministic output
	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical, // Deterministic key ordering
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeUnix, // Unix timestamps
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR encoder mode: %v", err))
	}

	// Configure decoder to be lenient for forward compatibility
	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet, // Ignore duplicate keys (last wins)
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR decoder mode: %v", err))
	}
}

// Marshal encodes a value to CBOR bytes.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR bytes into a value.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// NewEncoder creates a new CBOR encoder that writes to w.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return encMode.NewEncoder(w)
}

// NewDecoder creates a new CBOR decoder that reads from r.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return decMode.NewDecoder(r)
}

// NewPayload encodes an operation payload for embedding in a request
// or response.
func NewPayload(v any) (cbor.RawMessage, error) {
	return Marshal(v)
}

// EncodeRequest encodes a request message to CBOR bytes.
func EncodeRequest(req *Request) ([]byte, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	return Marshal(req)
}

// DecodeRequest decodes CBOR bytes into a request message.
func DecodeRequest(data []byte) (*Request, error) {
	var req Request
	if err := Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to decode request: %w", err)
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	return &req, nil
}

// EncodeResponse encodes a response message to CBOR bytes.
func EncodeResponse(resp *Response) ([]byte, error) {
	return Marshal(resp)
}

// DecodeResponse decodes CBOR bytes into a response message.
func DecodeResponse(data []byte) (*Response, error) {
	var resp Response
	if err := Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &resp, nil
}

// EncodeModeNotification encodes a mode notification to CBOR bytes.
// Notifications have messageId=0 and kind=0, both handled here.
func EncodeModeNotification(notif *ModeNotification) ([]byte, error) {
	wireMsg := struct {
		MessageID uint32 `cbor:"1,keyasint"`
		Kind      uint8  `cbor:"2,keyasint"`
		Mode      string `cbor:"3,keyasint"`
		Epoch     uint64 `cbor:"4,keyasint"`
		Lamport   uint64 `cbor:"5,keyasint"`
	}{
		MessageID: UnsolicitedMessageID,
		Kind:      KindModeNotification,
		Mode:      notif.Mode,
		Epoch:     notif.Epoch,
		Lamport:   notif.Lamport,
	}
	return Marshal(wireMsg)
}

// DecodeModeNotification decodes CBOR bytes into a mode notification.
func DecodeModeNotification(data []byte) (*ModeNotification, error) {
	var wireMsg struct {
		MessageID uint32 `cbor:"1,keyasint"`
		Kind      uint8  `cbor:"2,keyasint"`
		Mode      string `cbor:"3,keyasint"`
		Epoch     uint64 `cbor:"4,keyasint"`
		Lamport   uint64 `cbor:"5,keyasint"`
	}
	if err := Unmarshal(data, &wireMsg); err != nil {
		return nil, fmt.Errorf("failed to decode notification: %w", err)
	}
	if wireMsg.MessageID != UnsolicitedMessageID {
		return nil, fmt.Errorf("not a notification message: messageId=%d", wireMsg.MessageID)
	}
	if wireMsg.Kind != KindModeNotification {
		return nil, fmt.Errorf("not a mode notification: kind=%d", wireMsg.Kind)
	}
	return &ModeNotification{
		Mode:    wireMsg.Mode,
		Epoch:   wireMsg.Epoch,
		Lamport: wireMsg.Lamport,
	}, nil
}

// EncodeControlMessage encodes a control message (ping/pong/close) to
// CBOR bytes with the unsolicited message ID.
func EncodeControlMessage(msg *ControlMessage) ([]byte, error) {
	if !msg.Type.IsValid() {
		return nil, fmt.Errorf("invalid control message type: %d", msg.Type)
	}
	wireMsg := struct {
		MessageID uint32             `cbor:"1,keyasint"`
		Type      ControlMessageType `cbor:"2,keyasint"`
		Sequence  uint32             `cbor:"3,keyasint,omitempty"`
	}{
		MessageID: UnsolicitedMessageID,
		Type:      msg.Type,
		Sequence:  msg.Sequence,
	}
	return Marshal(wireMsg)
}

// DecodeControlMessage decodes CBOR bytes into a control message.
func DecodeControlMessage(data []byte) (*ControlMessage, error) {
	var wireMsg struct {
		MessageID uint32             `cbor:"1,keyasint"`
		Type      ControlMessageType `cbor:"2,keyasint"`
		Sequence  uint32             `cbor:"3,keyasint,omitempty"`
	}
	if err := Unmarshal(data, &wireMsg); err != nil {
		return nil, fmt.Errorf("failed to decode control message: %w", err)
	}
	if wireMsg.MessageID != UnsolicitedMessageID {
		return nil, fmt.Errorf("not a control message: messageId=%d", wireMsg.MessageID)
	}
	if !wireMsg.Type.IsValid() {
		return nil, fmt.Errorf("invalid control message type: %d", wireMsg.Type)
	}
	return &ControlMessage{Type: wireMsg.Type, Sequence: wireMsg.Sequence}, nil
}

// DecodeSubmitVotePayload decodes the payload of a SubmitVote request.
func DecodeSubmitVotePayload(raw cbor.RawMessage) (*SubmitVotePayload, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("submit_vote requires a payload")
	}
	var p SubmitVotePayload
	if err := Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("failed to decode vote payload: %w", err)
	}
	if p.Domain == "" {
		return nil, fmt.Errorf("vote payload missing domain")
	}
	if p.Vote != VoteTokenHalt && p.Vote != VoteTokenResume {
		return nil, fmt.Errorf("invalid vote token %q", p.Vote)
	}
	return &p, nil
}

// DecodeModePayload decodes the payload of a GetMode response.
func DecodeModePayload(raw cbor.RawMessage) (*ModePayload, error) {
	var p ModePayload
	if err := Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("failed to decode mode payload: %w", err)
	}
	return &p, nil
}

// DecodeStatusPayload decodes the payload of a GetStatus response.
func DecodeStatusPayload(raw cbor.RawMessage) (*StatusPayload, error) {
	var p StatusPayload
	if err := Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("failed to decode status payload: %w", err)
	}
	return &p, nil
}

// DecodeErrorPayload decodes the optional error payload of a failed
// response. Returns an empty payload when none is present.
func DecodeErrorPayload(raw cbor.RawMessage) *ErrorPayload {
	var p ErrorPayload
	if len(raw) == 0 {
		return &p
	}
	if err := Unmarshal(raw, &p); err != nil {
		return &ErrorPayload{}
	}
	return &p
}

// MessageType represents the type of a decoded message.
type MessageType int

const (
	MessageTypeUnknown MessageType = iota
	MessageTypeRequest
	MessageTypeResponse
	MessageTypeNotification
	MessageTypeControl
)

// PeekMessageType examines CBOR data to determine the message type
// without fully decoding it.
//
// Message type detection logic:
//   - messageId (key 1) = 0: kind (key 2) selects notification (0) or
//     control (1-3)
//   - otherwise: key 2 holding a valid operation means request, else
//     response
//
// Operation codes overlap some status codes, so on the request/response
// side the peek is directional: a gate treats solicited traffic as
// requests, a domain client treats it as responses.
func PeekMessageType(data []byte) (MessageType, error) {
	var peek struct {
		MessageID     uint32 `cbor:"1,keyasint"`
		Discriminator uint8  `cbor:"2,keyasint"`
	}
	if err := Unmarshal(data, &peek); err != nil {
		return MessageTypeUnknown, fmt.Errorf("failed to peek message: %w", err)
	}

	if peek.MessageID == UnsolicitedMessageID {
		if peek.Discriminator == KindModeNotification {
			return MessageTypeNotification, nil
		}
		if ControlMessageType(peek.Discriminator).IsValid() {
			return MessageTypeControl, nil
		}
		return MessageTypeUnknown, fmt.Errorf("unknown unsolicited kind: %d", peek.Discriminator)
	}

	if Operation(peek.Discriminator).IsValid() {
		return MessageTypeRequest, nil
	}
	return MessageTypeResponse, nil
}
