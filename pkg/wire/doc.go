// Package wire defines the CBOR wire format for the VIREL protocol.
//
// VIREL uses CBOR (RFC 8949) with integer keys for compact, canonical
// encoding. All messages are length-prefixed by the transport layer.
//
// # Message Types
//
//   - Request: domain to gate (SubmitVote, GetMode, GetStatus)
//   - Response: gate to domain (status plus operation-specific payload)
//   - ModeNotification: gate to every domain on each committed mode
//     change, unsolicited
//   - ControlMessage: transport keepalive and close (ping/pong/close)
//
// # Message ID 0
//
// Requests and responses carry a non-zero message ID chosen by the
// requester. Message ID 0 marks unsolicited traffic; key 2 then
// discriminates between mode notifications (0) and control messages
// (1-3).
//
// # Vote Tokens
//
// Votes travel as their display tokens "HALT" and "RES" rather than
// numeric codes, so captured traffic and audit logs read the same way.
package wire
