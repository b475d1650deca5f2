package wire

// Status represents a response status code.
type Status uint8

const (
	// StatusOK indicates the operation completed successfully.
	StatusOK Status = 0

	// StatusMalformed indicates the request or its payload could not be
	// decoded. The message is dropped and never retried.
	StatusMalformed Status = 1

	// StatusUnknownDomain indicates a vote from a domain outside the
	// configured membership set.
	StatusUnknownDomain Status = 2

	// StatusStaleEpoch indicates a vote for an epoch other than the
	// active one.
	StatusStaleEpoch Status = 3

	// StatusProtocolHalted indicates the epoch counter is exhausted and
	// the gate is frozen. Operators must intervene.
	StatusProtocolHalted Status = 4

	// StatusUnsupportedOperation indicates an unknown operation code.
	StatusUnsupportedOperation Status = 5
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusMalformed:
		return "MALFORMED"
	case StatusUnknownDomain:
		return "UNKNOWN_DOMAIN"
	case StatusStaleEpoch:
		return "STALE_EPOCH"
	case StatusProtocolHalted:
		return "PROTOCOL_HALTED"
	case StatusUnsupportedOperation:
		return "UNSUPPORTED_OPERATION"
	default:
		return "UNKNOWN"
	}
}

// IsSuccess returns true if the status indicates success.
func (s Status) IsSuccess() bool {
	return s == StatusOK
}

// IsError returns true if the status indicates an error.
func (s Status) IsError() bool {
	return s != StatusOK
}
