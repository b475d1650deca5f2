package wire

// Operation represents a VIREL protocol operation.
type Operation uint8

const (
	// OpSubmitVote casts a domain's vote for the active epoch.
	OpSubmitVote Operation = 1

	// OpGetMode reads the committed mode and the clock counters.
	OpGetMode Operation = 2

	// OpGetStatus reads the full gate status including the internal
	// state, quorum outcome and countdown.
	OpGetStatus Operation = 3
)

// String returns the operation name.
func (o Operation) String() string {
	switch o {
	case OpSubmitVote:
		return "SubmitVote"
	case OpGetMode:
		return "GetMode"
	case OpGetStatus:
		return "GetStatus"
	default:
		return "Unknown"
	}
}

// IsValid returns true if the operation is a valid VIREL operation.
func (o Operation) IsValid() bool {
	return o >= OpSubmitVote && o <= OpGetStatus
}
