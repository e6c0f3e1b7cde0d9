package verifier

import "github.com/JihedeMedini/rfid-verify/pkg/types"

// Event is a verification lifecycle event driving the order status machine
type Event int

const (
	// EventScanAccepted fires when a tag scan passes validation and is counted
	EventScanAccepted Event = iota
	// EventSubmit fires on an explicit submitVerification close-out
	EventSubmit
	// EventReset fires on resetVerification
	EventReset
)

// NextStatus is the single transition function for the order verification
// state machine. allSatisfied reports whether every line has reached its
// target at the time of the event.
//
// Scanning only ever advances NOT_STARTED -> IN_PROGRESS -> COMPLETE; FAILED
// is reachable solely through EventSubmit, and EventReset returns any state
// to NOT_STARTED.
func NextStatus(current types.VerificationStatus, event Event, allSatisfied bool) types.VerificationStatus {
	switch event {
	case EventReset:
		return types.StatusNotStarted
	case EventSubmit:
		if allSatisfied {
			return types.StatusComplete
		}
		return types.StatusFailed
	case EventScanAccepted:
		if allSatisfied {
			return types.StatusComplete
		}
		return types.StatusInProgress
	}
	return current
}
