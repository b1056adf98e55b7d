package booking

// State is the lifecycle of one booking attempt.
type State string

const (
	StateInitiated      State = "INITIATED"
	StateReserved       State = "RESERVED"
	StatePaymentPending State = "PAYMENT_PENDING"
	StateConfirmed      State = "CONFIRMED"
	StateRejected       State = "REJECTED"
	StateReleased       State = "RELEASED"
)

// RESERVED goes straight to CONFIRMED only for free events.
var validTransitions = map[State][]State{
	StateInitiated:      {StateReserved, StateRejected},
	StateReserved:       {StatePaymentPending, StateConfirmed, StateReleased},
	StatePaymentPending: {StateConfirmed, StateReleased},
}

// CanTransitionTo reports whether s may move to next.
func (s State) CanTransitionTo(next State) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return len(validTransitions[s]) == 0
}

// Holding reports whether the booking still holds reserved inventory.
func (s State) Holding() bool {
	return s == StateReserved || s == StatePaymentPending
}
