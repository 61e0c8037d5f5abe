// Package lifecycle implements the payment-gated purchase workflow:
// intent capture, order creation, callback verification and the
// atomic commit that materializes domain records. The state machine
// is explicit so that illegal transitions (committing without
// verification, leaving a terminal state) are unrepresentable in the
// workflow code rather than an accident of handler ordering.
package lifecycle

// State is a position in the purchase workflow. The process
// suspends between OrderCreated and the provider callback; during
// that window the state lives in the staging store, not in memory.
type State string

const (
	// StateIntent: the user expressed purchase intent and the
	// synchronous preconditions passed.
	StateIntent State = "intent"
	// StateOrderCreated: the provider accepted the order.
	StateOrderCreated State = "order_created"
	// StateAwaitingCallback: the user was sent to the hosted
	// checkout; the server holds no open work for the flow.
	StateAwaitingCallback State = "awaiting_callback"
	// StateVerified: the callback signature checked out.
	StateVerified State = "verified"
	// StateCommitted: domain records exist; terminal.
	StateCommitted State = "committed"
	// StateAbandoned: the session expired or the user never came
	// back from checkout; terminal, no domain mutation.
	StateAbandoned State = "abandoned"
	// StateRejected: invalid signature or a business invariant
	// failed at commit time; terminal.
	StateRejected State = "rejected"
)

// transitions is the full legal-transition table. Anything absent
// is illegal.
var transitions = map[State][]State{
	StateIntent:           {StateOrderCreated, StateAbandoned, StateRejected},
	StateOrderCreated:     {StateAwaitingCallback, StateAbandoned},
	StateAwaitingCallback: {StateVerified, StateAbandoned, StateRejected},
	StateVerified:         {StateCommitted, StateRejected},
}

// CanTransition reports whether moving from s to next is legal.
func (s State) CanTransition(next State) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves the state.
func (s State) Terminal() bool {
	return len(transitions[s]) == 0
}
