package session

import "github.com/dmitrymomot/wagate/pkg/statemachine"

// State is the lifecycle state of the session.
type State string

const (
	StateDisconnected    State = "disconnected"
	StateConnecting      State = "connecting"
	StateAwaitingPairing State = "awaiting_pairing"
	StateConnected       State = "connected"
	StateLoggedOut       State = "logged_out"
)

func (s State) Name() string   { return string(s) }
func (s State) String() string { return string(s) }

// Lifecycle events driving the transition table.
var (
	evDial      = statemachine.StringEvent("dial")
	evReset     = statemachine.StringEvent("reset")
	evFail      = statemachine.StringEvent("fail")
	evChallenge = statemachine.StringEvent("challenge")
	evOpen      = statemachine.StringEvent("open")
	evDrop      = statemachine.StringEvent("drop")
	evRevoke    = statemachine.StringEvent("revoke")
	evLogout    = statemachine.StringEvent("logout")
	evShutdown  = statemachine.StringEvent("shutdown")
)

var activeStates = []statemachine.State{StateConnecting, StateAwaitingPairing, StateConnected}

func newLifecycle(observe statemachine.Observer) *statemachine.Machine {
	return statemachine.MustNew(StateDisconnected,
		statemachine.WithTransition(StateDisconnected, StateConnecting, evDial),
		statemachine.WithTransition(StateLoggedOut, StateDisconnected, evReset),
		statemachine.WithTransition(StateConnecting, StateConnecting, evDial),
		statemachine.WithTransition(StateConnecting, StateDisconnected, evFail),
		statemachine.WithTransition(StateConnecting, StateAwaitingPairing, evChallenge),
		statemachine.WithTransition(StateAwaitingPairing, StateAwaitingPairing, evChallenge),
		statemachine.WithTransitionsFrom([]statemachine.State{StateConnecting, StateAwaitingPairing}, StateConnected, evOpen),
		statemachine.WithTransitionsFrom(activeStates, StateConnecting, evDrop),
		statemachine.WithTransitionsFrom(activeStates, StateLoggedOut, evRevoke),
		// A connect attempt may fail while Logout is tearing down.
		statemachine.WithTransitionsFrom(append([]statemachine.State{StateDisconnected}, activeStates...), StateLoggedOut, evLogout),
		statemachine.WithTransitionsFrom(activeStates, StateDisconnected, evShutdown),
		statemachine.WithObserver(observe),
	)
}

func stateOf(s statemachine.State) State {
	if st, ok := s.(State); ok {
		return st
	}
	return State(s.Name())
}
