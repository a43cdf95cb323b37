// Package statemachine is a small finite-state machine driven by a
// declarative transition table.
//
// States and events are anything with a Name method; StringState and
// StringEvent cover the common case. The table is fixed at construction time
// and every state/event pair maps to at most one target.
//
//	const (
//		Idle    = statemachine.StringState("idle")
//		Running = statemachine.StringState("running")
//		Start   = statemachine.StringEvent("start")
//	)
//
//	m := statemachine.MustNew(Idle,
//		statemachine.WithTransition(Idle, Running, Start),
//		statemachine.WithObserver(func(from, to statemachine.State, ev statemachine.Event) {
//			log.Printf("%s -> %s on %s", from.Name(), to.Name(), ev.Name())
//		}),
//	)
//	_ = m.Fire(Start)
//
// Fire returns *ErrNoTransitionAvailable when the table has no edge for the
// current state and event. All methods are safe for concurrent use.
package statemachine
