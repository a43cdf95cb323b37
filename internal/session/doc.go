// Package session owns the single long-lived connection between the gateway
// and the messaging network.
//
// The Manager drives an Engine through the session lifecycle:
//
//	Disconnected -> Connecting -> AwaitingPairing -> Connected
//	Connected -> Connecting            (recoverable close, reconnect after a delay)
//	any active state -> LoggedOut      (unauthorized close or explicit logout)
//	LoggedOut -> Disconnected          (RequestConnect restarts the lifecycle)
//
// Engine lifecycle events are dispatched through a handler bound to the
// connection attempt that produced them, so late events from a superseded
// handle never touch the current session. Every transition is validated by
// a pkg/statemachine table and serialized by the Manager's mutex; network
// calls and other blocking side effects run after the mutex is released.
//
// Pairing challenges are forwarded to a ChallengeSink (the pairing relay)
// and credential updates are persisted to a credentials.Store.
package session
