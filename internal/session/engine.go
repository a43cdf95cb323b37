package session

import (
	"context"
	"strconv"

	"github.com/dmitrymomot/wagate/internal/credentials"
)

// Engine opens connections to the messaging network.
//
// Connect starts a connection attempt with the given credentials and returns
// its handle. Lifecycle events of the attempt are reported through handler,
// possibly before Connect returns and from any goroutine.
type Engine interface {
	Connect(ctx context.Context, creds credentials.Bundle, handler func(Event)) (Handle, error)
}

// Handle is a live engine connection. It is owned by the Manager and never
// reused after Close.
type Handle interface {
	Send(ctx context.Context, to, text string) error
	Logout(ctx context.Context) error
	Close() error
}

// ChallengeSink receives pairing challenges for the operator.
type ChallengeSink interface {
	Deliver(challenge string)
	Clear()
}

type EventKind int

const (
	EventOpen EventKind = iota + 1
	EventClose
	EventPairingChallenge
	EventCredentialsUpdate
)

func (k EventKind) String() string {
	switch k {
	case EventOpen:
		return "open"
	case EventClose:
		return "close"
	case EventPairingChallenge:
		return "pairing_challenge"
	case EventCredentialsUpdate:
		return "credentials_update"
	default:
		return "unknown(" + strconv.Itoa(int(k)) + ")"
	}
}

// Event is a lifecycle notification from an engine connection.
type Event struct {
	Kind EventKind
	// StatusCode and Err describe why the connection closed.
	StatusCode int
	Err        error
	// Challenge is the raw pairing token.
	Challenge string
	// Credentials is a partial update; nil values delete entries.
	Credentials credentials.Bundle
}

// StatusUnauthorized is the close code reported when the remote side has
// revoked the session.
const StatusUnauthorized = 401

// DisconnectReason classifies why a connection ended.
type DisconnectReason int

const (
	Recoverable DisconnectReason = iota
	Unauthorized
)

func (r DisconnectReason) String() string {
	if r == Unauthorized {
		return "unauthorized"
	}
	return "recoverable"
}

// Classify maps a close status code to a DisconnectReason.
func Classify(code int) DisconnectReason {
	if code == StatusUnauthorized {
		return Unauthorized
	}
	return Recoverable
}

type noopSink struct{}

func (noopSink) Deliver(string) {}
func (noopSink) Clear()         {}
