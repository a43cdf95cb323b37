package session

import (
	"log/slog"
	"strings"
	"time"
)

// Timer is a pending reconnect that can be cancelled.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler func(d time.Duration, f func()) Timer

func afterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type Option func(*Manager)

// WithLogger sets the logger. Nil is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// WithChallengeSink sets where pairing challenges are forwarded.
func WithChallengeSink(sink ChallengeSink) Option {
	return func(m *Manager) {
		if sink != nil {
			m.sink = sink
		}
	}
}

// WithReconnectDelay sets the pause before reconnecting after a recoverable
// close. Non-positive values keep the default.
func WithReconnectDelay(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.delay = d
		}
	}
}

// WithRecipientDomain sets the address domain appended to bare recipients.
func WithRecipientDomain(domain string) Option {
	return func(m *Manager) {
		if domain = strings.Trim(strings.TrimSpace(domain), "@"); domain != "" {
			m.domain = domain
		}
	}
}

// WithScheduler replaces time.AfterFunc for reconnect timers.
func WithScheduler(s Scheduler) Option {
	return func(m *Manager) {
		if s != nil {
			m.schedule = s
		}
	}
}
