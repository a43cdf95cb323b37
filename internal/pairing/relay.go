// Package pairing relays pairing challenges to the operator watching the
// gateway.
//
// At most one observer is attached at a time: a new attachment replaces the
// previous one, which the relay does not close. Challenges are rendered to
// PNG data URLs before delivery. The latest challenge that found no observer
// is kept and handed to the next observer that attaches before the session
// opens.
package pairing

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/dmitrymomot/wagate/pkg/logger"
	"github.com/dmitrymomot/wagate/pkg/qrcode"
)

// Observer receives pairing updates.
type Observer interface {
	SendChallenge(dataURL string) error
	AlreadyLoggedIn() error
	Close() error
}

// Status reports whether the session is already connected.
type Status interface {
	LoggedIn() bool
}

// StatusFunc adapts a function to Status.
type StatusFunc func() bool

func (f StatusFunc) LoggedIn() bool { return f() }

type Relay struct {
	size int
	log  *slog.Logger

	mu       sync.Mutex
	status   Status
	observer Observer
	pending  string
}

type Option func(*Relay)

func WithLogger(l *slog.Logger) Option {
	return func(r *Relay) {
		if l != nil {
			r.log = l
		}
	}
}

// WithSize sets the rendered QR image edge in pixels.
func WithSize(px int) Option {
	return func(r *Relay) {
		if px > 0 {
			r.size = px
		}
	}
}

// WithStatus sets the session status source. Until it is set the session
// is treated as not connected.
func WithStatus(s Status) Option {
	return func(r *Relay) {
		r.status = s
	}
}

func New(opts ...Option) *Relay {
	r := &Relay{
		size: qrcode.DefaultSize,
		log:  logger.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With(slog.String("component", "pairing"))
	return r
}

// SetStatus replaces the session status source.
func (r *Relay) SetStatus(s Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = s
}

// Attach makes obs the current observer. When the session is already
// connected obs is told so and closed instead.
func (r *Relay) Attach(obs Observer) {
	if obs == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.loggedInLocked() {
		r.pending = ""
		if err := obs.AlreadyLoggedIn(); err != nil {
			r.log.Debug("notify observer", logger.Error(err))
		}
		if err := obs.Close(); err != nil {
			r.log.Debug("close observer", logger.Error(err))
		}
		return
	}

	if r.observer != nil && r.observer != obs {
		r.log.Info("observer replaced")
	}
	r.observer = obs

	if r.pending != "" {
		if err := r.sendLocked(r.pending); err != nil {
			r.log.Warn("failed to deliver retained challenge", logger.Error(err))
			return
		}
		r.pending = ""
	}
}

// Detach removes obs if it is still the current observer.
func (r *Relay) Detach(obs Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.observer == obs {
		r.observer = nil
	}
}

// Deliver renders challenge and sends it to the current observer. Without
// an observer the challenge is retained for the next one.
func (r *Relay) Deliver(challenge string) {
	if challenge == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.loggedInLocked() {
		return
	}
	if r.observer == nil {
		r.pending = challenge
		r.log.Debug("no observer attached, challenge retained")
		return
	}

	if err := r.sendLocked(challenge); err != nil {
		r.pending = challenge
		r.log.Warn("failed to deliver challenge", logger.Error(err))
		return
	}
	r.pending = ""
}

// Clear forgets any retained challenge.
func (r *Relay) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = ""
}

// Pending reports whether a challenge is waiting for an observer.
func (r *Relay) Pending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending != ""
}

func (r *Relay) sendLocked(challenge string) error {
	dataURL, err := qrcode.GenerateDataURL(challenge, r.size)
	if err != nil {
		return errors.Join(ErrRender, err)
	}
	if err := r.observer.SendChallenge(dataURL); err != nil {
		return errors.Join(ErrSend, err)
	}
	return nil
}

func (r *Relay) loggedInLocked() bool {
	return r.status != nil && r.status.LoggedIn()
}
