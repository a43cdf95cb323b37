// Package mock is a simulated messaging network for development and tests.
//
// A connection with stored credentials opens after ConnectDelay. Without
// credentials it issues pairing challenges every QRInterval until the
// simulated scan, then reports new credentials and opens. Logout closes the
// connection with the unauthorized status code.
package mock

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/wagate/internal/credentials"
	"github.com/dmitrymomot/wagate/internal/session"
	"github.com/dmitrymomot/wagate/pkg/logger"
)

// CredsKey is the entry whose presence marks a paired device.
const CredsKey = "creds.json"

var (
	ErrClosed     = errors.New("connection closed")
	ErrNotOpen    = errors.New("connection is not open")
	ErrSendFailed = errors.New("simulated send failure")
)

// Message is a message accepted by the simulated network.
type Message struct {
	To   string
	Text string
	At   time.Time
}

type Engine struct {
	cfg Config
	log *slog.Logger

	mu     sync.Mutex
	outbox []Message
}

type Option func(*Engine)

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

func New(cfg Config, opts ...Option) *Engine {
	e := &Engine{cfg: cfg, log: logger.Discard()}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.With(slog.String("component", "mock_engine"))
	return e
}

// Connect starts a simulated connection.
func (e *Engine) Connect(ctx context.Context, creds credentials.Bundle, handler func(session.Event)) (session.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if handler == nil {
		return nil, errors.New("mock: nil event handler")
	}

	c := &conn{
		engine:  e,
		handler: handler,
		stop:    make(chan struct{}),
		paired:  creds[CredsKey] != nil,
	}
	go c.run()
	return c, nil
}

// Outbox returns the messages delivered so far.
func (e *Engine) Outbox() []Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.outbox)
}

func (e *Engine) deliver(to, text string) error {
	if slices.Contains(e.cfg.FailSendTo, to) {
		return ErrSendFailed
	}
	e.mu.Lock()
	e.outbox = append(e.outbox, Message{To: to, Text: text, At: time.Now()})
	e.mu.Unlock()
	e.log.Info("message delivered", logger.Recipient(to))
	return nil
}

type conn struct {
	engine  *Engine
	handler func(session.Event)
	paired  bool

	mu     sync.Mutex
	open   bool
	closed bool
	stop   chan struct{}
}

func (c *conn) run() {
	cfg := c.engine.cfg

	if !c.paired {
		if !c.pair(cfg) {
			return
		}
	} else if !c.wait(cfg.ConnectDelay) {
		return
	}

	c.mu.Lock()
	c.open = true
	c.mu.Unlock()
	c.emit(session.Event{Kind: session.EventOpen})

	if cfg.DropAfter <= 0 || !c.wait(cfg.DropAfter) {
		return
	}
	c.mu.Lock()
	c.open = false
	c.mu.Unlock()
	c.emit(session.Event{Kind: session.EventClose, StatusCode: cfg.DropCode, Err: errors.New("mock: simulated connection drop")})
}

// pair issues challenges until the simulated scan. It reports false when the
// connection was stopped first.
func (c *conn) pair(cfg Config) bool {
	c.emit(session.Event{Kind: session.EventPairingChallenge, Challenge: newChallenge()})

	interval := cfg.QRInterval
	if interval <= 0 {
		interval = 20 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var scanned <-chan time.Time
	if cfg.ScanAfter > 0 {
		t := time.NewTimer(cfg.ScanAfter)
		defer t.Stop()
		scanned = t.C
	}

	for {
		select {
		case <-c.stop:
			return false
		case <-ticker.C:
			c.emit(session.Event{Kind: session.EventPairingChallenge, Challenge: newChallenge()})
		case <-scanned:
			c.emit(session.Event{Kind: session.EventCredentialsUpdate, Credentials: newCredentials()})
			return true
		}
	}
}

func (c *conn) wait(d time.Duration) bool {
	if d <= 0 {
		select {
		case <-c.stop:
			return false
		default:
			return true
		}
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-c.stop:
		return false
	case <-t.C:
		return true
	}
}

func (c *conn) emit(ev session.Event) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if !closed {
		c.handler(ev)
	}
}

func (c *conn) Send(ctx context.Context, to, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	closed, open := c.closed, c.open
	c.mu.Unlock()
	switch {
	case closed:
		return ErrClosed
	case !open:
		return ErrNotOpen
	}
	return c.engine.deliver(to, text)
}

// Logout revokes the simulated device and reports an unauthorized close.
func (c *conn) Logout(context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.open = false
	c.mu.Unlock()

	c.emit(session.Event{Kind: session.EventClose, StatusCode: session.StatusUnauthorized, Err: errors.New("mock: logged out")})
	return c.Close()
}

func (c *conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.open = false
	close(c.stop)
	return nil
}

func newChallenge() string {
	return "2@" + uuid.NewString() + "," + uuid.NewString()
}

func newCredentials() credentials.Bundle {
	data, _ := json.Marshal(map[string]any{
		"me":         map[string]string{"id": uuid.NewString() + "@s.whatsapp.net"},
		"registered": true,
	})
	return credentials.Bundle{CredsKey: data}
}
