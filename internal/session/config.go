package session

import (
	"time"

	"github.com/dmitrymomot/wagate/internal/credentials"
)

const (
	DefaultReconnectDelay  = 5 * time.Second
	DefaultRecipientDomain = "s.whatsapp.net"
)

// Config holds the tunables of the session lifecycle.
type Config struct {
	ReconnectDelay  time.Duration `env:"SESSION_RECONNECT_DELAY" envDefault:"5s"`
	RecipientDomain string        `env:"SESSION_RECIPIENT_DOMAIN" envDefault:"s.whatsapp.net"`
}

// NewFromConfig builds a Manager from cfg. Options passed after cfg win.
func NewFromConfig(cfg Config, engine Engine, store credentials.Store, opts ...Option) (*Manager, error) {
	base := []Option{
		WithReconnectDelay(cfg.ReconnectDelay),
		WithRecipientDomain(cfg.RecipientDomain),
	}
	return New(engine, store, append(base, opts...)...)
}
