package gateway

import "time"

// Config holds the HTTP surface settings.
type Config struct {
	CORSOrigins    []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	MaxBodyBytes   int64         `env:"HTTP_MAX_BODY_BYTES" envDefault:"65536"`
	WSWriteTimeout time.Duration `env:"WS_WRITE_TIMEOUT" envDefault:"10s"`
	WSPingInterval time.Duration `env:"WS_PING_INTERVAL" envDefault:"30s"`
}

// NewFromConfig builds a Gateway from cfg. Options passed after cfg win.
func NewFromConfig(cfg Config, session Session, relay Relay, opts ...Option) *Gateway {
	base := []Option{
		WithCORSOrigins(cfg.CORSOrigins...),
		WithMaxBodyBytes(cfg.MaxBodyBytes),
		WithWSTimeouts(cfg.WSWriteTimeout, cfg.WSPingInterval),
	}
	return New(session, relay, append(base, opts...)...)
}
