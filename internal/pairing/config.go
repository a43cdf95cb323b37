package pairing

// Config holds the pairing relay settings.
type Config struct {
	QRSize int `env:"PAIRING_QR_SIZE" envDefault:"256"`
}

// NewFromConfig builds a Relay from cfg.
func NewFromConfig(cfg Config, opts ...Option) *Relay {
	return New(append([]Option{WithSize(cfg.QRSize)}, opts...)...)
}
