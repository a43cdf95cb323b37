package mock

import "time"

// Config tunes the simulated network.
type Config struct {
	// ConnectDelay is how long a paired session takes to open.
	ConnectDelay time.Duration `env:"MOCK_CONNECT_DELAY" envDefault:"500ms"`
	// QRInterval is how often a fresh pairing challenge is issued.
	QRInterval time.Duration `env:"MOCK_QR_INTERVAL" envDefault:"20s"`
	// ScanAfter simulates the operator scanning the code. Zero never scans.
	ScanAfter time.Duration `env:"MOCK_SCAN_AFTER" envDefault:"15s"`
	// DropAfter closes an open session with DropCode. Zero never drops.
	DropAfter time.Duration `env:"MOCK_DROP_AFTER" envDefault:"0s"`
	DropCode  int           `env:"MOCK_DROP_CODE" envDefault:"428"`
	// FailSendTo lists recipients whose messages fail, for exercising errors.
	FailSendTo []string `env:"MOCK_FAIL_SEND_TO" envSeparator:","`
}
