package session

import "errors"

var (
	ErrNotConnected      = errors.New("session is not connected")
	ErrDeliveryFailed    = errors.New("message delivery failed")
	ErrAlreadyConnected  = errors.New("session is already connected")
	ErrNoActiveSession   = errors.New("no active session")
	ErrEngineInit        = errors.New("engine failed to initialize")
	ErrConnectInProgress = errors.New("connection attempt already in progress")
	ErrEngineLogout      = errors.New("engine failed to log out")
	ErrNilEngine         = errors.New("engine is required")
	ErrNilStore          = errors.New("credentials store is required")
)

var errNoHandle = errors.New("engine returned no handle")
