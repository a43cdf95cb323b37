package credentials

import "errors"

var (
	ErrInvalidKey    = errors.New("invalid credential key")
	ErrUnknownDriver = errors.New("unknown credentials driver")
	ErrInvalidConfig = errors.New("invalid credentials store configuration")
	ErrLoadFailed    = errors.New("failed to load credentials")
	ErrSaveFailed    = errors.New("failed to save credentials")
	ErrClearFailed   = errors.New("failed to clear credentials")
)
