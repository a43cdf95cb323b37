package pairing

import "errors"

var (
	ErrRender = errors.New("failed to render pairing challenge")
	ErrSend   = errors.New("failed to send pairing challenge")
)
