package gateway

import "errors"

var (
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrInvalidJSON          = errors.New("invalid JSON")
	ErrMissingField         = errors.New("missing required field")
	ErrObserverClosed       = errors.New("observer is closed")
	ErrObserverBusy         = errors.New("observer send buffer is full")
)

// causeOf returns the first error joined with sentinel, or err itself when
// it is not a join.
func causeOf(err, sentinel error) error {
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return err
	}
	for _, e := range joined.Unwrap() {
		if e != sentinel {
			return e
		}
	}
	return err
}
