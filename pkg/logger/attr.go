package logger

import (
	"log/slog"
	"time"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// RequestID records the request identifier under the key "request_id".
func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

// State records a session state name.
func State(name string) slog.Attr {
	return slog.String("state", name)
}

// Transition records a from/to pair of session states.
func Transition(from, to string) slog.Attr {
	return Group("transition", slog.String("from", from), slog.String("to", to))
}

// Reason records a disconnect classification together with its status code.
func Reason(reason string, code int) slog.Attr {
	return Group("disconnect", slog.String("reason", reason), slog.Int("code", code))
}

// Generation records the connection attempt counter.
func Generation(gen uint64) slog.Attr {
	return slog.Uint64("generation", gen)
}

// Recipient records a message recipient address.
func Recipient(addr string) slog.Attr {
	return slog.String("recipient", addr)
}

// Duration records d under the key "duration".
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}
