package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
)

// bindJSON decodes the request body into v. A missing Content-Type is
// accepted as JSON.
func bindJSON(r *http.Request, v any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != "application/json" {
			return fmt.Errorf("%w: got %s, expected application/json", ErrUnsupportedMediaType, ct)
		}
	}

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", ErrInvalidJSON)
		}
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return nil
}

// SendMessageRequest is the body of POST /send-message.
type SendMessageRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Message     string `json:"message"`
}

func (req *SendMessageRequest) validate() error {
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	switch {
	case req.PhoneNumber == "":
		return fmt.Errorf("%w: phoneNumber", ErrMissingField)
	case req.Message == "":
		return fmt.Errorf("%w: message", ErrMissingField)
	}
	return nil
}
