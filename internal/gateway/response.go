package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/dmitrymomot/wagate/pkg/logger"
)

// Response renders itself to a ResponseWriter.
type Response interface {
	Render(w http.ResponseWriter, r *http.Request) error
}

// MessageBody is the body of informational and error responses.
type MessageBody struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// StatusBody is the body of a successful send.
type StatusBody struct {
	Status string `json:"status"`
}

// SessionStatus is the body of GET /status.
type SessionStatus struct {
	IsLoggedIn bool   `json:"isLoggedIn"`
	State      string `json:"state"`
}

type jsonResponse struct {
	status int
	body   any
}

func (j jsonResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

// JSON renders v with the given status code.
func JSON(status int, v any) Response {
	return jsonResponse{status: status, body: v}
}

// Message renders {"message": msg}.
func Message(status int, msg string) Response {
	return JSON(status, MessageBody{Message: msg})
}

// Failure renders {"message": msg, "error": cause}.
func Failure(status int, msg string, cause error) Response {
	body := MessageBody{Message: msg}
	if cause != nil {
		body.Error = cause.Error()
	}
	return JSON(status, body)
}

// respond adapts a Response-returning function to http.HandlerFunc.
func (g *Gateway) respond(fn func(r *http.Request) Response) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := fn(r)
		if resp == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if err := resp.Render(w, r); err != nil {
			g.log.ErrorContext(r.Context(), "failed to render response", logger.Error(err))
		}
	}
}
