package gateway

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/wagate/internal/session"
	"github.com/dmitrymomot/wagate/pkg/logger"
)

const (
	msgSent           = "Message sent successfully"
	msgNotConnected   = "WhatsApp not connected"
	msgSendFailed     = "Failed to send message"
	msgInvalidRequest = "Invalid request"
	msgInitializing   = "Initializing WhatsApp connection"
	msgReinitializing = "Reinitializing WhatsApp connection"
	msgInProgress     = "WhatsApp connection already in progress"
	msgAlreadyLogged  = "Already logged in"
	msgConnectFailed  = "Failed to start WhatsApp connection"
	msgLoggedOut      = "Logged out successfully"
	msgNoSession      = "No active session found"
	msgLogoutFailed   = "Failed to log out"
)

func (g *Gateway) sendMessage(r *http.Request) Response {
	var req SendMessageRequest
	if err := bindJSON(r, &req); err != nil {
		return Failure(http.StatusBadRequest, msgInvalidRequest, err)
	}
	if err := req.validate(); err != nil {
		return Failure(http.StatusBadRequest, msgInvalidRequest, err)
	}

	err := g.session.Send(r.Context(), req.PhoneNumber, req.Message)
	switch {
	case err == nil:
		return JSON(http.StatusOK, StatusBody{Status: msgSent})
	case errors.Is(err, session.ErrNotConnected):
		return Message(http.StatusInternalServerError, msgNotConnected)
	default:
		g.log.WarnContext(r.Context(), "send-message failed", logger.Error(err))
		return Failure(http.StatusInternalServerError, msgSendFailed, causeOf(err, session.ErrDeliveryFailed))
	}
}

func (g *Gateway) status(*http.Request) Response {
	state := g.session.Status()
	return JSON(http.StatusOK, SessionStatus{
		IsLoggedIn: state == session.StateConnected,
		State:      state.String(),
	})
}

func (g *Gateway) connect(r *http.Request) Response {
	result, err := g.session.RequestConnect(r.Context())
	switch {
	case errors.Is(err, session.ErrAlreadyConnected):
		return Message(http.StatusBadRequest, msgAlreadyLogged)
	case err != nil:
		g.log.ErrorContext(r.Context(), "connect request failed", logger.Error(err))
		return Failure(http.StatusInternalServerError, msgConnectFailed, err)
	}

	switch result {
	case session.ConnectRestarted:
		return Message(http.StatusOK, msgReinitializing)
	case session.ConnectPending:
		return Message(http.StatusOK, msgInProgress)
	default:
		return Message(http.StatusOK, msgInitializing)
	}
}

func (g *Gateway) logout(r *http.Request) Response {
	err := g.session.Logout(r.Context())
	switch {
	case err == nil:
		return Message(http.StatusOK, msgLoggedOut)
	case errors.Is(err, session.ErrNoActiveSession):
		return Message(http.StatusBadRequest, msgNoSession)
	default:
		g.log.ErrorContext(r.Context(), "logout failed", logger.Error(err))
		return Failure(http.StatusInternalServerError, msgLogoutFailed, causeOf(err, session.ErrEngineLogout))
	}
}
