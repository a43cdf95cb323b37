// Package gateway exposes the session over HTTP.
//
// Routes:
//
//	POST /send-message   send a text message {phoneNumber, message}
//	GET  /status         {isLoggedIn, state}
//	GET  /connect        start (or restart) the session
//	POST /logout         log out and forget the stored credentials
//	GET  /health         liveness probe
//	GET  / and /ws       WebSocket push channel for pairing QR codes
//
// Every JSON body mirrors what operator tooling already expects: success
// payloads carry "status" or "message", failures carry "message" and, when
// there is an underlying cause, "error".
package gateway
