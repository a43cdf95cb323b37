package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dmitrymomot/wagate/pkg/logger"
)

const pushBuffer = 8

// PushMessage is a frame sent on the push channel.
type PushMessage struct {
	QRCode string `json:"qrCode,omitempty"`
	Status string `json:"status,omitempty"`
}

// wsObserver adapts a WebSocket connection to pairing.Observer. Frames are
// queued and written by a single pump goroutine.
type wsObserver struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
	pingInterval time.Duration

	mu     sync.Mutex
	send   chan []byte
	closed bool
	done   chan struct{}
}

func newWSObserver(conn *websocket.Conn, writeTimeout, pingInterval time.Duration) *wsObserver {
	o := &wsObserver{
		conn:         conn,
		writeTimeout: writeTimeout,
		pingInterval: pingInterval,
		send:         make(chan []byte, pushBuffer),
		done:         make(chan struct{}),
	}
	go o.writePump()
	return o
}

func (o *wsObserver) SendChallenge(dataURL string) error {
	return o.enqueue(PushMessage{QRCode: dataURL})
}

func (o *wsObserver) AlreadyLoggedIn() error {
	return o.enqueue(PushMessage{Status: msgAlreadyLogged})
}

// Close flushes queued frames, sends a close frame and closes the socket.
func (o *wsObserver) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.closed {
		o.closed = true
		close(o.send)
	}
	return nil
}

func (o *wsObserver) enqueue(msg PushMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return ErrObserverClosed
	}
	select {
	case o.send <- data:
		return nil
	default:
		return ErrObserverBusy
	}
}

func (o *wsObserver) writePump() {
	ticker := time.NewTicker(o.pingInterval)
	defer func() {
		ticker.Stop()
		_ = o.conn.Close()
		close(o.done)
	}()

	for {
		select {
		case msg, ok := <-o.send:
			_ = o.conn.SetWriteDeadline(time.Now().Add(o.writeTimeout))
			if !ok {
				_ = o.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := o.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = o.conn.SetWriteDeadline(time.Now().Add(o.writeTimeout))
			if err := o.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// serveWS upgrades the request and attaches the connection to the relay
// until the client goes away.
func (g *Gateway) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.DebugContext(r.Context(), "websocket upgrade failed", logger.Error(err))
		return
	}

	log := g.log.With(logger.RequestID(RequestIDFromContext(r.Context())))
	log.Info("push channel opened", slog.String("remote", r.RemoteAddr))

	obs := newWSObserver(conn, g.writeTimeout, g.pingInterval)
	g.relay.Attach(obs)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	g.relay.Detach(obs)
	_ = obs.Close()
	<-obs.done
	log.Info("push channel closed", slog.String("remote", r.RemoteAddr))
}
