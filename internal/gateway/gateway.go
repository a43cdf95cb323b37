package gateway

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/dmitrymomot/wagate/internal/pairing"
	"github.com/dmitrymomot/wagate/internal/session"
	"github.com/dmitrymomot/wagate/pkg/httpserver"
	"github.com/dmitrymomot/wagate/pkg/logger"
)

// Session is the part of the session manager the gateway drives.
type Session interface {
	Status() session.State
	LoggedIn() bool
	Send(ctx context.Context, recipient, text string) error
	RequestConnect(ctx context.Context) (session.ConnectResult, error)
	Logout(ctx context.Context) error
}

// Relay accepts push-channel observers.
type Relay interface {
	Attach(obs pairing.Observer)
	Detach(obs pairing.Observer)
}

type Gateway struct {
	session      Session
	relay        Relay
	log          *slog.Logger
	origins      []string
	maxBody      int64
	writeTimeout time.Duration
	pingInterval time.Duration
	checks       []func(context.Context) error
	upgrader     websocket.Upgrader
}

type Option func(*Gateway)

func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.log = l
		}
	}
}

// WithCORSOrigins sets the allowed origins. "*" allows any origin.
func WithCORSOrigins(origins ...string) Option {
	return func(g *Gateway) {
		if len(origins) > 0 {
			g.origins = origins
		}
	}
}

// WithMaxBodyBytes caps request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(g *Gateway) {
		if n > 0 {
			g.maxBody = n
		}
	}
}

// WithWSTimeouts sets the push channel write deadline and ping interval.
func WithWSTimeouts(write, ping time.Duration) Option {
	return func(g *Gateway) {
		if write > 0 {
			g.writeTimeout = write
		}
		if ping > 0 {
			g.pingInterval = ping
		}
	}
}

// WithHealthChecks adds readiness checks to GET /health.
func WithHealthChecks(checks ...func(context.Context) error) Option {
	return func(g *Gateway) {
		g.checks = append(g.checks, checks...)
	}
}

func New(s Session, relay Relay, opts ...Option) *Gateway {
	g := &Gateway{
		session:      s,
		relay:        relay,
		log:          logger.Discard(),
		origins:      []string{"*"},
		maxBody:      64 << 10,
		writeTimeout: 10 * time.Second,
		pingInterval: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.log = g.log.With(slog.String("component", "gateway"))
	g.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     g.checkOrigin,
	}
	return g
}

// Router returns the HTTP handler serving every route.
func (g *Gateway) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(
		RequestID,
		g.accessLog,
		middleware.Recoverer,
		middleware.RequestSize(g.maxBody),
		g.cors,
	)

	r.Get("/health", httpserver.HealthCheckHandler(g.log, g.checks...))
	r.Get("/status", g.respond(g.status))
	r.Get("/connect", g.respond(g.connect))
	r.Post("/logout", g.respond(g.logout))
	r.Post("/send-message", g.respond(g.sendMessage))
	r.Get("/", g.serveWS)
	r.Get("/ws", g.serveWS)

	return r
}

// accessLog logs one line per request.
func (g *Gateway) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		g.log.DebugContext(r.Context(), "http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("client_ip", clientIP(r)),
			slog.Int("status", ww.Status()),
			logger.Duration(time.Since(start)),
		)
	})
}
