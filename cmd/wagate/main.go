package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/wagate/internal/credentials"
	"github.com/dmitrymomot/wagate/internal/engine/mock"
	"github.com/dmitrymomot/wagate/internal/gateway"
	"github.com/dmitrymomot/wagate/internal/pairing"
	"github.com/dmitrymomot/wagate/internal/session"
	"github.com/dmitrymomot/wagate/pkg/config"
	"github.com/dmitrymomot/wagate/pkg/httpserver"
	"github.com/dmitrymomot/wagate/pkg/logger"
)

var errUnknownEngine = errors.New("unknown engine driver")

func main() {
	var cfg Config
	config.MustLoad(&cfg)

	log := logger.New(
		logger.WithEnvironment(cfg.AppEnv, cfg.ServiceName),
		logger.WithAttr(slog.String("engine", cfg.EngineDriver)),
		logger.WithContextExtractors(gateway.RequestIDExtractor()),
	)
	logger.SetAsDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("wagate stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config, log *slog.Logger) error {
	backend, err := credentials.Open(ctx, cfg.Credentials, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.Close(); err != nil {
			log.Warn("closing credentials store", logger.Error(err))
		}
	}()

	engine, err := newEngine(cfg, log)
	if err != nil {
		return err
	}

	relay := pairing.NewFromConfig(cfg.Pairing, pairing.WithLogger(log))
	manager, err := session.NewFromConfig(cfg.Session, engine, backend.Store,
		session.WithLogger(log),
		session.WithChallengeSink(relay),
	)
	if err != nil {
		return err
	}
	relay.SetStatus(manager)

	gwOpts := []gateway.Option{gateway.WithLogger(log)}
	if backend.Health != nil {
		gwOpts = append(gwOpts, gateway.WithHealthChecks(backend.Health))
	}
	gw := gateway.NewFromConfig(cfg.Gateway, manager, relay, gwOpts...)

	server := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return manager.Run(ctx)
	})
	g.Go(func() error {
		return server.Run(ctx, gw.Router())
	})
	return g.Wait()
}

func newEngine(cfg Config, log *slog.Logger) (session.Engine, error) {
	switch cfg.EngineDriver {
	case "mock", "":
		log.Warn("using the simulated messaging engine")
		return mock.New(cfg.Mock, mock.WithLogger(log)), nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownEngine, cfg.EngineDriver)
	}
}
