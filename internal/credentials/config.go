package credentials

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dmitrymomot/wagate/pkg/logger"
	"github.com/dmitrymomot/wagate/pkg/redis"
)

// Supported values of Config.Driver.
const (
	DriverFile   = "file"
	DriverRedis  = "redis"
	DriverS3     = "s3"
	DriverMemory = "memory"
)

// Config selects and configures the credentials backend.
type Config struct {
	Driver   string       `env:"CREDENTIALS_DRIVER" envDefault:"file"`
	Dir      string       `env:"CREDENTIALS_DIR" envDefault:"auth"`
	RedisKey string       `env:"CREDENTIALS_REDIS_KEY" envDefault:"wagate:auth"`
	Redis    redis.Config
	S3       S3Config
}

// Backend is an opened credentials store with its lifecycle hooks.
type Backend struct {
	Store Store
	// Close releases backend connections. Never nil.
	Close func() error
	// Health probes the backend, nil when there is nothing to probe.
	Health func(context.Context) error
}

// Open builds the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg Config, log *slog.Logger) (*Backend, error) {
	if log == nil {
		log = logger.Discard()
	}
	noop := func() error { return nil }

	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case DriverFile, "":
		store, err := NewFileStore(cfg.Dir)
		if err != nil {
			return nil, err
		}
		log.InfoContext(ctx, "credentials store ready", slog.String("driver", DriverFile), slog.String("dir", store.Dir()))
		return &Backend{Store: store, Close: noop}, nil

	case DriverMemory:
		log.WarnContext(ctx, "credentials are kept in memory and will not survive a restart")
		return &Backend{Store: NewMemoryStore(), Close: noop}, nil

	case DriverRedis:
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		store, err := NewRedisStore(client, cfg.RedisKey)
		if err != nil {
			return nil, errors.Join(err, client.Close())
		}
		log.InfoContext(ctx, "credentials store ready", slog.String("driver", DriverRedis), slog.String("key", cfg.RedisKey))
		return &Backend{Store: store, Close: client.Close, Health: redis.Healthcheck(client)}, nil

	case DriverS3:
		store, err := NewS3Store(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		log.InfoContext(ctx, "credentials store ready",
			slog.String("driver", DriverS3),
			slog.String("bucket", cfg.S3.Bucket),
			slog.String("prefix", store.prefix),
		)
		return &Backend{Store: store, Close: noop}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
