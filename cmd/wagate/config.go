package main

import (
	"github.com/dmitrymomot/wagate/internal/credentials"
	"github.com/dmitrymomot/wagate/internal/engine/mock"
	"github.com/dmitrymomot/wagate/internal/gateway"
	"github.com/dmitrymomot/wagate/internal/pairing"
	"github.com/dmitrymomot/wagate/internal/session"
	"github.com/dmitrymomot/wagate/pkg/httpserver"
)

type Config struct {
	AppEnv       string `env:"APP_ENV" envDefault:"development"`
	ServiceName  string `env:"SERVICE_NAME" envDefault:"wagate"`
	EngineDriver string `env:"ENGINE_DRIVER" envDefault:"mock"`

	HTTP        httpserver.Config
	Gateway     gateway.Config
	Session     session.Config
	Pairing     pairing.Config
	Credentials credentials.Config
	Mock        mock.Config
}
