package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Load parses environment variables into v.
//
// With no files given, Load tries ".env" in the working directory and
// silently ignores its absence. Files passed explicitly must exist.
func Load[T any](v *T, files ...string) error {
	if v == nil {
		return ErrNilPointer
	}

	if len(files) == 0 {
		// The default .env file is optional.
		_ = godotenv.Load()
	} else if err := godotenv.Load(files...); err != nil {
		return errors.Join(ErrLoadingEnvFile, err)
	}

	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}

// MustLoad works like Load but panics if configuration loading fails.
func MustLoad[T any](v *T, files ...string) {
	if err := Load(v, files...); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}
