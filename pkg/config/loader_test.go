package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/wagate/pkg/config"
)

type testConfig struct {
	Addr  string        `env:"WAGATE_TEST_ADDR" envDefault:":3000"`
	Delay time.Duration `env:"WAGATE_TEST_DELAY" envDefault:"5s"`
	Size  int           `env:"WAGATE_TEST_SIZE" envDefault:"256"`
}

type requiredConfig struct {
	Value string `env:"WAGATE_TEST_REQUIRED,required"`
}

func TestLoad_Defaults(t *testing.T) {
	os.Unsetenv("WAGATE_TEST_ADDR")
	os.Unsetenv("WAGATE_TEST_DELAY")
	os.Unsetenv("WAGATE_TEST_SIZE")

	var cfg testConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, ":3000", cfg.Addr)
	assert.Equal(t, 5*time.Second, cfg.Delay)
	assert.Equal(t, 256, cfg.Size)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("WAGATE_TEST_ADDR", ":9000")
	t.Setenv("WAGATE_TEST_DELAY", "250ms")

	var cfg testConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, 250*time.Millisecond, cfg.Delay)
}

func TestLoad_EnvFile(t *testing.T) {
	os.Unsetenv("WAGATE_TEST_SIZE")
	t.Cleanup(func() { os.Unsetenv("WAGATE_TEST_SIZE") })

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("WAGATE_TEST_SIZE=512\n"), 0o600))

	var cfg testConfig
	require.NoError(t, config.Load(&cfg, path))
	assert.Equal(t, 512, cfg.Size)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("nil pointer", func(t *testing.T) {
		var cfg *testConfig
		assert.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
	})

	t.Run("missing env file", func(t *testing.T) {
		var cfg testConfig
		err := config.Load(&cfg, filepath.Join(t.TempDir(), "absent.env"))
		assert.True(t, errors.Is(err, config.ErrLoadingEnvFile))
	})

	t.Run("required value", func(t *testing.T) {
		os.Unsetenv("WAGATE_TEST_REQUIRED")
		var cfg requiredConfig
		assert.ErrorIs(t, config.Load(&cfg), config.ErrParsingConfig)
		assert.Panics(t, func() { config.MustLoad(&cfg) })
	})
}
