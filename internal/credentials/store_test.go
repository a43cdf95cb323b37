package credentials_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/wagate/internal/credentials"
)

// exerciseStore runs the behavior every backend shares.
func exerciseStore(t *testing.T, store credentials.Store) {
	t.Helper()
	ctx := context.Background()

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got, "fresh store must be empty")

	require.NoError(t, store.Save(ctx, credentials.Bundle{
		"creds.json":                 []byte(`{"me":"123"}`),
		"pre-key-1":                  []byte{0x00, 0x01, 0xff},
		"app-state-sync-key-AB/CD:9": []byte("sync"),
	}))

	got, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, credentials.Bundle{
		"creds.json":                 []byte(`{"me":"123"}`),
		"pre-key-1":                  []byte{0x00, 0x01, 0xff},
		"app-state-sync-key-AB/CD:9": []byte("sync"),
	}, got)

	require.NoError(t, store.Save(ctx, credentials.Bundle{
		"pre-key-1":  nil,
		"creds.json": []byte(`{"me":"456"}`),
	}))

	got, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, credentials.Bundle{
		"creds.json":                 []byte(`{"me":"456"}`),
		"app-state-sync-key-AB/CD:9": []byte("sync"),
	}, got)

	err = store.Save(ctx, credentials.Bundle{"..": []byte("x")})
	assert.ErrorIs(t, err, credentials.ErrInvalidKey)

	require.NoError(t, store.Clear(ctx))
	got, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, store.Clear(ctx), "clearing an empty store is not an error")
}

func TestBundle(t *testing.T) {
	t.Parallel()

	t.Run("clone is deep", func(t *testing.T) {
		t.Parallel()
		orig := credentials.Bundle{"a": []byte("1")}
		cp := orig.Clone()
		cp["a"][0] = '2'
		assert.Equal(t, []byte("1"), orig["a"])
	})

	t.Run("merge deletes nil values", func(t *testing.T) {
		t.Parallel()
		b := credentials.Bundle{"a": []byte("1"), "b": []byte("2")}
		b.Merge(credentials.Bundle{"a": nil, "c": []byte("3")})
		assert.Equal(t, credentials.Bundle{"b": []byte("2"), "c": []byte("3")}, b)
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		assert.True(t, credentials.Bundle(nil).Empty())
		assert.False(t, credentials.Bundle{"a": nil}.Empty())
	})
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	exerciseStore(t, credentials.NewMemoryStore())
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := credentials.NewMemoryStore()
	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, store.Save(ctx, credentials.Bundle{"a": []byte("1")}), context.Canceled)
	assert.ErrorIs(t, store.Clear(ctx), context.Canceled)
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("file", func(t *testing.T) {
		t.Parallel()
		backend, err := credentials.Open(context.Background(), credentials.Config{
			Driver: credentials.DriverFile,
			Dir:    t.TempDir(),
		}, nil)
		require.NoError(t, err)
		assert.IsType(t, &credentials.FileStore{}, backend.Store)
		assert.Nil(t, backend.Health)
		assert.NoError(t, backend.Close())
	})

	t.Run("memory", func(t *testing.T) {
		t.Parallel()
		backend, err := credentials.Open(context.Background(), credentials.Config{Driver: "MEMORY"}, nil)
		require.NoError(t, err)
		assert.IsType(t, &credentials.MemoryStore{}, backend.Store)
	})

	t.Run("s3 without bucket", func(t *testing.T) {
		t.Parallel()
		_, err := credentials.Open(context.Background(), credentials.Config{Driver: credentials.DriverS3}, nil)
		assert.ErrorIs(t, err, credentials.ErrInvalidConfig)
	})

	t.Run("unknown driver", func(t *testing.T) {
		t.Parallel()
		_, err := credentials.Open(context.Background(), credentials.Config{Driver: "etcd"}, nil)
		assert.ErrorIs(t, err, credentials.ErrUnknownDriver)
	})
}
