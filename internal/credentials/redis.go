package credentials

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisClient is the subset of go-redis used by RedisStore.
// *redis.Client and *redis.ClusterClient satisfy it.
type RedisClient interface {
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
	HSet(ctx context.Context, key string, values ...any) *redis.IntCmd
	HDel(ctx context.Context, key string, fields ...string) *redis.IntCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisStore keeps every credential entry as a field of a single hash.
type RedisStore struct {
	client RedisClient
	key    string
}

// NewRedisStore returns a store writing to the hash named key.
func NewRedisStore(client RedisClient, key string) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: nil redis client", ErrInvalidConfig)
	}
	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("%w: empty redis key", ErrInvalidConfig)
	}
	return &RedisStore{client: client, key: key}, nil
}

func (s *RedisStore) Load(ctx context.Context) (Bundle, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, errors.Join(ErrLoadFailed, err)
	}

	out := make(Bundle, len(fields))
	for k, v := range fields {
		out[k] = []byte(v)
	}
	return out, nil
}

func (s *RedisStore) Save(ctx context.Context, update Bundle) error {
	if err := validateBundle(update); err != nil {
		return err
	}

	set, del := split(update)
	if len(set) > 0 {
		values := make([]any, 0, len(set)*2)
		for k, v := range set {
			values = append(values, k, v)
		}
		if err := s.client.HSet(ctx, s.key, values...).Err(); err != nil {
			return errors.Join(ErrSaveFailed, err)
		}
	}
	if len(del) > 0 {
		if err := s.client.HDel(ctx, s.key, del...).Err(); err != nil {
			return errors.Join(ErrSaveFailed, err)
		}
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return errors.Join(ErrClearFailed, err)
	}
	return nil
}
