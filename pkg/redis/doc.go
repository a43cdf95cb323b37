// Package redis connects to a Redis server with retries and exposes a
// readiness probe for it.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	health := redis.Healthcheck(client)
//
// Errors are sentinel values joined with the underlying go-redis error.
package redis
