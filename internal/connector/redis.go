package connector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fenwicklabs/orchestrator/internal/conductor"
	"github.com/fenwicklabs/orchestrator/internal/orcerr"
)

func init() {
	conductor.Register(conductor.RoleStorage, "redis", func(bag conductor.Bag) (any, error) {
		return NewRedis(RedisOptions{
			Host:     bagString(bag, "host", "localhost"),
			Port:     bagInt(bag, "port", 6379),
			DB:       bagInt(bag, "db", 0),
			Password: bagString(bag, "password", ""),
		})
	})
}

// RedisOptions covers the connection parameters that matter once Go's
// redis/v9 client already defaults the rest (socket timeouts, TLS, pool
// sizing) sensibly.
type RedisOptions struct {
	Host     string
	Port     int
	DB       int
	Password string
}

// Redis is the Connector backend wired to a Redis-compatible server.
type Redis struct {
	client *redis.Client
}

// NewRedis dials a Redis server and verifies connectivity, failing
// construction with orcerr.ErrConnectorInitFail if the backend is
// unreachable.
func NewRedis(opts RedisOptions) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", opts.Host, opts.Port),
		DB:       opts.DB,
		Password: opts.Password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connector: redis ping %s:%d: %w: %w", opts.Host, opts.Port, orcerr.ErrConnectorInitFail, err)
	}
	return &Redis{client: client}, nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("connector: redis get %q: %w", key, err)
	}
	if len(val) == 0 {
		return nil, nil
	}
	return val, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ex int) error {
	var ttl time.Duration
	if ex > 0 {
		ttl = time.Duration(ex) * time.Second
	}
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("connector: redis set %q: %w", key, err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) (int, error) {
	n, err := r.client.Del(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("connector: redis delete %q: %w", key, err)
	}
	return int(n), nil
}

func (r *Redis) Keys(ctx context.Context, pattern string) ([]string, error) {
	var out []string
	iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		out = append(out, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("connector: redis scan %q: %w", pattern, err)
	}
	return out, nil
}

func (r *Redis) GracefulShutdown(_ context.Context) error {
	if err := r.client.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		return err
	}
	return nil
}

func bagString(bag conductor.Bag, key, def string) string {
	if v, ok := bag[key].(string); ok && v != "" {
		return v
	}
	return def
}

func bagInt(bag conductor.Bag, key string, def int) int {
	if v, ok := bag[key].(int); ok {
		return v
	}
	return def
}
