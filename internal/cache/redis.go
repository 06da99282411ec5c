package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds connection settings for the Redis cache.
type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Redis wraps a go-redis client with a key prefix shared by the
// like-set store and the progress publisher.
type Redis struct {
	client *redis.Client
	prefix string
}

func NewRedis(cfg Config) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "eventure:"
	}

	return &Redis{client: client, prefix: prefix}, nil
}

func (r *Redis) key(k string) string {
	return r.prefix + k
}

// Publish sends a message to the prefixed channel.
func (r *Redis) Publish(ctx context.Context, channel, message string) error {
	return r.client.Publish(ctx, r.key(channel), message).Err()
}

// Subscribe returns a subscription to the prefixed channel. Callers own
// the returned PubSub and must Close it.
func (r *Redis) Subscribe(ctx context.Context, channel string) *redis.PubSub {
	return r.client.Subscribe(ctx, r.key(channel))
}

func (r *Redis) Close() error {
	return r.client.Close()
}
