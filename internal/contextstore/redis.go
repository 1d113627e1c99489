package contextstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"TradingCore/internal/model"
)

const redisKeyPrefix = "tradingcore:context:"

// RedisStore keeps contexts as plain string keys, for deployments where the
// working directory is not persistent.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects using a redis:// URL, falling back to a bare address.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		opt = &redis.Options{Addr: redisURL}
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Load(ctx context.Context, ticker model.Ticker) (string, error) {
	text, err := s.client.Get(ctx, redisKeyPrefix+string(ticker)).Result()
	if errors.Is(err, redis.Nil) || (err == nil && text == "") {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get context %s: %w", ticker, err)
	}
	return text, nil
}

func (s *RedisStore) Save(ctx context.Context, ticker model.Ticker, text string) error {
	if err := s.client.Set(ctx, redisKeyPrefix+string(ticker), text, 0).Err(); err != nil {
		return fmt.Errorf("redis set context %s: %w", ticker, err)
	}
	return nil
}

func (s *RedisStore) Close() error { return s.client.Close() }
