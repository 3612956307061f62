package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"eduscan-api/config"
	"eduscan-api/pkg/logging"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned by Get when the key is absent or redis is not
// connected.
var ErrCacheMiss = errors.New("cache miss")

// CacheService wraps redis. With no client every call is a no-op, so the
// service keeps running when redis is down.
type CacheService struct {
	client *redis.Client
}

// NewCacheService pings redis up to attempts times before giving up. On
// failure it still returns a usable, disconnected service.
func NewCacheService(cfg config.RedisConfig, attempts int, logger *logging.StructuredLogger) (*CacheService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	var lastErr error
	for i := 0; i < attempts; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		lastErr = client.Ping(ctx).Err()
		cancel()
		if lastErr == nil {
			return &CacheService{client: client}, nil
		}
		logger.Warn(context.Background(), "[CACHE] redis ping failed", logging.Fields{
			"attempt": i + 1,
			"of":      attempts,
			"error":   lastErr.Error(),
		})
		if i < attempts-1 {
			time.Sleep(2 * time.Second)
		}
	}
	client.Close()

	return &CacheService{client: nil}, fmt.Errorf("redis ping failed after %d attempts: %w", attempts, lastErr)
}

// NewCacheServiceWithClient wraps an existing client; nil means disconnected.
func NewCacheServiceWithClient(client *redis.Client) *CacheService {
	return &CacheService{client: client}
}

func (s *CacheService) Client() *redis.Client {
	return s.client
}

func (s *CacheService) Available() bool {
	return s != nil && s.client != nil
}

func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) error {
	if !s.Available() {
		return ErrCacheMiss
	}
	val, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return ErrCacheMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(val), dest)
}

func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Available() {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

func (s *CacheService) Delete(ctx context.Context, keys ...string) error {
	if !s.Available() || len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

// Incr bumps an integer counter. It is a no-op returning 0 without redis.
func (s *CacheService) Incr(ctx context.Context, key string) (int64, error) {
	if !s.Available() {
		return 0, nil
	}
	return s.client.Incr(ctx, key).Result()
}

func (s *CacheService) Publish(ctx context.Context, channel string, message interface{}) error {
	if !s.Available() {
		return nil
	}
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return s.client.Publish(ctx, channel, data).Err()
}

// Subscribe returns nil when redis is not connected.
func (s *CacheService) Subscribe(ctx context.Context, channel string) *redis.PubSub {
	if !s.Available() {
		return nil
	}
	return s.client.Subscribe(ctx, channel)
}

func (s *CacheService) Close() error {
	if !s.Available() {
		return nil
	}
	return s.client.Close()
}
