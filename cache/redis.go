package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/go-redis/redis/v8"
)

// RedisConfig holds the Redis connection settings.
type RedisConfig struct {
	Host     string `mapstructure:"host" json:"host" yaml:"host" default:"127.0.0.1"`
	Port     int    `mapstructure:"port" json:"port" yaml:"port" default:"6379"`
	Password string `mapstructure:"password" json:"password" yaml:"password"`
	DB       int    `mapstructure:"db" json:"db" yaml:"db"`
}

// Addr returns the host:port address.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RedisStore is a Store backed by Redis.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection with a ping.
func NewRedisStore(cnf RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cnf.Addr(),
		Password: cnf.Password,
		DB:       cnf.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("cache: redis ping: %w", err)
	}
	return &RedisStore{client: client}, nil
}

// Get returns the cached bytes for key, or ErrMiss.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return value, err
}

// Set stores value under key for ttl; ttl <= 0 means no expiry.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return s.client.Set(ctx, key, value, ttl).Err()
}

// Close releases the client's connections.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
