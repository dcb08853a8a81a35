package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Domenick1991/travelbook/config"
	"github.com/Domenick1991/travelbook/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client     *redis.Client
	catalogTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, catalogTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:     redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		catalogTTL: catalogTTL,
	}
}

// GetCatalog returns the cached upcoming-options list, or nil on a miss.
func (c *RedisCache) GetCatalog(ctx context.Context) ([]domain.TravelOption, error) {
	data, err := c.client.Get(ctx, catalogKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var options []domain.TravelOption
	if err := json.Unmarshal(data, &options); err != nil {
		return nil, err
	}
	return options, nil
}

func (c *RedisCache) SetCatalog(ctx context.Context, options []domain.TravelOption) error {
	payload, err := json.Marshal(options)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, catalogKey(), payload, c.catalogTTL).Err()
}

// InvalidateCatalog drops the cached list after any seat mutation, so
// availability reads never go through a stale counter.
func (c *RedisCache) InvalidateCatalog(ctx context.Context) error {
	return c.client.Del(ctx, catalogKey()).Err()
}

func catalogKey() string {
	return "cache:travel_options"
}
