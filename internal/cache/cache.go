// Package cache provides Redis caching of per-user collections and a
// key-value store for display preferences.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spot-annotator/backend/internal/config"
	"github.com/spot-annotator/backend/internal/models"
	"github.com/spot-annotator/backend/internal/projection"
)

const (
	annotationsKeyPrefix = "annotations:"
	spotsKeyPrefix       = "spots:"
	prefsKeyPrefix       = "prefs:"

	defaultTTL = 5 * time.Minute
)

// Cache defines the caching operations used by the API.
type Cache interface {
	// GetAnnotations returns the cached annotations of ownerID and whether there was a hit.
	GetAnnotations(ctx context.Context, ownerID string) ([]models.Annotation, bool)
	SetAnnotations(ctx context.Context, ownerID string, annotations []models.Annotation) error

	GetSpots(ctx context.Context, ownerID string) ([]models.Spot, bool)
	SetSpots(ctx context.Context, ownerID string, spots []models.Spot) error

	// Invalidate drops every cached collection of ownerID.
	Invalidate(ctx context.Context, ownerID string) error

	// Get and Set implement projection.KV. Values do not expire.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error

	Close() error
}

// RedisCache implements Cache using Redis.
type RedisCache struct {
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

// NewRedisCache connects to the configured Redis server.
func NewRedisCache(cfg *config.Config, logger *zap.Logger) (*RedisCache, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Connected to Redis cache")
	return New(client, cfg.CacheTTL, logger), nil
}

// New wraps an existing client. A non-positive ttl selects the default.
func New(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisCache{client: client, logger: logger, ttl: ttl}
}

// GetAnnotations returns the cached annotations of ownerID.
func (c *RedisCache) GetAnnotations(ctx context.Context, ownerID string) ([]models.Annotation, bool) {
	var envelopes []models.Envelope
	if !c.load(ctx, annotationsKeyPrefix+ownerID, &envelopes) {
		return nil, false
	}
	return models.Unwrap(envelopes), true
}

// SetAnnotations caches the annotations of ownerID.
func (c *RedisCache) SetAnnotations(ctx context.Context, ownerID string, annotations []models.Annotation) error {
	return c.store(ctx, annotationsKeyPrefix+ownerID, models.Wrap(annotations))
}

// GetSpots returns the cached spots of ownerID.
func (c *RedisCache) GetSpots(ctx context.Context, ownerID string) ([]models.Spot, bool) {
	var spots []models.Spot
	if !c.load(ctx, spotsKeyPrefix+ownerID, &spots) {
		return nil, false
	}
	return spots, true
}

// SetSpots caches the spots of ownerID.
func (c *RedisCache) SetSpots(ctx context.Context, ownerID string, spots []models.Spot) error {
	return c.store(ctx, spotsKeyPrefix+ownerID, spots)
}

// Invalidate removes the cached collections of ownerID.
func (c *RedisCache) Invalidate(ctx context.Context, ownerID string) error {
	if err := c.client.Del(ctx, annotationsKeyPrefix+ownerID, spotsKeyPrefix+ownerID).Err(); err != nil {
		c.logger.Warn("Failed to invalidate cache", zap.String("owner", ownerID), zap.Error(err))
		return err
	}
	return nil
}

// Get returns the preference stored under key, or projection.ErrMissing.
func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	v, err := c.client.Get(ctx, prefsKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", projection.ErrMissing
	}
	return v, err
}

// Set stores a preference under key.
func (c *RedisCache) Set(ctx context.Context, key, value string) error {
	return c.client.Set(ctx, prefsKeyPrefix+key, value, 0).Err()
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	c.logger.Info("Closing Redis connection")
	return c.client.Close()
}

// load decodes the value at key into dst. Errors are treated as a miss.
func (c *RedisCache) load(ctx context.Context, key string, dst any) bool {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		c.logger.Warn("Failed to get from cache", zap.String("key", key), zap.Error(err))
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		c.logger.Warn("Failed to unmarshal cached value", zap.String("key", key), zap.Error(err))
		return false
	}

	c.logger.Debug("Cache hit", zap.String("key", key))
	return true
}

func (c *RedisCache) store(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("Failed to marshal value for cache", zap.Error(err))
		return err
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("Failed to set cache", zap.String("key", key), zap.Error(err))
		return err
	}

	c.logger.Debug("Cached value", zap.String("key", key))
	return nil
}
