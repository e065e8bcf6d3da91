package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	apppr "github.com/procura/backend/internal/application/procurement"
	"github.com/procura/backend/internal/domain/procurement"
)

const defaultComparisonTTL = 5 * time.Minute

// RedisComparisonCache caches assembled comparison matrices in Redis as JSON.
// Suitable for distributed deployments where several instances serve the
// same read model.
type RedisComparisonCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisComparisonCache creates a new Redis-backed comparison cache
func NewRedisComparisonCache(cfg RedisConfig, ttl time.Duration) (*RedisComparisonCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisComparisonCacheWithClient(client, ttl), nil
}

// NewRedisComparisonCacheWithClient creates a cache with an existing Redis
// client. Useful for testing or when sharing a client across components.
func NewRedisComparisonCacheWithClient(client *redis.Client, ttl time.Duration) *RedisComparisonCache {
	if ttl <= 0 {
		ttl = defaultComparisonTTL
	}
	return &RedisComparisonCache{
		client:    client,
		keyPrefix: "rfq:comparison:",
		ttl:       ttl,
	}
}

// Get returns the cached matrix for a round, or (nil, nil) on a miss
func (c *RedisComparisonCache) Get(ctx context.Context, rfqID uuid.UUID) (*procurement.Comparison, error) {
	payload, err := c.client.Get(ctx, c.key(rfqID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read comparison cache: %w", err)
	}

	var comparison procurement.Comparison
	if err := json.Unmarshal(payload, &comparison); err != nil {
		// A corrupt entry behaves like a miss; the next Set overwrites it
		return nil, nil
	}
	return &comparison, nil
}

// Set stores the matrix with the configured TTL
func (c *RedisComparisonCache) Set(ctx context.Context, comparison *procurement.Comparison) error {
	payload, err := json.Marshal(comparison)
	if err != nil {
		return fmt.Errorf("failed to encode comparison: %w", err)
	}

	if err := c.client.Set(ctx, c.key(comparison.RfqID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write comparison cache: %w", err)
	}
	return nil
}

// Invalidate drops the cached matrix for a round
func (c *RedisComparisonCache) Invalidate(ctx context.Context, rfqID uuid.UUID) error {
	if err := c.client.Del(ctx, c.key(rfqID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate comparison cache: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (c *RedisComparisonCache) Close() error {
	return c.client.Close()
}

func (c *RedisComparisonCache) key(rfqID uuid.UUID) string {
	return c.keyPrefix + rfqID.String()
}

var _ apppr.ComparisonCache = (*RedisComparisonCache)(nil)
