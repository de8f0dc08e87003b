package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/andresuchdata/demandcast/internal/config"
	"github.com/andresuchdata/demandcast/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	classificationKeyPrefix = "classification"
	classificationScanBatch = 100
)

// ClassificationCache caches SKU classifications so a recompute is only paid
// once per TTL. A recompute supersedes the cached entry, never merges.
type ClassificationCache interface {
	Get(ctx context.Context, itemID string) (*domain.SKUClassification, bool, error)
	Set(ctx context.Context, classification *domain.SKUClassification) error
	Invalidate(ctx context.Context, itemID string) error
	InvalidateAll(ctx context.Context) error
}

type redisClassificationCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopClassificationCache struct{}

func NewClassificationCache(cfg config.CacheConfig) (ClassificationCache, error) {
	if !cfg.Enabled {
		return &noopClassificationCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg, cfg.ClassificationTTLSeconds)
	if err != nil {
		return nil, err
	}

	return &redisClassificationCache{client: client, ttl: ttl}, nil
}

func NewNoopClassificationCache() ClassificationCache {
	return &noopClassificationCache{}
}

func (c *redisClassificationCache) Get(ctx context.Context, itemID string) (*domain.SKUClassification, bool, error) {
	payload, err := c.client.Get(ctx, classificationKey(itemID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var classification domain.SKUClassification
	if err := json.Unmarshal(payload, &classification); err != nil {
		return nil, false, fmt.Errorf("decode classification cache: %w", err)
	}
	return &classification, true, nil
}

func (c *redisClassificationCache) Set(ctx context.Context, classification *domain.SKUClassification) error {
	payload, err := json.Marshal(classification)
	if err != nil {
		return fmt.Errorf("encode classification cache: %w", err)
	}

	if err := c.client.Set(ctx, classificationKey(classification.ItemID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisClassificationCache) Invalidate(ctx context.Context, itemID string) error {
	return c.client.Del(ctx, classificationKey(itemID)).Err()
}

func (c *redisClassificationCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, classificationKeyPrefix, classificationScanBatch)
}

func (n *noopClassificationCache) Get(ctx context.Context, itemID string) (*domain.SKUClassification, bool, error) {
	return nil, false, nil
}

func (n *noopClassificationCache) Set(ctx context.Context, classification *domain.SKUClassification) error {
	return nil
}

func (n *noopClassificationCache) Invalidate(ctx context.Context, itemID string) error {
	return nil
}

func (n *noopClassificationCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func classificationKey(itemID string) string {
	return fmt.Sprintf("%s:%s", classificationKeyPrefix, itemID)
}
