package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/andresuchdata/tshirt-stock/internal/config"
	"github.com/andresuchdata/tshirt-stock/internal/domain"
)

const (
	historyKeyPrefix     = "inventory:history:"
	historyScanBatchSize = 100
)

// HistoryCache stores rendered history tables for one backing store. Entries
// are dropped as a whole whenever the collection changes or is reloaded.
type HistoryCache interface {
	GetHistory(ctx context.Context, variants []domain.Variant) ([]domain.HistoryRow, bool, error)
	SetHistory(ctx context.Context, variants []domain.Variant, rows []domain.HistoryRow) error
	InvalidateAll(ctx context.Context) error
}

type redisHistoryCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
}

type noopHistoryCache struct{}

// NewHistoryCache builds the cache for the store named by storeID. Stores
// with different IDs never see each other's entries.
func NewHistoryCache(cfg config.CacheConfig, storeID string) (HistoryCache, error) {
	if !cfg.Enabled {
		return &noopHistoryCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}
	return newRedisHistoryCache(client, ttl, storeID), nil
}

func NewNoopHistoryCache() HistoryCache {
	return &noopHistoryCache{}
}

func newRedisHistoryCache(client redis.UniversalClient, ttl time.Duration, storeID string) *redisHistoryCache {
	return &redisHistoryCache{client: client, ttl: ttl, prefix: keyPrefix(storeID)}
}

// keyPrefix hashes storeID so paths and object keys never leak glob
// characters into SCAN patterns.
func keyPrefix(storeID string) string {
	sum := sha256.Sum256([]byte(storeID))
	return historyKeyPrefix + hex.EncodeToString(sum[:8]) + ":"
}

// HistoryKey is the cache key for a history table of the store named by
// storeID, filtered to variants. An empty filter means all variants.
func HistoryKey(storeID string, variants []domain.Variant) string {
	return keyPrefix(storeID) + filterKey(variants)
}

func filterKey(variants []domain.Variant) string {
	if len(variants) == 0 {
		return "all"
	}
	var seen [domain.VariantCount]bool
	for _, v := range variants {
		if v.Valid() {
			seen[v] = true
		}
	}
	slugs := make([]string, 0, len(variants))
	for _, v := range domain.Variants() {
		if seen[v] {
			slugs = append(slugs, v.Slug())
		}
	}
	return strings.Join(slugs, ",")
}

func (c *redisHistoryCache) GetHistory(ctx context.Context, variants []domain.Variant) ([]domain.HistoryRow, bool, error) {
	payload, err := c.client.Get(ctx, c.prefix+filterKey(variants)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var rows []domain.HistoryRow
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, false, fmt.Errorf("decode history cache: %w", err)
	}
	return rows, true, nil
}

func (c *redisHistoryCache) SetHistory(ctx context.Context, variants []domain.Variant, rows []domain.HistoryRow) error {
	payload, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encode history cache: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+filterKey(variants), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisHistoryCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, c.prefix, historyScanBatchSize)
}

func (n *noopHistoryCache) GetHistory(ctx context.Context, variants []domain.Variant) ([]domain.HistoryRow, bool, error) {
	return nil, false, nil
}

func (n *noopHistoryCache) SetHistory(ctx context.Context, variants []domain.Variant, rows []domain.HistoryRow) error {
	return nil
}

func (n *noopHistoryCache) InvalidateAll(ctx context.Context) error {
	return nil
}
