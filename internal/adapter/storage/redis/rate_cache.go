package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"revenue-settlement-engine/internal/core/domain"

	goredis "github.com/redis/go-redis/v9"
)

const rateTableKey = "fx:rates"

// RateCache implements ports.RateCache. The whole table is stored as one
// JSON value under a single key; the TTL is the staleness window.
type RateCache struct {
	client *goredis.Client
}

// NewRateCache creates a new Redis-backed rate table cache.
func NewRateCache(client *goredis.Client) *RateCache {
	return &RateCache{client: client}
}

// Get returns the cached table, or nil when the cache is cold or expired.
func (c *RateCache) Get(ctx context.Context) (*domain.RateTable, error) {
	raw, err := c.client.Get(ctx, rateTableKey).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get rate table: %w", err)
	}

	var table domain.RateTable
	if err := json.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("decode cached rate table: %w", err)
	}
	return &table, nil
}

// Set stores the table with the given TTL.
func (c *RateCache) Set(ctx context.Context, table domain.RateTable, ttl time.Duration) error {
	raw, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("encode rate table: %w", err)
	}
	if err := c.client.Set(ctx, rateTableKey, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set rate table: %w", err)
	}
	return nil
}
