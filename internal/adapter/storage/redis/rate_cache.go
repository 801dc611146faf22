package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"payvault/internal/core/domain"

	goredis "github.com/redis/go-redis/v9"
)

// RateCache implements ports.RateCache. Wallet-currency rates are
// read-mostly reference data; a short TTL keeps rate lookups off the
// database on the hot path. Cache failures fall through to postgres.
type RateCache struct {
	client *goredis.Client
	prefix string
}

// NewRateCache creates a new Redis-backed rate cache.
func NewRateCache(client *goredis.Client) *RateCache {
	return &RateCache{
		client: client,
		prefix: "rate:",
	}
}

// Get retrieves a cached wallet currency by symbol.
// Returns nil, nil on a cache miss.
func (c *RateCache) Get(ctx context.Context, currency string) (*domain.WalletCurrency, error) {
	val, err := c.client.Get(ctx, c.prefix+currency).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis rate get: %w", err)
	}

	wc := &domain.WalletCurrency{}
	if err := json.Unmarshal(val, wc); err != nil {
		return nil, fmt.Errorf("unmarshal cached rate: %w", err)
	}
	return wc, nil
}

// Set stores a wallet currency with TTL.
func (c *RateCache) Set(ctx context.Context, wc *domain.WalletCurrency, ttl time.Duration) error {
	val, err := json.Marshal(wc)
	if err != nil {
		return fmt.Errorf("marshal rate: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+wc.Currency, val, ttl).Err(); err != nil {
		return fmt.Errorf("redis rate set: %w", err)
	}
	return nil
}
