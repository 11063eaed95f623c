// Package cache keeps the latest-quote projection in Redis so the current
// quote endpoint can answer without touching the store.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/twmarket/stock-pipeline/internal/config"
	"github.com/twmarket/stock-pipeline/internal/models"
)

// quoteTTL bounds how stale a cached quote can get if refresh jobs stop
// running; readers fall back to the store after that.
const quoteTTL = 48 * time.Hour

// QuoteCache wraps the Redis client holding the latest-quote projection
type QuoteCache struct {
	client *redis.Client
}

// NewQuoteCache creates a new Redis connection for the quote projection
func NewQuoteCache(cfg config.RedisConfig) (*QuoteCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MinIdleConns: 5,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &QuoteCache{client: client}, nil
}

// Close closes the Redis connection
func (c *QuoteCache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Ping checks if Redis is reachable
func (c *QuoteCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func quoteKey(code string) string {
	return fmt.Sprintf("quote:current:%s", code)
}

// SetCurrentQuote stores a security's latest quote projection
func (c *QuoteCache) SetCurrentQuote(ctx context.Context, q *models.CurrentQuote) error {
	data, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("failed to marshal quote for %s: %w", q.Code, err)
	}
	return c.client.Set(ctx, quoteKey(q.Code), data, quoteTTL).Err()
}

// GetCurrentQuotes retrieves the cached projections for codes. Codes with
// no cached quote are simply absent from the result; the caller decides
// whether to fall back to the store.
func (c *QuoteCache) GetCurrentQuotes(ctx context.Context, codes []string) (map[string]*models.CurrentQuote, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	keys := make([]string, len(codes))
	for i, code := range codes {
		keys[i] = quoteKey(code)
	}

	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read cached quotes: %w", err)
	}

	quotes := make(map[string]*models.CurrentQuote)
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var q models.CurrentQuote
		if err := json.Unmarshal([]byte(s), &q); err != nil {
			continue
		}
		quotes[q.Code] = &q
	}
	return quotes, nil
}
