// Package snapshot caches superseded quotation versions in Redis. Superseded
// versions never change, so entries are only ever written once and expire by TTL.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"climas_backend/internal/quotes"
	"climas_backend/platform/logger"
	"climas_backend/platform/metrics"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const (
	keyPrefix  = "climas:quotation:"
	cacheName  = "quotation_snapshot"
	defaultTTL = 24 * time.Hour
)

// LoadFunc produces the authoritative version on a cache miss.
type LoadFunc func(ctx context.Context) (quotes.Quotation, error)

// Cache is a read-through cache over a Redis client.
type Cache struct {
	rdb     redis.UniversalClient
	ttl     time.Duration
	group   singleflight.Group
	log     *logger.Logger
	metrics *metrics.Metrics
}

// New creates a cache. A non-positive ttl falls back to 24h.
func New(rdb redis.UniversalClient, ttl time.Duration, log *logger.Logger, m *metrics.Metrics) *Cache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Cache{rdb: rdb, ttl: ttl, log: log, metrics: m}
}

// Key returns the Redis key of a version.
func Key(opportunityID uuid.UUID, version int) string {
	return fmt.Sprintf("%s%s:v%d", keyPrefix, opportunityID, version)
}

// Get returns the cached version or calls load. Concurrent misses for the
// same key share one load. Only superseded versions are stored. Redis
// failures degrade to load and are logged, never returned.
func (c *Cache) Get(ctx context.Context, opportunityID uuid.UUID, version int, load LoadFunc) (quotes.Quotation, error) {
	key := Key(opportunityID, version)

	if q, ok := c.read(ctx, key); ok {
		c.metrics.CacheHit(cacheName)
		return q, nil
	}
	c.metrics.CacheMiss(cacheName)

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		q, err := load(ctx)
		if err != nil {
			return quotes.Quotation{}, err
		}
		if q.Status == quotes.StatusSuperseded {
			c.write(ctx, key, q)
		}
		return q, nil
	})
	if err != nil {
		return quotes.Quotation{}, err
	}
	return v.(quotes.Quotation).Clone(), nil
}

func (c *Cache) read(ctx context.Context, key string) (quotes.Quotation, bool) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("snapshot cache read failed", slog.String("key", key), slog.String("error", err.Error()))
		}
		return quotes.Quotation{}, false
	}
	var q quotes.Quotation
	if err := json.Unmarshal(raw, &q); err != nil {
		c.log.Warn("snapshot cache entry corrupt", slog.String("key", key), slog.String("error", err.Error()))
		return quotes.Quotation{}, false
	}
	return q, true
}

func (c *Cache) write(ctx context.Context, key string, q quotes.Quotation) {
	raw, err := json.Marshal(q)
	if err != nil {
		c.log.Warn("snapshot cache encode failed", slog.String("key", key), slog.String("error", err.Error()))
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.Warn("snapshot cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}
