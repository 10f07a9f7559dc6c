package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/margdarshan-ai/margdarshan/internal/config"
	"github.com/margdarshan-ai/margdarshan/internal/models"
	"github.com/margdarshan-ai/margdarshan/internal/store"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// GenerateFunc produces a response payload on a cache miss.
type GenerateFunc func(ctx context.Context) (json.RawMessage, error)

// Cache memoizes AI responses in the store under fingerprint keys.
// Concurrent misses for the same fingerprint are coalesced into a single
// upstream call.
type Cache struct {
	enabled bool
	store   store.Store
	group   singleflight.Group
	logger  *logrus.Logger
}

func NewCache(cfg *config.CacheConfig, st store.Store, logger *logrus.Logger) *Cache {
	return &Cache{
		enabled: cfg.Enabled,
		store:   st,
		logger:  logger,
	}
}

// Lookup returns the cached response for a fingerprint when present and
// unexpired. Expired entries are reported as a miss.
func (c *Cache) Lookup(ctx context.Context, fingerprint string) (json.RawMessage, bool) {
	if !c.enabled {
		return nil, false
	}

	entry, err := c.store.GetCacheEntry(ctx, fingerprint)
	if err != nil {
		c.logger.WithError(err).WithField("fingerprint", fingerprint).Warn("Cache read failed")
		return nil, false
	}
	if entry == nil || entry.Expired(time.Now()) {
		return nil, false
	}

	c.logger.WithField("fingerprint", fingerprint).Debug("Cache hit")
	return entry.Response, true
}

// Store writes a response under a fingerprint, overwriting unconditionally.
func (c *Cache) Store(ctx context.Context, fingerprint string, response json.RawMessage, ttl time.Duration) error {
	if !c.enabled {
		return nil
	}

	now := time.Now()
	entry := &models.CacheEntry{
		Response:  response,
		CreatedAt: now.UnixMilli(),
		ExpiresAt: now.Add(ttl).UnixMilli(),
	}
	return c.store.SetCacheEntry(ctx, fingerprint, entry, ttl)
}

// GetOrGenerate checks the cache first and on a miss runs fn once per
// fingerprint across concurrent callers, caching a successful result.
// The returned bool reports whether the response came from cache.
func (c *Cache) GetOrGenerate(ctx context.Context, fingerprint string, ttl time.Duration, fn GenerateFunc) (json.RawMessage, bool, error) {
	if response, ok := c.Lookup(ctx, fingerprint); ok {
		return response, true, nil
	}

	if !c.enabled {
		response, err := fn(ctx)
		return response, false, err
	}

	val, err, _ := c.group.Do(fingerprint, func() (interface{}, error) {
		// Another flight may have populated the entry while we waited.
		if response, ok := c.Lookup(ctx, fingerprint); ok {
			return response, nil
		}

		response, err := fn(ctx)
		if err != nil {
			return nil, err
		}

		if err := c.Store(ctx, fingerprint, response, ttl); err != nil {
			c.logger.WithError(err).WithField("fingerprint", fingerprint).Warn("Cache write failed")
		}
		return response, nil
	})
	if err != nil {
		return nil, false, err
	}

	return val.(json.RawMessage), false, nil
}
