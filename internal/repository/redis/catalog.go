package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"github.com/Lava-10/knowMoreQR/internal/domain"
	"github.com/Lava-10/knowMoreQR/internal/repository"
)

const (
	tagKeyPrefix = "catalog:tag:"
	listKey      = "catalog:all"
)

var cacheRequests = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "catalog_cache_requests_total",
		Help: "Catalog cache lookups by operation and result (hit, miss, error)",
	},
	[]string{"operation", "result"},
)

// CatalogCache is a read-through cache in front of a CatalogRepository.
// Redis failures are logged and served from the underlying store.
type CatalogCache struct {
	next   repository.CatalogRepository
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

var _ repository.CatalogRepository = (*CatalogCache)(nil)

// NewCatalogCache wraps next with a Redis cache whose entries expire after ttl.
func NewCatalogCache(next repository.CatalogRepository, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CatalogCache {
	return &CatalogCache{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func tagKey(id string) string { return tagKeyPrefix + id }

// Get returns the cached entry or loads and caches it.
func (c *CatalogCache) Get(ctx context.Context, id string) (*domain.CatalogEntry, error) {
	data, err := c.client.Get(ctx, tagKey(id)).Bytes()
	switch {
	case err == nil:
		var e domain.CatalogEntry
		if jerr := json.Unmarshal(data, &e); jerr == nil {
			cacheRequests.WithLabelValues("get", "hit").Inc()
			return &e, nil
		}
		c.logger.WarnContext(ctx, "discarding corrupt cached tag", slog.String("tag_id", id))
	case errors.Is(err, redis.Nil):
		cacheRequests.WithLabelValues("get", "miss").Inc()
	default:
		cacheRequests.WithLabelValues("get", "error").Inc()
		c.logger.WarnContext(ctx, "catalog cache get failed", slog.String("tag_id", id), slog.String("error", err.Error()))
	}

	e, err := c.next.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, map[string]domain.CatalogEntry{id: *e})
	return e, nil
}

// List returns the cached catalog listing or loads and caches it.
func (c *CatalogCache) List(ctx context.Context) ([]domain.CatalogEntry, error) {
	data, err := c.client.Get(ctx, listKey).Bytes()
	switch {
	case err == nil:
		var entries []domain.CatalogEntry
		if jerr := json.Unmarshal(data, &entries); jerr == nil {
			cacheRequests.WithLabelValues("list", "hit").Inc()
			return entries, nil
		}
		c.logger.WarnContext(ctx, "discarding corrupt cached catalog listing")
	case errors.Is(err, redis.Nil):
		cacheRequests.WithLabelValues("list", "miss").Inc()
	default:
		cacheRequests.WithLabelValues("list", "error").Inc()
		c.logger.WarnContext(ctx, "catalog cache list failed", slog.String("error", err.Error()))
	}

	entries, err := c.next.List(ctx)
	if err != nil {
		return nil, err
	}
	if payload, jerr := json.Marshal(entries); jerr == nil {
		if serr := c.client.Set(ctx, listKey, payload, c.ttl).Err(); serr != nil {
			c.logger.WarnContext(ctx, "catalog cache set listing failed", slog.String("error", serr.Error()))
		}
	}
	return entries, nil
}

// GetMany serves hits from Redis with one MGET and loads the misses from the
// underlying store. The result follows the order of ids.
func (c *CatalogCache) GetMany(ctx context.Context, ids []string) ([]domain.CatalogEntry, error) {
	if len(ids) == 0 {
		return []domain.CatalogEntry{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = tagKey(id)
	}

	found := make(map[string]domain.CatalogEntry, len(ids))
	vals, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		cacheRequests.WithLabelValues("get_many", "error").Inc()
		c.logger.WarnContext(ctx, "catalog cache mget failed", slog.String("error", err.Error()))
		vals = nil
	}
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var e domain.CatalogEntry
		if json.Unmarshal([]byte(s), &e) == nil {
			found[ids[i]] = e
		}
	}

	var misses []string
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			misses = append(misses, id)
		}
	}
	cacheRequests.WithLabelValues("get_many", "hit").Add(float64(len(found)))
	cacheRequests.WithLabelValues("get_many", "miss").Add(float64(len(misses)))

	if len(misses) > 0 {
		loaded, err := c.next.GetMany(ctx, misses)
		if err != nil {
			return nil, err
		}
		fresh := make(map[string]domain.CatalogEntry, len(loaded))
		for _, e := range loaded {
			found[e.ID] = e
			fresh[e.ID] = e
		}
		c.store(ctx, fresh)
	}

	out := make([]domain.CatalogEntry, 0, len(found))
	for _, id := range ids {
		if e, ok := found[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

// Invalidate drops the cached entry for id and the cached listing.
func (c *CatalogCache) Invalidate(ctx context.Context, id string) error {
	keys := []string{listKey}
	if id != "" {
		keys = append(keys, tagKey(id))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del catalog keys: %w", err)
	}
	return nil
}

func (c *CatalogCache) store(ctx context.Context, entries map[string]domain.CatalogEntry) {
	if len(entries) == 0 {
		return
	}
	pipe := c.client.Pipeline()
	for id, e := range entries {
		payload, err := json.Marshal(e)
		if err != nil {
			continue
		}
		pipe.Set(ctx, tagKey(id), payload, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.WarnContext(ctx, "catalog cache set failed", slog.String("error", err.Error()))
	}
}
