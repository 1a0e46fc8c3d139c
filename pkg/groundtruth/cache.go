package groundtruth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedStore wraps a base Store with a redis read-through cache. At
// sweep scale many grid points (different Hmax/observer/placement
// combinations) share the same (N, seed, tierProb) ground-truth key;
// caching the decoded JSON avoids re-reading and re-parsing the same
// multi-hundred-KB file for every one of them (§11.2 of
// SPEC_FULL.md).
type CachedStore struct {
	base  Store
	rdb   *redis.Client
	ttl   time.Duration
}

// NewCachedStore wraps base with the given redis client.
// ttl of zero means entries never expire from the cache.
func NewCachedStore(base Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{base: base, rdb: rdb, ttl: ttl}
}

// Load checks the cache first; on a miss it falls through to base and
// populates the cache before returning.
func (c *CachedStore) Load(ctx context.Context, key Key) (Record, error) {
	cached, err := c.rdb.Get(ctx, key.cacheKey()).Bytes()
	if err == nil {
		var rec Record
		if decodeErr := json.Unmarshal(cached, &rec); decodeErr == nil {
			return rec, nil
		}
		// A corrupt cache entry falls through to the base store rather
		// than failing the load.
	} else if !errors.Is(err, redis.Nil) {
		return Record{}, fmt.Errorf("groundtruth: cache get %s: %w", key.cacheKey(), err)
	}

	rec, err := c.base.Load(ctx, key)
	if err != nil {
		return Record{}, err
	}
	c.populate(ctx, key, rec)
	return rec, nil
}

// Save writes through to base and refreshes the cache entry.
func (c *CachedStore) Save(ctx context.Context, key Key, rec Record) error {
	if err := c.base.Save(ctx, key, rec); err != nil {
		return err
	}
	c.populate(ctx, key, rec)
	return nil
}

func (c *CachedStore) populate(ctx context.Context, key Key, rec Record) {
	data, err := json.Marshal(rec)
	if err != nil {
		return
	}
	// Cache population is best-effort: a redis hiccup degrades to
	// always reading through to the base store, never to a failed
	// experiment.
	_ = c.rdb.Set(ctx, key.cacheKey(), data, c.ttl).Err()
}
