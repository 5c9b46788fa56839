// Package cache provides a Redis-backed query result cache with
// singleflight dogpile suppression. The coordinator invalidates it after
// every index mutation, so a cached entry never outlives the index state
// it was computed from by more than the TTL.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/docstack/docsearch/internal/search"
	"github.com/docstack/docsearch/pkg/config"
	pkgredis "github.com/docstack/docsearch/pkg/redis"
)

const keyPrefix = "docsearch:query:"

// Entry is the cached payload for one query.
type Entry struct {
	Query   string          `json:"query"`
	Results []search.Result `json:"results"`
}

// QueryCache caches search responses in Redis.
type QueryCache struct {
	client *pkgredis.Client
	cfg    config.RedisConfig
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

func New(client *pkgredis.Client, cfg config.RedisConfig) *QueryCache {
	return &QueryCache{
		client: client,
		cfg:    cfg,
		logger: slog.Default().With("component", "query-cache"),
	}
}

// Get returns the cached entry for the query/options pair, if present.
func (c *QueryCache) Get(ctx context.Context, query string, opts search.Options) (*Entry, bool) {
	key := buildKey(query, opts)
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return nil, false
	}
	var entry Entry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return &entry, true
}

// Set stores an entry under the query/options key with the configured TTL.
func (c *QueryCache) Set(ctx context.Context, query string, opts search.Options, entry *Entry) {
	key := buildKey(query, opts)
	data, err := json.Marshal(entry)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.cfg.CacheTTL.Std()); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached entry or computes, stores, and returns a
// fresh one. Concurrent callers for the same key share one computation.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	query string,
	opts search.Options,
	computeFn func() (*Entry, error),
) (*Entry, bool, error) {
	if entry, ok := c.Get(ctx, query, opts); ok {
		return entry, true, nil
	}
	key := buildKey(query, opts)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if entry, ok := c.Get(ctx, query, opts); ok {
			return entry, nil
		}
		entry, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, query, opts, entry)
		return entry, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*Entry), false, nil
}

// Invalidate drops every cached query result.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	deleted, err := c.client.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating query cache: %w", err)
	}
	c.logger.Debug("query cache invalidated", "keys_deleted", deleted)
	return nil
}

// Stats returns the hit and miss counters.
func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// buildKey canonicalises the query and options so equivalent requests share
// a cache entry regardless of parameter order.
func buildKey(query string, opts search.Options) string {
	categories := append([]string(nil), opts.Categories...)
	tags := append([]string(nil), opts.Tags...)
	sort.Strings(categories)
	sort.Strings(tags)
	raw := strings.Join([]string{
		strings.ToLower(strings.TrimSpace(query)),
		strings.Join(categories, ","),
		strings.Join(tags, ","),
		fmt.Sprintf("fuzzy=%t", opts.Fuzzy),
		fmt.Sprintf("limit=%d", opts.Limit),
	}, "|")
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}
