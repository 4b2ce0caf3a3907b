// Package cache implements the TTL result cache for side-effect-free tool
// invocations. Keys are content fingerprints over the tool name, the
// canonical argument encoding and the security policy version, so two
// invocations differing only in argument order share an entry and a policy
// change orphans every entry computed under the old policy.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/querypilot/querypilot/core"
	"github.com/querypilot/querypilot/internal/util"
	"github.com/querypilot/querypilot/logging"
)

// Fingerprint derives the cache key for an invocation under a policy
// version. Arguments are canonicalized (sorted keys, compact encoding)
// before hashing.
func Fingerprint(tool string, args map[string]any, policyVersion string) string {
	h := sha256.New()
	h.Write([]byte(tool))
	h.Write([]byte{0})
	h.Write([]byte(util.CanonicalJSON(args)))
	h.Write([]byte{0})
	h.Write([]byte(policyVersion))
	return hex.EncodeToString(h.Sum(nil))
}

type entry struct {
	result  core.ToolResult
	expires time.Time
}

// Cache is a TTL keyed store of successful tool results. Concurrent misses
// on the same key are deduplicated: one caller computes, the rest wait for
// its result. Safe for concurrent use.
type Cache struct {
	ttl    time.Duration
	logger logging.Logger
	now    func() time.Time

	mu      sync.RWMutex
	entries map[string]entry

	group singleflight.Group
}

// Options configures a Cache.
type Options struct {
	Logger logging.Logger
	// Now replaces the clock, used by tests to control expiry.
	Now func() time.Time
}

// New creates a Cache. A non-positive ttl disables storage entirely:
// GetOrCompute always computes.
func New(ttl time.Duration, optFns ...func(o *Options)) *Cache {
	opts := Options{Logger: logging.NoOpLogger{}, Now: time.Now}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Cache{
		ttl:     ttl,
		logger:  opts.Logger,
		now:     opts.Now,
		entries: make(map[string]entry),
	}
}

// Get returns the unexpired entry for key, if any. Expired entries are
// evicted on the way out.
func (c *Cache) Get(key string) (core.ToolResult, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return core.ToolResult{}, false
	}
	if c.now().After(e.expires) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return core.ToolResult{}, false
	}
	return e.result, true
}

// GetOrCompute returns the cached result for key or runs compute to produce
// it. Only successful results of side-effect-free invocations are stored;
// failures pass through uncached so a later attempt can succeed. Concurrent
// callers with the same key share a single compute invocation.
func (c *Cache) GetOrCompute(key string, compute func() core.ToolResult) core.ToolResult {
	if c.ttl <= 0 {
		return compute()
	}

	if result, ok := c.Get(key); ok {
		c.logger.Debug("cache.hit", "key", key)
		return result
	}

	v, _, shared := c.group.Do(key, func() (any, error) {
		if result, ok := c.Get(key); ok {
			return result, nil
		}
		result := compute()
		if result.OK && !result.SideEffects {
			c.put(key, result)
		}
		return result, nil
	})
	if shared {
		c.logger.Debug("cache.deduplicated", "key", key)
	}
	return v.(core.ToolResult)
}

func (c *Cache) put(key string, result core.ToolResult) {
	c.mu.Lock()
	c.entries[key] = entry{result: result, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
	c.logger.Debug("cache.store", "key", key, "ttl", c.ttl)
}

// Len returns the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Purge drops every entry.
func (c *Cache) Purge() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}
