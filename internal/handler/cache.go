// Package handler provides HTTP handlers for the modelbridge gateway.
package handler

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync"
	"time"

	"github.com/UOACoder/modelbridge/internal/ui"
)

const (
	// DefaultCacheTTL is the default time-to-live for cached replies.
	DefaultCacheTTL = 5 * time.Minute

	// cleanupInterval is how often the cache cleaner runs.
	cleanupInterval = 1 * time.Minute
)

// replyEntry is a cached completion with its expiration time.
type replyEntry struct {
	response  []byte
	expireAt  time.Time
	createdAt time.Time
}

func (e *replyEntry) expired() bool {
	return time.Now().After(e.expireAt)
}

// ReplyCache is a thread-safe in-memory cache for completion responses,
// keyed by a hash of the inbound request body. Only deterministic requests
// (temperature zero) are cached by the gateway, so a hit can be replayed
// without changing observable behavior.
type ReplyCache struct {
	mu      sync.RWMutex
	entries map[string]*replyEntry
	ttl     time.Duration
	logger  *slog.Logger

	hits   int64
	misses int64
}

// ReplyCacheOption is a functional option for configuring ReplyCache.
type ReplyCacheOption func(*ReplyCache)

// WithCacheTTL sets a custom TTL for cache entries.
func WithCacheTTL(ttl time.Duration) ReplyCacheOption {
	return func(c *ReplyCache) {
		c.ttl = ttl
	}
}

// WithCacheLogger sets a custom logger.
func WithCacheLogger(logger *slog.Logger) ReplyCacheOption {
	return func(c *ReplyCache) {
		c.logger = logger
	}
}

// NewReplyCache creates a ReplyCache and starts its background TTL cleaner.
func NewReplyCache(opts ...ReplyCacheOption) *ReplyCache {
	c := &ReplyCache{
		entries: make(map[string]*replyEntry),
		ttl:     DefaultCacheTTL,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	go c.startCleanup()

	return c
}

// HashRequest derives the cache key from the raw request body.
func HashRequest(body []byte) string {
	hash := sha256.Sum256(body)
	return hex.EncodeToString(hash[:])
}

// Get retrieves a cached response by key. The second return reports whether a
// live entry was found.
func (c *ReplyCache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists || entry.expired() {
		c.mu.Lock()
		c.misses++
		if exists {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}

	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
	ui.PrintCacheHit(key)
	return entry.response, true
}

// Set stores a response under the given key.
func (c *ReplyCache) Set(key string, response []byte) {
	now := time.Now()
	c.mu.Lock()
	c.entries[key] = &replyEntry{
		response:  response,
		expireAt:  now.Add(c.ttl),
		createdAt: now,
	}
	c.mu.Unlock()
}

// Stats returns the hit and miss counters.
func (c *ReplyCache) Stats() (hits, misses int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

// Len returns the number of live entries.
func (c *ReplyCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// startCleanup evicts expired entries on a fixed interval.
func (c *ReplyCache) startCleanup() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		removed := 0
		for key, entry := range c.entries {
			if entry.expired() {
				delete(c.entries, key)
				removed++
			}
		}
		c.mu.Unlock()

		if removed > 0 {
			c.logger.Debug("reply cache cleanup", slog.Int("removed", removed))
		}
	}
}
