package connpool

import (
	"sync"

	"go.uber.org/zap"

	"guardiangw/internal/domain"
	"guardiangw/internal/infra/telemetry"
)

// Cache is the process-wide table of live backend connections, keyed by
// normalized address. The mutex guards the map only; it is never held
// across network calls, so concurrent acquisitions for one identity may
// each decide to reconnect. A losing Put silently replaces the previous
// record without closing it.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*domain.ConnectionRecord
	logger  *zap.Logger
	metrics domain.Metrics
}

// CacheOptions configures a Cache.
type CacheOptions struct {
	Logger  *zap.Logger
	Metrics domain.Metrics
}

// NewCache creates an empty cache.
func NewCache(opts CacheOptions) *Cache {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	return &Cache{
		entries: make(map[string]*domain.ConnectionRecord),
		logger:  logger.Named("connection_cache"),
		metrics: metrics,
	}
}

// Get returns the cached record for the identity.
func (c *Cache) Get(id domain.BackendIdentity) (*domain.ConnectionRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.entries[id.Key()]
	return rec, ok
}

// Put stores the record under its identity, last write wins.
func (c *Cache) Put(rec *domain.ConnectionRecord) {
	if rec == nil {
		return
	}
	c.mu.Lock()
	c.entries[rec.Identity.Key()] = rec
	size := len(c.entries)
	c.mu.Unlock()
	c.metrics.SetCachedConnections(size)
}

// Evict closes the cached handle and then removes the entry. Close errors
// are logged and swallowed. A record put concurrently while the old handle
// was closing is left in place.
func (c *Cache) Evict(id domain.BackendIdentity) bool {
	c.mu.Lock()
	rec, ok := c.entries[id.Key()]
	c.mu.Unlock()
	if !ok {
		return false
	}

	if rec.Session != nil {
		if err := rec.Session.Close(); err != nil {
			c.logger.Debug("close evicted connection failed",
				telemetry.BackendField(id.Label),
				zap.Error(err),
			)
		}
	}

	c.mu.Lock()
	if c.entries[id.Key()] == rec {
		delete(c.entries, id.Key())
	}
	size := len(c.entries)
	c.mu.Unlock()
	c.metrics.SetCachedConnections(size)
	return true
}

// Len returns the number of cached records.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// CloseAll closes and removes every record. Used at process shutdown.
func (c *Cache) CloseAll() {
	c.mu.Lock()
	entries := c.entries
	c.entries = make(map[string]*domain.ConnectionRecord)
	c.mu.Unlock()

	for _, rec := range entries {
		if rec.Session == nil {
			continue
		}
		if err := rec.Session.Close(); err != nil {
			c.logger.Debug("close connection failed",
				telemetry.BackendField(rec.Identity.Label),
				zap.Error(err),
			)
		}
	}
	c.metrics.SetCachedConnections(0)
}
