// ABOUTME: Short-TTL cache for the installed-plugin listing.
// ABOUTME: Single-flight de-duplication; concurrent readers share one fetch.

package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/pixeldeck/pixeldeck/plugins/core"
)

// DefaultTTL keeps listings fresh without hammering the backend.
const DefaultTTL = 5 * time.Second

// Fetcher loads the installed-plugin listing from the backend.
type Fetcher func(ctx context.Context) ([]core.PluginRecord, error)

// Installed caches the installed-plugin listing. Read priority: fresh cached
// data, then a shared in-flight fetch, then a new fetch.
type Installed struct {
	fetch Fetcher
	ttl   time.Duration
	now   func() time.Time

	group singleflight.Group

	mu        sync.Mutex
	records   []core.PluginRecord
	fetchedAt time.Time
	valid     bool
	gen       uint64 // bumped by Invalidate so a stale fetch can't repopulate
}

// New creates a cache around fetch with the given TTL.
func New(fetch Fetcher, ttl time.Duration) *Installed {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Installed{fetch: fetch, ttl: ttl, now: time.Now}
}

// Get returns the installed-plugin listing, fetching if needed. Concurrent
// callers during a fetch receive the same result from a single request.
// The returned slice is the caller's own copy; later cache updates such as
// SetEnabled do not reach into it.
func (c *Installed) Get(ctx context.Context) ([]core.PluginRecord, error) {
	c.mu.Lock()
	if c.valid && c.now().Sub(c.fetchedAt) < c.ttl {
		records := snapshotRecords(c.records)
		c.mu.Unlock()
		return records, nil
	}
	gen := c.gen
	c.mu.Unlock()

	result, err, _ := c.group.Do("installed", func() (interface{}, error) {
		records, err := c.fetch(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		// An invalidation issued while this fetch was in flight wins: the
		// result is still handed to waiters but not cached.
		if c.gen == gen {
			c.records = records
			c.fetchedAt = c.now()
			c.valid = true
		}
		c.mu.Unlock()
		return records, nil
	})
	if err != nil {
		return nil, err
	}
	return snapshotRecords(result.([]core.PluginRecord)), nil
}

func snapshotRecords(records []core.PluginRecord) []core.PluginRecord {
	out := make([]core.PluginRecord, len(records))
	copy(out, records)
	return out
}

// Invalidate clears the cached value and timestamp. An in-flight fetch is
// not cancelled; its waiters still receive its result.
func (c *Installed) Invalidate() {
	c.mu.Lock()
	c.records = nil
	c.valid = false
	c.fetchedAt = time.Time{}
	c.gen++
	c.mu.Unlock()
}

// SetEnabled flips the cached record's enabled flag in place, returning the
// previous value and whether the plugin was cached. Used for optimistic
// toggle updates and their rollback.
func (c *Installed) SetEnabled(pluginID string, enabled bool) (bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.records {
		if c.records[i].ID == pluginID {
			prev := c.records[i].Enabled
			c.records[i].Enabled = enabled
			return prev, true
		}
	}
	return false, false
}
