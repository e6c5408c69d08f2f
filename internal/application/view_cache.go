package application

import (
	"sync"
	"time"
)

// scheduleViewCache stores rendered per-participant schedule views so that
// repeated lookups during a live event avoid re-joining pairings against the
// participant registry. Entries are dropped on expiry and whenever an event's
// schedule is regenerated.
type scheduleViewCache struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	entries    map[string]scheduleViewEntry
}

type scheduleViewEntry struct {
	views     map[string][]ScheduleEntry
	expiresAt time.Time
}

func newScheduleViewCache(ttl time.Duration, maxEntries int, now func() time.Time) *scheduleViewCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if maxEntries <= 0 {
		maxEntries = 64
	}
	if now == nil {
		now = time.Now
	}
	return &scheduleViewCache{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]scheduleViewEntry),
	}
}

func (c *scheduleViewCache) Get(eventID string) (map[string][]ScheduleEntry, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	entry, ok := c.entries[eventID]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, eventID)
		c.mu.Unlock()
		return nil, false
	}
	return cloneViews(entry.views), true
}

func (c *scheduleViewCache) Store(eventID string, views map[string][]ScheduleEntry) {
	if c == nil {
		return
	}
	cloned := cloneViews(views)
	expiry := c.now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupLocked()
	if len(c.entries) >= c.maxEntries {
		c.evictOneLocked()
	}
	c.entries[eventID] = scheduleViewEntry{views: cloned, expiresAt: expiry}
}

func (c *scheduleViewCache) Invalidate(eventID string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	delete(c.entries, eventID)
	c.mu.Unlock()
}

func (c *scheduleViewCache) cleanupLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

func (c *scheduleViewCache) evictOneLocked() {
	for key := range c.entries {
		delete(c.entries, key)
		return
	}
}

func cloneViews(views map[string][]ScheduleEntry) map[string][]ScheduleEntry {
	if len(views) == 0 {
		return map[string][]ScheduleEntry{}
	}
	out := make(map[string][]ScheduleEntry, len(views))
	for participantID, entries := range views {
		cloned := make([]ScheduleEntry, len(entries))
		copy(cloned, entries)
		out[participantID] = cloned
	}
	return out
}
