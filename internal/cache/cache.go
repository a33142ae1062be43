// Package cache is a small in-process memoization layer for read-heavy
// queries. Entries expire after a fixed TTL, the entry count is hard-capped
// with the oldest key evicted first, and writers invalidate the exact keys
// they touch. It never self-invalidates on entity writes.
package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

type entry struct {
	value     any
	expiresAt time.Time
}

type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	order   []string // insertion order, oldest first
	ttl     time.Duration
	max     int
	cron    *cron.Cron
}

// New builds a cache and starts the periodic sweep of expired entries.
// sweepSpec is a cron spec, e.g. "@every 1m".
func New(ttl time.Duration, maxEntries int, sweepSpec string) (*Cache, error) {
	c := &Cache{
		entries: make(map[string]entry),
		order:   make([]string, 0, maxEntries),
		ttl:     ttl,
		max:     maxEntries,
		cron:    cron.New(),
	}

	if _, err := c.cron.AddFunc(sweepSpec, c.Sweep); err != nil {
		return nil, err
	}
	c.cron.Start()

	return c, nil
}

func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		c.remove(key)

		return nil, false
	}

	return e.value, true
}

func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		c.entries[key] = entry{value: value, expiresAt: time.Now().Add(c.ttl)}

		return
	}

	if len(c.order) >= c.max {
		c.remove(c.order[0])
	}

	c.entries[key] = entry{value: value, expiresAt: time.Now().Add(c.ttl)}
	c.order = append(c.order, key)
}

func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.remove(key)
}

// DeleteByPrefix drops every entry whose key starts with prefix; used to
// invalidate all pages of a list or all analyses tied to a project.
func (c *Cache) DeleteByPrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			c.remove(key)
		}
	}
}

// Sweep purges expired entries independent of lookups.
func (c *Cache) Sweep() {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			c.remove(key)
		}
	}
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

func (c *Cache) Stop() {
	c.cron.Stop()
}

// remove expects c.mu to be held.
func (c *Cache) remove(key string) {
	if _, ok := c.entries[key]; !ok {
		return
	}
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)

			break
		}
	}
}
