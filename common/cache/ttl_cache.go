// Copyright (c) 2026 The Governor Authors.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package cache

import (
	"context"
	"sync"
	"time"

	"github.com/myinvois/governor/common/clock"
	"github.com/myinvois/governor/common/metrics"
)

type ttlCache struct {
	mu         sync.Mutex
	byKey      map[string]*Entry
	ttl        time.Duration
	maxCount   int
	timeSource clock.TimeSource
	scope      metrics.Scope
}

// New creates a new in-memory cache with the given options.
// Expiry is lazy: entries are dropped when a Get observes them expired, not
// by a background sweeper.
func New(opts *Options) Cache {
	if opts == nil {
		opts = &Options{}
	}
	timeSource := opts.TimeSource
	if timeSource == nil {
		timeSource = clock.NewRealTimeSource()
	}
	scope := opts.MetricsScope
	if scope == nil {
		scope = metrics.NoopScope
	}
	return &ttlCache{
		byKey:      make(map[string]*Entry),
		ttl:        opts.TTL,
		maxCount:   opts.MaxCount,
		timeSource: timeSource,
		scope:      scope,
	}
}

func (c *ttlCache) Get(_ context.Context, key string) (*Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.byKey[key]
	if !ok {
		c.scope.IncCounter(metrics.CacheMissCount)
		return nil, nil
	}
	if c.isExpired(entry) {
		delete(c.byKey, key)
		c.scope.IncCounter(metrics.CacheMissCount)
		return nil, nil
	}
	c.scope.IncCounter(metrics.CacheHitCount)
	// callers must not see internal state they could mutate
	copied := *entry
	return &copied, nil
}

func (c *ttlCache) Put(_ context.Context, key string, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.byKey[key]; !ok && c.maxCount > 0 && len(c.byKey) >= c.maxCount {
		c.evictOldest()
	}
	c.byKey[key] = &Entry{
		Key:       key,
		Payload:   payload,
		FetchedAt: c.timeSource.Now(),
	}
	return nil
}

func (c *ttlCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byKey, key)
	return nil
}

func (c *ttlCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byKey)
}

func (c *ttlCache) isExpired(entry *Entry) bool {
	return c.ttl > 0 && c.timeSource.Since(entry.FetchedAt) >= c.ttl
}

// evictOldest drops an expired entry when one exists, otherwise the entry
// with the oldest fetch time. Called with the lock held.
func (c *ttlCache) evictOldest() {
	var oldestKey string
	var oldestAt time.Time
	for key, entry := range c.byKey {
		if c.isExpired(entry) {
			delete(c.byKey, key)
			c.scope.IncCounter(metrics.CacheEvictionCount)
			return
		}
		if oldestKey == "" || entry.FetchedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.FetchedAt
		}
	}
	if oldestKey != "" {
		delete(c.byKey, oldestKey)
		c.scope.IncCounter(metrics.CacheEvictionCount)
	}
}
