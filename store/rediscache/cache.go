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

// Package rediscache backs the fallback cache with redis, so several portal
// instances can share last-known-good payloads. It assumes a logical redis
// DB dedicated to this cache.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/myinvois/governor/common/cache"
	"github.com/myinvois/governor/common/clock"
	"github.com/myinvois/governor/common/config"
)

type (
	// Commands is the subset of the redis client the cache issues.
	// *redis.Client satisfies it; tests substitute a fake.
	Commands interface {
		Get(ctx context.Context, key string) *redis.StringCmd
		Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
		Del(ctx context.Context, keys ...string) *redis.IntCmd
		DBSize(ctx context.Context) *redis.IntCmd
	}

	// Cache is the redis-backed cache.Cache.
	Cache struct {
		client     Commands
		ttl        time.Duration
		timeSource clock.TimeSource
	}

	// envelope is the stored representation: the payload plus its fetch
	// time, so staleness survives the round trip.
	envelope struct {
		Payload   []byte    `json:"payload"`
		FetchedAt time.Time `json:"fetchedAt"`
	}
)

var _ cache.Cache = (*Cache)(nil)

// New creates a redis-backed cache. Expiry is enforced by redis itself via
// SET with a TTL; FetchedAt rides along in the stored envelope.
func New(cfg *config.RedisConfig, ttl time.Duration, timeSource clock.TimeSource) *Cache {
	return NewWithClient(redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	}), ttl, timeSource)
}

// NewWithClient is like New but uses an existing client, e.g. one shared
// with the rest of the application or a test fake.
func NewWithClient(client Commands, ttl time.Duration, timeSource clock.TimeSource) *Cache {
	if timeSource == nil {
		timeSource = clock.NewRealTimeSource()
	}
	return &Cache{
		client:     client,
		ttl:        ttl,
		timeSource: timeSource,
	}
}

func (c *Cache) Get(ctx context.Context, key string) (*cache.Entry, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %q: %w", key, err)
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("redis entry %q is malformed: %w", key, err)
	}
	return &cache.Entry{
		Key:       key,
		Payload:   env.Payload,
		FetchedAt: env.FetchedAt,
	}, nil
}

func (c *Cache) Put(ctx context.Context, key string, payload []byte) error {
	data, err := json.Marshal(envelope{
		Payload:   payload,
		FetchedAt: c.timeSource.Now(),
	})
	if err != nil {
		return fmt.Errorf("encode redis entry %q: %w", key, err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %q: %w", key, err)
	}
	return nil
}

// Size reports the key count of the dedicated logical DB. Best effort: a
// connection failure reports zero.
func (c *Cache) Size() int {
	size, err := c.client.DBSize(context.Background()).Result()
	if err != nil {
		return 0
	}
	return int(size)
}
