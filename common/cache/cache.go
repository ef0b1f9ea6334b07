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

// Package cache holds last-known-good payloads per resource key, used as a
// fallback source when the live path fails, never as the primary path.
package cache

import (
	"context"
	"time"

	"github.com/myinvois/governor/common/clock"
	"github.com/myinvois/governor/common/metrics"
)

// A Cache is a generalized interface to a TTL-bounded key/value store.
// An entry is only visible while its TTL has not elapsed; expired entries
// are treated as absent.
type Cache interface {
	// Get retrieves the entry stored under key, or nil if there is no
	// unexpired entry. The error is only used by backends that can fail
	// (e.g. a remote store), an in-memory cache never returns one.
	Get(ctx context.Context, key string) (*Entry, error)

	// Put stores payload under key with a fresh fetch time.
	Put(ctx context.Context, key string, payload []byte) error

	// Delete removes the entry stored under key, if any.
	Delete(ctx context.Context, key string) error

	// Size returns the number of entries currently held, including entries
	// that have expired but have not been lazily collected yet.
	Size() int
}

// Entry is a cached payload together with the time it was fetched from the
// live source. Callers decide how to present age to their users.
type Entry struct {
	Key       string
	Payload   []byte
	FetchedAt time.Time
}

// Options control the behavior of the cache
type Options struct {
	// TTL controls the duration after which a written entry stops being
	// returned. Zero means entries never expire.
	TTL time.Duration

	// MaxCount controls the max number of entries held. When full, the entry
	// with the oldest fetch time is evicted to make room. Zero means no bound.
	MaxCount int

	// TimeSource is used to decide expiry. Defaults to the wall clock.
	TimeSource clock.TimeSource

	// MetricsScope reports hits, misses and evictions. Defaults to a no-op
	// scope.
	MetricsScope metrics.Scope
}
