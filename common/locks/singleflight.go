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

// Package locks provides the single-flight guard: at most one in-flight
// operation per logical key. A second request for a held key is rejected
// immediately, not queued; queueing is the scheduler's job.
package locks

import (
	"sync"
	"time"

	"github.com/myinvois/governor/common/clock"
	"github.com/myinvois/governor/common/metrics"
)

type (
	// Guard tracks which logical keys currently have an operation in flight.
	Guard struct {
		mu         sync.Mutex
		holds      map[string]time.Time
		staleAfter time.Duration
		timeSource clock.TimeSource
		scope      metrics.Scope
	}

	// GuardOptions configure a Guard.
	GuardOptions struct {
		// StaleAfter is a safety-net ceiling on how long a hold may live.
		// A hold older than this is treated as released, covering the case
		// of a missed Release call. Zero disables the ceiling.
		StaleAfter time.Duration

		// TimeSource defaults to the wall clock.
		TimeSource clock.TimeSource

		// MetricsScope defaults to a no-op scope.
		MetricsScope metrics.Scope
	}
)

// NewGuard creates a Guard.
func NewGuard(opts *GuardOptions) *Guard {
	if opts == nil {
		opts = &GuardOptions{}
	}
	timeSource := opts.TimeSource
	if timeSource == nil {
		timeSource = clock.NewRealTimeSource()
	}
	scope := opts.MetricsScope
	if scope == nil {
		scope = metrics.NoopScope
	}
	return &Guard{
		holds:      make(map[string]time.Time),
		staleAfter: opts.StaleAfter,
		timeSource: timeSource,
		scope:      scope,
	}
}

// TryAcquire records a hold for key and returns true, unless a live hold
// already exists, in which case it returns false immediately without
// waiting. Callers that get false must surface "duplicate operation in
// progress" to their invoker and must not retry on their own.
func (g *Guard) TryAcquire(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.timeSource.Now()
	heldSince, held := g.holds[key]
	if held {
		if !g.isStale(heldSince, now) {
			return false
		}
		g.scope.IncCounter(metrics.GuardStaleReleaseCount)
	}
	g.holds[key] = now
	return true
}

// Release drops the hold for key. It must be called on every exit path of
// the guarded operation: success, failure, and cancellation.
func (g *Guard) Release(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.holds, key)
}

// Holders returns the keys currently held and for how long.
func (g *Guard) Holders() map[string]time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.timeSource.Now()
	holders := make(map[string]time.Duration, len(g.holds))
	for key, heldSince := range g.holds {
		if g.isStale(heldSince, now) {
			continue
		}
		holders[key] = now.Sub(heldSince)
	}
	return holders
}

func (g *Guard) isStale(heldSince, now time.Time) bool {
	return g.staleAfter > 0 && now.Sub(heldSince) >= g.staleAfter
}
