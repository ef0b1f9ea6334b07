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

package quotas

import (
	"context"
	"sync"
	"time"

	"github.com/myinvois/governor/common/clock"
	"github.com/myinvois/governor/common/log"
	"github.com/myinvois/governor/common/log/tag"
	"github.com/myinvois/governor/common/metrics"
)

type (
	// Collection stores a map of limiters by operation name. Limiters are
	// created lazily on first use and live for the process lifetime.
	Collection struct {
		mu         sync.RWMutex
		profiles   map[string]Profile
		timeSource clock.TimeSource
		logger     log.Logger
		scope      metrics.Scope
		limiters   map[string]Limiter
	}

	// allowAllLimiter admits immediately. It backs operation names with no
	// configured profile: admission fails open rather than blocking callers
	// on a configuration gap.
	allowAllLimiter struct{}

	// meteredLimiter reports wait latency and granted admissions.
	meteredLimiter struct {
		Limiter
		scope metrics.Scope
	}
)

// NewCollection creates a new limiter collection for the given profile table.
func NewCollection(profiles map[string]Profile, timeSource clock.TimeSource, logger log.Logger, scope metrics.Scope) *Collection {
	if timeSource == nil {
		timeSource = clock.NewRealTimeSource()
	}
	if scope == nil {
		scope = metrics.NoopScope
	}
	return &Collection{
		profiles:   profiles,
		timeSource: timeSource,
		logger:     logger,
		scope:      scope,
		limiters:   make(map[string]Limiter),
	}
}

// For retrieves the limiter for a given operation name, creating it on first
// use. An operation with no configured profile gets a pass-through limiter,
// logged once as a configuration gap.
func (c *Collection) For(operation string) Limiter {
	c.mu.RLock()
	limiter, ok := c.limiters[operation]
	c.mu.RUnlock()

	if !ok {
		newLimiter := c.create(operation)

		// verify that it is needed and add to map
		c.mu.Lock()
		limiter, ok = c.limiters[operation]
		if !ok {
			c.limiters[operation] = newLimiter
			limiter = newLimiter
		}
		c.mu.Unlock()
	}

	return limiter
}

func (c *Collection) create(operation string) Limiter {
	profile, ok := c.profiles[operation]
	if !ok {
		c.scope.IncCounter(metrics.AdmissionMissingProfileCount)
		c.logger.Warn("no rate limit profile configured for operation, admitting without limit",
			tag.OperationName(operation))
		return allowAllLimiter{}
	}
	return &meteredLimiter{
		Limiter: NewLimiter(profile, c.timeSource),
		scope:   c.scope.Tagged(metrics.NewOperationTag(operation)),
	}
}

func (m *meteredLimiter) Wait(ctx context.Context) error {
	sw := m.scope.StartTimer(metrics.AdmissionWaitLatency)
	defer sw.Stop()
	if err := m.Limiter.Wait(ctx); err != nil {
		return err
	}
	m.scope.IncCounter(metrics.AdmissionGrantedCount)
	return nil
}

func (allowAllLimiter) Wait(ctx context.Context) error {
	return ctx.Err()
}

func (allowAllLimiter) RemainingInWindow() int {
	return UnmeteredBudget
}

func (allowAllLimiter) NextAvailable() time.Duration {
	return 0
}
