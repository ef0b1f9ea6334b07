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

// Package governor is the sole entry point of the request governance layer.
// It decides when and whether an outbound call to the upstream e-invoicing
// API (or a local fallback) may proceed: single-flight suppression, per
// operation rate limiting, bounded-concurrency priority scheduling, retry
// with backoff, and a live -> database mirror -> cache fallback chain.
package governor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"

	"github.com/myinvois/governor/common/backoff"
	"github.com/myinvois/governor/common/cache"
	"github.com/myinvois/governor/common/clock"
	"github.com/myinvois/governor/common/config"
	"github.com/myinvois/governor/common/locks"
	"github.com/myinvois/governor/common/log"
	"github.com/myinvois/governor/common/log/loggerimpl"
	"github.com/myinvois/governor/common/log/tag"
	"github.com/myinvois/governor/common/metrics"
	"github.com/myinvois/governor/common/quotas"
	"github.com/myinvois/governor/common/task"
	"github.com/myinvois/governor/store/rediscache"
	"github.com/myinvois/governor/store/sqlmirror"
)

type (
	// FetchFunc performs the live upstream call for one request. Failures
	// must be classified through the taxonomy in this package, typically by
	// returning the error from ClassifyResponse.
	FetchFunc func(ctx context.Context) ([]byte, error)

	// DegradedSource is a local data source (e.g. a database mirror) read
	// once, without rate limiting or retry, when the live path fails.
	DegradedSource interface {
		Lookup(ctx context.Context, key string) ([]byte, error)
	}

	// Request asks the governor to perform a named operation for a logical
	// resource key at a priority.
	Request struct {
		// Operation selects the rate limit profile, e.g. "getDocument".
		Operation string
		// Key is the logical resource key: a document UUID, a named refresh
		// action, a PDF generation id. It drives single-flight suppression
		// and the cache.
		Key string
		// Priority orders pending work; higher is served first.
		Priority int
		// Timeout is the overall per-attempt ceiling. Zero picks the
		// configured interactive default, or the batch default if Batch.
		Timeout time.Duration
		// Batch marks large multi-document operations, which get the longer
		// default timeout.
		Batch bool
		// Fetch performs the live call.
		Fetch FetchFunc
	}

	// Source names which stage of the fallback chain served a result.
	Source string

	// Result is a served payload plus provenance, so the caller can decide
	// whether and how to surface staleness.
	Result struct {
		Payload   []byte
		Source    Source
		Stale     bool
		FetchedAt time.Time
	}

	// OperationStatus is the pull-based per-operation admission snapshot.
	OperationStatus struct {
		// RemainingInWindow is the unspent one-minute budget, or
		// quotas.UnmeteredBudget for operations with no budget.
		RemainingInWindow int
		NextAvailable     time.Duration
	}

	// Params carries the injected collaborators of a Governor. Only Config
	// is required.
	Params struct {
		Config        *config.Config
		TimeSource    clock.TimeSource
		Logger        log.Logger
		MetricsClient metrics.Client
		// Cache overrides the fallback cache built from Config: redis when
		// the redis block is set, in-memory otherwise.
		Cache cache.Cache
		// Degraded overrides the degraded source built from Config's mirror
		// block.
		Degraded DegradedSource
		// OnAuthExpired is invoked before an AuthExpiredError is surfaced,
		// so the collaborator can trigger its re-authentication flow.
		OnAuthExpired func(error)
	}

	// Governor coordinates the private components. Callers hold a reference
	// rather than reaching a process-wide singleton, which keeps state
	// injectable and tests deterministic.
	Governor struct {
		cfg        *config.Config
		timeSource clock.TimeSource
		logger     log.Logger
		scope      metrics.Scope
		guardScope metrics.Scope

		limiters    *quotas.Collection
		scheduler   task.Scheduler
		guard       *locks.Guard
		cache       cache.Cache
		degraded    DegradedSource
		retryPolicy backoff.RetryPolicy

		onAuthExpired func(error)

		epoch atomic.Int64

		cooldownMu  sync.Mutex
		lastRefresh map[string]time.Time
	}
)

const (
	// SourceLive is a fresh payload from the upstream API.
	SourceLive Source = "live"
	// SourceMirror is a payload from the degraded local database mirror.
	SourceMirror Source = "mirror"
	// SourceCache is a last-known-good payload, always marked stale.
	SourceCache Source = "cache"
)

// ErrResultSuperseded is returned when the active data source was switched
// while a fetch was in flight. The result is discarded without touching the
// cache; the underlying call is not aborted.
var ErrResultSuperseded = errors.New("result superseded by data source switch")

// New creates a Governor from the given params.
func New(params *Params) (*Governor, error) {
	if params == nil || params.Config == nil {
		return nil, fmt.Errorf("governor requires a config")
	}
	cfg := params.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	timeSource := params.TimeSource
	if timeSource == nil {
		timeSource = clock.NewRealTimeSource()
	}
	logger := params.Logger
	if logger == nil {
		logger = loggerimpl.NewNopLogger()
	}
	metricsClient := params.MetricsClient
	if metricsClient == nil {
		metricsClient = metrics.NewNoopClient()
	}

	fallbackCache := params.Cache
	if fallbackCache == nil && cfg.Redis != nil {
		fallbackCache = rediscache.New(cfg.Redis, cfg.CacheTTL, timeSource)
	}
	if fallbackCache == nil {
		fallbackCache = cache.New(&cache.Options{
			TTL:          cfg.CacheTTL,
			MaxCount:     cfg.CacheMaxCount,
			TimeSource:   timeSource,
			MetricsScope: metricsClient.Scope(metrics.CacheScope),
		})
	}

	degraded := params.Degraded
	if degraded == nil && cfg.Mirror != nil {
		// sqlx.Open is lazy, a bad DSN surfaces on the first lookup
		mirror, err := sqlmirror.New(cfg.Mirror, logger)
		if err != nil {
			return nil, err
		}
		degraded = mirror
	}

	retryPolicy := backoff.NewExponentialRetryPolicy(cfg.BaseDelay)
	retryPolicy.SetMaximumAttempts(cfg.MaxRetries)

	onAuthExpired := params.OnAuthExpired
	if onAuthExpired == nil {
		onAuthExpired = func(error) {}
	}

	return &Governor{
		cfg:        cfg,
		timeSource: timeSource,
		logger:     logger,
		scope:      metricsClient.Scope(metrics.GovernorScope),
		guardScope: metricsClient.Scope(metrics.GuardScope),
		limiters:   quotas.NewCollection(cfg.Profiles, timeSource, logger, metricsClient.Scope(metrics.QuotasScope)),
		scheduler: task.NewScheduler(
			&task.SchedulerOptions{MaxConcurrent: cfg.MaxConcurrent},
			timeSource,
			logger,
			metricsClient,
		),
		guard: locks.NewGuard(&locks.GuardOptions{
			StaleAfter:   cfg.GuardStaleAfter,
			TimeSource:   timeSource,
			MetricsScope: metricsClient.Scope(metrics.GuardScope),
		}),
		cache:         fallbackCache,
		degraded:      degraded,
		retryPolicy:   retryPolicy,
		onAuthExpired: onAuthExpired,
		lastRefresh:   make(map[string]time.Time),
	}, nil
}

// Start starts the governor's scheduler.
func (g *Governor) Start() {
	g.scheduler.Start()
}

// Stop stops the scheduler; pending submissions fail with
// task.ErrSchedulerStopped.
func (g *Governor) Stop() {
	g.scheduler.Stop()
}

// Fetch performs the full governed pipeline for a resource: single-flight
// guard, rate limit admission, scheduled execution with retry, and on
// failure the degraded source followed by the stale cache. On live success
// the cache is refreshed.
func (g *Governor) Fetch(ctx context.Context, req Request) (*Result, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	g.scope.IncCounter(metrics.GovernorRequestCount)
	sw := g.scope.StartTimer(metrics.GovernorRequestLatency)
	defer sw.Stop()

	// one id correlates every log line of this request's pipeline walk
	logger := g.logger.WithTags(
		tag.RequestID(uuid.New().String()),
		tag.OperationName(req.Operation),
		tag.ResourceKey(req.Key))

	if !g.guard.TryAcquire(req.Key) {
		g.guardScope.IncCounter(metrics.GuardRejectionCount)
		logger.Debug("duplicate operation rejected")
		return nil, &DuplicateInProgressError{Key: req.Key}
	}
	// the guard is released on every exit path below
	defer g.guard.Release(req.Key)

	result, liveErr := g.executeLive(ctx, req, logger)
	if liveErr == nil {
		g.scope.IncCounter(metrics.GovernorLiveSuccessCount)
		return result, nil
	}
	if errors.Is(liveErr, ErrResultSuperseded) {
		g.scope.IncCounter(metrics.GovernorSupersededCount)
		return nil, liveErr
	}
	if IsAuthExpired(liveErr) {
		g.onAuthExpired(liveErr)
		return nil, liveErr
	}
	if ctx.Err() != nil {
		// the caller is gone, the fallback chain has no audience
		return nil, liveErr
	}

	logger.Warn("live fetch failed, walking fallback chain", tag.Error(liveErr))
	return g.fallback(ctx, req, liveErr, logger)
}

// Refresh performs a forced refresh for a named action. It rejects with the
// remaining cooldown, before consuming any rate limit budget, when called
// again too soon after the last successful refresh of the same action.
func (g *Governor) Refresh(ctx context.Context, action string, req Request) (*Result, error) {
	if remaining := g.cooldownRemaining(action); remaining > 0 {
		g.scope.IncCounter(metrics.GovernorCooldownRejectCount)
		g.logger.Debug("forced refresh rejected by cooldown",
			tag.ActionName(action),
			tag.CooldownRemaining(remaining))
		return nil, &CooldownError{Action: action, Remaining: remaining}
	}

	result, err := g.Fetch(ctx, req)
	if err == nil && result.Source == SourceLive {
		g.markRefreshed(action)
	}
	return result, err
}

// Do performs a governed non-resource action (submit, cancel, reject): it
// passes the guard, rate limiter, scheduler and retry stages, but does not
// read or write the fallback chain.
func (g *Governor) Do(ctx context.Context, req Request) ([]byte, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	g.scope.IncCounter(metrics.GovernorRequestCount)

	if !g.guard.TryAcquire(req.Key) {
		g.guardScope.IncCounter(metrics.GuardRejectionCount)
		return nil, &DuplicateInProgressError{Key: req.Key}
	}
	defer g.guard.Release(req.Key)

	result, err := g.executeLive(ctx, req, g.logger.WithTags(
		tag.RequestID(uuid.New().String()),
		tag.OperationName(req.Operation),
		tag.ResourceKey(req.Key)))
	if err != nil {
		if IsAuthExpired(err) {
			g.onAuthExpired(err)
		}
		return nil, err
	}
	return result.Payload, nil
}

// SwitchSource marks the active data source as changed. Results of fetches
// already in flight are discarded when they complete; the calls themselves
// are not aborted. Returns the new epoch.
func (g *Governor) SwitchSource() int64 {
	epoch := g.epoch.Inc()
	g.logger.Info("active data source switched", tag.Epoch(epoch))
	return epoch
}

// QueueStatus reports the scheduler state.
func (g *Governor) QueueStatus() task.QueueStatus {
	return g.scheduler.Status()
}

// OperationStatus reports the admission state for one operation name, so a
// caller can show a countdown instead of firing a request that would wait.
func (g *Governor) OperationStatus(operation string) OperationStatus {
	limiter := g.limiters.For(operation)
	return OperationStatus{
		RemainingInWindow: limiter.RemainingInWindow(),
		NextAvailable:     limiter.NextAvailable(),
	}
}

// GuardStatus reports the keys with an operation currently in flight.
func (g *Governor) GuardStatus() map[string]time.Duration {
	return g.guard.Holders()
}

func validateRequest(req Request) error {
	if req.Operation == "" {
		return fmt.Errorf("request requires an operation name")
	}
	if req.Key == "" {
		return fmt.Errorf("request requires a resource key")
	}
	if req.Fetch == nil {
		return fmt.Errorf("request requires a fetch function")
	}
	return nil
}

// executeLive runs throttle -> schedule -> retry and refreshes the cache on
// success. The epoch is pinned before admission so a source switch while in
// flight discards the result instead of caching it.
func (g *Governor) executeLive(ctx context.Context, req Request, logger log.Logger) (*Result, error) {
	epoch := g.epoch.Load()

	if err := g.limiters.For(req.Operation).Wait(ctx); err != nil {
		return nil, err
	}

	timeout := g.requestTimeout(req)
	operation := func(taskCtx context.Context) (interface{}, error) {
		var payload []byte
		attempt := func(attemptCtx context.Context) error {
			callCtx, cancel := context.WithTimeout(attemptCtx, timeout)
			defer cancel()
			fetched, err := req.Fetch(callCtx)
			if err != nil {
				return err
			}
			payload = fetched
			return nil
		}
		if err := backoff.Retry(taskCtx, attempt, g.retryPolicy, IsRetryable, g.timeSource); err != nil {
			return nil, err
		}
		return payload, nil
	}

	submitted, err := g.scheduler.Submit(ctx, req.Priority, operation)
	if err != nil {
		return nil, err
	}
	payload := submitted.([]byte)

	if epoch != g.epoch.Load() {
		// superseded: never mutate shared state with a stale result
		logger.Debug("discarding fetch result from superseded source", tag.Epoch(epoch))
		return nil, ErrResultSuperseded
	}

	if err := g.cache.Put(ctx, req.Key, payload); err != nil {
		// a cache write failure only weakens the fallback chain
		logger.Warn("failed to refresh fallback cache", tag.Error(err))
	}
	return &Result{
		Payload:   payload,
		Source:    SourceLive,
		FetchedAt: g.timeSource.Now(),
	}, nil
}

// fallback reads the degraded source once, then the cache, and fabricates
// the compound error only when every stage failed.
func (g *Governor) fallback(ctx context.Context, req Request, liveErr error, logger log.Logger) (*Result, error) {
	var degradedErr error
	if g.degraded != nil {
		payload, err := g.degraded.Lookup(ctx, req.Key)
		if err == nil {
			g.scope.IncCounter(metrics.GovernorDegradedServeCount)
			logger.Info("served from degraded source",
				tag.DataSource(string(SourceMirror)))
			return &Result{
				Payload:   payload,
				Source:    SourceMirror,
				FetchedAt: g.timeSource.Now(),
			}, nil
		}
		degradedErr = fmt.Errorf("degraded source: %w", err)
	} else {
		degradedErr = errors.New("degraded source: not configured")
	}

	entry, cacheErr := g.cache.Get(ctx, req.Key)
	if cacheErr == nil && entry != nil {
		g.scope.IncCounter(metrics.GovernorStaleServeCount)
		logger.Info("served stale payload from cache",
			tag.DataSource(string(SourceCache)),
			tag.Stale(true))
		return &Result{
			Payload:   entry.Payload,
			Source:    SourceCache,
			Stale:     true,
			FetchedAt: entry.FetchedAt,
		}, nil
	}
	if cacheErr == nil {
		cacheErr = errors.New("cache: no unexpired entry")
	} else {
		cacheErr = fmt.Errorf("cache: %w", cacheErr)
	}

	g.scope.IncCounter(metrics.GovernorExhaustedCount)
	return nil, newAllSourcesExhaustedError(req.Key,
		fmt.Errorf("live: %w", liveErr),
		degradedErr,
		cacheErr,
	)
}

func (g *Governor) requestTimeout(req Request) time.Duration {
	if req.Timeout > 0 {
		return req.Timeout
	}
	if req.Batch {
		return g.cfg.BatchTimeout
	}
	return g.cfg.InteractiveTimeout
}

func (g *Governor) cooldownRemaining(action string) time.Duration {
	cooldown := g.cfg.RefreshCooldowns[action]
	if cooldown <= 0 {
		return 0
	}
	g.cooldownMu.Lock()
	defer g.cooldownMu.Unlock()
	last, ok := g.lastRefresh[action]
	if !ok {
		return 0
	}
	remaining := cooldown - g.timeSource.Since(last)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (g *Governor) markRefreshed(action string) {
	g.cooldownMu.Lock()
	defer g.cooldownMu.Unlock()
	g.lastRefresh[action] = g.timeSource.Now()
}
