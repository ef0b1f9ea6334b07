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

package metrics

// types used/defined by the package
type (
	// MetricName is the name of the metric
	MetricName string

	// MetricType is the type of the metric
	MetricType int

	// metricDefinition contains the definition for a metric
	metricDefinition struct {
		metricType MetricType
		metricName MetricName
	}

	// ScopeIdx is an index to one of the pre-defined metric scopes
	ScopeIdx int
)

// MetricTypes which are supported
const (
	Counter MetricType = iota
	Timer
	Gauge
)

// Scope enums
const (
	// QuotasScope is the scope for per-operation admission metrics
	QuotasScope ScopeIdx = iota
	// SchedulerScope is the scope for the bounded-concurrency scheduler
	SchedulerScope
	// CacheScope is the scope for the fallback cache
	CacheScope
	// GuardScope is the scope for the single-flight guard
	GuardScope
	// GovernorScope is the scope for the fallback orchestrator
	GovernorScope

	numScopes
)

// Metric enums
const (
	AdmissionWaitLatency = iota
	AdmissionGrantedCount
	AdmissionMissingProfileCount
	SchedulerSubmitCount
	SchedulerSubmitLatency
	SchedulerRunningGauge
	SchedulerPendingGauge
	SchedulerTaskFailureCount
	CacheHitCount
	CacheMissCount
	CacheEvictionCount
	GuardRejectionCount
	GuardStaleReleaseCount
	GovernorRequestCount
	GovernorRequestLatency
	GovernorLiveSuccessCount
	GovernorDegradedServeCount
	GovernorStaleServeCount
	GovernorExhaustedCount
	GovernorCooldownRejectCount
	GovernorSupersededCount

	numMetrics
)

var scopeNames = map[ScopeIdx]string{
	QuotasScope:    "quotas",
	SchedulerScope: "scheduler",
	CacheScope:     "cache",
	GuardScope:     "guard",
	GovernorScope:  "governor",
}

var metricDefs = map[int]metricDefinition{
	AdmissionWaitLatency:         {Timer, "admission_wait_latency"},
	AdmissionGrantedCount:        {Counter, "admission_granted"},
	AdmissionMissingProfileCount: {Counter, "admission_missing_profile"},
	SchedulerSubmitCount:         {Counter, "scheduler_submit"},
	SchedulerSubmitLatency:       {Timer, "scheduler_submit_latency"},
	SchedulerRunningGauge:        {Gauge, "scheduler_running"},
	SchedulerPendingGauge:        {Gauge, "scheduler_pending"},
	SchedulerTaskFailureCount:    {Counter, "scheduler_task_failure"},
	CacheHitCount:                {Counter, "cache_hit"},
	CacheMissCount:               {Counter, "cache_miss"},
	CacheEvictionCount:           {Counter, "cache_eviction"},
	GuardRejectionCount:          {Counter, "guard_rejection"},
	GuardStaleReleaseCount:       {Counter, "guard_stale_release"},
	GovernorRequestCount:         {Counter, "governor_request"},
	GovernorRequestLatency:       {Timer, "governor_request_latency"},
	GovernorLiveSuccessCount:     {Counter, "governor_live_success"},
	GovernorDegradedServeCount:   {Counter, "governor_degraded_serve"},
	GovernorStaleServeCount:      {Counter, "governor_stale_serve"},
	GovernorExhaustedCount:       {Counter, "governor_exhausted"},
	GovernorCooldownRejectCount:  {Counter, "governor_cooldown_reject"},
	GovernorSupersededCount:      {Counter, "governor_superseded"},
}
