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

import (
	"time"
)

type (
	// Client is the interface used to report metrics
	Client interface {
		// Scope returns an internal scope that can be used to add additional
		// information to metrics
		Scope(scope ScopeIdx, tags ...Tag) Scope
	}

	// Scope is an interface for reporting metrics by scope
	Scope interface {
		// IncCounter increments a counter metric
		IncCounter(counter int)
		// AddCounter adds delta to the counter metric
		AddCounter(counter int, delta int64)
		// StartTimer starts a timer for the given metric name.
		// Time will be recorded when stopwatch is stopped.
		StartTimer(timer int) Stopwatch
		// RecordTimer records a timer for the given metric name
		RecordTimer(timer int, d time.Duration)
		// UpdateGauge reports Gauge type absolute value metric
		UpdateGauge(gauge int, value float64)
		// Tagged returns a new scope with additional tags
		Tagged(tags ...Tag) Scope
	}

	// Stopwatch is a handle to a running timer
	Stopwatch interface {
		Stop()
	}

	// Tag is an interface to define metrics tags
	Tag interface {
		Key() string
		Value() string
	}
)

const (
	operationTag = "operation"
	sourceTag    = "source"
)

// OperationTag tags metrics with the governed operation name
type OperationTag struct {
	value string
}

// NewOperationTag returns a new operation tag
func NewOperationTag(value string) OperationTag {
	return OperationTag{value}
}

// Key returns the key of the operation tag
func (t OperationTag) Key() string {
	return operationTag
}

// Value returns the value of the operation tag
func (t OperationTag) Value() string {
	return t.value
}

// SourceTag tags metrics with the data source that served a result
type SourceTag struct {
	value string
}

// NewSourceTag returns a new source tag
func NewSourceTag(value string) SourceTag {
	return SourceTag{value}
}

// Key returns the key of the source tag
func (t SourceTag) Key() string {
	return sourceTag
}

// Value returns the value of the source tag
func (t SourceTag) Value() string {
	return t.value
}
