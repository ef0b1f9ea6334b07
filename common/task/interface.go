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

// Package task bounds how many governed operations run at once and orders
// the backlog by priority. It governs concurrency; pace is the quotas
// package's job.
package task

import (
	"context"
	"errors"

	"github.com/myinvois/governor/common"
)

type (
	// Operation is a unit of work submitted to a Scheduler.
	Operation func(ctx context.Context) (interface{}, error)

	// Scheduler runs submitted operations under a hard concurrency ceiling,
	// serving pending work by priority (higher first) then arrival order.
	Scheduler interface {
		common.Daemon

		// Submit enqueues op and blocks until it has run to completion,
		// returning its result or error. An operation's failure does not
		// affect other queued items. If ctx ends while the item is still
		// queued, Submit returns the context error; the item may still run
		// later and its result is discarded.
		Submit(ctx context.Context, priority int, op Operation) (interface{}, error)

		// Status reports the queue state for pull-based observability.
		Status() QueueStatus
	}

	// QueueStatus is a point-in-time snapshot of the scheduler.
	QueueStatus struct {
		Running       int
		Queued        int
		MaxConcurrent int
	}
)

var (
	// ErrSchedulerNotStarted is returned by Submit before Start.
	ErrSchedulerNotStarted = errors.New("task scheduler not started")
	// ErrSchedulerStopped is returned for items still pending when the
	// scheduler shuts down, and for submissions after Stop.
	ErrSchedulerStopped = errors.New("task scheduler stopped")
)
