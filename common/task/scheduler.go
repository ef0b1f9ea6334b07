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

package task

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/emirpasic/gods/trees/binaryheap"

	"github.com/myinvois/governor/common"
	"github.com/myinvois/governor/common/clock"
	"github.com/myinvois/governor/common/log"
	"github.com/myinvois/governor/common/log/tag"
	"github.com/myinvois/governor/common/metrics"
)

type (
	// SchedulerOptions configs the priority scheduler
	SchedulerOptions struct {
		// MaxConcurrent is the ceiling on simultaneously running operations.
		MaxConcurrent int
	}

	schedulerImpl struct {
		status        int32
		maxConcurrent int

		timeSource clock.TimeSource
		logger     log.Logger
		scope      metrics.Scope

		mu      sync.Mutex
		pending *binaryheap.Heap
		running int

		nextSeq    int64
		shutdownWG sync.WaitGroup
	}

	queueItem struct {
		op         Operation
		ctx        context.Context
		priority   int
		seq        int64 // unique, monotonic; breaks priority ties FIFO
		enqueuedAt time.Time
		resultCh   chan taskResult
	}

	taskResult struct {
		result interface{}
		err    error
	}
)

// NewScheduler creates a priority scheduler with a hard concurrency ceiling.
func NewScheduler(
	options *SchedulerOptions,
	timeSource clock.TimeSource,
	logger log.Logger,
	metricsClient metrics.Client,
) Scheduler {
	if timeSource == nil {
		timeSource = clock.NewRealTimeSource()
	}
	return &schedulerImpl{
		status:        common.DaemonStatusInitialized,
		maxConcurrent: options.MaxConcurrent,
		timeSource:    timeSource,
		logger:        logger,
		scope:         metricsClient.Scope(metrics.SchedulerScope),
		pending:       binaryheap.NewWith(compareQueueItems),
	}
}

// compareQueueItems orders by priority desc, then enqueue order asc.
// seq is unique per item by construction so there is never a full tie.
func compareQueueItems(a, b interface{}) int {
	itemA := a.(*queueItem)
	itemB := b.(*queueItem)
	if itemA.priority != itemB.priority {
		if itemA.priority > itemB.priority {
			return -1
		}
		return 1
	}
	if itemA.seq < itemB.seq {
		return -1
	}
	return 1
}

func (s *schedulerImpl) Start() {
	if !atomic.CompareAndSwapInt32(&s.status, common.DaemonStatusInitialized, common.DaemonStatusStarted) {
		return
	}
	s.logger.Info("priority scheduler started")
}

func (s *schedulerImpl) Stop() {
	if !atomic.CompareAndSwapInt32(&s.status, common.DaemonStatusStarted, common.DaemonStatusStopped) {
		return
	}

	s.mu.Lock()
	for !s.pending.Empty() {
		popped, _ := s.pending.Pop()
		item := popped.(*queueItem)
		item.resultCh <- taskResult{err: ErrSchedulerStopped}
	}
	s.mu.Unlock()

	if success := common.AwaitWaitGroup(&s.shutdownWG, time.Minute); !success {
		s.logger.Warn("priority scheduler timed out waiting for running operations on shutdown")
	}
	s.logger.Info("priority scheduler stopped")
}

func (s *schedulerImpl) Submit(ctx context.Context, priority int, op Operation) (interface{}, error) {
	switch atomic.LoadInt32(&s.status) {
	case common.DaemonStatusInitialized:
		return nil, ErrSchedulerNotStarted
	case common.DaemonStatusStopped:
		return nil, ErrSchedulerStopped
	}

	s.scope.IncCounter(metrics.SchedulerSubmitCount)
	sw := s.scope.StartTimer(metrics.SchedulerSubmitLatency)
	defer sw.Stop()

	item := &queueItem{
		op:         op,
		ctx:        ctx,
		priority:   priority,
		enqueuedAt: s.timeSource.Now(),
		// buffered so a completion after the submitter gave up does not
		// leak the running goroutine
		resultCh: make(chan taskResult, 1),
	}

	s.mu.Lock()
	s.nextSeq++
	item.seq = s.nextSeq
	s.pending.Push(item)
	s.dispatchLocked()
	s.mu.Unlock()

	select {
	case res := <-item.resultCh:
		return res.result, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *schedulerImpl) Status() QueueStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return QueueStatus{
		Running:       s.running,
		Queued:        s.pending.Size(),
		MaxConcurrent: s.maxConcurrent,
	}
}

// dispatchLocked starts pending items while there is a free slot.
// Called with the lock held.
func (s *schedulerImpl) dispatchLocked() {
	for s.running < s.maxConcurrent && !s.pending.Empty() {
		popped, _ := s.pending.Pop()
		item := popped.(*queueItem)
		s.running++
		s.shutdownWG.Add(1)
		go s.run(item)
	}
	s.scope.UpdateGauge(metrics.SchedulerRunningGauge, float64(s.running))
	s.scope.UpdateGauge(metrics.SchedulerPendingGauge, float64(s.pending.Size()))
}

func (s *schedulerImpl) run(item *queueItem) {
	defer s.shutdownWG.Done()
	// release the slot on every exit path, including panics
	defer func() {
		s.mu.Lock()
		s.running--
		s.dispatchLocked()
		s.mu.Unlock()
	}()

	result, err := s.execute(item)
	if err != nil {
		s.scope.IncCounter(metrics.SchedulerTaskFailureCount)
	}
	item.resultCh <- taskResult{result: result, err: err}
}

func (s *schedulerImpl) execute(item *queueItem) (result interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("operation panic: %v", r)
			s.logger.Error("scheduled operation panicked",
				tag.Priority(item.priority),
				tag.Error(err))
		}
	}()
	return item.op(item.ctx)
}
