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
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/myinvois/governor/common"
	"github.com/myinvois/governor/common/log/loggerimpl"
	"github.com/myinvois/governor/common/metrics"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestScheduler(maxConcurrent int) Scheduler {
	return NewScheduler(
		&SchedulerOptions{MaxConcurrent: maxConcurrent},
		nil,
		loggerimpl.NewNopLogger(),
		metrics.NewNoopClient(),
	)
}

func TestSchedulerIsManagedAsDaemon(t *testing.T) {
	// the scheduler is run through the shared daemon lifecycle
	var daemon common.Daemon = newTestScheduler(1)
	daemon.Start()
	daemon.Stop()
}

func TestSubmitBeforeStartIsRejected(t *testing.T) {
	s := newTestScheduler(1)
	_, err := s.Submit(context.Background(), 0, func(ctx context.Context) (interface{}, error) {
		return nil, nil
	})
	require.ErrorIs(t, err, ErrSchedulerNotStarted)
}

func TestSubmitAfterStopIsRejected(t *testing.T) {
	s := newTestScheduler(1)
	s.Start()
	s.Stop()
	_, err := s.Submit(context.Background(), 0, func(ctx context.Context) (interface{}, error) {
		return nil, nil
	})
	require.ErrorIs(t, err, ErrSchedulerStopped)
}

func TestSubmitReturnsOperationResult(t *testing.T) {
	s := newTestScheduler(2)
	s.Start()
	defer s.Stop()

	result, err := s.Submit(context.Background(), 5, func(ctx context.Context) (interface{}, error) {
		return "payload", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "payload", result)
}

func TestConcurrencyNeverExceedsCeiling(t *testing.T) {
	const maxConcurrent = 3
	const submissions = 12

	s := newTestScheduler(maxConcurrent)
	s.Start()
	defer s.Stop()

	var current, peak int32
	var wg sync.WaitGroup
	for i := 0; i < submissions; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Submit(context.Background(), 0, func(ctx context.Context) (interface{}, error) {
				n := atomic.AddInt32(&current, 1)
				for {
					p := atomic.LoadInt32(&peak)
					if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
						break
					}
				}
				time.Sleep(20 * time.Millisecond)
				atomic.AddInt32(&current, -1)
				return nil, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(maxConcurrent))
	status := s.Status()
	assert.Zero(t, status.Running)
	assert.Zero(t, status.Queued)
	assert.Equal(t, maxConcurrent, status.MaxConcurrent)
}

func TestHigherPriorityRunsFirst(t *testing.T) {
	s := newTestScheduler(1)
	s.Start()
	defer s.Stop()

	// occupy the only slot so the remaining submissions queue up
	blockerStarted := make(chan struct{})
	release := make(chan struct{})
	blockerDone := make(chan struct{})
	go func() {
		defer close(blockerDone)
		_, err := s.Submit(context.Background(), 0, func(ctx context.Context) (interface{}, error) {
			close(blockerStarted)
			<-release
			return nil, nil
		})
		assert.NoError(t, err)
	}()
	<-blockerStarted

	type submission struct {
		priority int
		name     string
	}
	submissions := []submission{
		{priority: 1, name: "low"},
		{priority: 5, name: "high-a"},
		{priority: 3, name: "mid"},
		{priority: 5, name: "high-b"},
	}

	order := make(chan string, len(submissions))
	var wg sync.WaitGroup
	for i, sub := range submissions {
		sub := sub
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Submit(context.Background(), sub.priority, func(ctx context.Context) (interface{}, error) {
				order <- sub.name
				return nil, nil
			})
			assert.NoError(t, err)
		}()
		// enqueue strictly in submission order so the FIFO tie-break
		// between high-a and high-b is deterministic
		wantQueued := i + 1
		require.Eventually(t, func() bool {
			return s.Status().Queued == wantQueued
		}, time.Second, time.Millisecond)
	}

	close(release)
	<-blockerDone
	wg.Wait()
	close(order)

	var got []string
	for name := range order {
		got = append(got, name)
	}
	assert.Equal(t, []string{"high-a", "high-b", "mid", "low"}, got)
}

func TestFailureDoesNotAffectOtherOperations(t *testing.T) {
	s := newTestScheduler(2)
	s.Start()
	defer s.Stop()

	boom := errors.New("boom")
	_, err := s.Submit(context.Background(), 0, func(ctx context.Context) (interface{}, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)

	result, err := s.Submit(context.Background(), 0, func(ctx context.Context) (interface{}, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, result)
}

func TestPanicIsRecoveredAsError(t *testing.T) {
	s := newTestScheduler(1)
	s.Start()
	defer s.Stop()

	_, err := s.Submit(context.Background(), 0, func(ctx context.Context) (interface{}, error) {
		panic("kaboom")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")
}

func TestStopDrainsPendingWithError(t *testing.T) {
	s := newTestScheduler(1)
	s.Start()

	release := make(chan struct{})
	blockerStarted := make(chan struct{})
	blockerDone := make(chan struct{})
	go func() {
		defer close(blockerDone)
		_, err := s.Submit(context.Background(), 0, func(ctx context.Context) (interface{}, error) {
			close(blockerStarted)
			<-release
			return nil, nil
		})
		assert.NoError(t, err)
	}()
	<-blockerStarted

	pendingErr := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background(), 0, func(ctx context.Context) (interface{}, error) {
			return nil, nil
		})
		pendingErr <- err
	}()
	require.Eventually(t, func() bool {
		return s.Status().Queued == 1
	}, time.Second, time.Millisecond)

	// Stop drains the queue before waiting for the running blocker, so the
	// pending submitter is rejected while the blocker is still in flight
	stopDone := make(chan struct{})
	go func() {
		defer close(stopDone)
		s.Stop()
	}()

	select {
	case err := <-pendingErr:
		assert.ErrorIs(t, err, ErrSchedulerStopped)
	case <-time.After(time.Second):
		t.Fatal("pending submission was not resolved by Stop")
	}

	close(release)
	<-blockerDone
	<-stopDone
}

func TestSubmitterGivesUpOnContextCancel(t *testing.T) {
	s := newTestScheduler(1)
	s.Start()
	defer s.Stop()

	release := make(chan struct{})
	blockerStarted := make(chan struct{})
	blockerDone := make(chan struct{})
	go func() {
		defer close(blockerDone)
		_, err := s.Submit(context.Background(), 0, func(ctx context.Context) (interface{}, error) {
			close(blockerStarted)
			<-release
			return nil, nil
		})
		assert.NoError(t, err)
	}()
	<-blockerStarted

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Submit(ctx, 0, func(ctx context.Context) (interface{}, error) {
		return nil, nil
	})
	require.ErrorIs(t, err, context.Canceled)

	close(release)
	<-blockerDone
}
