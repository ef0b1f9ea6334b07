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

package clock

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

type (
	// TimeSource is an interface for any entity that provides the current
	// time. Its primary purpose is to isolate components that require time
	// from the system clock, so that they can be tested deterministically
	// with a mocked source.
	TimeSource interface {
		Now() time.Time
		Since(t time.Time) time.Duration
		Sleep(d time.Duration)
		// SleepWithContext sleeps for the given duration or until the context
		// is done, whichever happens first. It returns the context's error if
		// the context ended the sleep early, nil otherwise.
		SleepWithContext(ctx context.Context, d time.Duration) error
		After(d time.Duration) <-chan time.Time
		NewTimer(d time.Duration) Timer
	}

	// MockedTimeSource is a TimeSource whose time only moves when told to.
	MockedTimeSource interface {
		TimeSource
		// Advance advances the mocked clock by the given duration, releasing
		// any sleeper whose deadline has been reached.
		Advance(d time.Duration)
		// BlockUntil blocks until the mocked clock has at least the given
		// number of outstanding sleepers.
		BlockUntil(waiters int)
	}

	// Timer is a timer handle returned by TimeSource.NewTimer.
	Timer interface {
		Chan() <-chan time.Time
		Stop() bool
	}

	realTimeSource struct {
		clockwork.Clock
	}

	mockedTimeSource struct {
		clockwork.FakeClock
	}

	realTimer struct {
		t *time.Timer
	}

	// clockwork timers fire through After channels and cannot be canceled,
	// an unconsumed fire is buffered and harmless.
	mockedTimer struct {
		ch <-chan time.Time
	}
)

// NewRealTimeSource returns a TimeSource backed by the wall clock.
func NewRealTimeSource() TimeSource {
	return &realTimeSource{clockwork.NewRealClock()}
}

// NewMockedTimeSource returns a TimeSource whose time is fully controlled by
// the test through Advance and BlockUntil.
func NewMockedTimeSource() MockedTimeSource {
	return &mockedTimeSource{clockwork.NewFakeClock()}
}

// NewMockedTimeSourceAt is like NewMockedTimeSource but starts at t.
func NewMockedTimeSourceAt(t time.Time) MockedTimeSource {
	return &mockedTimeSource{clockwork.NewFakeClockAt(t)}
}

func (ts *realTimeSource) Since(t time.Time) time.Duration {
	return ts.Now().Sub(t)
}

func (ts *realTimeSource) SleepWithContext(ctx context.Context, d time.Duration) error {
	return sleepWithContext(ctx, d, ts)
}

func (ts *realTimeSource) NewTimer(d time.Duration) Timer {
	return &realTimer{t: time.NewTimer(d)}
}

func (t *realTimer) Chan() <-chan time.Time {
	return t.t.C
}

func (t *realTimer) Stop() bool {
	return t.t.Stop()
}

func (ts *mockedTimeSource) Since(t time.Time) time.Duration {
	return ts.Now().Sub(t)
}

func (ts *mockedTimeSource) SleepWithContext(ctx context.Context, d time.Duration) error {
	return sleepWithContext(ctx, d, ts)
}

func (ts *mockedTimeSource) NewTimer(d time.Duration) Timer {
	return &mockedTimer{ch: ts.After(d)}
}

func (t *mockedTimer) Chan() <-chan time.Time {
	return t.ch
}

func (t *mockedTimer) Stop() bool {
	return false
}

func sleepWithContext(ctx context.Context, d time.Duration, ts TimeSource) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := ts.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.Chan():
		return nil
	}
}
