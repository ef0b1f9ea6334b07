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

// Package quotas implements per-operation admission control for the upstream
// API: a minimum spacing between consecutive calls, plus a one-minute request
// budget. The limiter only ever delays callers, it never drops them.
package quotas

import (
	"context"
	"sync"
	"time"

	"github.com/myinvois/governor/common/clock"
)

const windowLength = time.Minute

// UnmeteredBudget is reported by RemainingInWindow for operations with no
// per-minute budget. It is negative so a caller polling the remaining count
// can tell "never window-limited" apart from an exhausted window's zero.
const UnmeteredBudget = -1

type (
	// Profile is the static admission configuration for one operation name.
	// The two constraints are enforced independently: a profile may carry a
	// looser minimum interval than its per-minute budget implies to absorb
	// burstiness, and the limiter is never less restrictive than either.
	Profile struct {
		// RequestsPerMinute is the budget ceiling for any one-minute window.
		RequestsPerMinute int `yaml:"requestsPerMinute"`
		// MinInterval is the minimum spacing between two consecutive calls.
		MinInterval time.Duration `yaml:"minInterval"`
	}

	// Limiter grants admission for calls of a single operation name.
	Limiter interface {
		// Wait blocks until admission is granted or the context is done.
		// Bookkeeping is committed only on a granted admission, a canceled
		// wait does not consume budget.
		Wait(ctx context.Context) error
		// RemainingInWindow returns the unspent budget of the current
		// one-minute window, or UnmeteredBudget when the operation has no
		// per-minute budget at all.
		RemainingInWindow() int
		// NextAvailable returns how long until the spacing constraint would
		// admit another call, zero if it would admit one now.
		NextAvailable() time.Duration
	}

	limiter struct {
		profile    Profile
		timeSource clock.TimeSource

		mu            sync.Mutex
		lastCallAt    time.Time // zero value means no call yet
		windowID      int64
		countInWindow int
	}
)

// NewLimiter creates a limiter enforcing the given profile.
func NewLimiter(profile Profile, timeSource clock.TimeSource) Limiter {
	if timeSource == nil {
		timeSource = clock.NewRealTimeSource()
	}
	return &limiter{
		profile:    profile,
		timeSource: timeSource,
	}
}

func (l *limiter) Wait(ctx context.Context) error {
	for {
		wait, admitted := l.tryAdmit()
		if admitted {
			return nil
		}
		if err := l.timeSource.SleepWithContext(ctx, wait); err != nil {
			return err
		}
		// re-check: another waiter may have taken the slot while sleeping
	}
}

// tryAdmit commits an admission if both constraints pass right now, else
// returns how long to sleep before re-checking.
func (l *limiter) tryAdmit() (wait time.Duration, admitted bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.timeSource.Now()

	if !l.lastCallAt.IsZero() {
		if elapsed := now.Sub(l.lastCallAt); elapsed < l.profile.MinInterval {
			return l.profile.MinInterval - elapsed, false
		}
	}

	windowID := currentWindow(now)
	if windowID != l.windowID {
		l.windowID = windowID
		l.countInWindow = 0
	}
	if l.profile.RequestsPerMinute > 0 && l.countInWindow >= l.profile.RequestsPerMinute {
		return windowEnd(windowID).Sub(now), false
	}

	l.countInWindow++
	l.lastCallAt = now
	return 0, true
}

func (l *limiter) RemainingInWindow() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.profile.RequestsPerMinute <= 0 {
		return UnmeteredBudget
	}
	count := l.countInWindow
	if currentWindow(l.timeSource.Now()) != l.windowID {
		count = 0
	}
	remaining := l.profile.RequestsPerMinute - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

func (l *limiter) NextAvailable() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.lastCallAt.IsZero() {
		return 0
	}
	wait := l.lastCallAt.Add(l.profile.MinInterval).Sub(l.timeSource.Now())
	if wait < 0 {
		return 0
	}
	return wait
}

func currentWindow(now time.Time) int64 {
	return now.UnixMilli() / windowLength.Milliseconds()
}

func windowEnd(windowID int64) time.Time {
	return time.UnixMilli((windowID + 1) * windowLength.Milliseconds())
}
