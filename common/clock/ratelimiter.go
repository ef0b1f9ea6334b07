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
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type (
	// Ratelimiter is a TimeSource-backed variant of
	// [golang.org/x/time/rate.Limiter], so mocked time advances it like
	// everything else. Only the APIs this repo uses are exposed.
	Ratelimiter interface {
		// Allow returns true if an event can be performed now.
		Allow() bool
		// Limit returns the maximum overall rate of events that are allowed.
		Limit() rate.Limit
		// Burst returns the maximum burst size allowed by this Ratelimiter.
		Burst() int
		// Tokens returns the number of immediately-allowable events.
		// It is only suitable for monitoring or test use.
		Tokens() float64
		// Wait blocks until one token is available (and consumes it), or
		// returns an error without consuming a token if the context ends
		// first or a token can never become available in time.
		Wait(ctx context.Context) error
	}

	ratelimiter struct {
		// the lock MUST be held while acquiring AND handling Now(), to ensure
		// times are handled monotonically despite waiting on the mutex.
		timesource TimeSource
		latestNow  time.Time // never allowed to rewind
		limiter    *rate.Limiter
		mut        sync.Mutex
	}
)

var _ Ratelimiter = (*ratelimiter)(nil)

// ErrCannotWait is returned from Ratelimiter.Wait calls that can never be
// satisfied, e.g. a deadline shorter than the necessary delay.
var ErrCannotWait = fmt.Errorf("ratelimiter.Wait() cannot be satisfied")

// NewRatelimiter returns a wall-clock-backed Ratelimiter.
func NewRatelimiter(lim rate.Limit, burst int) Ratelimiter {
	return &ratelimiter{
		timesource: NewRealTimeSource(),
		limiter:    rate.NewLimiter(lim, burst),
	}
}

// NewMockRatelimiter returns a Ratelimiter backed by the given TimeSource,
// for deterministic tests.
func NewMockRatelimiter(ts TimeSource, lim rate.Limit, burst int) Ratelimiter {
	return &ratelimiter{
		timesource: ts,
		limiter:    rate.NewLimiter(lim, burst),
	}
}

// lockNow updates the current "now" time, and ensures it never rolls back.
//
// The lock MUST be held until all time-accepting methods are called on the
// underlying rate.Limiter, as otherwise its internal "now" value may rewind
// and cause undefined behavior.
func (r *ratelimiter) lockNow() (now time.Time, unlock func()) {
	r.mut.Lock()
	newNow := r.timesource.Now()
	if newNow.After(r.latestNow) {
		r.latestNow = newNow
	}
	return r.latestNow, r.mut.Unlock
}

func (r *ratelimiter) Allow() bool {
	now, unlock := r.lockNow()
	defer unlock()
	return r.limiter.AllowN(now, 1)
}

func (r *ratelimiter) Limit() rate.Limit {
	// rate.Limiter.Limit does not advance time, no need for lockNow
	return r.limiter.Limit()
}

func (r *ratelimiter) Burst() int {
	// rate.Limiter.Burst does not advance time, no need for lockNow
	return r.limiter.Burst()
}

func (r *ratelimiter) Tokens() float64 {
	now, unlock := r.lockNow()
	defer unlock()
	return r.limiter.TokensAt(now)
}

func (r *ratelimiter) Wait(ctx context.Context) (err error) {
	now, unlock := r.lockNow()
	var once sync.Once
	defer once.Do(unlock) // unlock if returned early or panicked

	res := r.limiter.ReserveN(now, 1)
	defer func() {
		if err != nil {
			// err means "not allowed", so roll back the reservation.
			// time may have passed while waiting, so re-acquire the latest
			// observed now rather than advancing to the real one, to improve
			// the chance the token is restored.
			once.Do(unlock)
			r.mut.Lock()
			defer r.mut.Unlock()
			if now.After(r.latestNow) {
				r.latestNow = now
			}
			res.CancelAt(r.latestNow)
		}
	}()

	if !res.OK() {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		return ErrCannotWait
	}
	delay := res.DelayFrom(now)
	if delay == 0 {
		return nil
	}
	if deadline, ok := ctx.Deadline(); ok && now.Add(delay).After(deadline) {
		return fmt.Errorf("would wait longer than ctx deadline: %w", ErrCannotWait)
	}

	once.Do(unlock) // unlock before waiting

	timer := r.timesource.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.Chan():
		return nil
	}
}
