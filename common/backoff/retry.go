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

package backoff

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/myinvois/governor/common/clock"
)

type (
	// Operation to retry
	Operation func(ctx context.Context) error

	// IsRetryable handler can be used to exclude certain errors during retry
	IsRetryable func(error) bool

	// RetryAfterProvider is implemented by errors carrying a server-supplied
	// retry hint, e.g. the retry-after header on a 429 response. When present
	// the hint replaces the computed backoff delay for the next attempt.
	RetryAfterProvider interface {
		RetryAfter() time.Duration
	}

	// RetriesExhaustedError is returned when all attempts allowed by the
	// policy have failed. It wraps the error from the last attempt.
	RetriesExhaustedError struct {
		LastErr  error
		Attempts int
	}
)

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.LastErr)
}

func (e *RetriesExhaustedError) Unwrap() error {
	return e.LastErr
}

// Retry function can be used to wrap any call with retry logic using the
// passed in policy. Waits run on the given TimeSource so tests stay
// deterministic. A non-retryable error returns immediately after a single
// attempt; exhaustion wraps the last error in RetriesExhaustedError.
func Retry(
	ctx context.Context,
	operation Operation,
	policy RetryPolicy,
	isRetryable IsRetryable,
	timeSource clock.TimeSource,
) error {
	if isRetryable == nil {
		isRetryable = func(error) bool { return true }
	}
	if timeSource == nil {
		timeSource = clock.NewRealTimeSource()
	}

	var lastErr error
	attempt := 0
	startTime := timeSource.Now()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = operation(ctx)
		if lastErr == nil {
			return nil
		}
		attempt++

		if !isRetryable(lastErr) {
			return lastErr
		}

		next := policy.ComputeNextDelay(timeSource.Since(startTime), attempt)
		if next < 0 {
			return &RetriesExhaustedError{LastErr: lastErr, Attempts: attempt}
		}

		// server hints are authoritative, they replace the computed delay
		var provider RetryAfterProvider
		if errors.As(lastErr, &provider) {
			if hint := provider.RetryAfter(); hint > 0 {
				next = hint
			}
		}

		if err := timeSource.SleepWithContext(ctx, next); err != nil {
			return err
		}
	}
}

// IgnoreErrors can be used as IsRetryable handler to exclude certain errors
// from the retry logic
func IgnoreErrors(errorsToExclude []error) func(error) bool {
	return func(err error) bool {
		for _, errorToExclude := range errorsToExclude {
			if errors.Is(err, errorToExclude) {
				return false
			}
		}
		return true
	}
}
