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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myinvois/governor/common/clock"
)

type hintedError struct {
	hint time.Duration
}

func (e *hintedError) Error() string {
	return "throttled"
}

func (e *hintedError) RetryAfter() time.Duration {
	return e.hint
}

func testPolicy(maxAttempts int) RetryPolicy {
	policy := NewExponentialRetryPolicy(time.Millisecond)
	policy.SetMaximumAttempts(maxAttempts)
	return policy
}

func TestRetrySuccessOnFirstAttempt(t *testing.T) {
	attempts := 0
	op := func(ctx context.Context) error {
		attempts++
		return nil
	}
	err := Retry(context.Background(), op, testPolicy(3), nil, clock.NewRealTimeSource())
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetrySuccessAfterTransientFailures(t *testing.T) {
	attempts := 0
	op := func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	}
	err := Retry(context.Background(), op, testPolicy(5), nil, clock.NewRealTimeSource())
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryTerminalErrorMakesOneAttempt(t *testing.T) {
	terminal := errors.New("terminal")
	attempts := 0
	op := func(ctx context.Context) error {
		attempts++
		return terminal
	}
	isRetryable := func(err error) bool { return !errors.Is(err, terminal) }

	err := Retry(context.Background(), op, testPolicy(5), isRetryable, clock.NewRealTimeSource())
	require.ErrorIs(t, err, terminal)
	assert.Equal(t, 1, attempts)
}

func TestRetryExhaustionWrapsLastError(t *testing.T) {
	lastErr := errors.New("still broken")
	attempts := 0
	op := func(ctx context.Context) error {
		attempts++
		return lastErr
	}

	err := Retry(context.Background(), op, testPolicy(3), nil, clock.NewRealTimeSource())
	var exhausted *RetriesExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.ErrorIs(t, err, lastErr)
	assert.Equal(t, 3, attempts)
}

func TestRetryHonorsServerHint(t *testing.T) {
	ts := clock.NewMockedTimeSource()
	hint := 3 * time.Second

	attemptCh := make(chan int, 2)
	attempts := 0
	op := func(ctx context.Context) error {
		attempts++
		attemptCh <- attempts
		if attempts == 1 {
			return &hintedError{hint: hint}
		}
		return nil
	}

	done := make(chan error, 1)
	go func() {
		// base delay is 1ms; the 3s hint must replace it
		done <- Retry(context.Background(), op, testPolicy(5), nil, ts)
	}()

	require.Equal(t, 1, <-attemptCh)
	ts.BlockUntil(1)

	// just before the hint elapses the second attempt must not have run
	ts.Advance(hint - time.Millisecond)
	select {
	case <-attemptCh:
		t.Fatal("second attempt ran before the server-supplied retry-after elapsed")
	case <-time.After(50 * time.Millisecond):
	}

	ts.Advance(time.Millisecond)
	require.Equal(t, 2, <-attemptCh)
	require.NoError(t, <-done)
}

func TestRetryStopsOnContextCancel(t *testing.T) {
	ts := clock.NewMockedTimeSource()
	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	op := func(ctx context.Context) error {
		attempts++
		return errors.New("transient")
	}

	done := make(chan error, 1)
	go func() {
		done <- Retry(ctx, op, testPolicy(10), nil, ts)
	}()

	ts.BlockUntil(1) // first backoff sleep
	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("retry did not stop on context cancellation")
	}
	assert.Equal(t, 1, attempts)
}

func TestExponentialRetryPolicyDelays(t *testing.T) {
	policy := NewExponentialRetryPolicy(time.Second)
	policy.SetMaximumAttempts(4)
	policy.SetMaximumInterval(10 * time.Second)

	assert.Equal(t, time.Second, policy.ComputeNextDelay(0, 1))
	assert.Equal(t, 2*time.Second, policy.ComputeNextDelay(0, 2))
	assert.Equal(t, 4*time.Second, policy.ComputeNextDelay(0, 3))
	assert.Equal(t, done, policy.ComputeNextDelay(0, 4))
}

func TestExponentialRetryPolicyCapsInterval(t *testing.T) {
	policy := NewExponentialRetryPolicy(time.Second)
	policy.SetMaximumAttempts(NoMaximumAttempts)
	policy.SetMaximumInterval(5 * time.Second)

	assert.Equal(t, 5*time.Second, policy.ComputeNextDelay(0, 10))
}

func TestExponentialRetryPolicyExpiration(t *testing.T) {
	policy := NewExponentialRetryPolicy(time.Second)
	policy.SetMaximumAttempts(NoMaximumAttempts)
	policy.SetExpirationInterval(time.Minute)

	assert.Equal(t, done, policy.ComputeNextDelay(2*time.Minute, 2))
}
