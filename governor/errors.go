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

package governor

import (
	"fmt"
	"time"

	"go.uber.org/multierr"
)

type (
	// DuplicateInProgressError indicates an operation for the same logical
	// key is already in flight. This is a recoverable condition, not a
	// failure: the caller should wait for the in-flight operation rather
	// than retrying.
	DuplicateInProgressError struct {
		Key string
	}

	// CooldownError rejects a forced refresh requested before the per-action
	// cooldown window has elapsed. No rate-limit budget was consumed.
	CooldownError struct {
		Action    string
		Remaining time.Duration
	}

	// ThrottleError is a 429 from the upstream API, optionally carrying a
	// server-supplied retry-after hint. It is retryable; the hint replaces
	// the computed backoff delay.
	ThrottleError struct {
		RetryAfterHint time.Duration
	}

	// AuthExpiredError is a 401/403 from the upstream API. It is surfaced as
	// a distinct kind so the collaborator can trigger re-authentication
	// instead of a generic error path.
	AuthExpiredError struct {
		StatusCode int
	}

	// TerminalError is a non-retryable upstream failure: a 4xx other than
	// 429/401/403, or a malformed response.
	TerminalError struct {
		StatusCode int
		Message    string
	}

	// TransientError is a retryable upstream failure: a 5xx or a
	// network-level timeout.
	TransientError struct {
		StatusCode int
		Cause      error
	}

	// AllSourcesExhaustedError reports that every stage of the fallback
	// chain failed: live, degraded source, and cache. The per-stage errors
	// are aggregated so callers can see what was attempted.
	AllSourcesExhaustedError struct {
		Key         string
		StageErrors error
	}
)

func (e *DuplicateInProgressError) Error() string {
	return fmt.Sprintf("operation already in progress for key %q", e.Key)
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("refresh %q rejected, cooldown has %v remaining", e.Action, e.Remaining)
}

func (e *ThrottleError) Error() string {
	if e.RetryAfterHint > 0 {
		return fmt.Sprintf("upstream throttled the request, retry after %v", e.RetryAfterHint)
	}
	return "upstream throttled the request"
}

// RetryAfter implements backoff.RetryAfterProvider.
func (e *ThrottleError) RetryAfter() time.Duration {
	return e.RetryAfterHint
}

func (e *AuthExpiredError) Error() string {
	return fmt.Sprintf("authentication expired (status %d)", e.StatusCode)
}

func (e *TerminalError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("terminal upstream failure (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("terminal upstream failure (status %d)", e.StatusCode)
}

func (e *TransientError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("transient upstream failure: %v", e.Cause)
	}
	return fmt.Sprintf("transient upstream failure (status %d)", e.StatusCode)
}

func (e *TransientError) Unwrap() error {
	return e.Cause
}

func (e *AllSourcesExhaustedError) Error() string {
	return fmt.Sprintf("all sources exhausted for key %q: %v", e.Key, e.StageErrors)
}

func (e *AllSourcesExhaustedError) Unwrap() error {
	return e.StageErrors
}

func newAllSourcesExhaustedError(key string, stageErrors ...error) *AllSourcesExhaustedError {
	return &AllSourcesExhaustedError{
		Key:         key,
		StageErrors: multierr.Combine(stageErrors...),
	}
}
