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
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"
)

// ClassifyResponse maps an upstream HTTP status to the error taxonomy:
// 2xx is success (nil), 429 is a retryable throttle honoring the
// retry-after header (seconds), 401/403 is auth expiry, 5xx is transient,
// any other 4xx is terminal.
func ClassifyResponse(statusCode int, retryAfterHeader string) error {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return nil
	case statusCode == http.StatusTooManyRequests:
		return &ThrottleError{RetryAfterHint: parseRetryAfter(retryAfterHeader)}
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return &AuthExpiredError{StatusCode: statusCode}
	case statusCode >= 500:
		return &TransientError{StatusCode: statusCode}
	default:
		return &TerminalError{StatusCode: statusCode}
	}
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// IsRetryable reports whether an error should be retried: throttles,
// transient upstream failures, and timeouts. Terminal, auth, and duplicate
// conditions are not retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var throttle *ThrottleError
	if errors.As(err, &throttle) {
		return true
	}
	var transient *TransientError
	if errors.As(err, &transient) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

// IsAuthExpired reports whether an error is the distinct 401/403 kind that
// should trigger the re-authentication collaborator.
func IsAuthExpired(err error) bool {
	var authErr *AuthExpiredError
	return errors.As(err, &authErr)
}
