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

package tag

import (
	"time"
)

// LoggingCallAtKey is a special tag. The logger implementation will add the
// file and line of the caller under this key.
const LoggingCallAtKey = "logging-call-at"

// Error returns tag for Error
func Error(err error) Tag {
	return newErrorTag("error", err)
}

// OperationName returns tag for the named upstream operation being governed
func OperationName(operation string) Tag {
	return newStringTag("operation", operation)
}

// ResourceKey returns tag for the logical resource key of a request
func ResourceKey(key string) Tag {
	return newStringTag("resource-key", key)
}

// ActionName returns tag for a named refresh action
func ActionName(action string) Tag {
	return newStringTag("action", action)
}

// Priority returns tag for a scheduler priority
func Priority(priority int) Tag {
	return newIntTag("priority", priority)
}

// Attempt returns tag for the attempt number of a retried operation
func Attempt(attempt int) Tag {
	return newIntTag("attempt", attempt)
}

// Epoch returns tag for a data source epoch
func Epoch(epoch int64) Tag {
	return newInt64Tag("epoch", epoch)
}

// RequestID returns tag for the id correlating a request's log lines
func RequestID(requestID string) Tag {
	return newStringTag("request-id", requestID)
}

// FallbackStage returns tag for the stage of the fallback chain
func FallbackStage(stage string) Tag {
	return newStringTag("fallback-stage", stage)
}

// DataSource returns tag for which source served a result
func DataSource(source string) Tag {
	return newStringTag("data-source", source)
}

// Stale returns tag for whether a served payload is past its fetch time
func Stale(stale bool) Tag {
	return newBoolTag("stale", stale)
}

// Delay returns tag for a computed wait or backoff delay
func Delay(delay time.Duration) Tag {
	return newDurationTag("delay", delay)
}

// RetryAfter returns tag for a server-supplied retry hint
func RetryAfter(d time.Duration) Tag {
	return newDurationTag("retry-after", d)
}

// CooldownRemaining returns tag for the unexpired part of a refresh cooldown
func CooldownRemaining(d time.Duration) Tag {
	return newDurationTag("cooldown-remaining", d)
}

// QueueDepth returns tag for the number of pending scheduler items
func QueueDepth(depth int) Tag {
	return newIntTag("queue-depth", depth)
}

// RunningCount returns tag for the number of in-flight scheduler items
func RunningCount(count int) Tag {
	return newIntTag("running-count", count)
}

// RemainingInWindow returns tag for the unspent one-minute budget
func RemainingInWindow(remaining int) Tag {
	return newIntTag("remaining-in-window", remaining)
}

// Timestamp returns tag for Timestamp
func Timestamp(timestamp time.Time) Tag {
	return newTimeTag("timestamp", timestamp)
}

// StoreOperation returns tag for an operation against a fallback store
func StoreOperation(operation string) Tag {
	return newStringTag("store-operation", operation)
}

// CacheKey returns tag for a cache key
func CacheKey(key string) Tag {
	return newStringTag("cache-key", key)
}

// HTTPStatus returns tag for an upstream HTTP status code
func HTTPStatus(status int) Tag {
	return newIntTag("http-status", status)
}

// SysComponent returns tag for the component emitting the log line
func SysComponent(component string) Tag {
	return newStringTag("component", component)
}
