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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestRatelimiterAllowConsumesTokens(t *testing.T) {
	ts := NewMockedTimeSource()
	rl := NewMockRatelimiter(ts, rate.Every(time.Second), 1)

	assert.True(t, rl.Allow())
	assert.False(t, rl.Allow(), "burst of 1 must not allow a second immediate event")

	ts.Advance(time.Second)
	assert.True(t, rl.Allow(), "a full interval restores one token")
}

func TestRatelimiterWaitImmediate(t *testing.T) {
	rl := NewRatelimiter(rate.Inf, 1)
	require.NoError(t, rl.Wait(context.Background()))
}

func TestRatelimiterWaitRespectsDeadline(t *testing.T) {
	ts := NewMockedTimeSource()
	rl := NewMockRatelimiter(ts, rate.Every(time.Hour), 1)
	require.True(t, rl.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	err := rl.Wait(ctx)
	require.Error(t, err)
	// the canceled wait must not have consumed the pending token
	assert.InDelta(t, 0, rl.Tokens(), 0.01)
}

func TestRatelimiterWaitZeroBurst(t *testing.T) {
	rl := NewRatelimiter(rate.Every(time.Second), 0)
	err := rl.Wait(context.Background())
	require.ErrorIs(t, err, ErrCannotWait)
}
