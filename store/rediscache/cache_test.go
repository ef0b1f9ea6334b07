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

package rediscache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myinvois/governor/common/clock"
)

// fakeCommands is an in-memory stand-in for the redis client, answering the
// same command subset the cache issues.
type fakeCommands struct {
	data map[string][]byte
	ttls map[string]time.Duration
	err  error
}

func newFakeCommands() *fakeCommands {
	return &fakeCommands{
		data: make(map[string][]byte),
		ttls: make(map[string]time.Duration),
	}
}

func (f *fakeCommands) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	data, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(data), nil)
}

func (f *fakeCommands) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	f.data[key] = value.([]byte)
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeCommands) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	var removed int64
	for _, key := range keys {
		if _, ok := f.data[key]; ok {
			delete(f.data, key)
			delete(f.ttls, key)
			removed++
		}
	}
	return redis.NewIntResult(removed, nil)
}

func (f *fakeCommands) DBSize(ctx context.Context) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	return redis.NewIntResult(int64(len(f.data)), nil)
}

func TestPutThenGetRoundTrip(t *testing.T) {
	ts := clock.NewMockedTimeSource()
	fake := newFakeCommands()
	c := NewWithClient(fake, 15*time.Minute, ts)

	require.NoError(t, c.Put(context.Background(), "doc-1", []byte(`{"id":"doc-1"}`)))
	assert.Equal(t, 15*time.Minute, fake.ttls["doc-1"], "expiry is delegated to redis via the set ttl")

	entry, err := c.Get(context.Background(), "doc-1")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "doc-1", entry.Key)
	assert.Equal(t, []byte(`{"id":"doc-1"}`), entry.Payload)
	assert.True(t, entry.FetchedAt.Equal(ts.Now()), "fetch time survives the envelope round trip")
}

func TestGetMissIsNilNil(t *testing.T) {
	c := NewWithClient(newFakeCommands(), time.Minute, nil)

	entry, err := c.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.Nil(t, entry, "redis.Nil maps to a plain miss, not an error")
}

func TestGetMalformedEntryIsAnError(t *testing.T) {
	fake := newFakeCommands()
	fake.data["doc-1"] = []byte("{not json")
	c := NewWithClient(fake, time.Minute, nil)

	entry, err := c.Get(context.Background(), "doc-1")
	require.Error(t, err)
	assert.Nil(t, entry)
}

func TestConnectionFailuresAreSurfaced(t *testing.T) {
	fake := newFakeCommands()
	fake.err = errors.New("connection refused")
	c := NewWithClient(fake, time.Minute, nil)

	_, err := c.Get(context.Background(), "doc-1")
	require.ErrorContains(t, err, "redis get")
	require.ErrorContains(t, c.Put(context.Background(), "doc-1", []byte("x")), "redis set")
	require.ErrorContains(t, c.Delete(context.Background(), "doc-1"), "redis del")
}

func TestDeleteRemovesEntry(t *testing.T) {
	fake := newFakeCommands()
	c := NewWithClient(fake, time.Minute, nil)

	require.NoError(t, c.Put(context.Background(), "doc-1", []byte("x")))
	require.NoError(t, c.Delete(context.Background(), "doc-1"))

	entry, err := c.Get(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestSizeIsBestEffort(t *testing.T) {
	fake := newFakeCommands()
	c := NewWithClient(fake, time.Minute, nil)

	require.NoError(t, c.Put(context.Background(), "doc-1", []byte("x")))
	require.NoError(t, c.Put(context.Background(), "doc-2", []byte("y")))
	assert.Equal(t, 2, c.Size())

	fake.err = errors.New("connection refused")
	assert.Equal(t, 0, c.Size(), "an unreachable backend reports zero rather than failing")
}
