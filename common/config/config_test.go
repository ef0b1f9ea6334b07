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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myinvois/governor/common/quotas"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "governor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfigFile(t, `
profiles:
  getDocument:
    requestsPerMinute: 60
    minInterval: 1s
  searchDocuments:
    requestsPerMinute: 12
    minInterval: 5s
maxConcurrent: 5
refreshCooldowns:
  recent-documents: 30s
cacheTTL: 10m
cacheMaxCount: 500
maxRetries: 4
baseDelay: 2s
guardStaleAfter: 1m
interactiveTimeout: 20s
batchTimeout: 3m
mirror:
  dsn: postgres://localhost/invoices
  table: document_mirror
redis:
  address: localhost:6379
  db: 2
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, quotas.Profile{RequestsPerMinute: 60, MinInterval: time.Second}, cfg.Profiles["getDocument"])
	assert.Equal(t, quotas.Profile{RequestsPerMinute: 12, MinInterval: 5 * time.Second}, cfg.Profiles["searchDocuments"])
	assert.Equal(t, 5, cfg.MaxConcurrent)
	assert.Equal(t, 30*time.Second, cfg.RefreshCooldowns["recent-documents"])
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 500, cfg.CacheMaxCount)
	assert.Equal(t, 4, cfg.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.BaseDelay)
	assert.Equal(t, time.Minute, cfg.GuardStaleAfter)
	assert.Equal(t, 20*time.Second, cfg.InteractiveTimeout)
	assert.Equal(t, 3*time.Minute, cfg.BatchTimeout)
	require.NotNil(t, cfg.Mirror)
	assert.Equal(t, "postgres://localhost/invoices", cfg.Mirror.DSN)
	assert.Equal(t, "document_mirror", cfg.Mirror.Table)
	require.NotNil(t, cfg.Redis)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address)
	assert.Equal(t, 2, cfg.Redis.DB)
}

func TestLoadFillsDefaults(t *testing.T) {
	path := writeConfigFile(t, "maxConcurrent: 2\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.MaxConcurrent)
	assert.Equal(t, DefaultProfiles(), cfg.Profiles)
	assert.Equal(t, 15*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, time.Second, cfg.BaseDelay)
	assert.Equal(t, 30*time.Second, cfg.InteractiveTimeout)
	assert.Equal(t, 5*time.Minute, cfg.BatchTimeout)
	assert.Nil(t, cfg.Mirror)
	assert.Nil(t, cfg.Redis)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfigFile(t, "maxConcurrency: 2\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 3, cfg.MaxConcurrent)
	assert.Contains(t, cfg.Profiles, "getDocument")
	assert.Contains(t, cfg.Profiles, "login")
}

func TestDefaultProfilesMatchPublishedLimits(t *testing.T) {
	profiles := DefaultProfiles()
	assert.Equal(t, quotas.Profile{RequestsPerMinute: 125, MinInterval: 480 * time.Millisecond}, profiles["getDocumentDetails"])
	assert.Equal(t, quotas.Profile{RequestsPerMinute: 300, MinInterval: 200 * time.Millisecond}, profiles["getSubmission"])
	assert.Equal(t, quotas.Profile{RequestsPerMinute: 12, MinInterval: 5 * time.Second}, profiles["login"])
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "default is valid", mutate: func(*Config) {}},
		{
			name:    "negative requestsPerMinute",
			mutate:  func(c *Config) { c.Profiles["getDocument"] = quotas.Profile{RequestsPerMinute: -1} },
			wantErr: true,
		},
		{
			name:    "negative minInterval",
			mutate:  func(c *Config) { c.Profiles["getDocument"] = quotas.Profile{MinInterval: -time.Second} },
			wantErr: true,
		},
		{
			name:    "zero maxConcurrent",
			mutate:  func(c *Config) { c.MaxConcurrent = 0 },
			wantErr: true,
		},
		{
			name:    "mirror without dsn",
			mutate:  func(c *Config) { c.Mirror = &MirrorConfig{Table: "t"} },
			wantErr: true,
		},
		{
			name:    "redis without address",
			mutate:  func(c *Config) { c.Redis = &RedisConfig{DB: 1} },
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
