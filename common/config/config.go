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

// Package config holds the configuration surface of the request governance
// layer and its yaml loader.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/myinvois/governor/common"
	"github.com/myinvois/governor/common/quotas"
)

type (
	// Config is the injected configuration for a governor instance.
	// There is deliberately no process-wide default instance: callers
	// construct one (or load it from yaml) and hand it to the service.
	Config struct {
		// Profiles maps operation name to its admission profile.
		// Operations absent from the table are admitted without limit.
		Profiles map[string]quotas.Profile `yaml:"profiles"`

		// MaxConcurrent bounds simultaneously in-flight operations.
		MaxConcurrent int `yaml:"maxConcurrent"`

		// RefreshCooldowns maps a named refresh action to the minimum time
		// between two successful forced refreshes of that action.
		RefreshCooldowns map[string]time.Duration `yaml:"refreshCooldowns"`

		// CacheTTL bounds how long a last-known-good payload may be served
		// as a stale fallback.
		CacheTTL time.Duration `yaml:"cacheTTL"`

		// CacheMaxCount bounds the in-memory cache size. Zero means no bound.
		CacheMaxCount int `yaml:"cacheMaxCount"`

		// MaxRetries is the total number of attempts per operation,
		// including the first.
		MaxRetries int `yaml:"maxRetries"`

		// BaseDelay is the initial backoff delay; it doubles per attempt.
		BaseDelay time.Duration `yaml:"baseDelay"`

		// GuardStaleAfter is the safety-net ceiling on a single-flight hold,
		// covering a missed release. Zero disables it.
		GuardStaleAfter time.Duration `yaml:"guardStaleAfter"`

		// InteractiveTimeout is the overall per-request ceiling for
		// single-resource fetches when the request does not set its own.
		InteractiveTimeout time.Duration `yaml:"interactiveTimeout"`

		// BatchTimeout is the overall per-request ceiling for batch
		// operations when the request does not set its own.
		BatchTimeout time.Duration `yaml:"batchTimeout"`

		// Mirror optionally configures the degraded SQL fallback source.
		Mirror *MirrorConfig `yaml:"mirror"`

		// Redis optionally configures a shared cache backend replacing the
		// in-memory one.
		Redis *RedisConfig `yaml:"redis"`
	}

	// MirrorConfig points at the local database mirror used as the degraded
	// data source when the live path fails terminally.
	MirrorConfig struct {
		DSN   string `yaml:"dsn"`
		Table string `yaml:"table"`
	}

	// RedisConfig points at a redis instance for the shared fallback cache.
	RedisConfig struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	}
)

// Load reads and validates a Config from a yaml file, filling defaults for
// unset fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	cfg := &Config{}
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	cfg.FillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration matching the upstream API's published
// operation limits, with conservative local defaults.
func Default() *Config {
	cfg := &Config{}
	cfg.FillDefaults()
	return cfg
}

// FillDefaults populates any unset field with its default.
func (c *Config) FillDefaults() {
	if c.Profiles == nil {
		c.Profiles = DefaultProfiles()
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 3
	}
	if c.RefreshCooldowns == nil {
		c.RefreshCooldowns = map[string]time.Duration{}
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 15 * time.Minute
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = time.Second
	}
	if c.GuardStaleAfter < 0 {
		c.GuardStaleAfter = 0
	}
	if c.InteractiveTimeout <= 0 {
		c.InteractiveTimeout = common.DefaultInteractiveTimeout
	}
	if c.BatchTimeout <= 0 {
		c.BatchTimeout = common.DefaultBatchTimeout
	}
}

// Validate rejects configurations the governor cannot run with.
func (c *Config) Validate() error {
	for name, profile := range c.Profiles {
		if profile.RequestsPerMinute < 0 {
			return fmt.Errorf("profile %q: requestsPerMinute must not be negative", name)
		}
		if profile.MinInterval < 0 {
			return fmt.Errorf("profile %q: minInterval must not be negative", name)
		}
	}
	if c.MaxConcurrent <= 0 {
		return fmt.Errorf("maxConcurrent must be positive")
	}
	if c.Mirror != nil && c.Mirror.DSN == "" {
		return fmt.Errorf("mirror is configured without a dsn")
	}
	if c.Redis != nil && c.Redis.Address == "" {
		return fmt.Errorf("redis is configured without an address")
	}
	return nil
}

// DefaultProfiles is the admission table observed against the upstream API.
// Several operations keep a looser minimum interval than their per-minute
// budget implies, to absorb short bursts; both constraints are enforced
// independently.
func DefaultProfiles() map[string]quotas.Profile {
	return map[string]quotas.Profile{
		"getDocument":        {RequestsPerMinute: 60, MinInterval: 1000 * time.Millisecond},
		"getDocumentDetails": {RequestsPerMinute: 125, MinInterval: 480 * time.Millisecond},
		"getSubmission":      {RequestsPerMinute: 300, MinInterval: 200 * time.Millisecond},
		"searchDocuments":    {RequestsPerMinute: 12, MinInterval: 5000 * time.Millisecond},
		"getRecentDocuments": {RequestsPerMinute: 12, MinInterval: 5000 * time.Millisecond},
		"cancelDocument":     {RequestsPerMinute: 12, MinInterval: 5000 * time.Millisecond},
		"rejectDocument":     {RequestsPerMinute: 12, MinInterval: 5000 * time.Millisecond},
		"taxpayerQR":         {RequestsPerMinute: 60, MinInterval: 1000 * time.Millisecond},
		"searchTIN":          {RequestsPerMinute: 60, MinInterval: 1000 * time.Millisecond},
		"login":              {RequestsPerMinute: 12, MinInterval: 5000 * time.Millisecond},
	}
}
