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

// Package sqlmirror reads last-synced document payloads from a local
// postgres mirror of the upstream registry. It is the degraded stage of the
// governor's fallback chain: read once, no rate limiting, no retry.
package sqlmirror

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver

	"github.com/myinvois/governor/common/config"
	"github.com/myinvois/governor/common/log"
	"github.com/myinvois/governor/common/log/tag"
)

// ErrNotMirrored indicates the mirror has no row for the requested key.
var ErrNotMirrored = errors.New("resource not present in mirror")

type (
	// Source implements governor.DegradedSource over a mirror table with a
	// (resource_key, payload) schema.
	Source struct {
		db     *sqlx.DB
		table  string
		logger log.Logger
	}

	mirrorRow struct {
		Payload []byte `db:"payload"`
	}
)

// New opens the mirror database.
func New(cfg *config.MirrorConfig, logger log.Logger) (*Source, error) {
	db, err := sqlx.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open mirror database: %w", err)
	}
	return NewWithDB(db, cfg.Table, logger), nil
}

// NewWithDB wraps an existing connection, e.g. one shared with the rest of
// the application or a test double.
func NewWithDB(db *sqlx.DB, table string, logger log.Logger) *Source {
	if table == "" {
		table = "document_mirror"
	}
	return &Source{
		db:     db,
		table:  table,
		logger: logger,
	}
}

// Lookup returns the mirrored payload for key, or ErrNotMirrored.
func (s *Source) Lookup(ctx context.Context, key string) ([]byte, error) {
	query := fmt.Sprintf("SELECT payload FROM %s WHERE resource_key = $1", s.table)
	var row mirrorRow
	err := s.db.GetContext(ctx, &row, query, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotMirrored
	}
	if err != nil {
		s.logger.Warn("mirror lookup failed",
			tag.StoreOperation("lookup"),
			tag.ResourceKey(key),
			tag.Error(err))
		return nil, fmt.Errorf("mirror lookup: %w", err)
	}
	return row.Payload, nil
}

// Close closes the underlying database.
func (s *Source) Close() error {
	return s.db.Close()
}
