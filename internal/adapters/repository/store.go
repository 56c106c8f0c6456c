// Package repository stores ingested MLB data in an embedded DuckDB file and
// shapes it into per-season game tables.
package repository

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jmoiron/sqlx"
	_ "github.com/marcboeker/go-duckdb" // registers the duckdb driver
)

const driverName = "duckdb"

// Store is a DuckDB-backed repository. An empty path opens an in-memory
// database that lives until Close.
type Store struct {
	db       *sqlx.DB
	path     string
	readOnly bool
	threads  int
}

// Open connects to the database at path.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	s := &Store{path: path}
	for _, opt := range opts {
		opt(s)
	}

	if path != "" && !s.readOnly {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrOpen, err)
		}
	}

	db, err := sqlx.Open(driverName, s.dsn())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpen, path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrOpen, path, err)
	}
	s.db = db
	return s, nil
}

func (s *Store) dsn() string {
	q := url.Values{}
	if s.readOnly {
		q.Set("access_mode", "READ_ONLY")
	}
	if s.threads > 0 {
		q.Set("threads", strconv.Itoa(s.threads))
	}
	if len(q) == 0 {
		return s.path
	}
	return s.path + "?" + q.Encode()
}

// Path returns the database file path, empty for in-memory stores.
func (s *Store) Path() string { return s.path }

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) ready() error {
	if s == nil || s.db == nil {
		return ErrNotOpen
	}
	return nil
}

func (s *Store) writable() error {
	if err := s.ready(); err != nil {
		return err
	}
	if s.readOnly {
		return ErrReadOnly
	}
	return nil
}
