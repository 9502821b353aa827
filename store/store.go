// Package store provides the durable, similarity-searchable vector index.
// An index is a named collection of fixed-dimension vectors partitioned
// into namespaces that are queried independently.
package store

import (
	"context"

	"github.com/pkg/errors"

	"github.com/hrygo/paperseek/internal/profile"
)

// Store provides database access to the vector index.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

func (s *Store) Close() error {
	return s.driver.Close()
}

// EnsureIndex returns the index named by cfg, creating it if absent. It is
// idempotent; ensuring an existing index with a conflicting dimension or
// metric fails with ErrIndexConfigMismatch.
func (s *Store) EnsureIndex(ctx context.Context, cfg *IndexConfig) (*IndexConfig, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.driver.GetIndex(ctx, cfg.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Dimension != cfg.Dimension || existing.Metric != cfg.Metric {
			return nil, errors.Wrapf(ErrIndexConfigMismatch,
				"index %q has dimension=%d metric=%s, requested dimension=%d metric=%s",
				cfg.Name, existing.Dimension, existing.Metric, cfg.Dimension, cfg.Metric)
		}
		return existing, nil
	}

	return s.driver.CreateIndex(ctx, cfg)
}

// UpsertVectors inserts or overwrites each record keyed by id within the
// given namespace. Partial application is possible on failure.
func (s *Store) UpsertVectors(ctx context.Context, index string, namespace Namespace, records []*VectorRecord) error {
	if !namespace.IsValid() {
		return errors.Errorf("invalid namespace: %q", namespace)
	}
	if len(records) == 0 {
		return nil
	}

	cfg, err := s.driver.GetIndex(ctx, index)
	if err != nil {
		return err
	}
	if cfg == nil {
		return errors.Wrapf(ErrIndexNotFound, "index %q", index)
	}

	for _, record := range records {
		if record.ID == "" {
			return errors.New("record id cannot be empty")
		}
		if len(record.Embedding) != cfg.Dimension {
			return errors.Errorf("record %q has dimension %d, index %q requires %d",
				record.ID, len(record.Embedding), index, cfg.Dimension)
		}
	}

	return s.driver.UpsertVectors(ctx, index, namespace, records)
}

// VectorSearch performs a top-k similarity search against one namespace.
// Searching an ensured index whose namespace holds no records returns an
// empty result; searching an index that was never ensured fails with
// ErrIndexNotFound.
func (s *Store) VectorSearch(ctx context.Context, index string, opts *VectorSearchOptions) ([]*VectorMatch, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	cfg, err := s.driver.GetIndex(ctx, index)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, errors.Wrapf(ErrIndexNotFound, "index %q", index)
	}
	if len(opts.Vector) != cfg.Dimension {
		return nil, errors.Errorf("query vector has dimension %d, index %q requires %d",
			len(opts.Vector), index, cfg.Dimension)
	}

	return s.driver.VectorSearch(ctx, index, opts)
}

// CountVectors returns the number of records in a namespace.
func (s *Store) CountVectors(ctx context.Context, index string, namespace Namespace) (int64, error) {
	if !namespace.IsValid() {
		return 0, errors.Errorf("invalid namespace: %q", namespace)
	}
	return s.driver.CountVectors(ctx, index, namespace)
}
