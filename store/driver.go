package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for database access, implemented for PostgreSQL
// (pgvector) and SQLite (application-layer similarity).
type Driver interface {
	GetDB() *sql.DB
	Migrate(ctx context.Context) error
	Close() error

	// CreateIndex registers a new vector index. It must not overwrite an
	// existing registration.
	CreateIndex(ctx context.Context, create *IndexConfig) (*IndexConfig, error)

	// GetIndex returns the registered index config, or nil if absent.
	GetIndex(ctx context.Context, name string) (*IndexConfig, error)

	// UpsertVectors inserts or overwrites records keyed by id within the
	// given namespace. There is no transactional guarantee across records.
	UpsertVectors(ctx context.Context, index string, namespace Namespace, records []*VectorRecord) error

	// VectorSearch returns up to Limit matches ranked by descending
	// similarity. Equal scores are ordered by ascending record id.
	VectorSearch(ctx context.Context, index string, opts *VectorSearchOptions) ([]*VectorMatch, error)

	// CountVectors returns the number of records in a namespace.
	CountVectors(ctx context.Context, index string, namespace Namespace) (int64, error)
}
