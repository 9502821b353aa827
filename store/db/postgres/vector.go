package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/hrygo/paperseek/store"
)

// CreateIndex registers a new vector index.
func (d *DB) CreateIndex(ctx context.Context, create *store.IndexConfig) (*store.IndexConfig, error) {
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}

	stmt := `
		INSERT INTO vector_index (name, dimension, metric, created_ts)
		VALUES (` + placeholder(1) + `, ` + placeholder(2) + `, ` + placeholder(3) + `, ` + placeholder(4) + `)
		ON CONFLICT (name) DO NOTHING
	`
	if _, err := d.db.ExecContext(ctx, stmt, create.Name, create.Dimension, create.Metric, create.CreatedTs); err != nil {
		return nil, errors.Wrap(err, "failed to create vector index")
	}

	// Re-read so a concurrent creator's row wins over our in-memory copy.
	existing, err := d.GetIndex(ctx, create.Name)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, errors.Errorf("vector index %q missing after create", create.Name)
	}
	return existing, nil
}

// GetIndex returns the registered index config, or nil if absent.
func (d *DB) GetIndex(ctx context.Context, name string) (*store.IndexConfig, error) {
	stmt := `SELECT name, dimension, metric, created_ts FROM vector_index WHERE name = ` + placeholder(1)

	var cfg store.IndexConfig
	err := d.db.QueryRowContext(ctx, stmt, name).Scan(&cfg.Name, &cfg.Dimension, &cfg.Metric, &cfg.CreatedTs)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get vector index")
	}
	return &cfg, nil
}

// UpsertVectors inserts or overwrites records keyed by id within a namespace.
func (d *DB) UpsertVectors(ctx context.Context, index string, namespace store.Namespace, records []*store.VectorRecord) error {
	stmt := `
		INSERT INTO vector_record (index_name, namespace, id, embedding, metadata, created_ts, updated_ts)
		VALUES (` + placeholder(1) + `, ` + placeholder(2) + `, ` + placeholder(3) + `, ` + placeholder(4) + `, ` + placeholder(5) + `, ` + placeholder(6) + `, ` + placeholder(7) + `)
		ON CONFLICT (index_name, namespace, id)
		DO UPDATE SET
			embedding = EXCLUDED.embedding,
			metadata = EXCLUDED.metadata,
			updated_ts = EXCLUDED.updated_ts
	`

	now := time.Now().Unix()
	for _, record := range records {
		if record.CreatedTs == 0 {
			record.CreatedTs = now
		}
		record.UpdatedTs = now

		metadata, err := marshalMetadata(record.Metadata)
		if err != nil {
			return err
		}

		vector := pgvector.NewVector(record.Embedding)
		if _, err := d.db.ExecContext(ctx, stmt,
			index,
			string(namespace),
			record.ID,
			vector,
			metadata,
			record.CreatedTs,
			record.UpdatedTs,
		); err != nil {
			return errors.Wrapf(err, "failed to upsert vector record %q", record.ID)
		}
	}
	return nil
}

// VectorSearch performs top-k similarity search using pgvector.
// The <=> operator computes cosine distance (1 - cosine_similarity), so
// ordering by distance ascending returns most similar first. Ties are
// broken by ascending record id.
func (d *DB) VectorSearch(ctx context.Context, index string, opts *store.VectorSearchOptions) ([]*store.VectorMatch, error) {
	stmt := `
		SELECT id, 1 - (embedding <=> ` + placeholder(1) + `) AS score, metadata
		FROM vector_record
		WHERE index_name = ` + placeholder(2) + ` AND namespace = ` + placeholder(3) + `
		ORDER BY embedding <=> ` + placeholder(4) + `, id
		LIMIT ` + placeholder(5)

	vector := pgvector.NewVector(opts.Vector)
	rows, err := d.db.QueryContext(ctx, stmt, vector, index, string(opts.Namespace), vector, opts.Limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to vector search")
	}
	defer rows.Close()

	matches := []*store.VectorMatch{}
	for rows.Next() {
		var match store.VectorMatch
		var metadata []byte
		if err := rows.Scan(&match.ID, &match.Score, &metadata); err != nil {
			return nil, errors.Wrap(err, "failed to scan vector search result")
		}
		match.Metadata, err = unmarshalMetadata(metadata)
		if err != nil {
			return nil, err
		}
		matches = append(matches, &match)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return matches, nil
}

// CountVectors returns the number of records in a namespace.
func (d *DB) CountVectors(ctx context.Context, index string, namespace store.Namespace) (int64, error) {
	stmt := `SELECT COUNT(*) FROM vector_record WHERE index_name = ` + placeholder(1) + ` AND namespace = ` + placeholder(2)

	var count int64
	if err := d.db.QueryRowContext(ctx, stmt, index, string(namespace)).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count vector records")
	}
	return count, nil
}

func marshalMetadata(metadata map[string]string) ([]byte, error) {
	if len(metadata) == 0 {
		return nil, nil
	}
	buf, err := json.Marshal(metadata)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal metadata")
	}
	return buf, nil
}

func unmarshalMetadata(buf []byte) (map[string]string, error) {
	if len(buf) == 0 {
		return nil, nil
	}
	metadata := map[string]string{}
	if err := json.Unmarshal(buf, &metadata); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal metadata")
	}
	return metadata, nil
}
