package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"math"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/paperseek/store"
)

// float32ArrayToBLOB converts a []float32 to a little-endian BLOB.
func float32ArrayToBLOB(vec []float32) []byte {
	buf := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], math.Float32bits(v))
	}
	return buf
}

// blobToFloat32Array converts a BLOB back to a float32 array.
// This is the inverse of float32ArrayToBLOB.
func blobToFloat32Array(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, errors.Errorf("invalid BLOB length: %d", len(blob))
	}
	vec := make([]float32, len(blob)/4)
	for i := range vec {
		bits := binary.LittleEndian.Uint32(blob[i*4 : i*4+4])
		vec[i] = math.Float32frombits(bits)
	}
	return vec, nil
}

// cosineSimilarity computes the cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// CreateIndex registers a new vector index.
func (d *DB) CreateIndex(ctx context.Context, create *store.IndexConfig) (*store.IndexConfig, error) {
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}

	stmt := `INSERT INTO vector_index (name, dimension, metric, created_ts)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (name) DO NOTHING`
	if _, err := d.db.ExecContext(ctx, stmt, create.Name, create.Dimension, create.Metric, create.CreatedTs); err != nil {
		return nil, errors.Wrap(err, "failed to create vector index")
	}

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
	stmt := `SELECT name, dimension, metric, created_ts FROM vector_index WHERE name = ?`

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
	stmt := `INSERT INTO vector_record (index_name, namespace, id, embedding, metadata, created_ts, updated_ts)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (index_name, namespace, id) DO UPDATE SET
			embedding = excluded.embedding,
			metadata = excluded.metadata,
			updated_ts = excluded.updated_ts`

	now := time.Now().Unix()
	for _, record := range records {
		if record.CreatedTs == 0 {
			record.CreatedTs = now
		}
		record.UpdatedTs = now

		var metadata any
		if len(record.Metadata) > 0 {
			buf, err := json.Marshal(record.Metadata)
			if err != nil {
				return errors.Wrap(err, "failed to marshal metadata")
			}
			metadata = string(buf)
		}

		if _, err := d.db.ExecContext(ctx, stmt,
			index,
			string(namespace),
			record.ID,
			float32ArrayToBLOB(record.Embedding),
			metadata,
			record.CreatedTs,
			record.UpdatedTs,
		); err != nil {
			return errors.Wrapf(err, "failed to upsert vector record %q", record.ID)
		}
	}
	return nil
}

// VectorSearch performs top-k similarity search with Go-based cosine
// similarity (application layer). The whole namespace is scanned; equal
// scores are ordered by ascending record id.
func (d *DB) VectorSearch(ctx context.Context, index string, opts *store.VectorSearchOptions) ([]*store.VectorMatch, error) {
	stmt := `SELECT id, embedding, metadata FROM vector_record WHERE index_name = ? AND namespace = ?`

	rows, err := d.db.QueryContext(ctx, stmt, index, string(opts.Namespace))
	if err != nil {
		return nil, errors.Wrap(err, "failed to vector search")
	}
	defer rows.Close()

	matches := []*store.VectorMatch{}
	for rows.Next() {
		var id string
		var vectorBLOB []byte
		var metadata sql.NullString
		if err := rows.Scan(&id, &vectorBLOB, &metadata); err != nil {
			return nil, errors.Wrap(err, "failed to scan vector record")
		}

		embedding, err := blobToFloat32Array(vectorBLOB)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to decode embedding for record %q", id)
		}

		match := &store.VectorMatch{
			ID:    id,
			Score: cosineSimilarity(opts.Vector, embedding),
		}
		if metadata.Valid && metadata.String != "" {
			match.Metadata = map[string]string{}
			if err := json.Unmarshal([]byte(metadata.String), &match.Metadata); err != nil {
				return nil, errors.Wrapf(err, "failed to unmarshal metadata for record %q", id)
			}
		}
		matches = append(matches, match)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})

	if len(matches) > opts.Limit {
		matches = matches[:opts.Limit]
	}
	return matches, nil
}

// CountVectors returns the number of records in a namespace.
func (d *DB) CountVectors(ctx context.Context, index string, namespace store.Namespace) (int64, error) {
	stmt := `SELECT COUNT(*) FROM vector_record WHERE index_name = ? AND namespace = ?`

	var count int64
	if err := d.db.QueryRowContext(ctx, stmt, index, string(namespace)).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count vector records")
	}
	return count, nil
}
