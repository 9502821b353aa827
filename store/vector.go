package store

import (
	"github.com/pkg/errors"
)

// Namespace partitions a vector index into independently queried
// populations. Records in different namespaces never mix in search results.
type Namespace string

const (
	// NamespaceMain holds embeddings of the raw title+abstract text.
	NamespaceMain Namespace = "main"
	// NamespaceSummary holds embeddings of LLM-condensed abstracts.
	NamespaceSummary Namespace = "summary"
)

// IsValid reports whether the namespace is one of the known partitions.
func (n Namespace) IsValid() bool {
	return n == NamespaceMain || n == NamespaceSummary
}

// MetricCosine is the only similarity metric the drivers implement.
const MetricCosine = "cosine"

// ErrIndexNotFound is returned when an index is queried before it was
// ever ensured. A populated index with an empty namespace is not an error;
// that search returns an empty result instead.
var ErrIndexNotFound = errors.New("vector index not found")

// ErrIndexConfigMismatch is returned by EnsureIndex when an existing
// index's dimension or metric conflicts with the requested parameters.
var ErrIndexConfigMismatch = errors.New("vector index configuration mismatch")

// IndexConfig describes a named vector index.
type IndexConfig struct {
	Name      string
	Dimension int
	Metric    string
	CreatedTs int64
}

// Validate validates the IndexConfig.
func (c *IndexConfig) Validate() error {
	if c.Name == "" {
		return errors.New("index name cannot be empty")
	}
	if c.Dimension <= 0 {
		return errors.Errorf("invalid dimension: %d", c.Dimension)
	}
	if c.Metric == "" {
		c.Metric = MetricCosine
	}
	if c.Metric != MetricCosine {
		return errors.Errorf("unsupported metric %q (only %q)", c.Metric, MetricCosine)
	}
	return nil
}

// VectorRecord is one embedded document within a namespace. Records are
// keyed by (index, namespace, id); re-upserting the same id overwrites the
// previous record wholesale.
type VectorRecord struct {
	ID        string
	Embedding []float32
	Metadata  map[string]string
	CreatedTs int64
	UpdatedTs int64
}

// VectorMatch is one similarity search result.
type VectorMatch struct {
	ID       string
	Score    float32 // similarity (0-1 for cosine, higher is more similar)
	Metadata map[string]string
}

// VectorSearchOptions represents the options for a top-k similarity search.
type VectorSearchOptions struct {
	Namespace Namespace
	Vector    []float32
	Limit     int
}

// Validate validates the VectorSearchOptions.
func (o *VectorSearchOptions) Validate() error {
	if !o.Namespace.IsValid() {
		return errors.Errorf("invalid namespace: %q", o.Namespace)
	}
	if len(o.Vector) == 0 {
		return errors.New("vector cannot be empty")
	}
	if o.Limit < 0 {
		return errors.Errorf("limit cannot be negative: %d", o.Limit)
	}
	if o.Limit == 0 {
		o.Limit = 5 // Default limit
	}
	if o.Limit > 1000 {
		return errors.Errorf("limit too large (max 1000): %d", o.Limit)
	}
	return nil
}
