// Package search answers free-text queries against the vector index. It is
// shared by the HTTP server and the query CLI command.
package search

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/paperseek/ai"
	"github.com/hrygo/paperseek/store"
)

// Result is one ranked paper returned by a search.
type Result struct {
	ID      string  `json:"id"`
	Score   float64 `json:"score"`
	Summary string  `json:"summary,omitempty"`
}

// Options tunes a single search. Zero values fall back to the service
// defaults (main namespace, configured top-k).
type Options struct {
	Namespace store.Namespace
	TopK      int
}

// Service embeds a query and ranks papers by vector similarity.
type Service struct {
	store     *store.Store
	embedding ai.EmbeddingService
	indexName string
	topK      int
}

// NewService creates a search service. topK is the default result count
// when a request does not specify its own.
func NewService(st *store.Store, embedding ai.EmbeddingService, indexName string, topK int) *Service {
	if topK <= 0 {
		topK = 5
	}
	return &Service{
		store:     st,
		embedding: embedding,
		indexName: indexName,
		topK:      topK,
	}
}

// Search embeds the query text and returns the most similar papers in
// descending score order. An embedding failure is returned as an error;
// it is never silently collapsed into an empty result.
func (s *Service) Search(ctx context.Context, query string, opts *Options) ([]*Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query cannot be empty")
	}

	if opts == nil {
		opts = &Options{}
	}
	namespace := opts.Namespace
	if namespace == "" {
		namespace = store.NamespaceMain
	}
	topK := opts.TopK
	if topK <= 0 {
		topK = s.topK
	}

	vector, err := s.embedding.Embed(ctx, query)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to embed query")
	}

	matches, err := s.store.VectorSearch(ctx, s.indexName, &store.VectorSearchOptions{
		Namespace: namespace,
		Vector:    vector,
		Limit:     topK,
	})
	if err != nil {
		return nil, errors.WithMessage(err, "vector search failed")
	}

	results := make([]*Result, len(matches))
	for i, match := range matches {
		results[i] = &Result{
			ID:      match.ID,
			Score:   float64(match.Score),
			Summary: match.Metadata["summary"],
		}
	}
	return results, nil
}

// IDs extracts just the paper ids from a result list, preserving order.
func IDs(results []*Result) []string {
	ids := make([]string, len(results))
	for i, result := range results {
		ids[i] = result.ID
	}
	return ids
}
