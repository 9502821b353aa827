package ai

import (
	"context"

	"golang.org/x/time/rate"
)

// rateLimitedEmbeddingService throttles embedding requests so bulk ingestion
// stays under the provider's requests-per-second quota.
type rateLimitedEmbeddingService struct {
	inner   EmbeddingService
	limiter *rate.Limiter
}

// NewRateLimitedEmbeddingService wraps an EmbeddingService with a token
// bucket limiter of rps requests per second. A non-positive rps returns the
// inner service unchanged.
func NewRateLimitedEmbeddingService(inner EmbeddingService, rps float64) EmbeddingService {
	if rps <= 0 {
		return inner
	}
	return &rateLimitedEmbeddingService{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

func (s *rateLimitedEmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return s.inner.Embed(ctx, text)
}

func (s *rateLimitedEmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return s.inner.EmbedBatch(ctx, texts)
}

func (s *rateLimitedEmbeddingService) Dimensions() int {
	return s.inner.Dimensions()
}
