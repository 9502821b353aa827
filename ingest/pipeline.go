// Package ingest streams research-paper metadata, filters it by category,
// computes vector representations, and upserts them into the vector index.
package ingest

import (
	"context"
	"hash/fnv"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/hrygo/paperseek/ai"
	"github.com/hrygo/paperseek/ai/summary"
	"github.com/hrygo/paperseek/store"
)

// Report accumulates the outcome of one ingestion run. A failure on one
// paper never aborts the run; it is recorded here instead.
type Report struct {
	RunID string

	mu        sync.Mutex
	Scanned   int
	Filtered  int
	Indexed   int
	Failed    int
	Malformed int
	FailedIDs []string
}

func newReport() *Report {
	return &Report{RunID: uuid.NewString()}
}

func (r *Report) indexed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Indexed++
}

func (r *Report) failed(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Failed++
	r.FailedIDs = append(r.FailedIDs, id)
}

// Config configures an ingestion Pipeline.
type Config struct {
	IndexName  string
	Dimensions int
	Categories []string // defaults to DefaultCategories
	Workers    int      // bounded worker pool size (default: 1, the sequential reference behavior)
	Limit      int      // stop after this many kept papers (0 = no limit)
}

// Pipeline transforms each qualifying paper into one or two vector records
// and upserts them.
type Pipeline struct {
	store      *store.Store
	embedding  ai.EmbeddingService
	summarizer summary.Summarizer // nil disables the summary namespace
	filter     *CategoryFilter
	metrics    *Metrics
	cfg        Config
}

// NewPipeline creates an ingestion pipeline. A nil summarizer disables the
// summary namespace; metrics may be nil.
func NewPipeline(st *store.Store, embedding ai.EmbeddingService, summarizer summary.Summarizer, metrics *Metrics, cfg Config) *Pipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if len(cfg.Categories) == 0 {
		cfg.Categories = DefaultCategories
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Pipeline{
		store:      st,
		embedding:  embedding,
		summarizer: summarizer,
		filter:     NewCategoryFilter(cfg.Categories),
		metrics:    metrics,
		cfg:        cfg,
	}
}

// Run streams the dataset from r and ingests it. It ensures the index
// exists, then processes papers on a bounded worker pool. Papers are
// sharded to workers by id so that re-occurrences of the same id are
// applied in stream order (last write wins).
//
// Run fails only on a dataset read error, an index configuration error, or
// context cancellation; per-paper failures are recorded in the Report.
func (p *Pipeline) Run(ctx context.Context, r io.Reader) (*Report, error) {
	report := newReport()

	if _, err := p.store.EnsureIndex(ctx, &store.IndexConfig{
		Name:      p.cfg.IndexName,
		Dimension: p.cfg.Dimensions,
		Metric:    store.MetricCosine,
	}); err != nil {
		return nil, errors.Wrap(err, "failed to ensure index")
	}

	slog.Info("ingestion started",
		"run_id", report.RunID,
		"index", p.cfg.IndexName,
		"workers", p.cfg.Workers,
		"summaries", p.summarizer != nil,
	)

	g, gctx := errgroup.WithContext(ctx)
	shards := make([]chan *Paper, p.cfg.Workers)
	for i := range shards {
		ch := make(chan *Paper, 1)
		shards[i] = ch
		g.Go(func() error {
			for paper := range ch {
				if gctx.Err() != nil {
					continue // drain remaining papers after cancellation
				}
				p.process(gctx, paper, report)
			}
			return nil
		})
	}

	scanner := NewScanner(r)
	kept := 0
	var scanErr error

scan:
	for {
		paper, err := scanner.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			if errors.Is(err, ErrMalformedRecord) {
				report.Malformed++
				p.metrics.recordsMalformed.Inc()
				slog.Warn("skipping malformed dataset record", "error", err)
				continue
			}
			scanErr = err
			break
		}

		report.Scanned++
		p.metrics.papersScanned.Inc()

		if !p.filter.Matches(paper.Categories) {
			report.Filtered++
			p.metrics.papersFiltered.Inc()
			continue
		}

		kept++
		select {
		case shards[shard(paper.ID, p.cfg.Workers)] <- paper:
		case <-gctx.Done():
			break scan
		}

		if p.cfg.Limit > 0 && kept >= p.cfg.Limit {
			slog.Info("ingestion limit reached", "limit", p.cfg.Limit)
			break
		}
	}

	for _, ch := range shards {
		close(ch)
	}
	if err := g.Wait(); err != nil {
		return report, err
	}
	if scanErr != nil {
		return report, scanErr
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}

	slog.Info("ingestion finished",
		"run_id", report.RunID,
		"scanned", report.Scanned,
		"filtered", report.Filtered,
		"indexed", report.Indexed,
		"failed", report.Failed,
		"malformed", report.Malformed,
	)
	return report, nil
}

// process ingests a single paper. Failures are logged and recorded; they
// never propagate so one bad paper cannot abort the run.
func (p *Pipeline) process(ctx context.Context, paper *Paper, report *Report) {
	vector, err := p.embedding.Embed(ctx, paper.MainText())
	if err != nil {
		slog.Warn("failed to embed paper", "id", paper.ID, "error", err)
		report.failed(paper.ID)
		p.metrics.papersFailed.Inc()
		return
	}

	record := &store.VectorRecord{ID: paper.ID, Embedding: vector}
	if err := p.store.UpsertVectors(ctx, p.cfg.IndexName, store.NamespaceMain, []*store.VectorRecord{record}); err != nil {
		slog.Warn("failed to upsert paper vector", "id", paper.ID, "error", err)
		report.failed(paper.ID)
		p.metrics.papersFailed.Inc()
		return
	}
	p.metrics.vectorsUpserted.WithLabelValues(string(store.NamespaceMain)).Inc()

	if p.summarizer != nil {
		if err := p.processSummary(ctx, paper); err != nil {
			// The main vector is already indexed; the paper is still
			// searchable, so record the partial failure and move on.
			slog.Warn("failed to ingest paper summary", "id", paper.ID, "error", err)
			report.failed(paper.ID)
			p.metrics.papersFailed.Inc()
			return
		}
		p.metrics.vectorsUpserted.WithLabelValues(string(store.NamespaceSummary)).Inc()
	}

	report.indexed()
	p.metrics.papersIndexed.Inc()
}

func (p *Pipeline) processSummary(ctx context.Context, paper *Paper) error {
	condensed, err := p.summarizer.Summarize(ctx, normalize(paper.Abstract))
	if err != nil {
		return err
	}

	vector, err := p.embedding.Embed(ctx, condensed)
	if err != nil {
		return err
	}

	// The summary text rides along as metadata so search results can show
	// why a paper matched.
	record := &store.VectorRecord{
		ID:        paper.ID,
		Embedding: vector,
		Metadata:  map[string]string{"summary": condensed},
	}
	return p.store.UpsertVectors(ctx, p.cfg.IndexName, store.NamespaceSummary, []*store.VectorRecord{record})
}

// shard maps a paper id to a worker so duplicate ids always land on the
// same worker and keep their stream order.
func shard(id string, workers int) int {
	if workers <= 1 {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return int(h.Sum32() % uint32(workers))
}
