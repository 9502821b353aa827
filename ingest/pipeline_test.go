package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/paperseek/internal/profile"
	"github.com/hrygo/paperseek/store"
	"github.com/hrygo/paperseek/store/db/sqlite"
)

// fakeEmbedder returns preassigned vectors per text and fails on demand.
type fakeEmbedder struct {
	dims    int
	vectors map[string][]float32
	failOn  string // fail any text containing this substring
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if f.failOn != "" && strings.Contains(text, f.failOn) {
		return nil, errors.New("embedding service unavailable")
	}
	if vec, ok := f.vectors[text]; ok {
		return vec, nil
	}
	vec := make([]float32, f.dims)
	vec[0] = 1
	return vec, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := f.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = vec
	}
	return vectors, nil
}

func (f *fakeEmbedder) Dimensions() int { return f.dims }

type fakeSummarizer struct {
	err error
}

func (f *fakeSummarizer) Summarize(_ context.Context, abstract string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "summary of: " + abstract, nil
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	driver, err := sqlite.NewDB(&profile.Profile{DSN: ":memory:", Driver: "sqlite"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = driver.Close() })

	require.NoError(t, driver.Migrate(context.Background()))
	return store.New(driver, nil)
}

const testDataset = `{"id":"2101.00001","categories":"cs.AI cs.CV","title":"Deep Nets","abstract":"About deep nets."}
{"id":"2101.00002","categories":"math.CO","title":"Graphs","abstract":"About graphs."}
{broken json
{"id":"2101.00003","categories":"cs.LG","title":"Kernels","abstract":"About kernels."}
`

func TestPipelineRun(t *testing.T) {
	st := newTestStore(t)
	embedder := &fakeEmbedder{dims: 3}
	pipeline := NewPipeline(st, embedder, nil, nil, Config{IndexName: "papers", Dimensions: 3})

	report, err := pipeline.Run(context.Background(), strings.NewReader(testDataset))

	require.NoError(t, err)
	assert.Equal(t, 3, report.Scanned)
	assert.Equal(t, 1, report.Filtered)
	assert.Equal(t, 1, report.Malformed)
	assert.Equal(t, 2, report.Indexed)
	assert.Equal(t, 0, report.Failed)
	assert.NotEmpty(t, report.RunID)

	count, err := st.CountVectors(context.Background(), "papers", store.NamespaceMain)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// No summarizer configured: the summary namespace stays empty.
	count, err = st.CountVectors(context.Background(), "papers", store.NamespaceSummary)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestPipelineIsolatesPerPaperFailures(t *testing.T) {
	st := newTestStore(t)
	embedder := &fakeEmbedder{dims: 3, failOn: "Deep Nets"}
	pipeline := NewPipeline(st, embedder, nil, nil, Config{IndexName: "papers", Dimensions: 3})

	report, err := pipeline.Run(context.Background(), strings.NewReader(testDataset))

	require.NoError(t, err)
	assert.Equal(t, 1, report.Indexed)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, []string{"2101.00001"}, report.FailedIDs)

	count, err := st.CountVectors(context.Background(), "papers", store.NamespaceMain)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestPipelineDuplicateIDLastWriteWins(t *testing.T) {
	st := newTestStore(t)
	first := []float32{1, 0, 0}
	second := []float32{0, 1, 0}
	embedder := &fakeEmbedder{dims: 3, vectors: map[string][]float32{
		"Deep Nets v1.": first,
		"Deep Nets v2.": second,
	}}
	pipeline := NewPipeline(st, embedder, nil, nil, Config{IndexName: "papers", Dimensions: 3, Workers: 4})

	dataset := `{"id":"dup","categories":"cs.AI","title":"","abstract":"Deep Nets v1."}
{"id":"dup","categories":"cs.AI","title":"","abstract":"Deep Nets v2."}
`
	report, err := pipeline.Run(context.Background(), strings.NewReader(dataset))

	require.NoError(t, err)
	assert.Equal(t, 2, report.Indexed)

	count, err := st.CountVectors(context.Background(), "papers", store.NamespaceMain)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	matches, err := st.VectorSearch(context.Background(), "papers", &store.VectorSearchOptions{
		Namespace: store.NamespaceMain,
		Vector:    second,
		Limit:     1,
	})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-4)
}

func TestPipelineSummaries(t *testing.T) {
	st := newTestStore(t)
	embedder := &fakeEmbedder{dims: 3}
	pipeline := NewPipeline(st, embedder, &fakeSummarizer{}, nil, Config{IndexName: "papers", Dimensions: 3})

	dataset := `{"id":"p1","categories":"cs.AI","title":"Deep Nets","abstract":"About deep nets."}
`
	report, err := pipeline.Run(context.Background(), strings.NewReader(dataset))

	require.NoError(t, err)
	assert.Equal(t, 1, report.Indexed)

	matches, err := st.VectorSearch(context.Background(), "papers", &store.VectorSearchOptions{
		Namespace: store.NamespaceSummary,
		Vector:    []float32{1, 0, 0},
		Limit:     1,
	})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "p1", matches[0].ID)
	assert.Equal(t, "summary of: About deep nets.", matches[0].Metadata["summary"])
}

func TestPipelineSummaryFailureKeepsMainVector(t *testing.T) {
	st := newTestStore(t)
	embedder := &fakeEmbedder{dims: 3}
	pipeline := NewPipeline(st, embedder, &fakeSummarizer{err: errors.New("llm down")}, nil, Config{IndexName: "papers", Dimensions: 3})

	dataset := `{"id":"p1","categories":"cs.AI","title":"Deep Nets","abstract":"About deep nets."}
`
	report, err := pipeline.Run(context.Background(), strings.NewReader(dataset))

	require.NoError(t, err)
	assert.Equal(t, 0, report.Indexed)
	assert.Equal(t, 1, report.Failed)

	// The paper is still searchable through the main namespace.
	count, err := st.CountVectors(context.Background(), "papers", store.NamespaceMain)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestPipelineLimit(t *testing.T) {
	st := newTestStore(t)
	embedder := &fakeEmbedder{dims: 3}
	pipeline := NewPipeline(st, embedder, nil, nil, Config{IndexName: "papers", Dimensions: 3, Limit: 1})

	report, err := pipeline.Run(context.Background(), strings.NewReader(testDataset))

	require.NoError(t, err)
	assert.Equal(t, 1, report.Indexed)
}

func TestPipelineIndexConfigMismatch(t *testing.T) {
	st := newTestStore(t)
	_, err := st.EnsureIndex(context.Background(), &store.IndexConfig{Name: "papers", Dimension: 8, Metric: store.MetricCosine})
	require.NoError(t, err)

	embedder := &fakeEmbedder{dims: 3}
	pipeline := NewPipeline(st, embedder, nil, nil, Config{IndexName: "papers", Dimensions: 3})

	_, err = pipeline.Run(context.Background(), strings.NewReader(testDataset))

	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrIndexConfigMismatch))
}

func TestShardStable(t *testing.T) {
	assert.Equal(t, shard("2101.00001", 4), shard("2101.00001", 4))
	assert.Equal(t, 0, shard("anything", 1))
}
