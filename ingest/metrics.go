package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes ingestion counters in Prometheus format.
type Metrics struct {
	papersScanned    prometheus.Counter
	papersFiltered   prometheus.Counter
	papersIndexed    prometheus.Counter
	papersFailed     prometheus.Counter
	recordsMalformed prometheus.Counter
	vectorsUpserted  *prometheus.CounterVec
}

// NewMetrics creates ingestion metrics registered on reg. A nil registerer
// leaves the metrics unregistered, which is convenient in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		papersScanned: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "paperseek",
			Subsystem: "ingest",
			Name:      "papers_scanned_total",
			Help:      "Total number of dataset records scanned",
		}),
		papersFiltered: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "paperseek",
			Subsystem: "ingest",
			Name:      "papers_filtered_total",
			Help:      "Records rejected by the category allow-list",
		}),
		papersIndexed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "paperseek",
			Subsystem: "ingest",
			Name:      "papers_indexed_total",
			Help:      "Papers fully processed and upserted",
		}),
		papersFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "paperseek",
			Subsystem: "ingest",
			Name:      "papers_failed_total",
			Help:      "Papers skipped after an embedding, summarization, or upsert failure",
		}),
		recordsMalformed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "paperseek",
			Subsystem: "ingest",
			Name:      "records_malformed_total",
			Help:      "Dataset lines that failed to parse",
		}),
		vectorsUpserted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "paperseek",
			Subsystem: "ingest",
			Name:      "vectors_upserted_total",
			Help:      "Vector records written, by namespace",
		}, []string{"namespace"}),
	}
}
