// Package metrics provides Prometheus metrics for jidai.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LocatedDocuments counts references returned per locator.
	LocatedDocuments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jidai",
			Name:      "located_documents_total",
			Help:      "Document references returned by source locators",
		},
		[]string{"locator"},
	)

	// UpstreamFailures counts degraded upstream calls (search, feeds, fetch).
	UpstreamFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jidai",
			Name:      "upstream_failures_total",
			Help:      "Upstream service failures degraded to empty results",
		},
		[]string{"service"},
	)

	// ExtractionFailures counts documents skipped because extraction failed.
	ExtractionFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jidai",
			Name:      "extraction_failures_total",
			Help:      "Documents skipped because text extraction failed",
		},
		[]string{"kind"},
	)

	// Generations counts context generations by outcome (generated, empty_text, no_inputs, error).
	Generations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jidai",
			Name:      "generations_total",
			Help:      "Historical context generations by outcome",
		},
		[]string{"outcome"},
	)

	// GenerationDuration measures backend call duration.
	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jidai",
			Name:      "generation_duration_seconds",
			Help:      "Duration of generative model calls in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"backend"},
	)

	// InterpretedEvents counts events produced per adapter.
	InterpretedEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jidai",
			Name:      "interpreted_events_total",
			Help:      "Interpreted events produced by the pipeline",
		},
		[]string{"flow"},
	)

	// Requests counts adapter requests by adapter and status.
	Requests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jidai",
			Name:      "requests_total",
			Help:      "Adapter requests by adapter and status",
		},
		[]string{"adapter", "status"},
	)

	// ArchivedDocuments tracks the number of documents in the local archive.
	ArchivedDocuments = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "jidai",
			Name:      "archived_documents",
			Help:      "Documents currently held in the local archive",
		},
	)
)

// RecordUpstreamFailure records a degraded upstream call.
func RecordUpstreamFailure(service string) {
	UpstreamFailures.WithLabelValues(service).Inc()
}

// RecordExtractionFailure records a skipped document.
func RecordExtractionFailure(kind string) {
	ExtractionFailures.WithLabelValues(kind).Inc()
}

// RecordGeneration records a generation outcome.
func RecordGeneration(outcome string) {
	Generations.WithLabelValues(outcome).Inc()
}

// RecordRequest records an adapter request.
func RecordRequest(adapter, status string) {
	Requests.WithLabelValues(adapter, status).Inc()
}
