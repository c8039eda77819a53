// Package metrics exposes Prometheus instrumentation for the parsing
// pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DocumentsProcessed counts parsed documents by kind and result.
	DocumentsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bidpack",
		Name:      "documents_processed_total",
		Help:      "Documents processed, labelled by kind and result.",
	}, []string{"kind", "result"})

	// BlocksParsed counts segmented blocks by kind and outcome.
	BlocksParsed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bidpack",
		Name:      "blocks_parsed_total",
		Help:      "Segmented blocks parsed, labelled by kind and outcome.",
	}, []string{"kind", "outcome"})

	// CoercionWarnings counts field coercion fallbacks by block kind.
	CoercionWarnings = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bidpack",
		Name:      "coercion_warnings_total",
		Help:      "Field values that failed to parse and fell back to a default.",
	}, []string{"kind"})

	// LowConfidenceLines counts pay period records flagged low confidence.
	LowConfidenceLines = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bidpack",
		Name:      "low_confidence_lines_total",
		Help:      "Pay period classifications flagged as low confidence.",
	})

	// ParseDuration observes end-to-end document parse time.
	ParseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "bidpack",
		Name:      "parse_duration_seconds",
		Help:      "Time taken to segment, parse and classify a document.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"kind"})

	// StorageErrors counts failed writes by backend.
	StorageErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bidpack",
		Name:      "storage_errors_total",
		Help:      "Failed storage writes, labelled by backend.",
	}, []string{"backend"})
)
