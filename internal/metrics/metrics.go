// Package metrics registers and records the application's Prometheus
// metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	// Upload pipeline metrics
	uploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voicelog_uploads_total",
			Help: "Audio uploads by outcome",
		},
		[]string{"outcome"},
	)
	conversionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voicelog_conversions_total",
			Help: "MP3 conversions by outcome (converted, skipped, failed)",
		},
		[]string{"outcome"},
	)
	conversionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "voicelog_conversion_duration_seconds",
			Help:    "ffmpeg transcode wall time in seconds",
			Buckets: []float64{.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	// Enrichment metrics
	enrichmentCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voicelog_enrichment_calls_total",
			Help: "AI provider calls by provider, operation, and outcome",
		},
		[]string{"provider", "operation", "outcome"},
	)
	enrichmentCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "voicelog_enrichment_call_duration_seconds",
			Help:    "AI provider call latency in seconds",
			Buckets: []float64{.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"provider", "operation"},
	)
)

// ObserveHTTPRequest records one completed HTTP request.
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// CountUpload records an upload attempt ("accepted", "rejected", "failed").
func CountUpload(outcome string) {
	uploadsTotal.WithLabelValues(outcome).Inc()
}

// ObserveConversion records one transcode attempt.
func ObserveConversion(outcome string, duration time.Duration) {
	conversionsTotal.WithLabelValues(outcome).Inc()
	if outcome == "converted" {
		conversionDuration.Observe(duration.Seconds())
	}
}

// ObserveEnrichmentCall records one AI provider call.
func ObserveEnrichmentCall(provider, operation string, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	enrichmentCallsTotal.WithLabelValues(provider, operation, outcome).Inc()
	enrichmentCallDuration.WithLabelValues(provider, operation).Observe(duration.Seconds())
}
