// Package metrics exposes Prometheus instrumentation for the review pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WebhookRequests counts incoming webhooks, labeled by status.
	WebhookRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pr_review_webhook_requests_total",
		Help: "The total number of received webhook requests",
	}, []string{"status"}) // status: accepted, coalesced, ignored, invalid

	// ReviewRuns counts completed review runs, labeled by result.
	ReviewRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pr_review_runs_total",
		Help: "The total number of completed review runs",
	}, []string{"result"}) // result: succeeded, partial, failed

	// RunDuration measures the end-to-end time of a review run.
	RunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pr_review_run_duration_seconds",
		Help:    "Time taken to complete a review run",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})

	// AnalyzerCalls counts per-file model invocations.
	AnalyzerCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pr_review_analyzer_calls_total",
		Help: "The total number of analyzer model calls",
	}, []string{"status"}) // status: success, error, parse_failure
)
