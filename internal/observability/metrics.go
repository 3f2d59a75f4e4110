// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package observability

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/NikkiXIV/sci-paper-finder/internal/aggregate"
	"github.com/NikkiXIV/sci-paper-finder/internal/retry"
	"github.com/NikkiXIV/sci-paper-finder/pkg/types"
)

// Metrics holds the Prometheus collectors for search runs. Each Metrics
// owns its registry, so several instances can coexist in one process.
// A CLI run is short-lived; Push sends the values to a Pushgateway.
type Metrics struct {
	Registry *prometheus.Registry

	// SearchesTotal counts completed searches, labelled by outcome
	// (complete, partial, failed).
	SearchesTotal *prometheus.CounterVec

	// SearchDuration observes end-to-end search time in seconds.
	SearchDuration prometheus.Histogram

	// SourceRequests counts source calls, labelled by source.
	SourceRequests *prometheus.CounterVec

	// SourceFailures counts sources that contributed nothing, labelled by
	// source and error kind.
	SourceFailures *prometheus.CounterVec

	// SourceRetries counts failed attempts that were retried.
	SourceRetries *prometheus.CounterVec

	// SourceDuration observes per-source call time including retries.
	SourceDuration *prometheus.HistogramVec

	// PapersBySource counts raw records returned, labelled by source.
	PapersBySource *prometheus.CounterVec

	// PapersRanked observes the number of papers in each final result.
	PapersRanked prometheus.Histogram

	// DuplicatesRemoved counts records dropped by URL deduplication.
	DuplicatesRemoved prometheus.Counter
}

var _ aggregate.Observer = (*Metrics)(nil)

// NewMetrics creates and registers the collectors under namespace.
func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		SearchesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Total number of searches, by outcome",
		}, []string{"outcome"}),
		SearchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "End-to-end duration of searches in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}),
		SourceRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_requests_total",
			Help:      "Total number of source calls dispatched",
		}, []string{"source"}),
		SourceFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_failures_total",
			Help:      "Total number of failed source calls, by error kind",
		}, []string{"source", "kind"}),
		SourceRetries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_retries_total",
			Help:      "Total number of source attempts that were retried",
		}, []string{"source", "kind"}),
		SourceDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_duration_seconds",
			Help:      "Duration of source calls including retries, in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"source"}),
		PapersBySource: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_returned_total",
			Help:      "Total number of raw records returned, by source",
		}, []string{"source"}),
		PapersRanked: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "papers_ranked",
			Help:      "Number of papers in each ranked result",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		}),
		DuplicatesRemoved: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicates_removed_total",
			Help:      "Total number of records dropped as duplicate URLs",
		}),
	}
}

func (m *Metrics) SourceStarted(src types.Source) {
	m.SourceRequests.WithLabelValues(string(src)).Inc()
}

func (m *Metrics) AttemptFailed(a retry.Attempt) {
	if a.Backoff > 0 {
		m.SourceRetries.WithLabelValues(string(a.Source), string(a.Kind)).Inc()
	}
}

func (m *Metrics) SourceSucceeded(src types.Source, papers, _ int, elapsed time.Duration) {
	m.PapersBySource.WithLabelValues(string(src)).Add(float64(papers))
	m.SourceDuration.WithLabelValues(string(src)).Observe(elapsed.Seconds())
}

func (m *Metrics) SourceFailed(f types.SourceFailure, elapsed time.Duration) {
	m.SourceFailures.WithLabelValues(string(f.Source), string(f.Kind)).Inc()
	m.SourceDuration.WithLabelValues(string(f.Source)).Observe(elapsed.Seconds())
}

func (m *Metrics) SearchCompleted(_ types.SearchRequest, res types.SearchResult, elapsed time.Duration) {
	outcome := "complete"
	switch {
	case res.AllSourcesFailed():
		outcome = "failed"
	case len(res.Failures) > 0:
		outcome = "partial"
	}
	m.SearchesTotal.WithLabelValues(outcome).Inc()
	m.SearchDuration.Observe(elapsed.Seconds())
	m.PapersRanked.Observe(float64(len(res.Papers)))
	m.DuplicatesRemoved.Add(float64(res.DuplicatesRemoved))
}

// Push sends every collector to the Pushgateway at url under job,
// replacing the previous values for that job.
func (m *Metrics) Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(m.Registry).PushContext(ctx); err != nil {
		return fmt.Errorf("pushing metrics to %s: %w", url, err)
	}
	return nil
}
