// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package aggregate

import (
	"time"

	"github.com/NikkiXIV/sci-paper-finder/internal/retry"
	"github.com/NikkiXIV/sci-paper-finder/pkg/types"
)

// Observer receives events from a running search. SourceStarted and
// AttemptFailed are called from per-source goroutines, so implementations
// must be safe for concurrent use and must not block.
type Observer interface {
	SourceStarted(src types.Source)
	AttemptFailed(attempt retry.Attempt)
	SourceSucceeded(src types.Source, papers, attempts int, elapsed time.Duration)
	SourceFailed(failure types.SourceFailure, elapsed time.Duration)
	SearchCompleted(req types.SearchRequest, result types.SearchResult, elapsed time.Duration)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) SourceStarted(types.Source) {}
func (NopObserver) AttemptFailed(retry.Attempt) {}
func (NopObserver) SourceSucceeded(types.Source, int, int, time.Duration) {}
func (NopObserver) SourceFailed(types.SourceFailure, time.Duration) {}
func (NopObserver) SearchCompleted(types.SearchRequest, types.SearchResult, time.Duration) {}

// MultiObserver forwards every event to each of its members in order.
type MultiObserver []Observer

func (m MultiObserver) SourceStarted(src types.Source) {
	for _, o := range m {
		o.SourceStarted(src)
	}
}

func (m MultiObserver) AttemptFailed(attempt retry.Attempt) {
	for _, o := range m {
		o.AttemptFailed(attempt)
	}
}

func (m MultiObserver) SourceSucceeded(src types.Source, papers, attempts int, elapsed time.Duration) {
	for _, o := range m {
		o.SourceSucceeded(src, papers, attempts, elapsed)
	}
}

func (m MultiObserver) SourceFailed(failure types.SourceFailure, elapsed time.Duration) {
	for _, o := range m {
		o.SourceFailed(failure, elapsed)
	}
}

func (m MultiObserver) SearchCompleted(req types.SearchRequest, result types.SearchResult, elapsed time.Duration) {
	for _, o := range m {
		o.SearchCompleted(req, result, elapsed)
	}
}
