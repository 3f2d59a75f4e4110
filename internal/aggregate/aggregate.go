// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package aggregate runs one search across every configured source
// concurrently and merges the results into a single ranked list.
//
// Each source call goes through the retry policy, so a failing source
// becomes a SourceFailure on the result instead of an error. Successful
// records are normalized, deduplicated by URL (first seen wins, in
// completion order), summarized, scored against the query, and sorted.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/NikkiXIV/sci-paper-finder/internal/relevance"
	"github.com/NikkiXIV/sci-paper-finder/internal/retry"
	"github.com/NikkiXIV/sci-paper-finder/internal/source"
	"github.com/NikkiXIV/sci-paper-finder/internal/summarize"
	"github.com/NikkiXIV/sci-paper-finder/pkg/types"
)

var (
	// ErrInvalidRequest is returned when the search request fails validation.
	ErrInvalidRequest = errors.New("invalid search request")

	// ErrNoSources is returned when the aggregator has no adapters.
	ErrNoSources = errors.New("no sources configured")
)

// Scorer rates how well a paper matches a query, in [0,1].
type Scorer interface {
	Score(paper types.Paper, query string) float64
}

// Summarizer condenses an abstract.
type Summarizer interface {
	Summarize(abstract string) string
}

// KeywordExtractor picks the keywords of an abstract.
type KeywordExtractor interface {
	Keywords(text string) []string
}

// Aggregator fans a search out to its adapters. It holds no per-search
// state and may run concurrent searches.
type Aggregator struct {
	adapters   []source.Adapter
	policy     retry.Policy
	scorer     Scorer
	summarizer Summarizer
	keywords   KeywordExtractor
	observer   Observer
	workers    int
}

// Option customizes an Aggregator.
type Option func(*Aggregator)

// WithObserver sets the receiver of search events.
func WithObserver(o Observer) Option {
	return func(a *Aggregator) {
		if o != nil {
			a.observer = o
		}
	}
}

// WithScorer replaces the configured relevance scorer.
func WithScorer(s Scorer) Option {
	return func(a *Aggregator) {
		if s != nil {
			a.scorer = s
		}
	}
}

// WithSummarizer replaces the configured summarizer.
func WithSummarizer(s Summarizer) Option {
	return func(a *Aggregator) {
		if s != nil {
			a.summarizer = s
		}
	}
}

// WithKeywordExtractor replaces the configured keyword extractor.
func WithKeywordExtractor(k KeywordExtractor) Option {
	return func(a *Aggregator) {
		if k != nil {
			a.keywords = k
		}
	}
}

// WithPolicy replaces the retry policy derived from cfg.Retry.
func WithPolicy(p retry.Policy) Option {
	return func(a *Aggregator) { a.policy = p }
}

// New returns an Aggregator over adapters. The retry policy, scorer,
// summarizer, keyword extractor and worker count come from cfg unless
// overridden by opts.
func New(cfg types.FinderConfig, adapters []source.Adapter, opts ...Option) *Aggregator {
	cfg = cfg.WithDefaults()
	nlp := summarize.Summarizer{
		Sentences:     cfg.NLP.SummarySentences,
		KeywordCount:  cfg.NLP.Keywords,
		MinWordLength: cfg.NLP.MinWordLength,
	}
	a := &Aggregator{
		adapters:   append([]source.Adapter(nil), adapters...),
		policy:     retry.NewPolicy(cfg.Retry),
		scorer:     relevance.NewScorer(cfg.NLP),
		summarizer: nlp,
		keywords:   nlp,
		observer:   NopObserver{},
		workers:    cfg.NLP.Workers,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.workers < 1 {
		a.workers = 1
	}
	return a
}

// Sources lists the sources this aggregator dispatches to.
func (a *Aggregator) Sources() []types.Source {
	out := make([]types.Source, len(a.adapters))
	for i, ad := range a.adapters {
		out[i] = ad.Source()
	}
	return out
}

// Aggregate runs req against every adapter and returns the ranked result.
//
// Source failures never produce an error: they are recorded in
// SearchResult.Failures and the remaining sources still contribute. When
// every source fails the result is empty and AllSourcesFailed reports
// true. The only errors are ErrInvalidRequest and ErrNoSources.
//
// Aggregate returns only after every source call has finished; cancelling
// ctx stops in-flight calls and pending backoffs.
func (a *Aggregator) Aggregate(ctx context.Context, req types.SearchRequest) (types.SearchResult, error) {
	if err := req.Validate(); err != nil {
		return types.SearchResult{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if len(a.adapters) == 0 {
		return types.SearchResult{}, ErrNoSources
	}

	start := time.Now()
	result := types.SearchResult{
		Papers:     []types.Paper{},
		Counts:     make(map[types.Source]int),
		Dispatched: len(a.adapters),
	}

	ch := make(chan retry.Outcome, len(a.adapters))
	var wg sync.WaitGroup
	for _, ad := range a.adapters {
		wg.Add(1)
		go func(ad source.Adapter) {
			defer wg.Done()
			a.observer.SourceStarted(ad.Source())
			ch <- a.policy.Run(ctx, ad, req.Query, req.MaxResultsPerSource, a.observer.AttemptFailed)
		}(ad)
	}

	// Single collector: outcomes are merged in the order sources finish.
	seen := make(map[string]struct{})
	for range len(a.adapters) {
		out := <-ch
		if !out.OK() {
			result.Failures = append(result.Failures, *out.Failure)
			a.observer.SourceFailed(*out.Failure, out.Elapsed)
			continue
		}

		result.Counts[out.Source] = len(out.Papers)
		a.observer.SourceSucceeded(out.Source, len(out.Papers), out.Attempts, out.Elapsed)

		for _, raw := range out.Papers {
			p, ok := normalize(raw, out.Source)
			if !ok {
				result.Skipped++
				continue
			}
			if _, dup := seen[p.URL]; dup {
				result.DuplicatesRemoved++
				continue
			}
			seen[p.URL] = struct{}{}
			result.Papers = append(result.Papers, p)
		}
	}
	wg.Wait()

	a.enrich(result.Papers, req.Query)
	sortPapers(result.Papers)
	sort.SliceStable(result.Failures, func(i, j int) bool {
		return result.Failures[i].Source < result.Failures[j].Source
	})

	a.observer.SearchCompleted(req, result, time.Since(start))
	return result, nil
}
