// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAllSourcesFailed marks a search in which no source produced results.
// The aggregator reports this condition through SearchResult.AllSourcesFailed;
// callers wrap this sentinel when they choose to treat it as an error.
var ErrAllSourcesFailed = errors.New("all sources failed")

// SearchRequest is the input to one aggregation run.
type SearchRequest struct {
	// Query is the free-text search query. Must be non-empty.
	Query string `json:"query" yaml:"query"`

	// MaxResultsPerSource caps the number of records fetched from each source.
	MaxResultsPerSource int `json:"max_results_per_source" yaml:"max_results_per_source"`
}

// Validate reports whether the request can be dispatched.
func (r SearchRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return fmt.Errorf("query is empty")
	}
	if r.MaxResultsPerSource <= 0 {
		return fmt.Errorf("max results per source must be positive, got %d", r.MaxResultsPerSource)
	}
	return nil
}

// ErrorKind classifies a source failure.
type ErrorKind string

const (
	// KindUnavailable is a transient network or transport fault. Retryable.
	KindUnavailable ErrorKind = "unavailable"

	// KindTimeout means an attempt exceeded its deadline. Retryable.
	KindTimeout ErrorKind = "timeout"

	// KindParse means the response did not have the expected shape. Not retried.
	KindParse ErrorKind = "parse"

	// KindCancelled means the caller cancelled the search while the source
	// was in flight.
	KindCancelled ErrorKind = "cancelled"
)

// Retryable reports whether a failure of this kind may succeed on retry.
func (k ErrorKind) Retryable() bool {
	return k == KindUnavailable || k == KindTimeout
}

// SourceFailure records why a source contributed no papers.
type SourceFailure struct {
	Source   Source    `json:"source" yaml:"source"`
	Kind     ErrorKind `json:"kind" yaml:"kind"`
	Message  string    `json:"message" yaml:"message"`
	Attempts int       `json:"attempts" yaml:"attempts"`
}

func (f SourceFailure) String() string {
	return fmt.Sprintf("%s: %s after %d attempt(s): %s", f.Source, f.Kind, f.Attempts, f.Message)
}

// SearchResult is the ranked output of one aggregation run. Papers are
// sorted by RelevanceScore descending, ties broken by Source then Title.
type SearchResult struct {
	Papers []Paper `json:"papers" yaml:"papers"`

	// Failures lists the sources that contributed nothing and why.
	Failures []SourceFailure `json:"failures,omitempty" yaml:"failures,omitempty"`

	// Counts maps each successful source to the number of raw records it returned.
	Counts map[Source]int `json:"counts,omitempty" yaml:"counts,omitempty"`

	// DuplicatesRemoved counts records dropped because their URL was already seen.
	DuplicatesRemoved int `json:"duplicates_removed" yaml:"duplicates_removed"`

	// Skipped counts raw records dropped during normalization (no title or URL).
	Skipped int `json:"skipped" yaml:"skipped"`

	// Dispatched is the number of sources queried.
	Dispatched int `json:"dispatched" yaml:"dispatched"`
}

// AllSourcesFailed reports whether every dispatched source failed.
func (r SearchResult) AllSourcesFailed() bool {
	return r.Dispatched > 0 && len(r.Failures) == r.Dispatched
}

// Failed reports whether src is among the failed sources.
func (r SearchResult) Failed(src Source) (SourceFailure, bool) {
	for _, f := range r.Failures {
		if f.Source == src {
			return f, true
		}
	}
	return SourceFailure{}, false
}
