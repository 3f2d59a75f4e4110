// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data structures of the paper finder:
// the raw and canonical paper records, the search request and result, and
// the configuration injected into the aggregator.
package types

import (
	"fmt"
	"strings"
	"time"
)

// Source identifies one of the supported academic databases. The set is
// closed; AllSources lists every member in a fixed order.
type Source string

const (
	SourceArxiv  Source = "arxiv"
	SourcePubMed Source = "pubmed"
)

// AllSources returns every supported source in dispatch order.
func AllSources() []Source {
	return []Source{SourceArxiv, SourcePubMed}
}

// ParseSource converts a user-supplied name into a Source.
func ParseSource(name string) (Source, error) {
	s := Source(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range AllSources() {
		if s == known {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown source %q (supported: arxiv, pubmed)", name)
}

// RawPaper is a record as produced by a source adapter, before
// normalization. It is owned by the adapter call that produced it.
type RawPaper struct {
	Title    string
	Authors  []string
	Abstract string
	URL      string
	Source   Source

	// ExternalID is the source-local identifier (arXiv ID or PMID).
	ExternalID string

	// Published is the publication or preprint date, zero when unknown.
	Published time.Time

	DOI        string
	Categories []string
}

// Paper is the canonical record handed to callers and persisted as JSON.
// URL is the identity key for deduplication across sources.
type Paper struct {
	// Title is the whitespace-normalized paper title.
	Title string `json:"title" yaml:"title"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Abstract is the paper abstract; may be empty.
	Abstract string `json:"abstract" yaml:"abstract"`

	// URL is the landing page of the paper at its source.
	URL string `json:"url" yaml:"url"`

	// Source identifies the backend that returned this record.
	Source Source `json:"source" yaml:"source"`

	// Summary is the extractive summary of Abstract. Empty until summarized,
	// and empty for papers without an abstract.
	Summary string `json:"summary" yaml:"summary"`

	// RelevanceScore lies in [0,1].
	RelevanceScore float64 `json:"relevance_score" yaml:"relevance_score"`

	ExternalID string     `json:"external_id,omitempty" yaml:"external_id,omitempty"`
	Published  *time.Time `json:"published,omitempty" yaml:"published,omitempty"`

	// DOI is the Digital Object Identifier when the source reports one.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// Keywords are the most frequent significant words of the abstract.
	Keywords []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`

	// Categories are the arXiv subject classes, e.g. "cs.LG".
	Categories []string `json:"categories,omitempty" yaml:"categories,omitempty"`
}
