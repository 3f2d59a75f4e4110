// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package relevance scores papers against a query by weighted token overlap.
package relevance

import (
	"github.com/NikkiXIV/sci-paper-finder/internal/textutil"
	"github.com/NikkiXIV/sci-paper-finder/pkg/types"
)

// Scorer computes a relevance score in [0,1]. Each distinct significant
// query token contributes TitleWeight when it appears in the title, else
// AbstractWeight when it appears in the abstract. The sum is divided by
// TitleWeight times the number of query tokens, so a query whose tokens all
// appear in the title scores exactly 1.
//
// Scorer has no state beyond its weights and is safe for concurrent use.
type Scorer struct {
	TitleWeight    float64
	AbstractWeight float64
}

// NewScorer returns a Scorer with the configured weights, falling back to
// 2 (title) and 1 (abstract) for non-positive values.
func NewScorer(cfg types.NLPConfig) Scorer {
	s := Scorer{TitleWeight: cfg.TitleWeight, AbstractWeight: cfg.AbstractWeight}
	if s.TitleWeight <= 0 {
		s.TitleWeight = types.DefaultTitleWeight
	}
	if s.AbstractWeight <= 0 {
		s.AbstractWeight = types.DefaultAbstractWeight
	}
	// An abstract match never outweighs a title match.
	if s.AbstractWeight > s.TitleWeight {
		s.AbstractWeight = s.TitleWeight
	}
	return s
}

// Score returns the relevance of paper to query. An empty query, or one made
// only of stopwords, scores 0.
func (s Scorer) Score(paper types.Paper, query string) float64 {
	queryTerms := textutil.UniqueTerms(query)
	if len(queryTerms) == 0 || s.TitleWeight <= 0 {
		return 0
	}

	title := textutil.TermSet(paper.Title)
	abstract := textutil.TermSet(paper.Abstract)

	var sum float64
	for _, term := range queryTerms {
		if _, ok := title[term]; ok {
			sum += s.TitleWeight
			continue
		}
		if _, ok := abstract[term]; ok {
			sum += s.AbstractWeight
		}
	}

	score := sum / (s.TitleWeight * float64(len(queryTerms)))
	switch {
	case score < 0:
		return 0
	case score > 1:
		return 1
	}
	return score
}
