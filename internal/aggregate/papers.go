// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package aggregate

import (
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/NikkiXIV/sci-paper-finder/pkg/types"
)

// normalize converts a raw record into a Paper. Records without a title or
// URL cannot be identified or displayed and are rejected.
func normalize(raw types.RawPaper, src types.Source) (types.Paper, bool) {
	p := types.Paper{
		Title:      collapseSpace(raw.Title),
		Abstract:   collapseSpace(raw.Abstract),
		URL:        strings.TrimSpace(raw.URL),
		Source:     raw.Source,
		ExternalID: strings.TrimSpace(raw.ExternalID),
		DOI:        strings.TrimSpace(raw.DOI),
		Authors:    make([]string, 0, len(raw.Authors)),
	}
	if p.Title == "" || p.URL == "" {
		return types.Paper{}, false
	}
	if p.Source == "" {
		p.Source = src
	}
	for _, au := range raw.Authors {
		if name := collapseSpace(au); name != "" {
			p.Authors = append(p.Authors, name)
		}
	}
	for _, c := range raw.Categories {
		if c = strings.TrimSpace(c); c != "" {
			p.Categories = append(p.Categories, c)
		}
	}
	if !raw.Published.IsZero() {
		t := raw.Published.UTC()
		p.Published = &t
	}
	return p, true
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// enrich fills Summary, Keywords and RelevanceScore. Each worker writes
// only its own slice element.
func (a *Aggregator) enrich(papers []types.Paper, query string) {
	var g errgroup.Group
	g.SetLimit(a.workers)
	for i := range papers {
		g.Go(func() error {
			p := &papers[i]
			p.Summary = a.summarizer.Summarize(p.Abstract)
			p.Keywords = a.keywords.Keywords(p.Abstract)
			p.RelevanceScore = a.scorer.Score(*p, query)
			return nil
		})
	}
	_ = g.Wait()
}

// sortPapers orders by score descending, then source, title, and URL
// ascending, so equal inputs always produce the same order.
func sortPapers(papers []types.Paper) {
	sort.SliceStable(papers, func(i, j int) bool {
		a, b := papers[i], papers[j]
		if a.RelevanceScore != b.RelevanceScore {
			return a.RelevanceScore > b.RelevanceScore
		}
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		return a.URL < b.URL
	})
}
