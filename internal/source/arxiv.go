// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/NikkiXIV/sci-paper-finder/pkg/types"
)

// ArxivAdapter queries the arXiv Atom API.
type ArxivAdapter struct {
	BaseURL string
	HTTP    *HTTPClient
}

var _ Adapter = (*ArxivAdapter)(nil)

// Source returns types.SourceArxiv.
func (a *ArxivAdapter) Source() types.Source { return types.SourceArxiv }

// Search queries arXiv across all fields and returns up to limit entries,
// ordered by arXiv's relevance ranking.
func (a *ArxivAdapter) Search(ctx context.Context, query string, limit int) ([]types.RawPaper, error) {
	q := buildArxivQuery(query)
	if q == "" || limit <= 0 {
		return []types.RawPaper{}, nil
	}

	params := url.Values{
		"search_query": {q},
		"start":        {"0"},
		"max_results":  {strconv.Itoa(limit)},
		"sortBy":       {"relevance"},
		"sortOrder":    {"descending"},
	}
	body, err := a.HTTP.Get(ctx, types.SourceArxiv, a.BaseURL+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var feed arxivFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, ParseError(types.SourceArxiv, fmt.Errorf("parsing arXiv response: %w", err))
	}

	papers := make([]types.RawPaper, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		if strings.Contains(entry.ID, "/api/errors") {
			return nil, ParseError(types.SourceArxiv,
				fmt.Errorf("arXiv rejected query: %s", strings.TrimSpace(entry.Summary)))
		}
		if strings.TrimSpace(entry.ID) == "" {
			continue
		}

		p := types.RawPaper{
			Title:      entry.Title,
			Abstract:   entry.Summary,
			URL:        strings.TrimSpace(entry.ID),
			Source:     types.SourceArxiv,
			ExternalID: extractArxivID(entry.ID),
			DOI:        strings.TrimSpace(entry.DOI),
		}
		for _, au := range entry.Authors {
			p.Authors = append(p.Authors, au.Name)
		}
		for _, c := range entry.Categories {
			if c.Term != "" {
				p.Categories = append(p.Categories, c.Term)
			}
		}
		if t, parseErr := time.Parse(time.RFC3339, strings.TrimSpace(entry.Published)); parseErr == nil {
			p.Published = t
		}

		papers = append(papers, p)
		if len(papers) == limit {
			break
		}
	}
	return papers, nil
}

// buildArxivQuery searches all fields for the query terms.
func buildArxivQuery(query string) string {
	terms := strings.Fields(query)
	if len(terms) == 0 {
		return ""
	}
	return "all:" + strings.Join(terms, " ")
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	XMLName xml.Name     `xml:"feed"`
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID         string          `xml:"id"`
	Title      string          `xml:"title"`
	Summary    string          `xml:"summary"`
	Published  string          `xml:"published"`
	Authors    []arxivAuthor   `xml:"author"`
	DOI        string          `xml:"http://arxiv.org/schemas/atom doi"`
	Categories []arxivCategory `xml:"category"`
}

type arxivCategory struct {
	Term string `xml:"term,attr"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" -> "2301.07041").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := strings.TrimSpace(idURL[idx+len(prefix):])

	// Strip version suffix (e.g. "v1", "v2").
	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}
