// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/NikkiXIV/sci-paper-finder/pkg/types"
)

// pubMedArticleBase is the landing page prefix used to build paper URLs.
const pubMedArticleBase = "https://pubmed.ncbi.nlm.nih.gov/"

// PubMedAdapter queries NCBI E-utilities in two steps: esearch for PMIDs,
// then efetch for the article records.
type PubMedAdapter struct {
	BaseURL string

	// APIKey is optional; it is sent as the api_key parameter.
	APIKey string

	HTTP *HTTPClient
}

var _ Adapter = (*PubMedAdapter)(nil)

// Source returns types.SourcePubMed.
func (a *PubMedAdapter) Source() types.Source { return types.SourcePubMed }

// Search returns up to limit PubMed articles matching query.
func (a *PubMedAdapter) Search(ctx context.Context, query string, limit int) ([]types.RawPaper, error) {
	query = strings.TrimSpace(query)
	if query == "" || limit <= 0 {
		return []types.RawPaper{}, nil
	}

	ids, err := a.esearch(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []types.RawPaper{}, nil
	}
	if len(ids) > limit {
		ids = ids[:limit]
	}

	set, err := a.efetch(ctx, ids)
	if err != nil {
		return nil, err
	}

	papers := make([]types.RawPaper, 0, len(set.Articles))
	for _, article := range set.Articles {
		papers = append(papers, articleToRaw(article))
		if len(papers) == limit {
			break
		}
	}
	return papers, nil
}

func (a *PubMedAdapter) esearch(ctx context.Context, query string, limit int) ([]string, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"term":    {query},
		"retmax":  {strconv.Itoa(limit)},
		"retmode": {"xml"},
		"sort":    {"relevance"},
	}
	if a.APIKey != "" {
		params.Set("api_key", a.APIKey)
	}

	body, err := a.HTTP.Get(ctx, types.SourcePubMed, a.BaseURL+"/esearch.fcgi?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var result eSearchResult
	if err := xml.Unmarshal(body, &result); err != nil {
		return nil, ParseError(types.SourcePubMed, fmt.Errorf("parsing esearch response: %w", err))
	}
	if result.ERROR != "" {
		return nil, ParseError(types.SourcePubMed, fmt.Errorf("esearch error: %s", result.ERROR))
	}
	// A phrase that matches nothing is an empty result, not a failure.
	if result.ErrorList != nil && len(result.ErrorList.PhraseNotFound) > 0 && len(result.IDList.IDs) == 0 {
		return nil, nil
	}
	return result.IDList.IDs, nil
}

func (a *PubMedAdapter) efetch(ctx context.Context, ids []string) (*pubmedArticleSet, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"id":      {strings.Join(ids, ",")},
		"retmode": {"xml"},
		"rettype": {"abstract"},
	}
	if a.APIKey != "" {
		params.Set("api_key", a.APIKey)
	}

	body, err := a.HTTP.Get(ctx, types.SourcePubMed, a.BaseURL+"/efetch.fcgi?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var set pubmedArticleSet
	if err := xml.Unmarshal(body, &set); err != nil {
		return nil, ParseError(types.SourcePubMed, fmt.Errorf("parsing efetch response: %w", err))
	}
	return &set, nil
}

func articleToRaw(article pubmedArticle) types.RawPaper {
	c := article.Citation
	pmid := strings.TrimSpace(c.PMID)

	p := types.RawPaper{
		Title:      stripMarkup(c.Article.ArticleTitle.Inner),
		Authors:    pubMedAuthors(c.Article.AuthorList),
		Abstract:   pubMedAbstract(c.Article.Abstract),
		Source:     types.SourcePubMed,
		ExternalID: pmid,
		DOI:        pubMedDOI(article.ArticleIDs),
	}
	if pmid != "" {
		p.URL = pubMedArticleBase + pmid + "/"
	}
	if t := pubMedDate(c.Article); t != nil {
		p.Published = *t
	}
	return p
}

// pubMedDOI returns the article ID of type "doi", if any.
func pubMedDOI(ids []pubmedArticleID) string {
	for _, id := range ids {
		if strings.EqualFold(id.IDType, "doi") {
			if v := strings.TrimSpace(id.Value); v != "" {
				return v
			}
		}
	}
	return ""
}

// pubMedAbstract joins abstract sections, prefixing labelled sections of
// structured abstracts with their label.
func pubMedAbstract(abstract *pubmedAbstract) string {
	if abstract == nil {
		return ""
	}
	var parts []string
	for _, at := range abstract.Texts {
		text := stripMarkup(at.Inner)
		if text == "" {
			continue
		}
		if at.Label != "" && len(abstract.Texts) > 1 {
			text = at.Label + ": " + text
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, " ")
}

func pubMedAuthors(list *pubmedAuthorList) []string {
	if list == nil {
		return nil
	}
	authors := make([]string, 0, len(list.Authors))
	for _, a := range list.Authors {
		if a.ValidYN == "N" {
			continue
		}
		name := a.CollectiveName
		if name == "" {
			name = strings.TrimSpace(a.ForeName + " " + a.LastName)
		}
		if name != "" {
			authors = append(authors, name)
		}
	}
	return authors
}

// pubMedDate prefers the electronic ArticleDate and falls back to the
// journal issue PubDate, including MedlineDate forms like "2020 Jan-Feb".
func pubMedDate(article pubmedArticleT) *time.Time {
	for _, ad := range article.ArticleDate {
		if t := parseDate(ad.Year, ad.Month, ad.Day); t != nil {
			return t
		}
	}

	pd := article.Journal.JournalIssue.PubDate
	if pd.Year != "" {
		return parseDate(pd.Year, pd.Month, pd.Day)
	}
	if fields := strings.Fields(pd.MedlineDate); len(fields) > 0 {
		return parseDate(strings.Split(fields[0], "-")[0], "", "")
	}
	return nil
}

func parseDate(year, month, day string) *time.Time {
	y, err := strconv.Atoi(strings.TrimSpace(year))
	if err != nil || y <= 0 {
		return nil
	}
	d := 1
	if v, err := strconv.Atoi(strings.TrimSpace(day)); err == nil && v >= 1 && v <= 31 {
		d = v
	}
	t := time.Date(y, parseMonth(month), d, 0, 0, 0, 0, time.UTC)
	return &t
}

func parseMonth(month string) time.Month {
	month = strings.ToLower(strings.TrimSpace(month))
	if m, err := strconv.Atoi(month); err == nil && m >= 1 && m <= 12 {
		return time.Month(m)
	}
	if len(month) >= 3 {
		for m := time.January; m <= time.December; m++ {
			if strings.HasPrefix(strings.ToLower(m.String()), month[:3]) {
				return m
			}
		}
	}
	return time.January
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// stripMarkup removes inline XML tags and decodes entities.
func stripMarkup(s string) string {
	return strings.TrimSpace(html.UnescapeString(tagPattern.ReplaceAllString(s, "")))
}
