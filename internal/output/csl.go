// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package output

import (
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/NikkiXIV/sci-paper-finder/pkg/types"
)

// CSLItem is a bibliographic entry in CSL-YAML, readable by Pandoc and
// reference managers.
type CSLItem struct {
	ID       string    `yaml:"id"`
	Type     string    `yaml:"type"`
	Title    string    `yaml:"title"`
	Author   []CSLName `yaml:"author,omitempty"`
	Abstract string    `yaml:"abstract,omitempty"`
	URL      string    `yaml:"URL,omitempty"`
	Source   string    `yaml:"source,omitempty"`
	Issued   *CSLDate  `yaml:"issued,omitempty"`
	DOI      string    `yaml:"DOI,omitempty"`
	PMID     string    `yaml:"PMID,omitempty"`
	Keyword  string    `yaml:"keyword,omitempty"`
}

// CSLName is a person's name in CSL form.
type CSLName struct {
	Family  string `yaml:"family,omitempty"`
	Given   string `yaml:"given,omitempty"`
	Literal string `yaml:"literal,omitempty"`
}

// CSLDate is a date in CSL date-parts form.
type CSLDate struct {
	DateParts [][]int `yaml:"date-parts"`
}

// FormatCSL writes the ranked papers as a CSL-YAML list to w.
func FormatCSL(w io.Writer, result types.SearchResult) error {
	items := make([]CSLItem, len(result.Papers))
	for i, p := range result.Papers {
		items[i] = toCSLItem(p)
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(items)
}

func toCSLItem(p types.Paper) CSLItem {
	item := CSLItem{
		ID:       cslID(p),
		Type:     "article",
		Title:    p.Title,
		Abstract: p.Abstract,
		URL:      p.URL,
		Source:   sourceName(p.Source),
		DOI:      p.DOI,
		Keyword:  strings.Join(p.Keywords, ", "),
	}
	if p.Source == types.SourcePubMed {
		item.Type = "article-journal"
		item.PMID = p.ExternalID
	}

	for _, a := range p.Authors {
		item.Author = append(item.Author, parseAuthorName(a))
	}
	if p.Published != nil {
		item.Issued = &CSLDate{
			DateParts: [][]int{{p.Published.Year(), int(p.Published.Month()), p.Published.Day()}},
		}
	}
	return item
}

// cslID prefers a source-qualified external ID and falls back to the URL.
func cslID(p types.Paper) string {
	if p.ExternalID != "" {
		return string(p.Source) + ":" + p.ExternalID
	}
	return p.URL
}

func sourceName(src types.Source) string {
	switch src {
	case types.SourceArxiv:
		return "arXiv"
	case types.SourcePubMed:
		return "PubMed"
	default:
		return string(src)
	}
}

// parseAuthorName splits a full name on its last space into given and
// family parts. Single-token names use the literal field.
func parseAuthorName(name string) CSLName {
	name = strings.TrimSpace(name)
	if name == "" {
		return CSLName{}
	}
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return CSLName{Literal: name}
	}
	return CSLName{
		Given:  name[:idx],
		Family: name[idx+1:],
	}
}
