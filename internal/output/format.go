// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/NikkiXIV/sci-paper-finder/pkg/types"
)

// Formats lists the names accepted by Format.
var Formats = []string{"text", "table", "json", "yaml", "csl"}

// Format renders result to w in the named format.
func Format(name string, w io.Writer, result types.SearchResult) error {
	switch strings.ToLower(name) {
	case "", "text":
		FormatText(w, result)
		return nil
	case "table":
		FormatTable(w, result)
		return nil
	case "json":
		return FormatJSON(w, result)
	case "yaml":
		return FormatYAML(w, result)
	case "csl":
		return FormatCSL(w, result)
	default:
		return fmt.Errorf("unknown format %q (supported: %s)", name, strings.Join(Formats, ", "))
	}
}

// FormatText writes a numbered listing of each paper with its summary.
func FormatText(w io.Writer, result types.SearchResult) {
	rule := strings.Repeat("-", 50)
	if len(result.Papers) == 0 {
		fmt.Fprintln(w, "No papers found.")
		return
	}

	fmt.Fprintf(w, "Found %d papers:\n%s\n", len(result.Papers), rule)
	for i, p := range result.Papers {
		fmt.Fprintf(w, "\nPaper %d:\n", i+1)
		fmt.Fprintf(w, "Title: %s\n", p.Title)
		fmt.Fprintf(w, "Authors: %s\n", strings.Join(p.Authors, ", "))
		fmt.Fprintf(w, "Source: %s\n", p.Source)
		fmt.Fprintf(w, "URL: %s\n", p.URL)
		if p.DOI != "" {
			fmt.Fprintf(w, "DOI: %s\n", p.DOI)
		}
		if len(p.Categories) > 0 {
			fmt.Fprintf(w, "Categories: %s\n", strings.Join(p.Categories, ", "))
		}
		if len(p.Keywords) > 0 {
			fmt.Fprintf(w, "Keywords: %s\n", strings.Join(p.Keywords, ", "))
		}
		fmt.Fprintf(w, "Relevance: %.2f\n", p.RelevanceScore)
		if p.Summary != "" {
			fmt.Fprintf(w, "\nSummary:\n%s\n", p.Summary)
		}
		fmt.Fprintln(w, rule)
	}
}

// FormatTable writes results as a human-readable table to w.
func FormatTable(w io.Writer, result types.SearchResult) {
	if len(result.Papers) == 0 {
		fmt.Fprintln(w, "No papers found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-60s  %-20s  %-4s  %-6s  %s\n",
		"Rank", "Title", "Authors", "Year", "Score", "Source")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for i, p := range result.Papers {
		year := ""
		if p.Published != nil {
			year = fmt.Sprintf("%d", p.Published.Year())
		}
		fmt.Fprintf(w, "%-4d  %-60s  %-20s  %-4s  %-6.2f  %s\n",
			i+1, truncate(p.Title, 60), formatAuthors(p.Authors), year, p.RelevanceScore, p.Source)
	}

	fmt.Fprintf(w, "\n%d papers", len(result.Papers))
	if result.DuplicatesRemoved > 0 {
		fmt.Fprintf(w, " (%d duplicates removed)", result.DuplicatesRemoved)
	}
	fmt.Fprintln(w)
}

// FormatJSON writes the ranked papers as indented JSON to w.
func FormatJSON(w io.Writer, result types.SearchResult) error {
	papers := result.Papers
	if papers == nil {
		papers = []types.Paper{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(papers)
}

// FormatYAML writes the full result, failures included, as YAML to w.
func FormatYAML(w io.Writer, result types.SearchResult) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return enc.Close()
}

func formatAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return truncate(authors[0], 20)
	default:
		return truncate(authors[0], 14) + " et al."
	}
}

// truncate shortens s to at most max runes, marking the cut with "...".
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
