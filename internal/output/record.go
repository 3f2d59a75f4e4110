// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package output persists and renders search results: the JSON record
// written after every search, the YAML query file, and the terminal and
// bibliography formats.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/NikkiXIV/sci-paper-finder/pkg/types"
)

const recordTimeFormat = "20060102_150405"

// RecordName returns the file name of the record for query at now:
// search_<query>_<YYYYmmdd_HHMMSS>.json, with spaces in the query turned
// into underscores.
func RecordName(query string, now time.Time) string {
	return fmt.Sprintf("search_%s_%s.json", fileSafe(query), now.Format(recordTimeFormat))
}

// fileSafe maps a query to a single path element.
func fileSafe(query string) string {
	query = strings.TrimSpace(query)
	return strings.Map(func(r rune) rune {
		switch {
		case r == ' ':
			return '_'
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_', r == '.':
			return r
		default:
			return '-'
		}
	}, query)
}

// WriteRecord writes the ranked papers of result as an indented JSON array
// to dir, creating dir if needed, and returns the file path.
func WriteRecord(dir, query string, now time.Time, result types.SearchResult) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	papers := result.Papers
	if papers == nil {
		papers = []types.Paper{}
	}
	data, err := json.MarshalIndent(papers, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling papers: %w", err)
	}

	path := filepath.Join(dir, RecordName(query, now))
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// ReadRecord loads the papers of a record written by WriteRecord.
func ReadRecord(path string) ([]types.Paper, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading record: %w", err)
	}
	var papers []types.Paper
	if err := json.Unmarshal(data, &papers); err != nil {
		return nil, fmt.Errorf("parsing record %s: %w", path, err)
	}
	return papers, nil
}
