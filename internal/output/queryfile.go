// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package output

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/NikkiXIV/sci-paper-finder/pkg/types"
)

// QueryFile is a saved search: the request, the sources asked, the ranked
// papers, and a summary. Loading one re-renders results without
// re-querying any source.
type QueryFile struct {
	Query   types.SearchRequest `yaml:"query"`
	Sources []types.Source      `yaml:"sources"`
	Papers  []types.Paper       `yaml:"papers"`
	Summary QuerySummary        `yaml:"summary"`
}

// QuerySummary stores result statistics and a timestamp.
type QuerySummary struct {
	Total             int                   `yaml:"total"`
	DuplicatesRemoved int                   `yaml:"duplicates_removed"`
	Skipped           int                   `yaml:"skipped"`
	Counts            map[types.Source]int  `yaml:"counts,omitempty"`
	Failures          []types.SourceFailure `yaml:"failures,omitempty"`
	Timestamp         time.Time             `yaml:"timestamp"`
}

// NewQueryFile captures req and its result.
func NewQueryFile(req types.SearchRequest, sources []types.Source, result types.SearchResult, now time.Time) QueryFile {
	return QueryFile{
		Query:   req,
		Sources: sources,
		Papers:  result.Papers,
		Summary: QuerySummary{
			Total:             len(result.Papers),
			DuplicatesRemoved: result.DuplicatesRemoved,
			Skipped:           result.Skipped,
			Counts:            result.Counts,
			Failures:          result.Failures,
			Timestamp:         now.UTC(),
		},
	}
}

// Result rebuilds the SearchResult the file was created from.
func (qf QueryFile) Result() types.SearchResult {
	return types.SearchResult{
		Papers:            qf.Papers,
		Failures:          qf.Summary.Failures,
		Counts:            qf.Summary.Counts,
		DuplicatesRemoved: qf.Summary.DuplicatesRemoved,
		Skipped:           qf.Summary.Skipped,
		Dispatched:        len(qf.Sources),
	}
}

// WriteQueryFile saves qf to path as YAML.
func WriteQueryFile(path string, qf QueryFile) error {
	data, err := yaml.Marshal(&qf)
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating query file directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadQueryFile loads a previously saved query file from disk.
func ReadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parsing query file: %w", err)
	}
	if err := qf.Query.Validate(); err != nil {
		return nil, fmt.Errorf("query file %s: %w", path, err)
	}
	return &qf, nil
}
