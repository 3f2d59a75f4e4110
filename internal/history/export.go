// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/NikkiXIV/sci-paper-finder/pkg/types"
)

// ExportEntry is one run with its ranked papers.
type ExportEntry struct {
	ID                string                `json:"id" yaml:"id"`
	Query             string                `json:"query" yaml:"query"`
	MaxPerSource      int                   `json:"max_results_per_source" yaml:"max_results_per_source"`
	StartedAt         string                `json:"started_at" yaml:"started_at"`
	ElapsedMS         int64                 `json:"elapsed_ms" yaml:"elapsed_ms"`
	DuplicatesRemoved int                   `json:"duplicates_removed" yaml:"duplicates_removed"`
	Failures          []types.SourceFailure `json:"failures,omitempty" yaml:"failures,omitempty"`
	Papers            []types.Paper         `json:"papers" yaml:"papers"`
}

// Export writes up to limit runs, newest first, with their papers to w as
// "yaml" or "json". A non-positive limit exports every run.
func (s *Store) Export(ctx context.Context, w io.Writer, format string, limit int) error {
	entries, err := s.exportEntries(ctx, limit)
	if err != nil {
		return err
	}

	switch strings.ToLower(format) {
	case "", "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(entries); err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown export format %q (supported: yaml, json)", format)
	}
}

func (s *Store) exportEntries(ctx context.Context, limit int) ([]ExportEntry, error) {
	runs, err := s.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}

	entries := make([]ExportEntry, len(runs))
	for i, r := range runs {
		papers, err := s.papers(ctx, r.ID)
		if err != nil {
			return nil, err
		}
		entries[i] = ExportEntry{
			ID:                r.ID,
			Query:             r.Query,
			MaxPerSource:      r.MaxPerSource,
			StartedAt:         r.StartedAt.Format(time.RFC3339Nano),
			ElapsedMS:         r.Elapsed.Milliseconds(),
			DuplicatesRemoved: r.DuplicatesRemoved,
			Failures:          r.Failures,
			Papers:            papers,
		}
	}
	return entries, nil
}
