// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source implements the academic database adapters. Each adapter
// turns a free-text query into at most limit raw paper records and reports
// failures using the taxonomy in errors.go.
package source

import (
	"context"
	"fmt"
	"net/http"

	"github.com/NikkiXIV/sci-paper-finder/pkg/types"
)

// Adapter searches a single academic database.
//
// Search must return an empty slice, not an error, when nothing matches,
// and must never return more than limit records. Failures are *Error
// values classified as unavailable, timeout, or parse.
type Adapter interface {
	Source() types.Source
	Search(ctx context.Context, query string, limit int) ([]types.RawPaper, error)
}

// NewAdapters builds the adapters enabled in cfg, in the order they are
// listed. client is shared by all adapters; each gets its own rate limiter.
func NewAdapters(cfg types.FinderConfig, client *http.Client) ([]Adapter, error) {
	cfg = cfg.WithDefaults()
	if client == nil {
		client = &http.Client{Timeout: cfg.HTTP.Timeout}
	}

	seen := make(map[types.Source]bool)
	var adapters []Adapter
	for _, src := range cfg.Sources.Enabled {
		if seen[src] {
			continue
		}
		seen[src] = true

		switch src {
		case types.SourceArxiv:
			adapters = append(adapters, &ArxivAdapter{
				BaseURL: cfg.Sources.ArxivBaseURL,
				HTTP:    newHTTPClient(client, cfg.HTTP.UserAgent, cfg.Sources.ArxivRate),
			})
		case types.SourcePubMed:
			adapters = append(adapters, &PubMedAdapter{
				BaseURL: cfg.Sources.PubMedBaseURL,
				APIKey:  cfg.Sources.PubMedAPIKey,
				HTTP:    newHTTPClient(client, cfg.HTTP.UserAgent, pubMedRate(cfg.Sources)),
			})
		default:
			return nil, fmt.Errorf("unknown source %q", src)
		}
	}

	if len(adapters) == 0 {
		return nil, fmt.Errorf("no sources enabled")
	}
	return adapters, nil
}

// pubMedRate raises the default PubMed rate when an API key is configured,
// since NCBI allows 10 requests per second with a key.
func pubMedRate(cfg types.SourcesConfig) float64 {
	if cfg.PubMedAPIKey != "" && cfg.PubMedRate == types.DefaultPubMedRate {
		return 10
	}
	return cfg.PubMedRate
}
