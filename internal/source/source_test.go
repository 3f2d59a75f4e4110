// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NikkiXIV/sci-paper-finder/pkg/types"
)

func TestNewAdaptersDefaults(t *testing.T) {
	adapters, err := NewAdapters(types.DefaultFinderConfig(), nil)
	require.NoError(t, err)
	require.Len(t, adapters, 2)

	assert.Equal(t, types.SourceArxiv, adapters[0].Source())
	assert.Equal(t, types.SourcePubMed, adapters[1].Source())

	ax := adapters[0].(*ArxivAdapter)
	assert.Equal(t, types.DefaultArxivBaseURL, ax.BaseURL)
	pm := adapters[1].(*PubMedAdapter)
	assert.Equal(t, types.DefaultPubMedBaseURL, pm.BaseURL)
}

func TestNewAdaptersSubsetAndDuplicates(t *testing.T) {
	cfg := types.DefaultFinderConfig()
	cfg.Sources.Enabled = []types.Source{types.SourcePubMed, types.SourcePubMed}
	cfg.Sources.PubMedAPIKey = "k"

	adapters, err := NewAdapters(cfg, nil)
	require.NoError(t, err)
	require.Len(t, adapters, 1)

	pm := adapters[0].(*PubMedAdapter)
	assert.Equal(t, "k", pm.APIKey)
}

func TestNewAdaptersUnknownSource(t *testing.T) {
	cfg := types.DefaultFinderConfig()
	cfg.Sources.Enabled = []types.Source{"scopus"}

	_, err := NewAdapters(cfg, nil)
	assert.ErrorContains(t, err, "scopus")
}

func TestPubMedRate(t *testing.T) {
	tests := []struct {
		name string
		cfg  types.SourcesConfig
		want float64
	}{
		{"no key", types.SourcesConfig{PubMedRate: types.DefaultPubMedRate}, types.DefaultPubMedRate},
		{"key raises default", types.SourcesConfig{PubMedRate: types.DefaultPubMedRate, PubMedAPIKey: "k"}, 10},
		{"explicit rate kept", types.SourcesConfig{PubMedRate: 5, PubMedAPIKey: "k"}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pubMedRate(tt.cfg))
		})
	}
}
