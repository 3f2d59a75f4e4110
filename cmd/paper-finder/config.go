// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/NikkiXIV/sci-paper-finder/internal/observability"
	"github.com/NikkiXIV/sci-paper-finder/pkg/types"
)

const envPrefix = "PAPER_FINDER"

// configureViper sets env handling and registers every config key with its
// default, so PAPER_FINDER_RETRY_MAX_ATTEMPTS and friends are honored by
// Unmarshal.
func configureViper(v *viper.Viper) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := types.DefaultFinderConfig()
	enabled := make([]string, len(d.Sources.Enabled))
	for i, s := range d.Sources.Enabled {
		enabled[i] = string(s)
	}

	defaults := map[string]any{
		"http.timeout":            d.HTTP.Timeout,
		"http.user_agent":         d.HTTP.UserAgent,
		"sources.enabled":         enabled,
		"sources.arxiv_base_url":  d.Sources.ArxivBaseURL,
		"sources.pubmed_base_url": d.Sources.PubMedBaseURL,
		"sources.pubmed_api_key":  "",
		"sources.arxiv_rate":      d.Sources.ArxivRate,
		"sources.pubmed_rate":     d.Sources.PubMedRate,
		"retry.max_attempts":      d.Retry.MaxAttempts,
		"retry.base_delay":        d.Retry.BaseDelay,
		"retry.max_delay":         d.Retry.MaxDelay,
		"retry.attempt_timeout":   d.Retry.AttemptTimeout,
		"nlp.summary_sentences":   d.NLP.SummarySentences,
		"nlp.title_weight":        d.NLP.TitleWeight,
		"nlp.abstract_weight":     d.NLP.AbstractWeight,
		"nlp.keywords":            d.NLP.Keywords,
		"nlp.min_word_length":     d.NLP.MinWordLength,
		"nlp.workers":             d.NLP.Workers,
		"output.dir":              d.Output.Dir,
		"history.enabled":         d.History.Enabled,
		"history.db_path":         d.History.DBPath,
		"metrics.pushgateway_url": "",
		"metrics.job":             d.Metrics.Job,
		"logging.level":           d.Logging.Level,
		"logging.format":          d.Logging.Format,
		"logging.output":          d.Logging.Output,
		"logging.file":            observability.DefaultLogFile,
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
}

// loadConfig decodes v into a FinderConfig with defaults applied and
// source names validated.
func loadConfig(v *viper.Viper) (types.FinderConfig, error) {
	var c types.FinderConfig
	if err := v.Unmarshal(&c); err != nil {
		return types.FinderConfig{}, fmt.Errorf("decoding config: %w", err)
	}

	for i, name := range c.Sources.Enabled {
		src, err := types.ParseSource(string(name))
		if err != nil {
			return types.FinderConfig{}, fmt.Errorf("sources.enabled: %w", err)
		}
		c.Sources.Enabled[i] = src
	}
	return c.WithDefaults(), nil
}

// parseSources turns --sources values into Source names.
func parseSources(names []string) ([]types.Source, error) {
	var out []types.Source
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		src, err := types.ParseSource(n)
		if err != nil {
			return nil, err
		}
		out = append(out, src)
	}
	return out, nil
}
