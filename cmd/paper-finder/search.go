// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/NikkiXIV/sci-paper-finder/internal/aggregate"
	"github.com/NikkiXIV/sci-paper-finder/internal/history"
	"github.com/NikkiXIV/sci-paper-finder/internal/observability"
	"github.com/NikkiXIV/sci-paper-finder/internal/output"
	"github.com/NikkiXIV/sci-paper-finder/internal/source"
	"github.com/NikkiXIV/sci-paper-finder/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search arXiv and PubMed for papers matching a query",
	Long: `Search queries every enabled source concurrently, merges the records,
drops duplicate URLs, and ranks the papers by relevance to the query. Each
paper gets an extractive summary of its abstract.

Results are printed, saved as a JSON record under the output directory, and
logged to the local search history.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringP("search", "s", "artificial intelligence", "search query")
	searchCmd.Flags().IntP("max", "m", 5, "maximum results per source")
	searchCmd.Flags().String("format", "text", "output format: text, table, json, yaml, csl")
	searchCmd.Flags().String("output-dir", "", "directory for JSON records (default data/processed)")
	searchCmd.Flags().Bool("no-save", false, "do not write a JSON record")
	searchCmd.Flags().Bool("no-history", false, "do not record the run in the search history")
	searchCmd.Flags().StringSlice("sources", nil, "sources to query (comma-separated: arxiv,pubmed)")
	searchCmd.Flags().String("save-query", "", "also save the query and results to this YAML file")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query, _ := cmd.Flags().GetString("search")
	maxResults, _ := cmd.Flags().GetInt("max")
	format, _ := cmd.Flags().GetString("format")
	outputDir, _ := cmd.Flags().GetString("output-dir")
	noSave, _ := cmd.Flags().GetBool("no-save")
	noHistory, _ := cmd.Flags().GetBool("no-history")
	sourceNames, _ := cmd.Flags().GetStringSlice("sources")
	saveQuery, _ := cmd.Flags().GetString("save-query")

	runCfg := cfg
	if len(sourceNames) > 0 {
		enabled, err := parseSources(sourceNames)
		if err != nil {
			return err
		}
		runCfg.Sources.Enabled = enabled
	}
	if outputDir != "" {
		runCfg.Output.Dir = outputDir
	}

	adapters, err := source.NewAdapters(runCfg, &http.Client{Timeout: runCfg.HTTP.Timeout})
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	log := observability.WithSearchContext(logger, runID, query)
	metrics := observability.NewMetrics("paper_finder")
	agg := aggregate.New(runCfg, adapters, aggregate.WithObserver(aggregate.MultiObserver{
		observability.NewLogObserver(log),
		metrics,
	}))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	req := types.SearchRequest{Query: query, MaxResultsPerSource: maxResults}
	started := time.Now()
	result, err := agg.Aggregate(ctx, req)
	if err != nil {
		return err
	}
	elapsed := time.Since(started)

	defer pushMetrics(runCfg.Metrics, metrics, log)

	if result.AllSourcesFailed() {
		reportFailures(cmd.ErrOrStderr(), "error", result.Failures)
		return fmt.Errorf("%w for query %q", types.ErrAllSourcesFailed, query)
	}
	reportFailures(cmd.ErrOrStderr(), "warning", result.Failures)

	if err := output.Format(format, cmd.OutOrStdout(), result); err != nil {
		return err
	}

	if !noSave {
		path, err := output.WriteRecord(runCfg.Output.Dir, query, started, result)
		if err != nil {
			return err
		}
		log.Info().Str("path", path).Msg("results saved")
		fmt.Fprintf(cmd.ErrOrStderr(), "Results saved to %s\n", path)
	}

	if saveQuery != "" {
		qf := output.NewQueryFile(req, agg.Sources(), result, started)
		if err := output.WriteQueryFile(saveQuery, qf); err != nil {
			return err
		}
		log.Info().Str("path", saveQuery).Msg("query file saved")
	}

	if runCfg.History.Enabled && !noHistory {
		recordHistory(ctx, runCfg.History.DBPath, runID, req, result, started, elapsed, log)
	}
	return nil
}

func reportFailures(w io.Writer, level string, failures []types.SourceFailure) {
	for _, f := range failures {
		fmt.Fprintf(w, "%s: %s\n", level, f)
	}
}

// recordHistory appends the run to the history database. A history failure
// is logged and never fails the search.
func recordHistory(ctx context.Context, dbPath, runID string, req types.SearchRequest, result types.SearchResult, started time.Time, elapsed time.Duration, log zerolog.Logger) {
	store, err := history.NewStore(dbPath)
	if err != nil {
		log.Warn().Err(err).Str("db", dbPath).Msg("history unavailable")
		return
	}
	defer store.Close()

	if _, err := store.Record(ctx, runID, req, result, started, elapsed); err != nil {
		log.Warn().Err(err).Msg("recording history")
		return
	}
	log.Debug().Str("db", dbPath).Msg("run recorded in history")
}

// pushMetrics sends the run's metrics to the configured Pushgateway, if any.
func pushMetrics(mc types.MetricsConfig, m *observability.Metrics, log zerolog.Logger) {
	if mc.PushgatewayURL == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := m.Push(ctx, mc.PushgatewayURL, mc.Job); err != nil {
		log.Warn().Err(err).Msg("metrics push failed")
	}
}
