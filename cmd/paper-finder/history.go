// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/NikkiXIV/sci-paper-finder/internal/history"
	"github.com/NikkiXIV/sci-paper-finder/internal/output"
	"github.com/NikkiXIV/sci-paper-finder/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past searches recorded in the local history",
	Long: `History lists earlier search runs, newest first. Use "history show" to
re-render the papers of one run and "history search" to find stored papers
by title or summary text.`,
	Args: cobra.NoArgs,
	RunE: runHistoryList,
}

// --- show subcommand ---

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show the ranked papers of a past run",
	Long: `Show prints the papers of a recorded run. The run ID may be shortened
to any unique prefix.`,
	Args: cobra.ExactArgs(1),
	RunE: runHistoryShow,
}

// --- search subcommand ---

var historySearchCmd = &cobra.Command{
	Use:   "search <text>",
	Short: "Find stored papers whose title or summary contains text",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runHistorySearch,
}

// --- export subcommand ---

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export recorded runs and their papers to YAML or JSON",
	Args:  cobra.NoArgs,
	RunE:  runHistoryExport,
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of runs to list (0 for all)")
	historyCmd.Flags().Bool("json", false, "output runs as JSON")
	historyShowCmd.Flags().String("format", "text", "output format: text, table, json, yaml, csl")
	historySearchCmd.Flags().Int("limit", 20, "maximum number of papers to return")

	historyExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	historyExportCmd.Flags().String("out", "", "write to this file instead of stdout")
	historyExportCmd.Flags().Int("limit", 0, "maximum number of runs to export (0 for all)")

	historyCmd.AddCommand(historyShowCmd, historySearchCmd, historyExportCmd)
	rootCmd.AddCommand(historyCmd)
}

func openHistory() (*history.Store, error) {
	return history.NewStore(cfg.History.DBPath)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.List(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if jsonOutput {
		if runs == nil {
			runs = []history.Run{}
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}
	formatRuns(cmd.OutOrStdout(), runs)
	return nil
}

func formatRuns(w io.Writer, runs []history.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No searches recorded.")
		return
	}

	fmt.Fprintf(w, "%-8s  %-19s  %-40s  %-6s  %-5s  %s\n",
		"ID", "Started", "Query", "Papers", "Dups", "Failed")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for _, r := range runs {
		failed := make([]string, len(r.Failures))
		for i, f := range r.Failures {
			failed[i] = string(f.Source)
		}
		fmt.Fprintf(w, "%-8s  %-19s  %-40s  %-6d  %-5d  %s\n",
			shortID(r.ID), r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			clip(r.Query, 40), r.PaperCount, r.DuplicatesRemoved, strings.Join(failed, ","))
	}
	fmt.Fprintf(w, "\n%d runs\n", len(runs))
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	run, papers, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if format == "text" || format == "table" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Run %s: %q (max %d per source), %s\n",
			run.ID, run.Query, run.MaxPerSource, run.StartedAt.Local().Format("2006-01-02 15:04:05"))
	}
	reportFailures(cmd.ErrOrStderr(), "warning", run.Failures)
	return output.Format(format, cmd.OutOrStdout(), types.SearchResult{
		Papers:            papers,
		Failures:          run.Failures,
		DuplicatesRemoved: run.DuplicatesRemoved,
	})
}

func runHistorySearch(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	hits, err := store.SearchPapers(cmd.Context(), strings.Join(args, " "), limit)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if len(hits) == 0 {
		fmt.Fprintln(w, "No papers found.")
		return nil
	}
	fmt.Fprintf(w, "%-8s  %-4s  %-60s  %-6s  %s\n", "Run", "Rank", "Title", "Score", "Source")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for _, h := range hits {
		fmt.Fprintf(w, "%-8s  %-4d  %-60s  %-6.2f  %s\n",
			shortID(h.RunID), h.Rank, clip(h.Paper.Title, 60), h.Paper.RelevanceScore, h.Paper.Source)
	}
	fmt.Fprintf(w, "\n%d papers\n", len(hits))
	return nil
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	outPath, _ := cmd.Flags().GetString("out")
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	if outPath == "" {
		return store.Export(cmd.Context(), cmd.OutOrStdout(), format, limit)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	if err := store.Export(cmd.Context(), f, format, limit); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Exported history to %s\n", outPath)
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// clip shortens s to max runes.
func clip(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
