// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NikkiXIV/sci-paper-finder/internal/output"
)

var loadCmd = &cobra.Command{
	Use:   "load <query-file>",
	Short: "Re-render a saved query file without querying any source",
	Args:  cobra.ExactArgs(1),
	RunE:  runLoad,
}

func init() {
	loadCmd.Flags().String("format", "text", "output format: text, table, json, yaml, csl")
	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	qf, err := output.ReadQueryFile(args[0])
	if err != nil {
		return err
	}
	logger.Debug().
		Str("path", args[0]).
		Str("query", qf.Query.Query).
		Time("saved_at", qf.Summary.Timestamp).
		Msg("loaded query file")

	if format == "text" || format == "table" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Query %q (max %d per source), saved %s\n",
			qf.Query.Query, qf.Query.MaxResultsPerSource, qf.Summary.Timestamp.Local().Format("2006-01-02 15:04:05"))
	}
	result := qf.Result()
	reportFailures(cmd.ErrOrStderr(), "warning", result.Failures)
	return output.Format(format, cmd.OutOrStdout(), result)
}
