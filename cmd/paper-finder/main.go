// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the paper-finder CLI.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/NikkiXIV/sci-paper-finder/internal/observability"
	"github.com/NikkiXIV/sci-paper-finder/internal/secrets"
	"github.com/NikkiXIV/sci-paper-finder/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// Populated by PersistentPreRunE before any subcommand runs.
var (
	cfg       types.FinderConfig
	logger    = zerolog.Nop()
	logCloser io.Closer
)

// rootCmd is the base command for the paper-finder CLI.
var rootCmd = &cobra.Command{
	Use:   "paper-finder",
	Short: "Find, rank, and summarize scientific papers across arXiv and PubMed",
	Long: `paper-finder queries arXiv and PubMed concurrently, merges the results,
drops duplicate URLs, scores each paper against the query, and writes an
extractive summary of every abstract.

A source that fails does not fail the search; its failure is reported
alongside the papers the other sources returned.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}

		log, closer, err := observability.NewLogger(loaded.Logging)
		if err != nil {
			return err
		}
		logger, logCloser = log, closer

		if used := viper.ConfigFileUsed(); used != "" {
			logger.Debug().Str("path", used).Msg("using config file")
		}

		s, err := secrets.Load(secrets.DefaultDir, logger)
		if err != nil {
			return err
		}
		if len(s) > 0 {
			logger.Debug().Strs("secrets", secrets.Names(s)).Msg("loaded secrets")
		}
		cfg = secrets.Apply(loaded, s)
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default: ./paper-finder.yaml or ~/.config/paper-finder/paper-finder.yaml)")
	flags.String("log-level", "", "log level: trace, debug, info, warn, error")
	flags.String("log-format", "", "log format: console or json")
	flags.String("log-file", "", "also write logs to this file")

	viper.BindPFlag("logging.level", flags.Lookup("log-level"))
	viper.BindPFlag("logging.format", flags.Lookup("log-format"))
	viper.BindPFlag("logging.file", flags.Lookup("log-file"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("paper-finder")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "paper-finder"))
		}
	}

	configureViper(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Fprintln(os.Stderr, "warning: reading config:", err)
		}
	}
}

// run executes the command tree and closes the log file afterwards, also
// when the command failed. Cobra skips post-run hooks after a RunE error.
func run() error {
	err := rootCmd.Execute()
	if cerr := closeLog(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// closeLog closes the log file opened by PersistentPreRunE, if any, and
// resets the logger so nothing writes to the closed file.
func closeLog() error {
	if logCloser == nil {
		return nil
	}
	err := logCloser.Close()
	logger, logCloser = zerolog.Nop(), nil
	return err
}

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}
