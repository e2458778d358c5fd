// Package cli implements the auditor command line.
package cli

import (
	"fmt"
	"os"

	"github.com/raaihank/bias-auditor/internal/buildinfo"
	"github.com/raaihank/bias-auditor/internal/config"
	"github.com/raaihank/bias-auditor/internal/logger"
	"github.com/spf13/cobra"
)

// options holds the global flags shared by every subcommand
type options struct {
	configPath string
}

// NewRootCommand builds the auditor command tree
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "auditor",
		Short: "Bias Auditor - flag biased language in documents",
		Long: `Bias Auditor scans documents for gendered, religious and absolute
wording, reports every flagged sentence and rates the document with a
bias density score.

Run "auditor serve" for the upload page, JSON API and live dashboard,
or "auditor scan" to audit files from the terminal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default: ./config.yaml)")

	root.AddCommand(
		newServeCommand(opts),
		newScanCommand(opts),
		newBatchCommand(opts),
		newHealthCommand(opts),
		newVersionCommand(),
	)

	return root
}

// Execute runs the auditor CLI. It should be called by the main package.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCode(err))
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "Bias Auditor %s (commit: %s, built: %s)\n",
				buildinfo.Version, buildinfo.Commit, buildinfo.Date)
		},
	}
}

// newLogger builds the process logger from the logging section
func newLogger(cfg config.LoggingConfig) (*logger.Logger, error) {
	loggerConfig := logger.Config{
		Level:  cfg.Level,
		Format: cfg.Format,
	}
	if cfg.File.Enabled {
		loggerConfig.File = &logger.FileConfig{
			Enabled: cfg.File.Enabled,
			Path:    cfg.File.Path,
		}
	}
	return logger.New(loggerConfig)
}
