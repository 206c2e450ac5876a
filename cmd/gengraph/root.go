package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"gengraph/pkg/util"
)

var version = "dev"

var (
	flagLogLevel  string
	flagLogFormat string

	logger *slog.Logger
	config *Config
)

var rootCmd = &cobra.Command{
	Use:   "gengraph",
	Short: "Dependency graph analyzer for JavaScript and TypeScript projects",
	Long: `gengraph builds a per-function dependency graph of a JS/TS codebase.

It resolves each declared function, class, and component to its transitive
local and external dependencies, and emits one record per symbol with its
raw source. The resulting context document feeds the context, watch, and
serve commands.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loggerConfig := util.DefaultLoggerConfig()
		loggerConfig.Level = util.LogLevel(flagLogLevel)
		loggerConfig.Format = util.LogFormat(flagLogFormat)

		logger = util.NewLogger(loggerConfig)
		util.SetDefault(logger)

		var err error
		config, err = LoadConfig()
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "log format (text, json)")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(contextCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
