package cmd

import (
	"github.com/spf13/cobra"
)

var (
	configFile string
	dbURL      string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "clausekeeper",
	Short: "clausekeeper policy rule engine",
	Long:  `clausekeeper resolves and evaluates a small natural-language rule DSL against JSON data.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&dbURL, "db-url", "", "ruleset cache database URL (sqlite://path or postgres://...)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error); accepted but not applied to any logger")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "json", "log format (json, text); accepted but not applied to any logger")
}

func Execute() error {
	return rootCmd.Execute()
}
