package cmd

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	logLevel string
	logJSON  bool
)

var rootCmd = &cobra.Command{
	Use:   "sigbt",
	Short: "Signal-driven backtester for a single long position",
	Long: `sigbt replays a stream of BUY/SELL signals against a price series and
reports how a single long-only position would have performed.

It provides tools for:
  - Running one backtest with fees, slippage, take-profit and stop-loss
  - Sweeping take-profit/stop-loss grids in parallel
  - Keeping a SQLite journal of runs, trades and equity curves
  - Exporting runs as CSV, org-mode and SVG`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(cmd.ErrOrStderr(), logLevel, logJSON)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log as JSON instead of text")
}

func setupLogging(w io.Writer, level string, asJSON bool) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	logrus.SetLevel(lvl)
	if asJSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	logrus.SetOutput(w)
	return nil
}
