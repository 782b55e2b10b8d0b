// Package main is the entry point for the Quant-Cat daily market report
// generator. It runs a single report from the command line or serves the
// HTTP API and the evening schedule.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Eroleice/Quant-Cat/internal/config"
	"github.com/Eroleice/Quant-Cat/pkg/logger"
)

// Set at build time with -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	envFile  string
	logLevel string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "quantcat",
	Short: "Daily A-share market report generator",
	Long: `Quant-Cat builds the end-of-day A-share report: market breadth, style
index ranking and a Fama-French attribution of one randomly drawn index
constituent, rendered to PDF and Markdown and optionally uploaded.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file to load before the environment (default .env if present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
}

// setup loads configuration and builds the logger shared by a command.
func setup() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})
	return cfg, log, nil
}
