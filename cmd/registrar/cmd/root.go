package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/JonMunkholm/registrar/internal/config"
	"github.com/JonMunkholm/registrar/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	envFile   string
	logLevel  string
	logFormat string

	// rootCmd runs serve when called without a subcommand.
	rootCmd = &cobra.Command{
		Use:   "registrar",
		Short: "Company registration API",
		Long: `registrar accepts company registrations with an applicant and supporting
documents, stores the documents on disk or in S3, and records everything in
PostgreSQL as one atomic unit.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveCmd.RunE(cmd, args)
		},
	}
)

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error) (default: LOG_LEVEL or info)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json) (default: LOG_FORMAT or text)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads the dotenv file, reads and validates configuration and
// installs the default logger.
func loadConfig() (*config.Config, error) {
	// Overload lets the dotenv file win over variables already exported.
	if err := godotenv.Overload(envFile); err != nil {
		slog.Debug("no env file loaded, using environment variables", "file", envFile)
	} else {
		slog.Debug("loaded env file", "file", envFile)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	return cfg, nil
}
