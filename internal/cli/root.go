package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	dbPath   string
	logLevel string
)

// NewRootCmd builds the sg command tree. Running sg without a subcommand is
// the same as sg calc.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sg",
		Short: "Sample Goat - A/B test sample size calculator",
		Long: `🐐 Sample Goat estimates how many users an A/B test needs.

Supports continuous, conversion (binomial) and ratio metrics, Bonferroni
correction for more than two groups, and reusable baseline presets.

Running without a subcommand runs the calculator (same as 'sg calc').`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", getEnvOrDefault("SG_DB_PATH", "./sg.db"), "database path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", getEnvOrDefault("SG_LOG_LEVEL", "warn"), "log level (debug, info, warn, error)")

	calcCmd := newCalcCmd()
	rootCmd.Flags().AddFlagSet(calcCmd.Flags())
	rootCmd.RunE = calcCmd.RunE

	rootCmd.AddCommand(
		calcCmd,
		newPresetCmd(),
		newEstimateCmd(),
		newServeCmd(),
		newTokenCmd(),
	)

	return rootCmd
}

func Execute() error {
	return NewRootCmd().Execute()
}

// setup loads .env and installs the logger before any command runs.
func setup(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	// Values from .env only apply to flags the user did not set.
	flags := cmd.Flags()
	if !flags.Changed("db") {
		dbPath = getEnvOrDefault("SG_DB_PATH", dbPath)
	}
	if !flags.Changed("log-level") {
		logLevel = getEnvOrDefault("SG_LOG_LEVEL", logLevel)
	}

	level, err := parseLogLevel(logLevel)
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
	return nil
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q: must be debug, info, warn or error", s)
	}
	return level, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
