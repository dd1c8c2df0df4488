// Package main provides the gridline command line: weekly predictions,
// model training, walk-forward backtests and the scheduled prediction cycle.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/gridline/internal/config"
	"github.com/yourusername/gridline/internal/logger"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var (
	configFile string
	logLevel   string
	log        *logrus.Logger
	cfg        *config.Config
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level")

	rootCmd.AddCommand(newPredictCmd())
	rootCmd.AddCommand(newTrainCmd())
	rootCmd.AddCommand(newBacktestCmd())
	rootCmd.AddCommand(newScheduleCmd())
}

var rootCmd = &cobra.Command{
	Use:           "gridline",
	Short:         "Residual-on-market football game predictions",
	Long:          `Predicts football game outcomes as residuals on the betting market, sizes recommendations and validates model versions by closing line value.`,
	Version:       fmt.Sprintf("%s (%s)", Version, GitCommit),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(cmd.Context()); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return nil
	},
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(ctx context.Context) error {
	var err error
	cfg, err = config.LoadWithDefaults(configFile)
	if err != nil {
		return err
	}
	if err := config.ReloadFromEnv(cfg); err != nil {
		return err
	}
	if err := config.ApplySecretsFromEnv(ctx, cfg); err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	if err := config.ValidateEnvironment(cfg); err != nil {
		return err
	}

	level := cfg.App.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	log = logger.NewLogger(level)
	log.WithFields(logrus.Fields{
		"config":         configFile,
		"environment":    cfg.App.Environment,
		"config_version": cfg.PipelineVersion(),
	}).Debug("Configuration loaded")
	return nil
}
