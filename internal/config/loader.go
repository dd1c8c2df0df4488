// Package config provides configuration management for the gridline prediction engine.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	defaultConfigPath = "config/config.yaml"
	envPrefix         = "GRIDLINE"
)

// Load reads and parses the configuration from file and environment variables
// It expands environment variable placeholders in the YAML file (${VAR_NAME})
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v := newViper()
	if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// LoadWithDefaults loads configuration with default values for every pipeline option.
// A missing file is not an error; defaults and environment variables apply.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	v := newViper()
	setDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// ReloadFromEnv reloads the configuration from GRIDLINE_CONFIG_PATH when set
func ReloadFromEnv(cfg *Config) error {
	if envPath := os.Getenv(envPrefix + "_CONFIG_PATH"); envPath != "" {
		newCfg, err := Load(envPath)
		if err != nil {
			return err
		}
		*cfg = *newCfg
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "gridline")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.max_idle_connections", 2)

	v.SetDefault("data.games_path", "data/games.csv")
	v.SetDefault("data.team_stats_path", "data/team_stats.csv")
	v.SetDefault("data.lines_path", "data/lines.csv")
	v.SetDefault("data.teams_path", "data/teams.csv")
	v.SetDefault("data.injuries_path", "data/injuries.csv")
	v.SetDefault("data.output_dir", "output")

	v.SetDefault("pipeline.recency_decay", 0.85)
	v.SetDefault("pipeline.calibration_trust_factor", 0.5)
	v.SetDefault("pipeline.clamp_bound", 2.5)
	v.SetDefault("pipeline.simulation_sample_count", 2000)
	v.SetDefault("pipeline.min_edge_points", 1.5)
	v.SetDefault("pipeline.min_edge_probability", 0.03)
	v.SetDefault("pipeline.kelly_fraction", 0.25)
	v.SetDefault("pipeline.max_stake_per_game", 50.0)
	v.SetDefault("pipeline.bankroll", 1000.0)
	v.SetDefault("pipeline.history_games", 8)
	v.SetDefault("pipeline.min_history_games", 2)
	v.SetDefault("pipeline.injury_window_days", 7)
	v.SetDefault("pipeline.injury_weights.qb", 3.0)
	v.SetDefault("pipeline.injury_weights.skill", 1.0)
	v.SetDefault("pipeline.injury_weights.other", 0.5)
	v.SetDefault("pipeline.limited_injury_multiplier", 0.5)
	v.SetDefault("pipeline.travel_thresholds_miles", []float64{1000, 2000})
	v.SetDefault("pipeline.timezone_threshold_hours", 2.0)
	v.SetDefault("pipeline.margin_stddev", 13.5)
	v.SetDefault("pipeline.total_stddev", 13.0)
	v.SetDefault("pipeline.simulation_time_budget", "5s")
	v.SetDefault("pipeline.seed", 0)
	v.SetDefault("pipeline.workers", 4)
	v.SetDefault("pipeline.line_freshness_window", "6h")
	v.SetDefault("pipeline.line_move_tolerance", 0.5)
	v.SetDefault("pipeline.preferred_book", "")
	v.SetDefault("pipeline.require_clv_validation", false)
	v.SetDefault("pipeline.tiers.high", 0.08)
	v.SetDefault("pipeline.tiers.medium", 0.05)
	v.SetDefault("pipeline.feature_cache_ttl", "30m")

	v.SetDefault("model.name", "residual-ridge")
	v.SetDefault("model.ridge_lambda", 1.0)
	v.SetDefault("model.min_training_samples", 32)
	v.SetDefault("model.artifact_path", "output/model/artifact.json")

	v.SetDefault("backtest.from_season", 2023)
	v.SetDefault("backtest.from_week", 1)
	v.SetDefault("backtest.to_season", 2023)
	v.SetDefault("backtest.to_week", 18)
	v.SetDefault("backtest.min_train_weeks", 4)
	v.SetDefault("backtest.monte_carlo_iterations", 1000)
	v.SetDefault("backtest.ruin_threshold", 0.5)
	v.SetDefault("backtest.min_bets_for_decision", 30)
	v.SetDefault("backtest.output_path", "output/backtest")
	v.SetDefault("backtest.export_csv", true)
	v.SetDefault("backtest.export_json", true)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("schedule.cron", "0 12 * * 2")
	v.SetDefault("schedule.health_port", 8080)
}
