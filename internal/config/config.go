// Package config provides configuration management for the gridline prediction engine.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App      AppConfig      `mapstructure:"app" validate:"required"`
	Database DatabaseConfig `mapstructure:"database"`
	Data     DataConfig     `mapstructure:"data" validate:"required"`
	Pipeline PipelineConfig `mapstructure:"pipeline" validate:"required"`
	Model    ModelConfig    `mapstructure:"model" validate:"required"`
	Backtest BacktestConfig `mapstructure:"backtest" validate:"required"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration.
// Persistence of outputs is optional; connection fields are checked only when enabled.
type DatabaseConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name               string `mapstructure:"name"`
	User               string `mapstructure:"user"`
	Password           string `mapstructure:"password"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"gte=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"gte=0"`
}

// DataConfig locates the tabular inputs and the output directory
type DataConfig struct {
	GamesPath     string `mapstructure:"games_path" validate:"required"`
	TeamStatsPath string `mapstructure:"team_stats_path" validate:"required"`
	LinesPath     string `mapstructure:"lines_path" validate:"required"`
	TeamsPath     string `mapstructure:"teams_path" validate:"required"`
	InjuriesPath  string `mapstructure:"injuries_path"`
	OutputDir     string `mapstructure:"output_dir" validate:"required"`
}

// InjuryWeights are the per-position-group weights of the injury-impact index
type InjuryWeights struct {
	QB    float64 `mapstructure:"qb" json:"qb" validate:"gte=0"`
	Skill float64 `mapstructure:"skill" json:"skill" validate:"gte=0"`
	Other float64 `mapstructure:"other" json:"other" validate:"gte=0"`
}

// TiersConfig holds the probability-edge thresholds for confidence tiers
type TiersConfig struct {
	High   float64 `mapstructure:"high" json:"high" validate:"gt=0,lte=1"`
	Medium float64 `mapstructure:"medium" json:"medium" validate:"gt=0,lte=1"`
}

// PipelineConfig holds every tunable option of the prediction pipeline
type PipelineConfig struct {
	RecencyDecay            float64       `mapstructure:"recency_decay" json:"recency_decay" validate:"decay"`
	CalibrationTrustFactor  float64       `mapstructure:"calibration_trust_factor" json:"calibration_trust_factor" validate:"gte=0,lte=2"`
	ClampBound              float64       `mapstructure:"clamp_bound" json:"clamp_bound" validate:"gt=0"`
	SimulationSampleCount   int           `mapstructure:"simulation_sample_count" json:"simulation_sample_count" validate:"gt=0"`
	MinEdgePoints           float64       `mapstructure:"min_edge_points" json:"min_edge_points" validate:"gte=0"`
	MinEdgeProbability      float64       `mapstructure:"min_edge_probability" json:"min_edge_probability" validate:"gte=0,lt=1"`
	KellyFraction           float64       `mapstructure:"kelly_fraction" json:"kelly_fraction" validate:"gt=0,lte=1"`
	MaxStakePerGame         float64       `mapstructure:"max_stake_per_game" json:"max_stake_per_game" validate:"gt=0"`
	Bankroll                float64       `mapstructure:"bankroll" json:"bankroll" validate:"gt=0"`
	HistoryGames            int           `mapstructure:"history_games" json:"history_games" validate:"gt=0"`
	MinHistoryGames         int           `mapstructure:"min_history_games" json:"min_history_games" validate:"gt=0"`
	InjuryWindowDays        int           `mapstructure:"injury_window_days" json:"injury_window_days" validate:"gt=0"`
	InjuryWeights           InjuryWeights `mapstructure:"injury_weights" json:"injury_weights"`
	LimitedInjuryMultiplier float64       `mapstructure:"limited_injury_multiplier" json:"limited_injury_multiplier" validate:"gte=0,lte=1"`
	TravelThresholdsMiles   []float64     `mapstructure:"travel_thresholds_miles" json:"travel_thresholds_miles" validate:"required,min=1,dive,gt=0"`
	TimezoneThresholdHours  float64       `mapstructure:"timezone_threshold_hours" json:"timezone_threshold_hours" validate:"gte=0"`
	MarginStdDev            float64       `mapstructure:"margin_stddev" json:"margin_stddev" validate:"gt=0"`
	TotalStdDev             float64       `mapstructure:"total_stddev" json:"total_stddev" validate:"gt=0"`
	SimulationTimeBudget    time.Duration `mapstructure:"simulation_time_budget" json:"simulation_time_budget" validate:"gte=0"`
	Seed                    int64         `mapstructure:"seed" json:"seed" validate:"gte=0"`
	Workers                 int           `mapstructure:"workers" json:"-" validate:"gt=0"`
	LineFreshnessWindow     time.Duration `mapstructure:"line_freshness_window" json:"line_freshness_window" validate:"gte=0"`
	LineMoveTolerance       float64       `mapstructure:"line_move_tolerance" json:"line_move_tolerance" validate:"gte=0"`
	PreferredBook           string        `mapstructure:"preferred_book" json:"preferred_book"`
	RequireCLVValidation    bool          `mapstructure:"require_clv_validation" json:"require_clv_validation"`
	Tiers                   TiersConfig   `mapstructure:"tiers" json:"tiers"`
	FeatureCacheTTL         time.Duration `mapstructure:"feature_cache_ttl" json:"-"`
}

// ModelConfig configures the residual model trainer
type ModelConfig struct {
	Name               string  `mapstructure:"name" json:"name" validate:"required"`
	RidgeLambda        float64 `mapstructure:"ridge_lambda" json:"ridge_lambda" validate:"gte=0"`
	MinTrainingSamples int     `mapstructure:"min_training_samples" json:"min_training_samples" validate:"gt=0"`
	ArtifactPath       string  `mapstructure:"artifact_path" json:"-" validate:"required"`
}

// BacktestConfig represents backtesting configuration
type BacktestConfig struct {
	FromSeason           int     `mapstructure:"from_season" validate:"required,gte=1920"`
	FromWeek             int     `mapstructure:"from_week" validate:"required,gte=1,lte=22"`
	ToSeason             int     `mapstructure:"to_season" validate:"required,gte=1920"`
	ToWeek               int     `mapstructure:"to_week" validate:"required,gte=1,lte=22"`
	MinTrainWeeks        int     `mapstructure:"min_train_weeks" validate:"gt=0"`
	MonteCarloIterations int     `mapstructure:"monte_carlo_iterations" validate:"gt=0"`
	RuinThreshold        float64 `mapstructure:"ruin_threshold" validate:"gte=0,lt=1"`
	MinBetsForDecision   int     `mapstructure:"min_bets_for_decision" validate:"gt=0"`
	OutputPath           string  `mapstructure:"output_path" validate:"required"`
	ExportCSV            bool    `mapstructure:"export_csv"`
	ExportJSON           bool    `mapstructure:"export_json"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Path    string `mapstructure:"path"`
}

// ScheduleConfig configures the recurring weekly prediction cycle
type ScheduleConfig struct {
	Cron       string `mapstructure:"cron"`
	HealthPort int    `mapstructure:"health_port" validate:"omitempty,min=1,max=65535"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// PipelineVersion returns a short stable hash of the pipeline and model sections.
// Every prediction, recommendation and backtest record is stamped with it.
func (c *Config) PipelineVersion() string {
	payload := struct {
		Pipeline PipelineConfig `json:"pipeline"`
		Model    ModelConfig    `json:"model"`
	}{c.Pipeline, c.Model}

	data, err := json.Marshal(payload)
	if err != nil {
		return "cfg-unknown"
	}
	sum := sha256.Sum256(data)
	return "cfg-" + hex.EncodeToString(sum[:])[:12]
}
