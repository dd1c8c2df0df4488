// Package config provides configuration management for the gridline prediction engine.
package config

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	_ = v.RegisterValidation("environment", validateEnvironment)
	_ = v.RegisterValidation("loglevel", validateLogLevel)
	_ = v.RegisterValidation("decay", validateDecay)
	v.RegisterStructValidation(validateTierOrder, TiersConfig{})

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	cv := NewValidator()
	return cv.Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	err := cv.validator.Struct(cfg)
	if err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	if err := validateCrossField(cfg); err != nil {
		return err
	}

	return nil
}

// validateEnvironment validates the environment field
func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

// validateLogLevel validates the log level field
func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// validateDecay accepts recency decay factors in (0, 1]
func validateDecay(fl validator.FieldLevel) bool {
	d := fl.Field().Float()
	return d > 0 && d <= 1
}

// validateTierOrder requires the HIGH threshold to sit above the MEDIUM threshold
func validateTierOrder(sl validator.StructLevel) {
	tiers := sl.Current().Interface().(TiersConfig)
	if tiers.High <= tiers.Medium {
		sl.ReportError(tiers.High, "High", "High", "tierorder", "")
	}
}

// validateCrossField performs cross-field validations
func validateCrossField(cfg *Config) error {
	from := cfg.Backtest.FromSeason*100 + cfg.Backtest.FromWeek
	to := cfg.Backtest.ToSeason*100 + cfg.Backtest.ToWeek
	if from > to {
		return fmt.Errorf("backtest range start %d-W%02d must not be after end %d-W%02d",
			cfg.Backtest.FromSeason, cfg.Backtest.FromWeek, cfg.Backtest.ToSeason, cfg.Backtest.ToWeek)
	}

	if cfg.Pipeline.MaxStakePerGame > cfg.Pipeline.Bankroll {
		return fmt.Errorf("max_stake_per_game cannot exceed bankroll")
	}

	if cfg.Pipeline.MinHistoryGames > cfg.Pipeline.HistoryGames {
		return fmt.Errorf("min_history_games cannot exceed history_games")
	}

	thresholds := cfg.Pipeline.TravelThresholdsMiles
	for i := 1; i < len(thresholds); i++ {
		if thresholds[i] <= thresholds[i-1] {
			return fmt.Errorf("travel_thresholds_miles must be strictly increasing")
		}
	}

	if cfg.Database.Enabled {
		if cfg.Database.Host == "" || cfg.Database.Name == "" || cfg.Database.User == "" {
			return fmt.Errorf("database host, name and user are required when persistence is enabled")
		}
		if cfg.Database.MaxIdleConnections > cfg.Database.MaxConnections {
			return fmt.Errorf("max_idle_connections cannot exceed max_connections")
		}
	}

	if cfg.Schedule.Cron != "" {
		if _, err := cron.ParseStandard(cfg.Schedule.Cron); err != nil {
			return fmt.Errorf("invalid schedule cron expression %q: %w", cfg.Schedule.Cron, err)
		}
	}

	if cfg.IsProduction() && cfg.Database.Enabled && cfg.Database.SSLMode == "disable" {
		return fmt.Errorf("production environment requires SSL mode to be 'require' or 'verify-full'")
	}

	return nil
}

// formatValidationErrors formats validation errors into a readable string
func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var errMsg string
	for _, fieldError := range validationErrors {
		field := fieldError.StructField()
		tag := fieldError.Tag()
		value := fieldError.Value()

		switch tag {
		case "required":
			errMsg += fmt.Sprintf("- Field '%s' is required\n", field)
		case "min", "max":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: %s constraint violated\n", field, tag)
		case "gt", "gte", "lt", "lte":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: numeric constraint %s violated, got '%v'\n", field, tag, value)
		case "environment":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: development, staging, production\n", field)
		case "loglevel":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: debug, info, warn, error\n", field)
		case "decay":
			errMsg += fmt.Sprintf("- Field '%s' must be in (0, 1], got '%v'\n", field, value)
		case "tierorder":
			errMsg += fmt.Sprintf("- Field '%s' tier thresholds must satisfy high > medium\n", field)
		case "oneof":
			errMsg += fmt.Sprintf("- Field '%s' has invalid value '%v'\n", field, value)
		default:
			errMsg += fmt.Sprintf("- Field '%s' failed validation: %s\n", field, tag)
		}
	}
	return fmt.Errorf("configuration validation failed:\n%s", errMsg)
}

// ValidateEnvironment validates environment-specific requirements
func ValidateEnvironment(cfg *Config) error {
	if cfg.IsProduction() {
		if cfg.Pipeline.Seed != 0 {
			return fmt.Errorf("production runs must use a fresh simulation seed (pipeline.seed = 0)")
		}
		if cfg.Database.Enabled && isTestCredential(cfg.Database.User) {
			return fmt.Errorf("production environment should not use test database credentials")
		}
	}
	return nil
}

// isTestCredential checks if a credential looks like a test credential
func isTestCredential(credential string) bool {
	testPatterns := []string{
		"test", "demo", "example", "placeholder", "YOUR_",
	}

	for _, pattern := range testPatterns {
		if match, _ := regexp.MatchString("(?i)"+pattern, credential); match {
			return true
		}
	}

	return false
}
