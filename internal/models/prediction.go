package models

import (
	"time"

	"github.com/google/uuid"
)

// ResidualPrediction is the model's deviation estimate from the market prior for one game.
// It is produced once per game per model version and superseded, never mutated.
type ResidualPrediction struct {
	ID             uuid.UUID `db:"id" json:"id"`
	GameID         string    `db:"game_id" json:"game_id" validate:"required"`
	ModelVersion   string    `db:"model_version" json:"model_version" validate:"required"`
	ConfigVersion  string    `db:"config_version" json:"config_version" validate:"required"`
	MarginResidual float64   `db:"margin_residual" json:"margin_residual"`
	MarginVariance float64   `db:"margin_variance" json:"margin_variance" validate:"gte=0"`
	TotalResidual  float64   `db:"total_residual" json:"total_residual"`
	TotalVariance  float64   `db:"total_variance" json:"total_variance" validate:"gte=0"`
	PriorSpread    float64   `db:"prior_spread" json:"prior_spread"`
	PriorTotal     float64   `db:"prior_total" json:"prior_total"`
	ModelSignal    bool      `db:"model_signal" json:"model_signal"`
	PredictedAt    time.Time `db:"predicted_at" json:"predicted_at"`
}

// MarketOnlyVersion tags predictions made without a trained residual model.
const MarketOnlyVersion = "market-only"

// CalibratedPrediction is a trusted predictive distribution for margin and total.
type CalibratedPrediction struct {
	GameID         string  `json:"game_id"`
	ModelVersion   string  `json:"model_version"`
	ConfigVersion  string  `json:"config_version"`
	RawMargin      float64 `json:"raw_margin_residual"`
	RawTotal       float64 `json:"raw_total_residual"`
	MarginResidual float64 `json:"margin_residual"`
	TotalResidual  float64 `json:"total_residual"`
	MarginMean     float64 `json:"margin_mean"`
	MarginVariance float64 `json:"margin_variance"`
	TotalMean      float64 `json:"total_mean"`
	TotalVariance  float64 `json:"total_variance"`
	TrustFactor    float64 `json:"trust_factor"`
	ModelSignal    bool    `json:"model_signal"`
}

// OutcomeSummary is the persisted summary of a simulated outcome distribution.
type OutcomeSummary struct {
	GameID        string  `json:"game_id"`
	Samples       int     `json:"samples"`
	Truncated     bool    `json:"truncated"`
	MeanMargin    float64 `json:"mean_margin"`
	MeanTotal     float64 `json:"mean_total"`
	MarginStdDev  float64 `json:"margin_std_dev"`
	TotalStdDev   float64 `json:"total_std_dev"`
	HomeWinProb   float64 `json:"home_win_prob"`
	AwayWinProb   float64 `json:"away_win_prob"`
	TieProb       float64 `json:"tie_prob"`
	MarginP10     float64 `json:"margin_p10"`
	MarginP90     float64 `json:"margin_p90"`
	TotalP10      float64 `json:"total_p10"`
	TotalP90      float64 `json:"total_p90"`
}

// PredictionRow is the per-game prediction output consumed by collaborators.
type PredictionRow struct {
	ID              uuid.UUID `db:"id" json:"id"`
	GameID          string    `db:"game_id" json:"game_id"`
	Season          int       `db:"season" json:"season"`
	Week            int       `db:"week" json:"week"`
	HomeTeam        string    `db:"home_team" json:"home_team"`
	AwayTeam        string    `db:"away_team" json:"away_team"`
	ProjectedMargin float64   `db:"projected_margin" json:"projected_margin"`
	ProjectedTotal  float64   `db:"projected_total" json:"projected_total"`
	HomeWinProb     float64   `db:"home_win_prob" json:"home_win_prob"`
	SampleCount     int       `db:"sample_count" json:"sample_count"`
	ModelVersion    string    `db:"model_version" json:"model_version"`
	ConfigVersion   string    `db:"config_version" json:"config_version"`
	ModelSignal     bool      `db:"model_signal" json:"model_signal"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// Game status values
const (
	GameStatusOK     = "ok"
	GameStatusFailed = "failed"
)

// GameStatus reports the outcome of processing one game in a batch.
type GameStatus struct {
	GameID string `json:"game_id"`
	Status string `json:"status"`
	Kind   string `json:"kind,omitempty"`
	Reason string `json:"reason,omitempty"`
}
