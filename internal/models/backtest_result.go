package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BacktestRecord is one graded (game, recommendation, outcome, closing line) tuple.
// Records are appended once per backtest run and never mutated.
type BacktestRecord struct {
	ID             uuid.UUID         `db:"id" json:"id"`
	RunID          uuid.UUID         `db:"run_id" json:"run_id"`
	Season         int               `db:"season" json:"season"`
	Week           int               `db:"week" json:"week"`
	GameID         string            `db:"game_id" json:"game_id"`
	Recommendation BetRecommendation `db:"-" json:"recommendation"`
	HomeScore      int               `db:"home_score" json:"home_score"`
	AwayScore      int               `db:"away_score" json:"away_score"`
	Outcome        Outcome           `db:"outcome" json:"outcome"`
	Profit         decimal.Decimal   `db:"profit" json:"profit"`
	ClosingLine    float64           `db:"closing_line" json:"closing_line"`
	ClosingOdds    int               `db:"closing_odds" json:"closing_odds"`
	CLV            float64           `db:"clv" json:"clv"`
	CLVSource      string            `db:"clv_source" json:"clv_source"`
	CLVFallback    bool              `db:"clv_fallback" json:"clv_fallback"`
	ModelMargin    float64           `db:"model_margin" json:"model_margin"`
	ModelVersion   string            `db:"model_version" json:"model_version"`
	ConfigVersion  string            `db:"config_version" json:"config_version"`
	RecordedAt     time.Time         `db:"recorded_at" json:"recorded_at"`
}

// SeasonWeek returns the record's season/week position.
func (r *BacktestRecord) SeasonWeek() SeasonWeek {
	return SeasonWeek{Season: r.Season, Week: r.Week}
}

// CLVPositive reports whether the bet beat the closing line.
func (r *BacktestRecord) CLVPositive() bool {
	return r.CLV > 0
}
