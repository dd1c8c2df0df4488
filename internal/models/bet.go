package models

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BetType is the market a recommendation targets
type BetType string

const (
	BetTypeSpread    BetType = "spread"
	BetTypeTotal     BetType = "total"
	BetTypeMoneyline BetType = "moneyline"
)

// BetSide is the side of a market a recommendation backs
type BetSide string

const (
	BetSideHome  BetSide = "home"
	BetSideAway  BetSide = "away"
	BetSideOver  BetSide = "over"
	BetSideUnder BetSide = "under"
)

// ConfidenceTier classifies a recommendation by edge magnitude
type ConfidenceTier string

const (
	TierHigh   ConfidenceTier = "HIGH"
	TierMedium ConfidenceTier = "MEDIUM"
	TierLow    ConfidenceTier = "LOW"
)

// Outcome is the graded result of a bet
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
	OutcomePush Outcome = "push"
)

// BetRecommendation is a sized bet derived from a simulated outcome and a market quote.
// Line is home-perspective for spreads and the posted total for totals; zero for moneylines.
type BetRecommendation struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	GameID          string          `db:"game_id" json:"game_id" validate:"required"`
	BetType         BetType         `db:"bet_type" json:"bet_type" validate:"required,oneof=spread total moneyline"`
	Side            BetSide         `db:"side" json:"side" validate:"required,oneof=home away over under"`
	Line            float64         `db:"line" json:"line"`
	Odds            int             `db:"odds" json:"odds" validate:"required"`
	Book            string          `db:"book" json:"book"`
	QuotedAt        time.Time       `db:"quoted_at" json:"quoted_at"`
	WinProb         float64         `db:"win_prob" json:"win_prob" validate:"gte=0,lte=1"`
	PushProb        float64         `db:"push_prob" json:"push_prob" validate:"gte=0,lte=1"`
	Samples         int             `db:"samples" json:"samples"`
	EdgePoints      float64         `db:"edge_points" json:"edge_points"`
	EdgeProbability float64         `db:"edge_probability" json:"edge_probability"`
	ExpectedValue   float64         `db:"expected_value" json:"expected_value"`
	KellyFraction   float64         `db:"kelly_fraction" json:"kelly_fraction"`
	Tier            ConfidenceTier  `db:"tier" json:"tier" validate:"required,oneof=HIGH MEDIUM LOW"`
	Stake           decimal.Decimal `db:"stake" json:"stake"`
	ModelVersion    string          `db:"model_version" json:"model_version"`
	ConfigVersion   string          `db:"config_version" json:"config_version"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
}

// StillValid reports whether the recommendation can still be acted on against quote.
// It is invalid once the line has moved more than tolerance points or the price
// has moved against the side.
func (r *BetRecommendation) StillValid(quote MarketQuote, tolerance float64) bool {
	if quote.GameID != "" && quote.GameID != r.GameID {
		return false
	}

	var line float64
	var odds int
	switch {
	case r.BetType == BetTypeSpread && r.Side == BetSideHome:
		line, odds = quote.Spread, quote.HomeSpreadOdds
	case r.BetType == BetTypeSpread && r.Side == BetSideAway:
		line, odds = quote.Spread, quote.AwaySpreadOdds
	case r.BetType == BetTypeTotal && r.Side == BetSideOver:
		line, odds = quote.Total, quote.OverOdds
	case r.BetType == BetTypeTotal && r.Side == BetSideUnder:
		line, odds = quote.Total, quote.UnderOdds
	case r.BetType == BetTypeMoneyline && r.Side == BetSideHome:
		if quote.HomeMoneyline == nil {
			return false
		}
		line, odds = r.Line, *quote.HomeMoneyline
	case r.BetType == BetTypeMoneyline && r.Side == BetSideAway:
		if quote.AwayMoneyline == nil {
			return false
		}
		line, odds = r.Line, *quote.AwayMoneyline
	default:
		return false
	}

	if math.Abs(line-r.Line) > tolerance {
		return false
	}
	return payoutPerUnit(odds) >= payoutPerUnit(r.Odds)
}

// payoutPerUnit returns the profit per unit staked at American odds.
func payoutPerUnit(american int) float64 {
	switch {
	case american >= 100:
		return float64(american) / 100
	case american <= -100:
		return 100 / float64(-american)
	default:
		return 0
	}
}
