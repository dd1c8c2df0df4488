// Package recommend converts simulated outcomes and market prices into sized bet recommendations.
package recommend

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/gridline/internal/config"
	"github.com/yourusername/gridline/internal/logger"
	"github.com/yourusername/gridline/internal/market"
	"github.com/yourusername/gridline/internal/metrics"
	"github.com/yourusername/gridline/internal/models"
	"github.com/yourusername/gridline/internal/simulation"
)

// Suppression reasons
const (
	ReasonNoPrice          = "no_price"
	ReasonMinEdgePoints    = "below_min_edge_points"
	ReasonMinEdgeProb      = "below_min_edge_probability"
	ReasonNegativeKelly    = "non_positive_kelly"
	ReasonStaleLine        = "stale_line"
	ReasonCLVUnvalidated   = "clv_unvalidated"
	ReasonStakeCapExceeded = "per_game_cap_exhausted"
	ReasonMinStake         = "below_min_stake"
)

// recommendationNamespace derives stable recommendation IDs.
var recommendationNamespace = uuid.MustParse("6f1c1f59-5f7a-4d58-9d0a-0c7e0b6c2a31")

// RecommendContext carries the per-game state a recommendation is stamped with.
type RecommendContext struct {
	ModelVersion  string
	ConfigVersion string
	// ModelValidated reports whether the model version passed CLV validation.
	ModelValidated bool
	// Now is the pricing time used for freshness checks and CreatedAt.
	Now time.Time
}

// Suppressed is a candidate that was withheld, with the gate that stopped it.
type Suppressed struct {
	Candidate Candidate `json:"candidate"`
	Reason    string    `json:"reason"`
	Err       error     `json:"-"`
}

// Result holds emitted recommendations and suppressed candidates for one game.
type Result struct {
	GameID          string                     `json:"game_id"`
	Recommendations []models.BetRecommendation `json:"recommendations"`
	Suppressed      []Suppressed               `json:"suppressed"`
}

// Engine gates and sizes candidates.
type Engine struct {
	cfg   config.PipelineConfig
	audit *logger.AuditLogger
	log   *logrus.Logger
}

// NewEngine creates a recommendation engine.
func NewEngine(cfg config.PipelineConfig, log *logrus.Logger) *Engine {
	log = logger.OrDefault(log)
	return &Engine{
		cfg:   cfg,
		audit: logger.NewAuditLogger(log),
		log:   log,
	}
}

// Recommend evaluates every market in quote against outcome. Candidates failing
// any gate are returned in Result.Suppressed; emitted stakes are always positive
// and sum to at most max_stake_per_game.
func (e *Engine) Recommend(out *simulation.Outcome, quote models.MarketQuote, rc RecommendContext) (Result, error) {
	if out == nil || out.Samples == 0 {
		return Result{}, fmt.Errorf("no simulated samples for game %s", quote.GameID)
	}
	if quote.GameID != "" && out.GameID != "" && quote.GameID != out.GameID {
		return Result{}, fmt.Errorf("quote for %s priced against outcome for %s", quote.GameID, out.GameID)
	}

	res := Result{GameID: out.GameID}
	staleErr := market.CheckFreshness(quote, rc.Now, e.cfg.LineFreshnessWindow)

	var passed []Candidate
	for _, c := range candidates(out, quote) {
		if reason, err := e.gate(c, rc, staleErr); reason != "" {
			res.Suppressed = append(res.Suppressed, Suppressed{Candidate: c, Reason: reason, Err: err})
			continue
		}
		passed = append(passed, c)
	}

	sort.SliceStable(passed, func(i, j int) bool {
		return passed[i].ExpectedValue > passed[j].ExpectedValue
	})

	remaining := decimal.NewFromFloat(e.cfg.MaxStakePerGame).Truncate(2)
	for _, c := range passed {
		stake := e.Stake(c.Kelly)
		var reason string
		switch {
		case !stake.IsPositive():
			reason = ReasonMinStake
		case !remaining.IsPositive():
			reason = ReasonStakeCapExceeded
		}
		if reason != "" {
			res.Suppressed = append(res.Suppressed, Suppressed{Candidate: c, Reason: reason})
			continue
		}
		if stake.GreaterThan(remaining) {
			stake = remaining
		}
		remaining = remaining.Sub(stake)
		res.Recommendations = append(res.Recommendations, e.build(out.GameID, c, stake, quote, rc))
	}

	for i := range res.Recommendations {
		rec := &res.Recommendations[i]
		e.audit.LogRecommendation(rec)
		metrics.RecordRecommendation(string(rec.BetType), string(rec.Tier), rec.Stake.InexactFloat64())
	}
	for _, s := range res.Suppressed {
		e.audit.LogSuppressed(out.GameID, s.Candidate.BetType, s.Candidate.Side, s.Reason)
		metrics.RecordSuppressed(s.Reason)
	}
	return res, nil
}

func (e *Engine) gate(c Candidate, rc RecommendContext, staleErr error) (string, error) {
	switch {
	case market.AmericanToDecimal(c.Odds) <= 1:
		return ReasonNoPrice, nil
	case c.HasPointsEdge && c.EdgePoints < e.cfg.MinEdgePoints:
		return ReasonMinEdgePoints, nil
	case c.EdgeProbability < e.cfg.MinEdgeProbability:
		return ReasonMinEdgeProb, nil
	case c.Kelly <= 0:
		return ReasonNegativeKelly, nil
	case staleErr != nil:
		return ReasonStaleLine, staleErr
	case e.cfg.RequireCLVValidation && !rc.ModelValidated:
		return ReasonCLVUnvalidated, nil
	}
	return "", nil
}

// Stake sizes a bet at bankroll × kelly_fraction × kelly, rounded down to cents.
// Non-positive Kelly fractions size to zero.
func (e *Engine) Stake(kelly float64) decimal.Decimal {
	if kelly <= 0 {
		e.log.WithField("kelly", kelly).Debug("Non-positive Kelly fraction, no stake")
		return decimal.Zero
	}
	stake := decimal.NewFromFloat(e.cfg.Bankroll).
		Mul(decimal.NewFromFloat(e.cfg.KellyFraction)).
		Mul(decimal.NewFromFloat(kelly)).
		Truncate(2)

	e.log.WithFields(logrus.Fields{
		"bankroll":       e.cfg.Bankroll,
		"kelly":          kelly,
		"kelly_fraction": e.cfg.KellyFraction,
		"stake":          stake.StringFixed(2),
	}).Debug("Position size calculated")
	return stake
}

// Tier maps a probability edge onto the configured confidence tiers.
func (e *Engine) Tier(edgeProbability float64) models.ConfidenceTier {
	switch {
	case edgeProbability >= e.cfg.Tiers.High:
		return models.TierHigh
	case edgeProbability >= e.cfg.Tiers.Medium:
		return models.TierMedium
	default:
		return models.TierLow
	}
}

func (e *Engine) build(gameID string, c Candidate, stake decimal.Decimal, quote models.MarketQuote, rc RecommendContext) models.BetRecommendation {
	key := fmt.Sprintf("%s|%s|%s|%.2f|%d|%s|%s", gameID, c.BetType, c.Side, c.Line, c.Odds, rc.ModelVersion, rc.ConfigVersion)
	return models.BetRecommendation{
		ID:              uuid.NewSHA1(recommendationNamespace, []byte(key)),
		GameID:          gameID,
		BetType:         c.BetType,
		Side:            c.Side,
		Line:            c.Line,
		Odds:            c.Odds,
		Book:            quote.Book,
		QuotedAt:        quote.QuotedAt,
		WinProb:         c.WinProb,
		PushProb:        c.PushProb,
		Samples:         c.Samples,
		EdgePoints:      c.EdgePoints,
		EdgeProbability: c.EdgeProbability,
		ExpectedValue:   c.ExpectedValue,
		KellyFraction:   c.Kelly,
		Tier:            e.Tier(c.EdgeProbability),
		Stake:           stake,
		ModelVersion:    rc.ModelVersion,
		ConfigVersion:   rc.ConfigVersion,
		CreatedAt:       rc.Now,
	}
}
