package backtest

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/yourusername/gridline/internal/market"
	"github.com/yourusername/gridline/internal/models"
)

// pushTolerance treats near-integer results as exact for push grading.
const pushTolerance = 1e-9

// Grade settles a recommendation against the final score and returns the
// outcome and profit in currency units. Pushes return the stake, so profit is zero.
func Grade(rec models.BetRecommendation, homeScore, awayScore int) (models.Outcome, decimal.Decimal, error) {
	margin := float64(homeScore - awayScore)
	total := float64(homeScore + awayScore)

	var diff float64
	switch {
	case rec.BetType == models.BetTypeSpread && rec.Side == models.BetSideHome:
		diff = margin + rec.Line
	case rec.BetType == models.BetTypeSpread && rec.Side == models.BetSideAway:
		diff = -(margin + rec.Line)
	case rec.BetType == models.BetTypeTotal && rec.Side == models.BetSideOver:
		diff = total - rec.Line
	case rec.BetType == models.BetTypeTotal && rec.Side == models.BetSideUnder:
		diff = rec.Line - total
	case rec.BetType == models.BetTypeMoneyline && rec.Side == models.BetSideHome:
		diff = margin
	case rec.BetType == models.BetTypeMoneyline && rec.Side == models.BetSideAway:
		diff = -margin
	default:
		return "", decimal.Zero, fmt.Errorf("cannot grade %s bet on side %s", rec.BetType, rec.Side)
	}

	switch {
	case diff > pushTolerance:
		profit, err := winProfit(rec.Stake, rec.Odds)
		if err != nil {
			return "", decimal.Zero, err
		}
		return models.OutcomeWin, profit, nil
	case diff < -pushTolerance:
		return models.OutcomeLoss, rec.Stake.Neg(), nil
	default:
		return models.OutcomePush, decimal.Zero, nil
	}
}

// winProfit returns the profit on a winning stake at American odds, rounded to cents.
func winProfit(stake decimal.Decimal, american int) (decimal.Decimal, error) {
	hundred := decimal.NewFromInt(100)
	switch {
	case american >= 100:
		return stake.Mul(decimal.NewFromInt(int64(american))).Div(hundred).Round(2), nil
	case american <= -100:
		return stake.Mul(hundred).Div(decimal.NewFromInt(int64(-american))).Round(2), nil
	default:
		return decimal.Zero, fmt.Errorf("invalid american odds %d", american)
	}
}

// CLV returns the closing line value of rec against the closing side of pair.
// Spread and total CLV are in points; moneyline CLV is the closing implied
// probability minus the bet's implied probability, in percentage points.
// Positive values mean the bet beat the close.
func CLV(rec models.BetRecommendation, pair models.LinePair) (float64, error) {
	closing := pair.Closing
	switch {
	case rec.BetType == models.BetTypeSpread && rec.Side == models.BetSideHome:
		return rec.Line - closing.Spread, nil
	case rec.BetType == models.BetTypeSpread && rec.Side == models.BetSideAway:
		return closing.Spread - rec.Line, nil
	case rec.BetType == models.BetTypeTotal && rec.Side == models.BetSideOver:
		return closing.Total - rec.Line, nil
	case rec.BetType == models.BetTypeTotal && rec.Side == models.BetSideUnder:
		return rec.Line - closing.Total, nil
	case rec.BetType == models.BetTypeMoneyline:
		odds, ok := closingOdds(rec, closing)
		if !ok {
			return 0, &models.MissingDataError{GameID: rec.GameID, Feature: "closing_moneyline", Reason: "closing line carries no moneyline price"}
		}
		return (market.ImpliedProbability(odds) - market.ImpliedProbability(rec.Odds)) * 100, nil
	default:
		return 0, fmt.Errorf("cannot compute CLV for %s bet on side %s", rec.BetType, rec.Side)
	}
}

// closingLine returns the closing number matching the recommendation's market.
func closingLine(rec models.BetRecommendation, closing models.MarketLine) float64 {
	switch rec.BetType {
	case models.BetTypeSpread:
		return closing.Spread
	case models.BetTypeTotal:
		return closing.Total
	default:
		return 0
	}
}

// closingOdds returns the closing price for the recommendation's side.
func closingOdds(rec models.BetRecommendation, closing models.MarketLine) (int, bool) {
	q := models.QuoteFromLine(closing)
	switch {
	case rec.BetType == models.BetTypeSpread && rec.Side == models.BetSideHome:
		return q.HomeSpreadOdds, true
	case rec.BetType == models.BetTypeSpread && rec.Side == models.BetSideAway:
		return q.AwaySpreadOdds, true
	case rec.BetType == models.BetTypeTotal && rec.Side == models.BetSideOver:
		return q.OverOdds, true
	case rec.BetType == models.BetTypeTotal && rec.Side == models.BetSideUnder:
		return q.UnderOdds, true
	case rec.BetType == models.BetTypeMoneyline && rec.Side == models.BetSideHome && q.HomeMoneyline != nil:
		return *q.HomeMoneyline, true
	case rec.BetType == models.BetTypeMoneyline && rec.Side == models.BetSideAway && q.AwayMoneyline != nil:
		return *q.AwayMoneyline, true
	default:
		return 0, false
	}
}
