package recommend

import (
	"github.com/yourusername/gridline/internal/market"
	"github.com/yourusername/gridline/internal/models"
	"github.com/yourusername/gridline/internal/simulation"
)

// Candidate is one priced side of one market for a game, before gating.
type Candidate struct {
	BetType         models.BetType `json:"bet_type"`
	Side            models.BetSide `json:"side"`
	Line            float64        `json:"line"`
	Odds            int            `json:"odds"`
	WinProb         float64        `json:"win_prob"`
	PushProb        float64        `json:"push_prob"`
	LossProb        float64        `json:"loss_prob"`
	Samples         int            `json:"samples"`
	EdgePoints      float64        `json:"edge_points"`
	HasPointsEdge   bool           `json:"has_points_edge"`
	EdgeProbability float64        `json:"edge_probability"`
	ExpectedValue   float64        `json:"expected_value"`
	Kelly           float64        `json:"kelly"`
}

// price fills the value fields from the win/push probabilities and American odds.
func (c *Candidate) price(win, push simulation.Probability) {
	c.WinProb = win.Value
	c.PushProb = push.Value
	c.LossProb = 1 - win.Value - push.Value
	if c.LossProb < 0 {
		c.LossProb = 0
	}
	c.Samples = win.Samples

	d := market.AmericanToDecimal(c.Odds)
	if d <= 1 {
		return
	}
	b := d - 1
	c.ExpectedValue = c.WinProb*b - c.LossProb
	if decided := c.WinProb + c.LossProb; decided > 0 {
		c.EdgeProbability = c.WinProb/decided - 1/d
	}
	// Kelly: f = (bp - q) / b, pushes refund the stake
	c.Kelly = (b*c.WinProb - c.LossProb) / b
}

// candidates prices both sides of every quoted market and keeps the better side of each.
func candidates(out *simulation.Outcome, quote models.MarketQuote) []Candidate {
	meanMargin := out.MeanMargin()
	meanTotal := out.MeanTotal()
	spreadPush := out.PushProbability(models.BetTypeSpread, quote.Spread)
	totalPush := out.PushProbability(models.BetTypeTotal, quote.Total)
	tie := out.PushProbability(models.BetTypeMoneyline, 0)

	var result []Candidate

	home := Candidate{BetType: models.BetTypeSpread, Side: models.BetSideHome, Line: quote.Spread, Odds: quote.HomeSpreadOdds,
		EdgePoints: meanMargin + quote.Spread, HasPointsEdge: true}
	home.price(out.CoverProbability(quote.Spread, models.BetSideHome), spreadPush)
	away := Candidate{BetType: models.BetTypeSpread, Side: models.BetSideAway, Line: quote.Spread, Odds: quote.AwaySpreadOdds,
		EdgePoints: -(meanMargin + quote.Spread), HasPointsEdge: true}
	away.price(out.CoverProbability(quote.Spread, models.BetSideAway), spreadPush)
	result = append(result, better(home, away))

	if quote.Total > 0 {
		over := Candidate{BetType: models.BetTypeTotal, Side: models.BetSideOver, Line: quote.Total, Odds: quote.OverOdds,
			EdgePoints: meanTotal - quote.Total, HasPointsEdge: true}
		over.price(out.OverProbability(quote.Total), totalPush)
		under := Candidate{BetType: models.BetTypeTotal, Side: models.BetSideUnder, Line: quote.Total, Odds: quote.UnderOdds,
			EdgePoints: quote.Total - meanTotal, HasPointsEdge: true}
		under.price(out.UnderProbability(quote.Total), totalPush)
		result = append(result, better(over, under))
	}

	if quote.HomeMoneyline != nil && quote.AwayMoneyline != nil {
		mlHome := Candidate{BetType: models.BetTypeMoneyline, Side: models.BetSideHome, Odds: *quote.HomeMoneyline}
		mlHome.price(out.WinProbability(models.BetSideHome), tie)
		mlAway := Candidate{BetType: models.BetTypeMoneyline, Side: models.BetSideAway, Odds: *quote.AwayMoneyline}
		mlAway.price(out.WinProbability(models.BetSideAway), tie)
		result = append(result, better(mlHome, mlAway))
	}
	return result
}

func better(a, b Candidate) Candidate {
	if b.ExpectedValue > a.ExpectedValue {
		return b
	}
	return a
}
