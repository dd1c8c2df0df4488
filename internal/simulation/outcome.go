package simulation

import (
	"math"
	"sort"

	"github.com/yourusername/gridline/internal/models"
)

// tolerance is the distance within which a simulated result equals a line.
const tolerance = 1e-9

// Probability is an estimate together with the sample count it was computed from.
type Probability struct {
	Value   float64 `json:"value"`
	Samples int     `json:"samples"`
}

// Outcome is the simulated final-score distribution of one game.
type Outcome struct {
	GameID     string
	Requested  int
	Samples    int
	Truncated  bool
	Seed       int64
	HomeScores []int
	AwayScores []int
}

// Margin returns the home-minus-away margin of sample i.
func (o *Outcome) Margin(i int) float64 {
	return float64(o.HomeScores[i] - o.AwayScores[i])
}

// Total returns the combined points of sample i.
func (o *Outcome) Total(i int) float64 {
	return float64(o.HomeScores[i] + o.AwayScores[i])
}

func (o *Outcome) fraction(pred func(i int) bool) Probability {
	if o.Samples == 0 {
		return Probability{}
	}
	n := 0
	for i := 0; i < o.Samples; i++ {
		if pred(i) {
			n++
		}
	}
	return Probability{Value: float64(n) / float64(o.Samples), Samples: o.Samples}
}

// CoverProbability is the probability that side beats spread, quoted from the
// home perspective. Pushes count as not covering.
func (o *Outcome) CoverProbability(spread float64, side models.BetSide) Probability {
	return o.fraction(func(i int) bool {
		adjusted := o.Margin(i) + spread
		if side == models.BetSideAway {
			return adjusted < -tolerance
		}
		return adjusted > tolerance
	})
}

// OverProbability is the probability the total exceeds line.
func (o *Outcome) OverProbability(line float64) Probability {
	return o.fraction(func(i int) bool { return o.Total(i) > line+tolerance })
}

// UnderProbability is the probability the total falls short of line.
func (o *Outcome) UnderProbability(line float64) Probability {
	return o.fraction(func(i int) bool { return o.Total(i) < line-tolerance })
}

// PushProbability is the probability a bet of betType at line is refunded.
// For moneylines the line is ignored and a push is a tie.
func (o *Outcome) PushProbability(betType models.BetType, line float64) Probability {
	return o.fraction(func(i int) bool {
		switch betType {
		case models.BetTypeSpread:
			return math.Abs(o.Margin(i)+line) <= tolerance
		case models.BetTypeTotal:
			return math.Abs(o.Total(i)-line) <= tolerance
		default:
			return o.HomeScores[i] == o.AwayScores[i]
		}
	})
}

// WinProbability is the probability side wins straight up.
func (o *Outcome) WinProbability(side models.BetSide) Probability {
	return o.fraction(func(i int) bool {
		if side == models.BetSideAway {
			return o.AwayScores[i] > o.HomeScores[i]
		}
		return o.HomeScores[i] > o.AwayScores[i]
	})
}

// MeanMargin returns the average simulated home margin.
func (o *Outcome) MeanMargin() float64 {
	m, _ := o.stats(o.Margin)
	return m
}

// MeanTotal returns the average simulated total.
func (o *Outcome) MeanTotal() float64 {
	m, _ := o.stats(o.Total)
	return m
}

// Summary reduces the outcome to its persisted statistics.
func (o *Outcome) Summary() models.OutcomeSummary {
	margins := o.values(o.Margin)
	totals := o.values(o.Total)
	mm, ms := o.stats(o.Margin)
	tm, ts := o.stats(o.Total)

	return models.OutcomeSummary{
		GameID:       o.GameID,
		Samples:      o.Samples,
		Truncated:    o.Truncated,
		MeanMargin:   mm,
		MeanTotal:    tm,
		MarginStdDev: ms,
		TotalStdDev:  ts,
		HomeWinProb:  o.WinProbability(models.BetSideHome).Value,
		AwayWinProb:  o.WinProbability(models.BetSideAway).Value,
		TieProb:      o.PushProbability(models.BetTypeMoneyline, 0).Value,
		MarginP10:    percentile(margins, 0.10),
		MarginP90:    percentile(margins, 0.90),
		TotalP10:     percentile(totals, 0.10),
		TotalP90:     percentile(totals, 0.90),
	}
}

func (o *Outcome) values(f func(int) float64) []float64 {
	out := make([]float64, o.Samples)
	for i := range out {
		out[i] = f(i)
	}
	return out
}

func (o *Outcome) stats(f func(int) float64) (float64, float64) {
	if o.Samples == 0 {
		return 0, 0
	}
	var sum float64
	for i := 0; i < o.Samples; i++ {
		sum += f(i)
	}
	mean := sum / float64(o.Samples)
	var ss float64
	for i := 0; i < o.Samples; i++ {
		d := f(i) - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(o.Samples))
}

func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	idx := int(math.Floor(p * float64(len(sorted)-1)))
	return sorted[idx]
}
