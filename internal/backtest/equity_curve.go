package backtest

import (
	"bytes"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/yourusername/gridline/internal/models"
)

// EquityPoint is the bankroll after one replayed week.
type EquityPoint struct {
	Season   int     `json:"season"`
	Week     int     `json:"week"`
	Value    float64 `json:"value"`
	Drawdown float64 `json:"drawdown"`
	WeekPnL  float64 `json:"week_pnl"`
}

// EquityCurve is the week-by-week bankroll path of a backtest.
type EquityCurve []EquityPoint

// BuildEquityCurve settles records week by week against an initial bankroll.
// Stakes are the recommended amounts; they are not rescaled as the bankroll moves.
func BuildEquityCurve(records []models.BacktestRecord, initial float64) EquityCurve {
	pnl := make(map[models.SeasonWeek]decimal.Decimal)
	for _, r := range records {
		sw := r.SeasonWeek()
		pnl[sw] = pnl[sw].Add(r.Profit)
	}
	weeks := make([]models.SeasonWeek, 0, len(pnl))
	for sw := range pnl {
		weeks = append(weeks, sw)
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].Before(weeks[j]) })

	curve := make(EquityCurve, 0, len(weeks))
	bankroll := decimal.NewFromFloat(initial)
	peak := initial
	for _, sw := range weeks {
		bankroll = bankroll.Add(pnl[sw])
		value := bankroll.InexactFloat64()
		if value > peak {
			peak = value
		}
		drawdown := 0.0
		if peak > 0 {
			drawdown = (peak - value) / peak
		}
		curve = append(curve, EquityPoint{
			Season:   sw.Season,
			Week:     sw.Week,
			Value:    value,
			Drawdown: drawdown,
			WeekPnL:  pnl[sw].InexactFloat64(),
		})
	}
	return curve
}

// GetReturns calculates week-over-week returns from the curve
func (e EquityCurve) GetReturns() []float64 {
	if len(e) < 2 {
		return []float64{}
	}
	returns := make([]float64, 0, len(e)-1)
	for i := 1; i < len(e); i++ {
		prev := e[i-1].Value
		curr := e[i].Value
		if prev == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, (curr-prev)/prev)
	}
	return returns
}

// GetVolatility calculates the standard deviation of weekly returns
func (e EquityCurve) GetVolatility() float64 {
	return stddev(e.GetReturns())
}

// MaxDrawdown returns the largest peak-to-trough fall as a fraction of the peak,
// counting the initial bankroll as the first peak.
func (e EquityCurve) MaxDrawdown() float64 {
	maxDD := 0.0
	for _, p := range e {
		if p.Drawdown > maxDD {
			maxDD = p.Drawdown
		}
	}
	return maxDD
}

// ToCSV exports the equity curve to a CSV string
func (e EquityCurve) ToCSV() string {
	var buf bytes.Buffer
	buf.WriteString("season,week,value,drawdown,week_pnl\n")
	for _, point := range e {
		buf.WriteString(strconv.Itoa(point.Season))
		buf.WriteString(",")
		buf.WriteString(strconv.Itoa(point.Week))
		buf.WriteString(",")
		buf.WriteString(formatFloat(point.Value))
		buf.WriteString(",")
		buf.WriteString(formatFloat(point.Drawdown))
		buf.WriteString(",")
		buf.WriteString(formatFloat(point.WeekPnL))
		buf.WriteString("\n")
	}
	return buf.String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
