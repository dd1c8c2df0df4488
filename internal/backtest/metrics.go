package backtest

import (
	"encoding/json"
	"sort"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"github.com/yourusername/gridline/internal/models"
)

// clvTolerance keeps zero-CLV bets out of the positive count.
const clvTolerance = 1e-9

// Metrics aggregates graded bets. WinRate excludes pushes from the denominator.
type Metrics struct {
	Bets            int             `json:"bets"`
	Wins            int             `json:"wins"`
	Losses          int             `json:"losses"`
	Pushes          int             `json:"pushes"`
	WinRate         float64         `json:"win_rate"`
	Staked          decimal.Decimal `json:"staked"`
	Profit          decimal.Decimal `json:"profit"`
	ROI             float64         `json:"roi"`
	CLVPositiveRate float64         `json:"clv_positive_rate"`
	MeanCLV         float64         `json:"mean_clv"`
}

// WeekMetrics are the metrics of one replayed week.
type WeekMetrics struct {
	Season int `json:"season"`
	Week   int `json:"week"`
	Metrics
}

// Summary breaks metrics out by week and by bet type.
type Summary struct {
	Aggregate Metrics                    `json:"aggregate"`
	ByWeek    []WeekMetrics              `json:"by_week"`
	ByBetType map[models.BetType]Metrics `json:"by_bet_type"`
}

// Summarize aggregates records. Weeks are ordered chronologically.
func Summarize(records []models.BacktestRecord) Summary {
	byWeek := make(map[models.SeasonWeek][]models.BacktestRecord)
	byType := make(map[models.BetType][]models.BacktestRecord)
	for _, r := range records {
		byWeek[r.SeasonWeek()] = append(byWeek[r.SeasonWeek()], r)
		byType[r.Recommendation.BetType] = append(byType[r.Recommendation.BetType], r)
	}

	weeks := make([]models.SeasonWeek, 0, len(byWeek))
	for sw := range byWeek {
		weeks = append(weeks, sw)
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].Before(weeks[j]) })

	summary := Summary{
		Aggregate: CalculateMetrics(records),
		ByWeek:    make([]WeekMetrics, 0, len(weeks)),
		ByBetType: make(map[models.BetType]Metrics, len(byType)),
	}
	for _, sw := range weeks {
		summary.ByWeek = append(summary.ByWeek, WeekMetrics{Season: sw.Season, Week: sw.Week, Metrics: CalculateMetrics(byWeek[sw])})
	}
	for bt, recs := range byType {
		summary.ByBetType[bt] = CalculateMetrics(recs)
	}
	return summary
}

// CalculateMetrics computes the metrics of one group of records.
func CalculateMetrics(records []models.BacktestRecord) Metrics {
	m := Metrics{Bets: len(records), Staked: decimal.Zero, Profit: decimal.Zero}
	if len(records) == 0 {
		return m
	}

	clvs := make([]float64, 0, len(records))
	positive := 0
	for _, r := range records {
		switch r.Outcome {
		case models.OutcomeWin:
			m.Wins++
		case models.OutcomeLoss:
			m.Losses++
		case models.OutcomePush:
			m.Pushes++
		}
		m.Staked = m.Staked.Add(r.Recommendation.Stake)
		m.Profit = m.Profit.Add(r.Profit)
		clvs = append(clvs, r.CLV)
		if r.CLV > clvTolerance {
			positive++
		}
	}

	if decided := m.Wins + m.Losses; decided > 0 {
		m.WinRate = float64(m.Wins) / float64(decided)
	}
	if m.Staked.IsPositive() {
		m.ROI = m.Profit.Div(m.Staked).InexactFloat64()
	}
	m.CLVPositiveRate = float64(positive) / float64(len(records))
	m.MeanCLV = average(clvs)
	return m
}

// ToJSON renders the metrics for logs.
func (m Metrics) ToJSON() string {
	data, _ := json.Marshal(m)
	return string(data)
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

func stddev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.PopStdDev(values, nil)
}
