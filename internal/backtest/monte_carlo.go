package backtest

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/yourusername/gridline/internal/market"
	"github.com/yourusername/gridline/internal/models"
)

// MonteCarloConfig configures the bankroll risk simulation
type MonteCarloConfig struct {
	Iterations      int
	Seed            int64
	InitialBankroll float64
	// RuinThreshold is the fraction of the initial bankroll at or below which a path is ruined.
	RuinThreshold float64
}

// MonteCarloResult is the distribution of final bankrolls over resampled seasons
type MonteCarloResult struct {
	Iterations          int                `json:"iterations"`
	Bets                int                `json:"bets"`
	MeanReturn          float64            `json:"mean_return"`
	StdReturn           float64            `json:"std_return"`
	VaR95               float64            `json:"var_95"`
	VaR99               float64            `json:"var_99"`
	ProbabilityOfProfit float64            `json:"probability_of_profit"`
	ProbabilityOfRuin   float64            `json:"probability_of_ruin"`
	ConfidenceIntervals map[string]float64 `json:"confidence_intervals"`
	Distribution        []float64          `json:"-"`
}

// RunBankrollMonteCarlo replays the realized bets many times, drawing each
// outcome from the bet's simulated win and push probabilities, and reports
// the spread of final bankrolls. A path is ruined once its running bankroll
// touches InitialBankroll × RuinThreshold.
func RunBankrollMonteCarlo(ctx context.Context, records []models.BacktestRecord, cfg MonteCarloConfig) (MonteCarloResult, error) {
	if cfg.InitialBankroll <= 0 {
		return MonteCarloResult{}, fmt.Errorf("initial bankroll must be positive, got %f", cfg.InitialBankroll)
	}
	if cfg.Iterations <= 0 {
		cfg.Iterations = 1000
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	type bet struct {
		win, push float64
		stake     float64
		payout    float64
	}
	bets := make([]bet, 0, len(records))
	for _, r := range records {
		d := market.AmericanToDecimal(r.Recommendation.Odds)
		if d <= 0 {
			continue
		}
		bets = append(bets, bet{
			win:    r.Recommendation.WinProb,
			push:   r.Recommendation.PushProb,
			stake:  r.Recommendation.Stake.InexactFloat64(),
			payout: d - 1,
		})
	}

	rng := rand.New(rand.NewSource(seed))
	ruinLevel := cfg.InitialBankroll * cfg.RuinThreshold
	distribution := make([]float64, cfg.Iterations)
	ruined := 0

	for i := 0; i < cfg.Iterations; i++ {
		if i%100 == 0 {
			if err := ctx.Err(); err != nil {
				return MonteCarloResult{}, err
			}
		}
		bankroll := cfg.InitialBankroll
		hitRuin := false
		for _, b := range bets {
			u := rng.Float64()
			switch {
			case u < b.win:
				bankroll += b.stake * b.payout
			case u < b.win+b.push:
				// push
			default:
				bankroll -= b.stake
			}
			if bankroll <= ruinLevel {
				hitRuin = true
			}
		}
		if hitRuin {
			ruined++
		}
		distribution[i] = bankroll
	}

	mean, std := meanStd(distribution)
	var95 := percentile(distribution, 0.05)
	var99 := percentile(distribution, 0.01)

	return MonteCarloResult{
		Iterations:          cfg.Iterations,
		Bets:                len(bets),
		MeanReturn:          (mean - cfg.InitialBankroll) / cfg.InitialBankroll,
		StdReturn:           std / cfg.InitialBankroll,
		VaR95:               (var95 - cfg.InitialBankroll) / cfg.InitialBankroll,
		VaR99:               (var99 - cfg.InitialBankroll) / cfg.InitialBankroll,
		ProbabilityOfProfit: probabilityAbove(distribution, cfg.InitialBankroll),
		ProbabilityOfRuin:   float64(ruined) / float64(cfg.Iterations),
		ConfidenceIntervals: CalculateConfidenceIntervals(distribution, []float64{0.9, 0.95, 0.99}),
		Distribution:        distribution,
	}, nil
}

// CalculateConfidenceIntervals returns the width of the central interval of
// the distribution for each confidence level.
func CalculateConfidenceIntervals(distribution []float64, levels []float64) map[string]float64 {
	results := make(map[string]float64)
	for _, level := range levels {
		p := (1.0 - level) / 2.0
		low := percentile(distribution, p)
		high := percentile(distribution, 1.0-p)
		results[formatPercent(level)] = high - low
	}
	return results
}

func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	return average(values), stddev(values)
}

func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	valuesCopy := append([]float64{}, values...)
	sort.Float64s(valuesCopy)
	idx := int(math.Floor(p * float64(len(valuesCopy)-1)))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(valuesCopy) {
		idx = len(valuesCopy) - 1
	}
	return valuesCopy[idx]
}

func probabilityAbove(values []float64, threshold float64) float64 {
	if len(values) == 0 {
		return 0
	}
	count := 0
	for _, v := range values {
		if v > threshold {
			count++
		}
	}
	return float64(count) / float64(len(values))
}

func formatPercent(level float64) string {
	return fmt.Sprintf("%.0f%%", level*100)
}
