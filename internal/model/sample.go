// Package model implements the residual model: a regressor on the deviation of
// game outcomes from the market prior.
package model

import (
	"fmt"
	"sort"

	"github.com/yourusername/gridline/internal/models"
)

// Prior input names appended after both teams' features
const (
	InputPriorSpread = "prior_spread"
	InputPriorTotal  = "prior_total"
)

// Sample is one game's model input and, for completed games, its targets.
type Sample struct {
	GameID      string            `json:"game_id"`
	SeasonWeek  models.SeasonWeek `json:"season_week"`
	Inputs      []float64         `json:"inputs"`
	PriorSpread float64           `json:"prior_spread"`
	PriorTotal  float64           `json:"prior_total"`
	HasTargets  bool              `json:"has_targets"`
	// MarginTarget is actual home margin minus the market-implied margin (margin + spread).
	MarginTarget float64 `json:"margin_target"`
	// TotalTarget is actual total minus the prior total.
	TotalTarget float64 `json:"total_target"`
}

// InputNames returns the model input names in Sample.Inputs order.
func InputNames() []string {
	names := make([]string, 0, 2*len(models.ModelFeatureNames)+2)
	for _, f := range models.ModelFeatureNames {
		names = append(names, "home_"+f)
	}
	for _, f := range models.ModelFeatureNames {
		names = append(names, "away_"+f)
	}
	return append(names, InputPriorSpread, InputPriorTotal)
}

// BuildSample concatenates both teams' vectors and the market prior. Targets are
// attached when the game has final scores.
func BuildSample(home, away models.TeamFeatureVector, prior models.MarketLine, game models.Game) (Sample, error) {
	gameID := game.ID()
	if home.Team != game.HomeTeam || away.Team != game.AwayTeam {
		return Sample{}, fmt.Errorf("feature vectors %s/%s do not match game %s", home.Team, away.Team, gameID)
	}
	if prior.GameID != "" && prior.GameID != gameID {
		return Sample{}, fmt.Errorf("prior line for %s used for game %s", prior.GameID, gameID)
	}

	inputs := make([]float64, 0, 2*len(models.ModelFeatureNames)+2)
	inputs = append(inputs, home.Vector()...)
	inputs = append(inputs, away.Vector()...)
	inputs = append(inputs, prior.Spread, prior.Total)

	s := Sample{
		GameID:      gameID,
		SeasonWeek:  game.SeasonWeek(),
		Inputs:      inputs,
		PriorSpread: prior.Spread,
		PriorTotal:  prior.Total,
	}
	if margin, ok := game.Margin(); ok {
		total, _ := game.Total()
		s.HasTargets = true
		s.MarginTarget = margin - prior.ImpliedHomeMargin()
		s.TotalTarget = total - prior.Total
	}
	return s, nil
}

// TimeOrderedSplit partitions samples into those strictly before cutoff and
// those at or after it. Order within each side is chronological; nothing is shuffled.
func TimeOrderedSplit(samples []Sample, cutoff models.SeasonWeek) (train, test []Sample) {
	sorted := append([]Sample(nil), samples...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SeasonWeek.Before(sorted[j].SeasonWeek)
	})
	for _, s := range sorted {
		if s.SeasonWeek.Before(cutoff) {
			train = append(train, s)
		} else {
			test = append(test, s)
		}
	}
	return train, test
}
