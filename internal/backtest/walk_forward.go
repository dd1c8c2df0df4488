package backtest

import (
	"sort"

	"github.com/yourusername/gridline/internal/models"
)

// WeekRun describes one replayed week of a walk-forward backtest.
type WeekRun struct {
	Season          int    `json:"season"`
	Week            int    `json:"week"`
	TrainingWeeks   int    `json:"training_weeks"`
	TrainingSamples int    `json:"training_samples"`
	ModelVersion    string `json:"model_version"`
	ModelSignal     bool   `json:"model_signal"`
	Games           int    `json:"games"`
	Recommendations int    `json:"recommendations"`
	Failures        int    `json:"failures"`
}

// WeekSkip records a week in range that was not replayed.
type WeekSkip struct {
	Season int    `json:"season"`
	Week   int    `json:"week"`
	Reason string `json:"reason"`
}

// weeksInRange returns the distinct season/weeks of games inside r, in order.
func weeksInRange(games []models.Game, r BacktestRange) []models.SeasonWeek {
	seen := make(map[models.SeasonWeek]struct{})
	var weeks []models.SeasonWeek
	for i := range games {
		sw := games[i].SeasonWeek()
		if !r.Contains(sw) {
			continue
		}
		if _, ok := seen[sw]; ok {
			continue
		}
		seen[sw] = struct{}{}
		weeks = append(weeks, sw)
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].Before(weeks[j]) })
	return weeks
}

// completedWeeksBefore counts distinct weeks with at least one completed game
// strictly before cutoff. This is the size of the walk-forward training window.
func completedWeeksBefore(games []models.Game, cutoff models.SeasonWeek) int {
	seen := make(map[models.SeasonWeek]struct{})
	for i := range games {
		if !games[i].IsCompleted() {
			continue
		}
		sw := games[i].SeasonWeek()
		if sw.Before(cutoff) {
			seen[sw] = struct{}{}
		}
	}
	return len(seen)
}
