package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/yourusername/gridline/internal/models"
)

// Output file names written by ExportWeek
const (
	PredictionsFile     = "predictions.csv"
	RecommendationsFile = "recommendations.csv"
	StatusFile          = "games.csv"
)

var (
	predictionHeader     = []string{"game_id", "season", "week", "home_team", "away_team", "projected_margin", "projected_total", "home_win_prob", "samples", "model_signal", "model_version", "config_version"}
	recommendationHeader = []string{"id", "game_id", "bet_type", "side", "line", "odds", "book", "edge_points", "edge_probability", "expected_value", "tier", "stake", "model_version", "config_version"}
	statusHeader         = []string{"game_id", "status", "kind", "reason"}
)

// WeekDir returns the per-week output directory under root.
func WeekDir(root string, season, week int) string {
	return filepath.Join(root, fmt.Sprintf("%d-W%02d", season, week))
}

// ExportWeek writes the prediction, recommendation and per-game status tables
// of a week into dir. The status table lists every game that could not be
// predicted and why, alongside the successes.
func ExportWeek(r *WeekResult, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	preds := make([][]string, 0, len(r.Games))
	for _, p := range r.PredictionRows() {
		preds = append(preds, []string{
			p.GameID,
			strconv.Itoa(p.Season),
			strconv.Itoa(p.Week),
			p.HomeTeam,
			p.AwayTeam,
			ftoa(p.ProjectedMargin, 2),
			ftoa(p.ProjectedTotal, 2),
			ftoa(p.HomeWinProb, 4),
			strconv.Itoa(p.SampleCount),
			strconv.FormatBool(p.ModelSignal),
			p.ModelVersion,
			p.ConfigVersion,
		})
	}
	if err := writeCSV(filepath.Join(dir, PredictionsFile), predictionHeader, preds); err != nil {
		return err
	}

	var recs [][]string
	for _, rec := range r.RecommendationRows() {
		recs = append(recs, []string{
			rec.ID.String(),
			rec.GameID,
			string(rec.BetType),
			string(rec.Side),
			ftoa(rec.Line, 1),
			strconv.Itoa(rec.Odds),
			rec.Book,
			ftoa(rec.EdgePoints, 2),
			ftoa(rec.EdgeProbability, 4),
			ftoa(rec.ExpectedValue, 4),
			string(rec.Tier),
			rec.Stake.StringFixed(2),
			rec.ModelVersion,
			rec.ConfigVersion,
		})
	}
	if err := writeCSV(filepath.Join(dir, RecommendationsFile), recommendationHeader, recs); err != nil {
		return err
	}

	var statuses [][]string
	for _, s := range r.Statuses() {
		statuses = append(statuses, []string{s.GameID, s.Status, s.Kind, s.Reason})
	}
	return writeCSV(filepath.Join(dir, StatusFile), statusHeader, statuses)
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

func ftoa(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}

// UpcomingWeek returns the earliest season/week with an uncompleted game
// kicking off after now.
func UpcomingWeek(games []models.Game, now time.Time) (models.SeasonWeek, bool) {
	var best models.SeasonWeek
	found := false
	for _, g := range games {
		if g.IsCompleted() || !g.Kickoff.After(now) {
			continue
		}
		sw := g.SeasonWeek()
		if !found || sw.Before(best) {
			best, found = sw, true
		}
	}
	return best, found
}
