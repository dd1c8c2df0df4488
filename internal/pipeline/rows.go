package pipeline

import (
	"github.com/google/uuid"

	"github.com/yourusername/gridline/internal/models"
)

// rowNamespace derives stable prediction row IDs.
var rowNamespace = uuid.MustParse("0b7a9d3e-2c41-4f6e-8a55-91d3c7f0e214")

// PredictionRows returns one row per successfully predicted game.
func (r *WeekResult) PredictionRows() []models.PredictionRow {
	rows := make([]models.PredictionRow, 0, len(r.Games))
	for _, g := range r.Games {
		rows = append(rows, models.PredictionRow{
			ID:              uuid.NewSHA1(rowNamespace, []byte(g.Game.ID()+"|"+g.Raw.ModelVersion+"|"+r.ConfigVersion)),
			GameID:          g.Game.ID(),
			Season:          g.Game.Season,
			Week:            g.Game.Week,
			HomeTeam:        g.Game.HomeTeam,
			AwayTeam:        g.Game.AwayTeam,
			ProjectedMargin: g.Calibrated.MarginMean,
			ProjectedTotal:  g.Calibrated.TotalMean,
			HomeWinProb:     g.Summary.HomeWinProb,
			SampleCount:     g.Summary.Samples,
			ModelVersion:    g.Raw.ModelVersion,
			ConfigVersion:   r.ConfigVersion,
			ModelSignal:     g.Raw.ModelSignal,
			CreatedAt:       r.CreatedAt,
		})
	}
	return rows
}

// RecommendationRows returns every emitted recommendation in game order.
func (r *WeekResult) RecommendationRows() []models.BetRecommendation {
	var rows []models.BetRecommendation
	for _, g := range r.Games {
		rows = append(rows, g.Recommended.Recommendations...)
	}
	return rows
}

// Statuses lists every game of the run with its processing status.
func (r *WeekResult) Statuses() []models.GameStatus {
	out := make([]models.GameStatus, 0, len(r.Games)+len(r.Failures))
	for _, g := range r.Games {
		out = append(out, models.GameStatus{GameID: g.Game.ID(), Status: models.GameStatusOK})
	}
	out = append(out, r.Failures...)
	return out
}
