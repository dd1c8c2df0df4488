package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/yourusername/gridline/internal/database"
	"github.com/yourusername/gridline/internal/models"
)

const insertPredictionQuery = `
	INSERT INTO predictions (
		id, game_id, season, week, home_team, away_team,
		projected_margin, projected_total, home_win_prob, sample_count,
		model_version, config_version, model_signal, created_at
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
`

// PostgresPredictionRepository implements PredictionRepository for PostgreSQL
type PostgresPredictionRepository struct {
	db database.Querier
}

// NewPostgresPredictionRepository creates a new prediction repository
func NewPostgresPredictionRepository(db database.Querier) PredictionRepository {
	return &PostgresPredictionRepository{db: db}
}

// InsertBatch inserts prediction rows in a single batch
func (r *PostgresPredictionRepository) InsertBatch(ctx context.Context, rows []models.PredictionRow) error {
	if len(rows) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, p := range rows {
		batch.Queue(insertPredictionQuery,
			p.ID, p.GameID, p.Season, p.Week, p.HomeTeam, p.AwayTeam,
			p.ProjectedMargin, p.ProjectedTotal, p.HomeWinProb, p.SampleCount,
			p.ModelVersion, p.ConfigVersion, p.ModelSignal, p.CreatedAt,
		)
	}
	return execBatch(ctx, r.db, batch, "prediction", models.ErrDuplicateKey)
}
