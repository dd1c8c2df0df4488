package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/yourusername/gridline/internal/database"
	"github.com/yourusername/gridline/internal/models"
)

const insertRecommendationQuery = `
	INSERT INTO recommendations (
		id, game_id, bet_type, side, line, odds, book, quoted_at,
		win_prob, push_prob, edge_points, edge_probability, expected_value, kelly_fraction,
		tier, stake, model_version, config_version, created_at
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
`

// PostgresRecommendationRepository implements RecommendationRepository for PostgreSQL
type PostgresRecommendationRepository struct {
	db database.Querier
}

// NewPostgresRecommendationRepository creates a new recommendation repository
func NewPostgresRecommendationRepository(db database.Querier) RecommendationRepository {
	return &PostgresRecommendationRepository{db: db}
}

// InsertBatch inserts recommendations in a single batch. Non-positive stakes are rejected.
func (r *PostgresRecommendationRepository) InsertBatch(ctx context.Context, recs []models.BetRecommendation) error {
	if len(recs) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, rec := range recs {
		if !rec.Stake.IsPositive() {
			return fmt.Errorf("recommendation %s has non-positive stake %s", rec.ID, rec.Stake)
		}
		batch.Queue(insertRecommendationQuery,
			rec.ID, rec.GameID, string(rec.BetType), string(rec.Side), rec.Line, rec.Odds, rec.Book, rec.QuotedAt,
			rec.WinProb, rec.PushProb, rec.EdgePoints, rec.EdgeProbability, rec.ExpectedValue, rec.KellyFraction,
			string(rec.Tier), rec.Stake, rec.ModelVersion, rec.ConfigVersion, rec.CreatedAt,
		)
	}
	return execBatch(ctx, r.db, batch, "recommendation", models.ErrDuplicateKey)
}
