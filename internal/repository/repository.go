package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/yourusername/gridline/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	Prediction     PredictionRepository
	Recommendation RecommendationRepository
	BacktestRecord BacktestRecordRepository
	Model          ModelRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(q database.Querier) (*Repositories, error) {
	if q == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Prediction:     NewPostgresPredictionRepository(q),
		Recommendation: NewPostgresRecommendationRepository(q),
		BacktestRecord: NewPostgresBacktestRecordRepository(q),
		Model:          NewPostgresModelRepository(q),
	}, nil
}

// execBatch sends the batch and checks every statement. A batch runs in one
// implicit transaction, so a failed statement leaves nothing behind.
// Unique violations are reported as dupErr.
func execBatch(ctx context.Context, q database.Querier, batch *pgx.Batch, what string, dupErr error) error {
	br := q.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			if database.IsUniqueViolation(err) {
				return fmt.Errorf("failed to insert %s %d: %w", what, i, dupErr)
			}
			return fmt.Errorf("failed to insert %s %d: %w", what, i, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to close %s batch: %w", what, err)
	}
	return nil
}
