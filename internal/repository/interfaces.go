package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/yourusername/gridline/internal/models"
)

// PredictionRepository persists per-game prediction rows
type PredictionRepository interface {
	InsertBatch(ctx context.Context, rows []models.PredictionRow) error
}

// RecommendationRepository persists emitted bet recommendations
type RecommendationRepository interface {
	InsertBatch(ctx context.Context, recs []models.BetRecommendation) error
}

// BacktestRecordRepository is the append-only store of graded backtest records.
// Records are never updated or deleted.
type BacktestRecordRepository interface {
	Append(ctx context.Context, records ...models.BacktestRecord) error
	GetByRun(ctx context.Context, runID uuid.UUID) ([]models.BacktestRecord, error)
}

// ModelRepository stores trained model artifacts and their CLV validation state
type ModelRepository interface {
	Save(ctx context.Context, rec *models.ModelArtifactRecord) error
	GetByVersion(ctx context.Context, version string) (*models.ModelArtifactRecord, error)
	GetLatest(ctx context.Context) (*models.ModelArtifactRecord, error)
	MarkValidated(ctx context.Context, version string) error
	IsValidated(ctx context.Context, version string) (bool, error)
}
