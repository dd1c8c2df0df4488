package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/yourusername/gridline/internal/database"
	"github.com/yourusername/gridline/internal/models"
)

const modelColumns = `id, version, config_version, trained_season, trained_week, samples,
	path, artifact, hyperparameters, validated, trained_at, created_at`

// PostgresModelRepository implements ModelRepository for PostgreSQL
type PostgresModelRepository struct {
	db database.Querier
}

// NewPostgresModelRepository creates a new model repository
func NewPostgresModelRepository(db database.Querier) ModelRepository {
	return &PostgresModelRepository{db: db}
}

// Save inserts a model artifact. Saving an existing version is a no-op,
// since versions are content hashes.
func (m *PostgresModelRepository) Save(ctx context.Context, rec *models.ModelArtifactRecord) error {
	query := `
		INSERT INTO model_artifacts (
			id, version, config_version, trained_season, trained_week, samples,
			path, artifact, hyperparameters, trained_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (version) DO NOTHING
	`
	_, err := m.db.Exec(ctx, query,
		rec.ID, rec.Version, rec.ConfigVersion, rec.TrainedThrough.Season, rec.TrainedThrough.Week, rec.Samples,
		rec.Path, rec.Artifact, rec.Hyperparameters, rec.TrainedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save model %s: %w", rec.Version, err)
	}
	return nil
}

// GetByVersion retrieves a specific model version
func (m *PostgresModelRepository) GetByVersion(ctx context.Context, version string) (*models.ModelArtifactRecord, error) {
	query := `SELECT ` + modelColumns + ` FROM model_artifacts WHERE version = $1`
	return m.scanOne(m.db.QueryRow(ctx, query, version))
}

// GetLatest retrieves the most recently trained model
func (m *PostgresModelRepository) GetLatest(ctx context.Context) (*models.ModelArtifactRecord, error) {
	query := `SELECT ` + modelColumns + ` FROM model_artifacts ORDER BY trained_at DESC, created_at DESC LIMIT 1`
	return m.scanOne(m.db.QueryRow(ctx, query))
}

func (m *PostgresModelRepository) scanOne(row pgx.Row) (*models.ModelArtifactRecord, error) {
	rec := &models.ModelArtifactRecord{}
	err := row.Scan(
		&rec.ID, &rec.Version, &rec.ConfigVersion, &rec.TrainedThrough.Season, &rec.TrainedThrough.Week, &rec.Samples,
		&rec.Path, &rec.Artifact, &rec.Hyperparameters, &rec.Validated, &rec.TrainedAt, &rec.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get model: %w", err)
	}
	return rec, nil
}

// MarkValidated flags a version as having passed the CLV retention decision
func (m *PostgresModelRepository) MarkValidated(ctx context.Context, version string) error {
	query := `
		UPDATE model_artifacts
		SET validated = TRUE, validated_at = COALESCE(validated_at, NOW())
		WHERE version = $1
	`
	tag, err := m.db.Exec(ctx, query, version)
	if err != nil {
		return fmt.Errorf("failed to mark model %s validated: %w", version, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("model %s: %w", version, models.ErrNotFound)
	}
	return nil
}

// IsValidated reports whether version passed validation. Unknown versions are not validated.
func (m *PostgresModelRepository) IsValidated(ctx context.Context, version string) (bool, error) {
	var validated bool
	err := m.db.QueryRow(ctx, `SELECT validated FROM model_artifacts WHERE version = $1`, version).Scan(&validated)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check model %s: %w", version, err)
	}
	return validated, nil
}
