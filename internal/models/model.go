package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ModelArtifactRecord is the persisted metadata for a trained residual model version.
type ModelArtifactRecord struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	Version         string          `db:"version" json:"version" validate:"required"`
	ConfigVersion   string          `db:"config_version" json:"config_version" validate:"required"`
	TrainedThrough  SeasonWeek      `db:"-" json:"trained_through"`
	Samples         int             `db:"samples" json:"samples" validate:"gt=0"`
	Path            string          `db:"path" json:"path"`
	Artifact        json.RawMessage `db:"artifact" json:"artifact"`
	Hyperparameters json.RawMessage `db:"hyperparameters" json:"hyperparameters"`
	Validated       bool            `db:"validated" json:"validated"`
	TrainedAt       time.Time       `db:"trained_at" json:"trained_at" validate:"required"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
}

// GetHyperparameter retrieves a hyperparameter value from the stored JSON.
func (m *ModelArtifactRecord) GetHyperparameter(name string) (interface{}, error) {
	if m.Hyperparameters == nil {
		return nil, nil
	}

	var params map[string]interface{}
	if err := json.Unmarshal(m.Hyperparameters, &params); err != nil {
		return nil, err
	}

	return params[name], nil
}
