package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/gridline/internal/models"
)

// TargetFit is a fitted linear model for one target on standardized inputs.
type TargetFit struct {
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
	Sigma        float64   `json:"sigma"`
}

func (f TargetFit) predict(z []float64) float64 {
	y := f.Intercept
	for i, c := range f.Coefficients {
		y += c * z[i]
	}
	return y
}

// Artifact is a trained residual model version.
type Artifact struct {
	Version        string            `json:"version"`
	ModelName      string            `json:"model_name"`
	ConfigVersion  string            `json:"config_version"`
	InputNames     []string          `json:"input_names"`
	Means          []float64         `json:"means"`
	Scales         []float64         `json:"scales"`
	Margin         TargetFit         `json:"margin"`
	Total          TargetFit         `json:"total"`
	RidgeLambda    float64           `json:"ridge_lambda"`
	Samples        int               `json:"samples"`
	TrainedFrom    models.SeasonWeek `json:"trained_from"`
	TrainedThrough models.SeasonWeek `json:"trained_through"`
	TrainedAt      time.Time         `json:"trained_at"`
}

// standardize maps raw inputs onto the training scale.
func (a *Artifact) standardize(inputs []float64) ([]float64, error) {
	if len(inputs) != len(a.Means) {
		return nil, fmt.Errorf("model %s expects %d inputs, got %d", a.Version, len(a.Means), len(inputs))
	}
	z := make([]float64, len(inputs))
	for i, v := range inputs {
		z[i] = (v - a.Means[i]) / a.Scales[i]
	}
	return z, nil
}

// FeatureImportance returns normalized absolute standardized coefficients,
// averaged over both targets, keyed by input name.
func (a *Artifact) FeatureImportance() map[string]float64 {
	raw := make([]float64, len(a.InputNames))
	var sum float64
	for i := range raw {
		raw[i] = (math.Abs(a.Margin.Coefficients[i]) + math.Abs(a.Total.Coefficients[i])) / 2
		sum += raw[i]
	}
	out := make(map[string]float64, len(raw))
	for i, name := range a.InputNames {
		if sum > 0 {
			out[name] = raw[i] / sum
		} else {
			out[name] = 0
		}
	}
	return out
}

// computeVersion hashes the fitted parameters, training window and config version.
func (a *Artifact) computeVersion() string {
	payload := struct {
		Means, Scales []float64
		Margin, Total TargetFit
		From, Through models.SeasonWeek
		Samples       int
		ConfigVersion string
	}{a.Means, a.Scales, a.Margin, a.Total, a.TrainedFrom, a.TrainedThrough, a.Samples, a.ConfigVersion}
	data, _ := json.Marshal(payload)
	sum := sha256.Sum256(data)
	return "rm-" + hex.EncodeToString(sum[:])[:12]
}

// Record converts the artifact into its persisted metadata row.
func (a *Artifact) Record(path string) (models.ModelArtifactRecord, error) {
	body, err := json.Marshal(a)
	if err != nil {
		return models.ModelArtifactRecord{}, fmt.Errorf("failed to marshal artifact: %w", err)
	}
	params, err := json.Marshal(map[string]interface{}{
		"ridge_lambda": a.RidgeLambda,
		"inputs":       len(a.InputNames),
		"margin_sigma": a.Margin.Sigma,
		"total_sigma":  a.Total.Sigma,
	})
	if err != nil {
		return models.ModelArtifactRecord{}, fmt.Errorf("failed to marshal hyperparameters: %w", err)
	}
	return models.ModelArtifactRecord{
		ID:              uuid.New(),
		Version:         a.Version,
		ConfigVersion:   a.ConfigVersion,
		TrainedThrough:  a.TrainedThrough,
		Samples:         a.Samples,
		Path:            path,
		Artifact:        body,
		Hyperparameters: params,
		TrainedAt:       a.TrainedAt,
	}, nil
}

// ArtifactFromRecord restores an artifact from its persisted row.
func ArtifactFromRecord(rec models.ModelArtifactRecord) (*Artifact, error) {
	var a Artifact
	if err := json.Unmarshal(rec.Artifact, &a); err != nil {
		return nil, fmt.Errorf("failed to unmarshal artifact %s: %w", rec.Version, err)
	}
	return &a, a.check()
}

// SaveArtifact writes the artifact as indented JSON, creating parent directories.
func SaveArtifact(path string, a *Artifact) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal artifact: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	return nil
}

// LoadArtifact reads an artifact written by SaveArtifact.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to parse artifact: %w", err)
	}
	return &a, a.check()
}

func (a *Artifact) check() error {
	n := len(a.InputNames)
	if a.Version == "" || n == 0 {
		return fmt.Errorf("artifact is missing version or inputs")
	}
	if len(a.Means) != n || len(a.Scales) != n || len(a.Margin.Coefficients) != n || len(a.Total.Coefficients) != n {
		return fmt.Errorf("artifact %s has inconsistent dimensions", a.Version)
	}
	return nil
}
