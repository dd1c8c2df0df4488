package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5"

	"github.com/yourusername/gridline/internal/backtest"
	"github.com/yourusername/gridline/internal/calibration"
	"github.com/yourusername/gridline/internal/database"
	"github.com/yourusername/gridline/internal/features"
	"github.com/yourusername/gridline/internal/ingest"
	"github.com/yourusername/gridline/internal/model"
	"github.com/yourusername/gridline/internal/models"
	"github.com/yourusername/gridline/internal/pipeline"
	"github.com/yourusername/gridline/internal/recommend"
	"github.com/yourusername/gridline/internal/repository"
	"github.com/yourusername/gridline/internal/simulation"
)

// app bundles the loaded inputs and optional persistence for one command.
type app struct {
	data  *ingest.Dataset
	deps  pipeline.Dependencies
	db    *database.DB
	repos *repository.Repositories
}

func newApp(ctx context.Context) (*app, error) {
	data, err := ingest.NewLoader(cfg.Data, log).Load(ctx)
	if err != nil {
		return nil, err
	}
	deps, err := buildDependencies(data)
	if err != nil {
		return nil, err
	}
	a := &app{data: data, deps: deps}

	if cfg.Database.Enabled {
		a.db, err = database.Initialize(ctx, cfg, log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		a.repos, err = repository.NewRepositories(a.db.Querier())
		if err != nil {
			a.db.Close()
			return nil, err
		}
	}
	return a, nil
}

// reload rereads the input tables and rebuilds the pipeline components,
// keeping the database connection.
func (a *app) reload(ctx context.Context) error {
	data, err := ingest.NewLoader(cfg.Data, log).Load(ctx)
	if err != nil {
		return err
	}
	deps, err := buildDependencies(data)
	if err != nil {
		return err
	}
	a.data, a.deps = data, deps
	return nil
}

func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
}

func buildDependencies(data *ingest.Dataset) (pipeline.Dependencies, error) {
	repo, err := data.MarketRepository()
	if err != nil {
		return pipeline.Dependencies{}, err
	}
	store := features.NewStore(
		features.ConfigFromPipeline(cfg.Pipeline, cfg.PipelineVersion()),
		data.FeatureData(),
		features.NewCache(cfg.Pipeline.FeatureCacheTTL),
		log,
	)
	return pipeline.Dependencies{
		Features:   store,
		Market:     repo,
		Calibrator: calibration.New(cfg.Pipeline),
		Simulator:  simulation.New(log),
		Engine:     recommend.NewEngine(cfg.Pipeline, log),
	}, nil
}

// loadArtifact reads the configured artifact file, falling back to the latest
// stored artifact. A nil artifact with no error means no model is trained yet.
func (a *app) loadArtifact(ctx context.Context) (*model.Artifact, error) {
	artifact, err := model.LoadArtifact(cfg.Model.ArtifactPath)
	if err == nil {
		return artifact, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if a.repos == nil {
		return nil, nil
	}
	rec, err := a.repos.Model.GetLatest(ctx)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return model.ArtifactFromRecord(*rec)
}

// saveArtifact writes the artifact file and, when persistence is enabled, its record.
func (a *app) saveArtifact(ctx context.Context, artifact *model.Artifact) error {
	if err := model.SaveArtifact(cfg.Model.ArtifactPath, artifact); err != nil {
		return err
	}
	if a.repos == nil {
		return nil
	}
	rec, err := artifact.Record(cfg.Model.ArtifactPath)
	if err != nil {
		return err
	}
	return a.repos.Model.Save(ctx, &rec)
}

// promote saves artifact and marks its version validated. With a database
// both rows are written in one transaction.
func (a *app) promote(ctx context.Context, artifact *model.Artifact) error {
	if err := model.SaveArtifact(cfg.Model.ArtifactPath, artifact); err != nil {
		return err
	}
	if a.db == nil {
		return a.validationLedger().MarkValidated(ctx, artifact.Version)
	}
	rec, err := artifact.Record(cfg.Model.ArtifactPath)
	if err != nil {
		return err
	}
	return a.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		repos, err := repository.NewRepositories(tx)
		if err != nil {
			return err
		}
		if err := repos.Model.Save(ctx, &rec); err != nil {
			return err
		}
		return repos.Model.MarkValidated(ctx, artifact.Version)
	})
}

// validationLedger prefers the database and falls back to a file beside the artifact.
func (a *app) validationLedger() backtest.ValidationLedger {
	if a.repos != nil {
		return a.repos.Model
	}
	return backtest.NewFileValidationLedger(backtest.ValidationPath(cfg.Model.ArtifactPath))
}

func (a *app) predictor(artifact *model.Artifact) *model.Predictor {
	return model.NewPredictor(artifact, cfg.Model.Name, cfg.PipelineVersion(), log)
}
