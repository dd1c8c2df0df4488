// Package ingest loads the pipeline's tabular inputs from CSV files.
package ingest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/gridline/internal/config"
	"github.com/yourusername/gridline/internal/features"
	"github.com/yourusername/gridline/internal/logger"
	"github.com/yourusername/gridline/internal/market"
	"github.com/yourusername/gridline/internal/metrics"
	"github.com/yourusername/gridline/internal/models"
)

// Dataset holds every input table for one pipeline invocation.
type Dataset struct {
	Games    []models.Game
	Stats    []models.TeamGameStats
	Lines    []models.MarketLine
	Teams    []models.TeamInfo
	Injuries []models.InjuryReport
}

// FeatureData returns the tables the feature store reads.
func (d *Dataset) FeatureData() features.Data {
	return features.Data{Stats: d.Stats, Injuries: d.Injuries, Teams: d.Teams}
}

// MarketRepository indexes the loaded market lines.
func (d *Dataset) MarketRepository() (*market.Repository, error) {
	repo := market.NewRepository()
	if err := repo.Add(d.Lines...); err != nil {
		return nil, err
	}
	return repo, nil
}

// Loader reads the files named in the data configuration.
type Loader struct {
	cfg      config.DataConfig
	validate *validator.Validate
	log      *logrus.Entry
}

// NewLoader creates a loader for cfg.
func NewLoader(cfg config.DataConfig, log *logrus.Logger) *Loader {
	return &Loader{
		cfg:      cfg,
		validate: validator.New(),
		log:      logger.OrDefault(log).WithField("component", "ingest"),
	}
}

// Load reads all tables concurrently. Any invalid row fails the load.
// The injuries table is optional.
func (l *Loader) Load(ctx context.Context) (*Dataset, error) {
	start := time.Now()
	ds := &Dataset{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return load(gctx, l, TableGames, l.cfg.GamesPath, gameColumns, parseGame, &ds.Games)
	})
	g.Go(func() error {
		return load(gctx, l, TableTeamStats, l.cfg.TeamStatsPath, teamStatsColumns, parseTeamStats, &ds.Stats)
	})
	g.Go(func() error {
		return load(gctx, l, TableLines, l.cfg.LinesPath, lineColumns, parseLine, &ds.Lines)
	})
	g.Go(func() error {
		return load(gctx, l, TableTeams, l.cfg.TeamsPath, teamColumns, parseTeam, &ds.Teams)
	})
	if l.cfg.InjuriesPath != "" {
		g.Go(func() error {
			return load(gctx, l, TableInjuries, l.cfg.InjuriesPath, injuryColumns, parseInjury, &ds.Injuries)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := ds.check(); err != nil {
		return nil, err
	}
	if unknown := ds.UnknownTeams(); len(unknown) > 0 {
		l.log.WithField("teams", unknown).Warn("Scheduled teams missing from teams table")
	}
	sort.SliceStable(ds.Games, func(i, j int) bool {
		a, b := ds.Games[i], ds.Games[j]
		if !a.Kickoff.Equal(b.Kickoff) {
			return a.Kickoff.Before(b.Kickoff)
		}
		return a.ID() < b.ID()
	})

	l.log.WithFields(logrus.Fields{
		"games":       len(ds.Games),
		"team_stats":  len(ds.Stats),
		"lines":       len(ds.Lines),
		"teams":       len(ds.Teams),
		"injuries":    len(ds.Injuries),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("Input tables loaded")
	return ds, nil
}

func load[T any](ctx context.Context, l *Loader, table, path string, required []string, parse func(*row, *validator.Validate) (T, error), dst *[]T) error {
	n, err := readTable(ctx, path, required, func(r *row) error {
		v, err := parse(r, l.validate)
		if err != nil {
			return err
		}
		*dst = append(*dst, v)
		return nil
	})
	if err != nil {
		return fmt.Errorf("load %s: %w", table, err)
	}
	metrics.RecordRowsIngested(table, n)
	return nil
}

// check rejects duplicate game and team identities.
func (d *Dataset) check() error {
	games := make(map[string]struct{}, len(d.Games))
	for _, g := range d.Games {
		id := g.ID()
		if _, dup := games[id]; dup {
			return fmt.Errorf("games: duplicate game %s: %w", id, models.ErrDuplicateKey)
		}
		games[id] = struct{}{}
	}
	teams := make(map[string]struct{}, len(d.Teams))
	for _, t := range d.Teams {
		if _, dup := teams[t.Team]; dup {
			return fmt.Errorf("teams: duplicate team %s: %w", t.Team, models.ErrDuplicateKey)
		}
		teams[t.Team] = struct{}{}
	}
	return nil
}

// UnknownTeams lists teams scheduled in games but absent from the teams table.
func (d *Dataset) UnknownTeams() []string {
	known := make(map[string]struct{}, len(d.Teams))
	for _, t := range d.Teams {
		known[t.Team] = struct{}{}
	}
	seen := make(map[string]struct{})
	var out []string
	for _, g := range d.Games {
		for _, team := range []string{g.HomeTeam, g.AwayTeam} {
			if _, ok := known[team]; ok {
				continue
			}
			if _, ok := seen[team]; ok {
				continue
			}
			seen[team] = struct{}{}
			out = append(out, team)
		}
	}
	sort.Strings(out)
	return out
}
