package pipeline

import (
	"sort"

	"github.com/yourusername/gridline/internal/model"
	"github.com/yourusername/gridline/internal/models"
)

// TrainingSet builds labeled samples for completed games strictly before cutoff.
// Each sample uses features as of kickoff, clamped against the league baseline
// at kickoff, and the opening line as prior, exactly as a replayed week would.
// Games that cannot be assembled are reported and skipped.
func (p *Pipeline) TrainingSet(games []models.Game, cutoff models.SeasonWeek) ([]model.Sample, []models.GameStatus) {
	var samples []model.Sample
	var skipped []models.GameStatus

	for _, game := range games {
		if !game.IsCompleted() || !game.SeasonWeek().Before(cutoff) {
			continue
		}
		s, err := p.trainingSample(game)
		if err != nil {
			skipped = append(skipped, models.GameStatus{
				GameID: game.ID(),
				Status: models.GameStatusFailed,
				Kind:   models.ErrorKind(err),
				Reason: err.Error(),
			})
			continue
		}
		samples = append(samples, s)
	}

	sort.SliceStable(samples, func(i, j int) bool {
		if samples[i].SeasonWeek != samples[j].SeasonWeek {
			return samples[i].SeasonWeek.Before(samples[j].SeasonWeek)
		}
		return samples[i].GameID < samples[j].GameID
	})
	return samples, skipped
}

func (p *Pipeline) trainingSample(game models.Game) (model.Sample, error) {
	prior, err := p.prior(game.ID(), game.Kickoff, true)
	if err != nil {
		return model.Sample{}, err
	}
	home, away, err := p.deps.Features.GameFeatures(game, game.Kickoff)
	if err != nil {
		return model.Sample{}, err
	}
	baseline, err := p.baseline(game.Kickoff)
	if err != nil {
		return model.Sample{}, err
	}
	home = p.clamp(game.ID(), home, baseline)
	away = p.clamp(game.ID(), away, baseline)
	return model.BuildSample(home, away, prior, game)
}

// clamp bounds outlier efficiency features and logs the ones that moved.
func (p *Pipeline) clamp(gameID string, v models.TeamFeatureVector, baseline models.LeagueBaseline) models.TeamFeatureVector {
	v, clamped := p.deps.Calibrator.Clamp(v, baseline)
	p.log.LogFeaturesClamped(gameID, v.Team, clamped)
	return v
}
