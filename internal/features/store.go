// Package features derives per-team, per-game feature vectors from historical aggregates.
package features

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/yourusername/gridline/internal/config"
	"github.com/yourusername/gridline/internal/logger"
	"github.com/yourusername/gridline/internal/models"
)

const maxRestDays = 14

// Config holds the feature derivation options
type Config struct {
	RecencyDecay            float64
	HistoryGames            int
	MinHistoryGames         int
	InjuryWindowDays        int
	InjuryWeights           config.InjuryWeights
	LimitedInjuryMultiplier float64
	TravelThresholdsMiles   []float64
	TimezoneThresholdHours  float64
	// Version is stamped on cache keys so a config change never reuses stale vectors.
	Version string
}

// ConfigFromPipeline extracts the feature options from the pipeline configuration.
func ConfigFromPipeline(p config.PipelineConfig, version string) Config {
	return Config{
		RecencyDecay:            p.RecencyDecay,
		HistoryGames:            p.HistoryGames,
		MinHistoryGames:         p.MinHistoryGames,
		InjuryWindowDays:        p.InjuryWindowDays,
		InjuryWeights:           p.InjuryWeights,
		LimitedInjuryMultiplier: p.LimitedInjuryMultiplier,
		TravelThresholdsMiles:   p.TravelThresholdsMiles,
		TimezoneThresholdHours:  p.TimezoneThresholdHours,
		Version:                 version,
	}
}

// Data is the already-resolved upstream input of the store
type Data struct {
	Stats    []models.TeamGameStats
	Injuries []models.InjuryReport
	Teams    []models.TeamInfo
}

// Store computes TeamFeatureVectors as of a date. It is read-only after
// construction and safe for concurrent use.
type Store struct {
	cfg      Config
	stats    map[string][]models.TeamGameStats
	injuries map[string][]models.InjuryReport
	teams    map[string]models.TeamInfo
	cache    *Cache
	log      *logrus.Logger
}

// NewStore indexes data by team. A nil cache disables memoization.
func NewStore(cfg Config, data Data, c *Cache, log *logrus.Logger) *Store {
	s := &Store{
		cfg:      cfg,
		stats:    make(map[string][]models.TeamGameStats),
		injuries: make(map[string][]models.InjuryReport),
		teams:    make(map[string]models.TeamInfo, len(data.Teams)),
		cache:    c,
		log:      logger.OrDefault(log),
	}
	for _, st := range data.Stats {
		s.stats[st.Team] = append(s.stats[st.Team], st)
	}
	// newest first
	for team := range s.stats {
		games := s.stats[team]
		sort.SliceStable(games, func(i, j int) bool { return games[i].GameDate.After(games[j].GameDate) })
	}
	for _, inj := range data.Injuries {
		s.injuries[inj.Team] = append(s.injuries[inj.Team], inj)
	}
	for _, t := range data.Teams {
		s.teams[t.Team] = t
	}
	return s
}

// Config returns the store's options.
func (s *Store) Config() Config {
	return s.cfg
}

// GameFeatures computes both teams' vectors for a game as of asOf.
func (s *Store) GameFeatures(game models.Game, asOf time.Time) (home, away models.TeamFeatureVector, err error) {
	home, err = s.Compute(game.HomeTeam, game, asOf)
	if err != nil {
		return home, away, err
	}
	away, err = s.Compute(game.AwayTeam, game, asOf)
	return home, away, err
}

// Compute returns the team's feature vector for game using only data known at asOf.
func (s *Store) Compute(team string, game models.Game, asOf time.Time) (models.TeamFeatureVector, error) {
	key := CacheKey{Team: team, GameID: game.ID(), AsOf: asOf, ConfigVersion: s.cfg.Version}
	if s.cache != nil {
		if vec, ok := s.cache.Get(key); ok {
			return vec, nil
		}
	}

	vec, err := s.compute(team, game, asOf)
	if err != nil {
		return vec, err
	}

	if s.cache != nil {
		s.cache.Set(key, vec)
	}
	return vec, nil
}

func (s *Store) compute(team string, game models.Game, asOf time.Time) (models.TeamFeatureVector, error) {
	gameID := game.ID()
	var opponent string
	switch team {
	case game.HomeTeam:
		opponent = game.AwayTeam
	case game.AwayTeam:
		opponent = game.HomeTeam
	default:
		return models.TeamFeatureVector{}, fmt.Errorf("team %s does not play in game %s", team, gameID)
	}

	info, ok := s.teams[team]
	if !ok {
		return models.TeamFeatureVector{}, &models.MissingDataError{GameID: gameID, Team: team, Feature: "team_info", Reason: "no team record"}
	}
	oppInfo, ok := s.teams[opponent]
	if !ok {
		return models.TeamFeatureVector{}, &models.MissingDataError{GameID: gameID, Team: opponent, Feature: models.FeatureDivisional, Reason: "no opponent team record"}
	}

	eff, err := s.efficiency(team, asOf)
	if err != nil {
		var md *models.MissingDataError
		if errors.As(err, &md) {
			md.GameID = gameID
		}
		return models.TeamFeatureVector{}, err
	}

	vec := models.TeamFeatureVector{
		Team:             team,
		GameID:           gameID,
		AsOf:             asOf,
		GamesUsed:        eff.games,
		OffEPA:           eff.offEPA,
		DefEPA:           eff.defEPA,
		OffSuccessRate:   eff.offSR,
		DefSuccessRate:   eff.defSR,
		PointsForAdj:     eff.pointsForAdj,
		PointsAgainstAdj: eff.pointsAgainstAdj,
		InjuryImpact:     s.injuryImpact(team, asOf),
		Divisional:       info.Conference == oppInfo.Conference && info.Division == oppInfo.Division,
		Conference:       info.Conference == oppInfo.Conference,
	}

	venueLat, venueLon, venueUTC, err := s.venue(game)
	if err != nil {
		return models.TeamFeatureVector{}, err
	}
	if team != game.HomeTeam || game.NeutralSite {
		vec.TravelDistance = haversineMiles(info.Latitude, info.Longitude, venueLat, venueLon)
		vec.TimezoneDelta = venueUTC - info.UTCOffset
	}
	vec.TravelBucket = travelBucket(vec.TravelDistance, s.cfg.TravelThresholdsMiles)
	if math.Abs(vec.TimezoneDelta) >= s.cfg.TimezoneThresholdHours {
		vec.TimezoneEffect = vec.TimezoneDelta
	}

	rest := game.Kickoff.Sub(eff.lastGame).Hours() / 24
	vec.RestDays = math.Max(0, math.Min(math.Floor(rest), maxRestDays))

	return vec, nil
}

// venue resolves the game location, defaulting to the home team's stadium.
func (s *Store) venue(game models.Game) (lat, lon, utc float64, err error) {
	home, ok := s.teams[game.HomeTeam]
	if game.VenueLat != nil && game.VenueLon != nil {
		lat, lon = *game.VenueLat, *game.VenueLon
	} else if ok {
		lat, lon = home.Latitude, home.Longitude
	} else {
		return 0, 0, 0, &models.MissingDataError{GameID: game.ID(), Feature: "travel_distance", Reason: "no venue coordinates"}
	}
	if game.VenueUTC != nil {
		utc = *game.VenueUTC
	} else if ok {
		utc = home.UTCOffset
	} else {
		return 0, 0, 0, &models.MissingDataError{GameID: game.ID(), Feature: "timezone_delta", Reason: "no venue timezone"}
	}
	return lat, lon, utc, nil
}

type efficiencyStats struct {
	games            int
	lastGame         time.Time
	offEPA           float64
	defEPA           float64
	offSR            float64
	defSR            float64
	pointsForAdj     float64
	pointsAgainstAdj float64
}

// efficiency computes recency-weighted efficiency over games strictly before asOf.
func (s *Store) efficiency(team string, asOf time.Time) (efficiencyStats, error) {
	var prior []models.TeamGameStats
	for _, g := range s.stats[team] {
		if !g.GameDate.Before(asOf) {
			continue
		}
		prior = append(prior, g)
		if len(prior) == s.cfg.HistoryGames {
			break
		}
	}

	if len(prior) == 0 {
		return efficiencyStats{}, &models.MissingDataError{Team: team, Feature: models.FeatureOffEPA, Reason: "no prior games"}
	}
	if len(prior) < s.cfg.MinHistoryGames {
		return efficiencyStats{}, &models.MissingDataError{
			Team:    team,
			Feature: models.FeatureOffEPA,
			Reason:  fmt.Sprintf("%d prior games, need %d", len(prior), s.cfg.MinHistoryGames),
		}
	}

	var out efficiencyStats
	var weightSum, pf, pa float64
	w := 1.0
	for _, g := range prior {
		out.offEPA += w * g.OffEPA
		out.defEPA += w * g.DefEPA
		out.offSR += w * g.OffSuccessRate
		out.defSR += w * g.DefSuccessRate
		pf += w * g.PointsFor
		pa += w * g.PointsAgainst
		weightSum += w
		w *= s.cfg.RecencyDecay
	}
	out.offEPA /= weightSum
	out.defEPA /= weightSum
	out.offSR /= weightSum
	out.defSR /= weightSum

	leagueAvg := s.leagueAveragePoints(asOf)
	out.pointsForAdj = pf/weightSum - leagueAvg
	out.pointsAgainstAdj = pa/weightSum - leagueAvg
	out.games = len(prior)
	out.lastGame = prior[0].GameDate
	return out, nil
}

// leagueAveragePoints is the mean points scored per team-game before asOf.
func (s *Store) leagueAveragePoints(asOf time.Time) float64 {
	var sum float64
	var n int
	for _, games := range s.stats {
		for _, g := range games {
			if g.GameDate.Before(asOf) {
				sum += g.PointsFor
				n++
			}
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// injuryImpact sums position weights over missing or limited starters using the
// latest report per player within the injury window.
func (s *Store) injuryImpact(team string, asOf time.Time) float64 {
	windowStart := asOf.AddDate(0, 0, -s.cfg.InjuryWindowDays)
	latest := make(map[string]models.InjuryReport)
	for _, r := range s.injuries[team] {
		if r.ReportDate.After(asOf) || r.ReportDate.Before(windowStart) {
			continue
		}
		if cur, ok := latest[r.Player]; !ok || r.ReportDate.After(cur.ReportDate) {
			latest[r.Player] = r
		}
	}

	var impact float64
	for _, r := range latest {
		if !r.Starter {
			continue
		}
		severity := s.cfg.LimitedInjuryMultiplier
		if r.Status.IsMissing() {
			severity = 1.0
		}
		impact += severity * s.positionWeight(r.PositionGroup)
	}
	return impact
}

func (s *Store) positionWeight(group models.PositionGroup) float64 {
	switch group {
	case models.PositionQB:
		return s.cfg.InjuryWeights.QB
	case models.PositionSkill:
		return s.cfg.InjuryWeights.Skill
	default:
		return s.cfg.InjuryWeights.Other
	}
}

// Baseline returns the league mean and standard deviation of each efficiency
// feature across teams with enough history before asOf.
func (s *Store) Baseline(asOf time.Time) (models.LeagueBaseline, error) {
	key := fmt.Sprintf("baseline|%d|%s", asOf.UTC().UnixNano(), s.cfg.Version)
	if s.cache != nil {
		if b, ok := s.cache.getBaseline(key); ok {
			return b, nil
		}
	}

	teams := make([]string, 0, len(s.stats))
	for team := range s.stats {
		teams = append(teams, team)
	}
	sort.Strings(teams)

	values := make(map[string][]float64, len(models.EfficiencyFeatureNames))
	for _, team := range teams {
		eff, err := s.efficiency(team, asOf)
		if err != nil {
			continue
		}
		values[models.FeatureOffEPA] = append(values[models.FeatureOffEPA], eff.offEPA)
		values[models.FeatureDefEPA] = append(values[models.FeatureDefEPA], eff.defEPA)
		values[models.FeatureOffSuccessRate] = append(values[models.FeatureOffSuccessRate], eff.offSR)
		values[models.FeatureDefSuccessRate] = append(values[models.FeatureDefSuccessRate], eff.defSR)
		values[models.FeaturePointsForAdj] = append(values[models.FeaturePointsForAdj], eff.pointsForAdj)
		values[models.FeaturePointsAgainstAdj] = append(values[models.FeaturePointsAgainstAdj], eff.pointsAgainstAdj)
	}

	n := len(values[models.FeatureOffEPA])
	if n < 2 {
		return models.LeagueBaseline{}, &models.MissingDataError{Feature: "league_baseline", Reason: fmt.Sprintf("%d teams with history before %s", n, asOf.Format(time.DateOnly))}
	}

	b := models.LeagueBaseline{
		AsOf:   asOf,
		Teams:  n,
		Mean:   make(map[string]float64, len(values)),
		StdDev: make(map[string]float64, len(values)),
	}
	for name, vals := range values {
		b.Mean[name], b.StdDev[name] = meanStd(vals)
	}

	if s.cache != nil {
		s.cache.setBaseline(key, b)
	}
	s.log.WithFields(logrus.Fields{"as_of": asOf.Format(time.DateOnly), "teams": n}).Debug("League baseline computed")
	return b, nil
}

func meanStd(vals []float64) (float64, float64) {
	return stat.PopMeanStdDev(vals, nil)
}
