package ingest

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/yourusername/gridline/internal/models"
)

// Input table names, also used as metric labels.
const (
	TableGames     = "games"
	TableTeamStats = "team_stats"
	TableLines     = "lines"
	TableTeams     = "teams"
	TableInjuries  = "injuries"
)

var (
	gameColumns      = []string{"season", "week", "home_team", "away_team", "kickoff"}
	teamStatsColumns = []string{"team", "opponent", "game_date", "season", "week", "off_epa", "def_epa", "off_success_rate", "def_success_rate", "points_for", "points_against"}
	lineColumns      = []string{"game_id", "book", "timestamp", "kind", "spread", "total"}
	teamColumns      = []string{"team", "conference", "division", "latitude", "longitude", "utc_offset"}
	injuryColumns    = []string{"team", "report_date", "player", "position_group", "status"}
)

func parseGame(r *row, v *validator.Validate) (models.Game, error) {
	g := models.Game{
		Season:      r.int("season"),
		Week:        r.int("week"),
		HomeTeam:    strings.ToUpper(r.str("home_team")),
		AwayTeam:    strings.ToUpper(r.str("away_team")),
		Kickoff:     r.time("kickoff"),
		Venue:       r.str("venue"),
		NeutralSite: r.bool("neutral_site"),
		VenueLat:    r.optFloat("venue_lat"),
		VenueLon:    r.optFloat("venue_lon"),
		VenueUTC:    r.optFloat("venue_utc_offset"),
		HomeScore:   r.optInt("home_score"),
		AwayScore:   r.optInt("away_score"),
	}
	if (g.HomeScore == nil) != (g.AwayScore == nil) {
		return g, errors.New("home_score and away_score must both be set or both be empty")
	}
	return g, v.Struct(&g)
}

func parseTeamStats(r *row, v *validator.Validate) (models.TeamGameStats, error) {
	s := models.TeamGameStats{
		Team:           strings.ToUpper(r.str("team")),
		Opponent:       strings.ToUpper(r.str("opponent")),
		GameDate:       r.time("game_date"),
		Season:         r.int("season"),
		Week:           r.int("week"),
		OffEPA:         r.float("off_epa"),
		DefEPA:         r.float("def_epa"),
		OffSuccessRate: r.float("off_success_rate"),
		DefSuccessRate: r.float("def_success_rate"),
		PointsFor:      r.float("points_for"),
		PointsAgainst:  r.float("points_against"),
	}
	return s, v.Struct(&s)
}

func parseLine(r *row, v *validator.Validate) (models.MarketLine, error) {
	l := models.MarketLine{
		GameID:         r.str("game_id"),
		Book:           strings.ToLower(r.str("book")),
		Timestamp:      r.time("timestamp"),
		Kind:           models.LineKind(strings.ToLower(r.str("kind"))),
		Spread:         r.float("spread"),
		Total:          r.float("total"),
		HomeSpreadOdds: r.int("home_spread_odds"),
		AwaySpreadOdds: r.int("away_spread_odds"),
		OverOdds:       r.int("over_odds"),
		UnderOdds:      r.int("under_odds"),
		HomeMoneyline:  r.optInt("home_moneyline"),
		AwayMoneyline:  r.optInt("away_moneyline"),
	}
	return l, v.Struct(&l)
}

func parseTeam(r *row, v *validator.Validate) (models.TeamInfo, error) {
	t := models.TeamInfo{
		Team:       strings.ToUpper(r.str("team")),
		Conference: strings.ToUpper(r.str("conference")),
		Division:   r.str("division"),
		Latitude:   r.float("latitude"),
		Longitude:  r.float("longitude"),
		UTCOffset:  r.float("utc_offset"),
	}
	return t, v.Struct(&t)
}

func parseInjury(r *row, v *validator.Validate) (models.InjuryReport, error) {
	in := models.InjuryReport{
		Team:          strings.ToUpper(r.str("team")),
		ReportDate:    r.time("report_date"),
		Player:        r.str("player"),
		PositionGroup: models.PositionGroup(strings.ToUpper(r.str("position_group"))),
		Status:        models.InjuryStatus(strings.ToUpper(r.str("status"))),
		Starter:       r.bool("starter"),
	}
	return in, v.Struct(&in)
}
