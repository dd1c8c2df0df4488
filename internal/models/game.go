package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Game identifies one scheduled matchup. Identity is (season, week, home, away).
type Game struct {
	Season      int       `json:"season" validate:"required,gte=1920"`
	Week        int       `json:"week" validate:"required,gte=1,lte=22"`
	HomeTeam    string    `json:"home_team" validate:"required,nefield=AwayTeam"`
	AwayTeam    string    `json:"away_team" validate:"required"`
	Kickoff     time.Time `json:"kickoff" validate:"required"`
	Venue       string    `json:"venue"`
	NeutralSite bool      `json:"neutral_site"`
	VenueLat    *float64  `json:"venue_lat,omitempty" validate:"omitempty,gte=-90,lte=90"`
	VenueLon    *float64  `json:"venue_lon,omitempty" validate:"omitempty,gte=-180,lte=180"`
	VenueUTC    *float64  `json:"venue_utc_offset,omitempty"`
	HomeScore   *int      `json:"home_score,omitempty" validate:"omitempty,gte=0"`
	AwayScore   *int      `json:"away_score,omitempty" validate:"omitempty,gte=0"`
}

// ID returns the stable game key "<season>-<week>-<away>@<home>".
func (g *Game) ID() string {
	return GameKey(g.Season, g.Week, g.HomeTeam, g.AwayTeam)
}

// GameKey builds a game key from its identity fields.
func GameKey(season, week int, home, away string) string {
	return fmt.Sprintf("%d-%02d-%s@%s", season, week, away, home)
}

// IsCompleted reports whether final scores are attached.
func (g *Game) IsCompleted() bool {
	return g.HomeScore != nil && g.AwayScore != nil
}

// Margin returns home minus away points for a completed game.
func (g *Game) Margin() (float64, bool) {
	if !g.IsCompleted() {
		return 0, false
	}
	return float64(*g.HomeScore - *g.AwayScore), true
}

// Total returns combined points for a completed game.
func (g *Game) Total() (float64, bool) {
	if !g.IsCompleted() {
		return 0, false
	}
	return float64(*g.HomeScore + *g.AwayScore), true
}

// SeasonWeek orders games chronologically at week granularity.
type SeasonWeek struct {
	Season int `json:"season"`
	Week   int `json:"week"`
}

// Before reports whether s precedes other.
func (s SeasonWeek) Before(other SeasonWeek) bool {
	if s.Season != other.Season {
		return s.Season < other.Season
	}
	return s.Week < other.Week
}

// String formats the season/week pair.
func (s SeasonWeek) String() string {
	return fmt.Sprintf("%d-W%02d", s.Season, s.Week)
}

// ParseSeasonWeek parses "2023-W05", "2023-5" or "2023:5".
func ParseSeasonWeek(s string) (SeasonWeek, error) {
	s = strings.TrimSpace(s)
	sep := strings.IndexAny(s, "-:")
	if sep <= 0 {
		return SeasonWeek{}, fmt.Errorf("invalid season/week %q: want SEASON-WEEK", s)
	}
	season, err := strconv.Atoi(s[:sep])
	if err != nil {
		return SeasonWeek{}, fmt.Errorf("invalid season in %q: %w", s, err)
	}
	week, err := strconv.Atoi(strings.TrimPrefix(strings.ToUpper(s[sep+1:]), "W"))
	if err != nil {
		return SeasonWeek{}, fmt.Errorf("invalid week in %q: %w", s, err)
	}
	if week < 1 || week > 22 {
		return SeasonWeek{}, fmt.Errorf("week %d out of range 1-22", week)
	}
	return SeasonWeek{Season: season, Week: week}, nil
}

// Next returns the following week of the same season.
func (s SeasonWeek) Next() SeasonWeek {
	return SeasonWeek{Season: s.Season, Week: s.Week + 1}
}

// SeasonWeek returns the game's season/week position.
func (g *Game) SeasonWeek() SeasonWeek {
	return SeasonWeek{Season: g.Season, Week: g.Week}
}

// TeamInfo holds the static alignment and home venue for a team.
type TeamInfo struct {
	Team       string  `json:"team" validate:"required"`
	Conference string  `json:"conference" validate:"required"`
	Division   string  `json:"division" validate:"required"`
	Latitude   float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude  float64 `json:"longitude" validate:"gte=-180,lte=180"`
	UTCOffset  float64 `json:"utc_offset" validate:"gte=-12,lte=14"`
}

// TeamGameStats is one team's play-by-play aggregate for a single played game.
type TeamGameStats struct {
	Team           string    `json:"team" validate:"required"`
	Opponent       string    `json:"opponent" validate:"required"`
	GameDate       time.Time `json:"game_date" validate:"required"`
	Season         int       `json:"season" validate:"required"`
	Week           int       `json:"week" validate:"required,gte=1"`
	OffEPA         float64   `json:"off_epa"`
	DefEPA         float64   `json:"def_epa"`
	OffSuccessRate float64   `json:"off_success_rate" validate:"gte=0,lte=1"`
	DefSuccessRate float64   `json:"def_success_rate" validate:"gte=0,lte=1"`
	PointsFor      float64   `json:"points_for" validate:"gte=0"`
	PointsAgainst  float64   `json:"points_against" validate:"gte=0"`
}

// PositionGroup buckets injured players for impact weighting.
type PositionGroup string

const (
	PositionQB    PositionGroup = "QB"
	PositionSkill PositionGroup = "SKILL"
	PositionOther PositionGroup = "OTHER"
)

// InjuryStatus is the reported availability of a player.
type InjuryStatus string

const (
	InjuryOut          InjuryStatus = "OUT"
	InjuryDoubtful     InjuryStatus = "DOUBTFUL"
	InjuryQuestionable InjuryStatus = "QUESTIONABLE"
	InjuryLimited      InjuryStatus = "LIMITED"
)

// IsMissing reports statuses that count as a missing player.
func (s InjuryStatus) IsMissing() bool {
	return s == InjuryOut || s == InjuryDoubtful
}

// InjuryReport is one player's status as of a report date.
type InjuryReport struct {
	Team          string        `json:"team" validate:"required"`
	ReportDate    time.Time     `json:"report_date" validate:"required"`
	Player        string        `json:"player" validate:"required"`
	PositionGroup PositionGroup `json:"position_group" validate:"required,oneof=QB SKILL OTHER"`
	Status        InjuryStatus  `json:"status" validate:"required,oneof=OUT DOUBTFUL QUESTIONABLE LIMITED"`
	Starter       bool          `json:"starter"`
}
