package models

import (
	"time"
)

// Feature names in model input order
const (
	FeatureOffEPA           = "off_epa"
	FeatureDefEPA           = "def_epa"
	FeatureOffSuccessRate   = "off_success_rate"
	FeatureDefSuccessRate   = "def_success_rate"
	FeaturePointsForAdj     = "points_for_adj"
	FeaturePointsAgainstAdj = "points_against_adj"
	FeatureInjuryImpact     = "injury_impact"
	FeatureTravelBucket     = "travel_bucket"
	FeatureTimezoneEffect   = "timezone_effect"
	FeatureRestDays         = "rest_days"
	FeatureDivisional       = "divisional"
	FeatureConference       = "conference"
)

// ModelFeatureNames lists the per-team features fed to the residual model.
// Raw travel distance and timezone delta are informational and excluded.
var ModelFeatureNames = []string{
	FeatureOffEPA,
	FeatureDefEPA,
	FeatureOffSuccessRate,
	FeatureDefSuccessRate,
	FeaturePointsForAdj,
	FeaturePointsAgainstAdj,
	FeatureInjuryImpact,
	FeatureTravelBucket,
	FeatureTimezoneEffect,
	FeatureRestDays,
	FeatureDivisional,
	FeatureConference,
}

// EfficiencyFeatureNames are the efficiency-derived features subject to clamping.
var EfficiencyFeatureNames = []string{
	FeatureOffEPA,
	FeatureDefEPA,
	FeatureOffSuccessRate,
	FeatureDefSuccessRate,
	FeaturePointsForAdj,
	FeaturePointsAgainstAdj,
}

// TeamFeatureVector holds one team's features for one upcoming game as of a date.
type TeamFeatureVector struct {
	Team             string    `json:"team"`
	GameID           string    `json:"game_id"`
	AsOf             time.Time `json:"as_of"`
	GamesUsed        int       `json:"games_used"`
	OffEPA           float64   `json:"off_epa"`
	DefEPA           float64   `json:"def_epa"`
	OffSuccessRate   float64   `json:"off_success_rate"`
	DefSuccessRate   float64   `json:"def_success_rate"`
	PointsForAdj     float64   `json:"points_for_adj"`
	PointsAgainstAdj float64   `json:"points_against_adj"`
	InjuryImpact     float64   `json:"injury_impact"`
	TravelDistance   float64   `json:"travel_distance"`
	TravelBucket     int       `json:"travel_bucket"`
	TimezoneDelta    float64   `json:"timezone_delta"`
	TimezoneEffect   float64   `json:"timezone_effect"`
	RestDays         float64   `json:"rest_days"`
	Divisional       bool      `json:"divisional"`
	Conference       bool      `json:"conference"`
}

// Features returns the named numeric mapping of the vector.
func (v TeamFeatureVector) Features() map[string]float64 {
	return map[string]float64{
		FeatureOffEPA:           v.OffEPA,
		FeatureDefEPA:           v.DefEPA,
		FeatureOffSuccessRate:   v.OffSuccessRate,
		FeatureDefSuccessRate:   v.DefSuccessRate,
		FeaturePointsForAdj:     v.PointsForAdj,
		FeaturePointsAgainstAdj: v.PointsAgainstAdj,
		FeatureInjuryImpact:     v.InjuryImpact,
		FeatureTravelBucket:     float64(v.TravelBucket),
		FeatureTimezoneEffect:   v.TimezoneEffect,
		FeatureRestDays:         v.RestDays,
		FeatureDivisional:       boolToFloat(v.Divisional),
		FeatureConference:       boolToFloat(v.Conference),
		"travel_distance":       v.TravelDistance,
		"timezone_delta":        v.TimezoneDelta,
	}
}

// Vector returns the model features in ModelFeatureNames order.
func (v TeamFeatureVector) Vector() []float64 {
	named := v.Features()
	out := make([]float64, len(ModelFeatureNames))
	for i, name := range ModelFeatureNames {
		out[i] = named[name]
	}
	return out
}

// Efficiency returns a pointer to the named efficiency field, or nil.
func (v *TeamFeatureVector) Efficiency(name string) *float64 {
	switch name {
	case FeatureOffEPA:
		return &v.OffEPA
	case FeatureDefEPA:
		return &v.DefEPA
	case FeatureOffSuccessRate:
		return &v.OffSuccessRate
	case FeatureDefSuccessRate:
		return &v.DefSuccessRate
	case FeaturePointsForAdj:
		return &v.PointsForAdj
	case FeaturePointsAgainstAdj:
		return &v.PointsAgainstAdj
	default:
		return nil
	}
}

// LeagueBaseline is the league mean and standard deviation of efficiency features.
type LeagueBaseline struct {
	AsOf   time.Time          `json:"as_of"`
	Teams  int                `json:"teams"`
	Mean   map[string]float64 `json:"mean"`
	StdDev map[string]float64 `json:"std_dev"`
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
