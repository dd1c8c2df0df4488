package backtest

import (
	"fmt"

	"github.com/yourusername/gridline/internal/config"
	"github.com/yourusername/gridline/internal/models"
)

// BacktestRange is an inclusive span of season/weeks to replay.
type BacktestRange struct {
	From models.SeasonWeek `json:"from"`
	To   models.SeasonWeek `json:"to"`
}

// RangeFromConfig builds the replay range from the backtest configuration.
func RangeFromConfig(cfg config.BacktestConfig) BacktestRange {
	return BacktestRange{
		From: models.SeasonWeek{Season: cfg.FromSeason, Week: cfg.FromWeek},
		To:   models.SeasonWeek{Season: cfg.ToSeason, Week: cfg.ToWeek},
	}
}

// Validate checks that the range is well-formed.
func (r BacktestRange) Validate() error {
	if r.From.Week < 1 || r.To.Week < 1 {
		return fmt.Errorf("backtest range weeks must be positive: %s..%s", r.From, r.To)
	}
	if r.To.Before(r.From) {
		return fmt.Errorf("backtest range ends before it starts: %s..%s", r.From, r.To)
	}
	return nil
}

// Contains reports whether sw falls inside the range.
func (r BacktestRange) Contains(sw models.SeasonWeek) bool {
	return !sw.Before(r.From) && !r.To.Before(sw)
}

// String formats the range.
func (r BacktestRange) String() string {
	return fmt.Sprintf("%s..%s", r.From, r.To)
}
