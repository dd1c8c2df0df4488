package models

import (
	"time"
)

// LineKind tags a market line as opening or closing
type LineKind string

const (
	LineOpening LineKind = "opening"
	LineClosing LineKind = "closing"
)

// MarketLine is one sportsbook's quoted spread and total for one game at a point in time.
// Spread is quoted from the home team's perspective: -3.0 means home favored by 3.
// Prices are American odds.
type MarketLine struct {
	GameID         string    `db:"game_id" json:"game_id" validate:"required"`
	Book           string    `db:"book" json:"book" validate:"required"`
	Timestamp      time.Time `db:"timestamp" json:"timestamp" validate:"required"`
	Kind           LineKind  `db:"kind" json:"kind" validate:"required,oneof=opening closing"`
	Spread         float64   `db:"spread" json:"spread" validate:"gte=-60,lte=60"`
	Total          float64   `db:"total" json:"total" validate:"gt=0"`
	HomeSpreadOdds int       `db:"home_spread_odds" json:"home_spread_odds"`
	AwaySpreadOdds int       `db:"away_spread_odds" json:"away_spread_odds"`
	OverOdds       int       `db:"over_odds" json:"over_odds"`
	UnderOdds      int       `db:"under_odds" json:"under_odds"`
	HomeMoneyline  *int      `db:"home_moneyline" json:"home_moneyline,omitempty"`
	AwayMoneyline  *int      `db:"away_moneyline" json:"away_moneyline,omitempty"`
}

// ImpliedHomeMargin returns the market-implied home margin.
func (l *MarketLine) ImpliedHomeMargin() float64 {
	return -l.Spread
}

// Line sources recorded on a LinePair
const (
	LineSourceSameBook      = "same_book"
	LineSourceMedian        = "median"
	LineSourceMedianClosing = "median_closing"
)

// LinePair couples an opening and closing line used together for CLV.
type LinePair struct {
	GameID   string     `json:"game_id"`
	Book     string     `json:"book"`
	Opening  MarketLine `json:"opening"`
	Closing  MarketLine `json:"closing"`
	Source   string     `json:"source"`
	Fallback bool       `json:"fallback"`
}

// Movement returns the closing spread minus the opening spread.
func (p LinePair) Movement() float64 {
	return p.Closing.Spread - p.Opening.Spread
}

// MarketQuote is the current line and prices a recommendation is priced against.
type MarketQuote struct {
	GameID         string    `json:"game_id"`
	Book           string    `json:"book"`
	QuotedAt       time.Time `json:"quoted_at"`
	Spread         float64   `json:"spread"`
	Total          float64   `json:"total"`
	HomeSpreadOdds int       `json:"home_spread_odds"`
	AwaySpreadOdds int       `json:"away_spread_odds"`
	OverOdds       int       `json:"over_odds"`
	UnderOdds      int       `json:"under_odds"`
	HomeMoneyline  *int      `json:"home_moneyline,omitempty"`
	AwayMoneyline  *int      `json:"away_moneyline,omitempty"`
}

// QuoteFromLine converts a market line into a priced quote. Missing spread/total
// prices default to the standard -110.
func QuoteFromLine(l MarketLine) MarketQuote {
	q := MarketQuote{
		GameID:         l.GameID,
		Book:           l.Book,
		QuotedAt:       l.Timestamp,
		Spread:         l.Spread,
		Total:          l.Total,
		HomeSpreadOdds: defaultOdds(l.HomeSpreadOdds),
		AwaySpreadOdds: defaultOdds(l.AwaySpreadOdds),
		OverOdds:       defaultOdds(l.OverOdds),
		UnderOdds:      defaultOdds(l.UnderOdds),
		HomeMoneyline:  l.HomeMoneyline,
		AwayMoneyline:  l.AwayMoneyline,
	}
	return q
}

func defaultOdds(american int) int {
	if american == 0 {
		return -110
	}
	return american
}
