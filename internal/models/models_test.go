package models

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGameKey(t *testing.T) {
	g := Game{Season: 2023, Week: 5, HomeTeam: "BUF", AwayTeam: "KC"}
	assert.Equal(t, "2023-05-KC@BUF", g.ID())
	assert.False(t, g.IsCompleted())

	home, away := 24, 20
	g.HomeScore, g.AwayScore = &home, &away
	margin, ok := g.Margin()
	require.True(t, ok)
	assert.Equal(t, 4.0, margin)
	total, _ := g.Total()
	assert.Equal(t, 44.0, total)
}

func TestParseSeasonWeek(t *testing.T) {
	for _, in := range []string{"2023-W05", "2023-5", "2023:05", " 2023-w5 "} {
		sw, err := ParseSeasonWeek(in)
		require.NoError(t, err, in)
		assert.Equal(t, SeasonWeek{Season: 2023, Week: 5}, sw, in)
	}
	for _, in := range []string{"", "2023", "2023-", "x-5", "2023-23", "2023-0"} {
		_, err := ParseSeasonWeek(in)
		assert.Error(t, err, in)
	}
	assert.Equal(t, "2023-W06", SeasonWeek{Season: 2023, Week: 5}.Next().String())
	assert.True(t, SeasonWeek{Season: 2022, Week: 18}.Before(SeasonWeek{Season: 2023, Week: 1}))
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "", ErrorKind(nil))
	assert.Equal(t, KindMissingData, ErrorKind(fmt.Errorf("wrap: %w", &MissingDataError{Feature: "off_epa"})))
	assert.Equal(t, KindModelNotTrained, ErrorKind(&ModelNotTrainedError{Model: "residual"}))
	assert.Equal(t, KindInvalidSampleSize, ErrorKind(&InvalidSampleSizeError{Requested: 0}))
	assert.Equal(t, KindStaleLine, ErrorKind(&StaleLineError{GameID: "g"}))
	assert.Equal(t, KindInternal, ErrorKind(assert.AnError))
}

func TestStillValid(t *testing.T) {
	rec := BetRecommendation{GameID: "g", BetType: BetTypeSpread, Side: BetSideHome, Line: -3, Odds: -110}
	quote := MarketQuote{GameID: "g", Spread: -3.5, HomeSpreadOdds: -110}

	assert.True(t, rec.StillValid(quote, 0.5))
	assert.False(t, rec.StillValid(quote, 0.25), "line moved beyond tolerance")

	quote.HomeSpreadOdds = -120
	assert.False(t, rec.StillValid(quote, 0.5), "price moved against the side")

	quote.HomeSpreadOdds = 100
	assert.True(t, rec.StillValid(quote, 0.5), "better price stays valid")

	quote.GameID = "other"
	assert.False(t, rec.StillValid(quote, 0.5))

	ml := BetRecommendation{GameID: "g", BetType: BetTypeMoneyline, Side: BetSideAway, Odds: 150}
	assert.False(t, ml.StillValid(MarketQuote{GameID: "g"}, 0.5), "no moneyline quoted")
}

func TestQuoteFromLineDefaultsPrices(t *testing.T) {
	q := QuoteFromLine(MarketLine{GameID: "g", Spread: -3, Total: 44, OverOdds: -105})
	assert.Equal(t, -110, q.HomeSpreadOdds)
	assert.Equal(t, -105, q.OverOdds)
	assert.Equal(t, 3.0, (&MarketLine{Spread: -3}).ImpliedHomeMargin())
}
