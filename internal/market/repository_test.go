package market

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/gridline/internal/models"
)

const gameID = "2023-05-KC@BUF"

var t0 = time.Date(2023, 10, 1, 12, 0, 0, 0, time.UTC)

func line(book string, kind models.LineKind, at time.Duration, spread, total float64) models.MarketLine {
	return models.MarketLine{
		GameID:         gameID,
		Book:           book,
		Timestamp:      t0.Add(at),
		Kind:           kind,
		Spread:         spread,
		Total:          total,
		HomeSpreadOdds: -110,
		AwaySpreadOdds: -110,
		OverOdds:       -110,
		UnderOdds:      -110,
	}
}

func TestAddRejectsInvalidLine(t *testing.T) {
	repo := NewRepository()

	bad := line("pinnacle", models.LineOpening, 0, -3, 47.5)
	bad.Total = 0
	err := repo.Add(bad)
	require.Error(t, err)
	assert.Empty(t, repo.Lines(gameID))

	bad = line("pinnacle", "midweek", 0, -3, 47.5)
	assert.Error(t, repo.Add(bad))
}

func TestLinesOrderedAndCopied(t *testing.T) {
	repo := NewRepository()
	require.NoError(t, repo.Add(
		line("b", models.LineClosing, 72*time.Hour, -4, 48),
		line("a", models.LineOpening, 0, -3, 47.5),
	))

	lines := repo.Lines(gameID)
	require.Len(t, lines, 2)
	assert.Equal(t, "a", lines[0].Book)

	lines[0].Spread = 99
	assert.Equal(t, -3.0, repo.Lines(gameID)[0].Spread)
	assert.Equal(t, []string{"a", "b"}, repo.Books(gameID))
}

func TestOpeningAndClosing(t *testing.T) {
	repo := NewRepository()
	require.NoError(t, repo.Add(
		line("pinnacle", models.LineOpening, 0, -3, 47.5),
		line("pinnacle", models.LineOpening, time.Hour, -3.5, 47.5),
		line("pinnacle", models.LineClosing, 70*time.Hour, -4, 48),
		line("pinnacle", models.LineClosing, 72*time.Hour, -4.5, 48.5),
	))

	open, err := repo.Opening(gameID, "pinnacle")
	require.NoError(t, err)
	assert.Equal(t, -3.0, open.Spread)

	closing, err := repo.Closing(gameID, "pinnacle")
	require.NoError(t, err)
	assert.Equal(t, -4.5, closing.Spread)

	_, err = repo.Opening(gameID, "draftkings")
	var md *models.MissingDataError
	assert.True(t, errors.As(err, &md))
}

func TestPairSameBook(t *testing.T) {
	repo := NewRepository()
	require.NoError(t, repo.Add(
		line("a", models.LineOpening, 0, -2.5, 47),
		line("a", models.LineClosing, 72*time.Hour, -3, 47.5),
		line("pinnacle", models.LineOpening, 0, -3, 47.5),
		line("pinnacle", models.LineClosing, 72*time.Hour, -4.5, 48),
	))

	pair, err := repo.Pair(gameID, "pinnacle")
	require.NoError(t, err)
	assert.Equal(t, "pinnacle", pair.Book)
	assert.Equal(t, models.LineSourceSameBook, pair.Source)
	assert.False(t, pair.Fallback)
	assert.Equal(t, -1.5, pair.Movement())

	// Preferred book missing: first complete book in sorted order.
	pair, err = repo.Pair(gameID, "draftkings")
	require.NoError(t, err)
	assert.Equal(t, "a", pair.Book)
}

func TestPairMedianFallbackIsRecorded(t *testing.T) {
	repo := NewRepository()
	require.NoError(t, repo.Add(
		line("a", models.LineOpening, 0, -2.5, 46),
		line("b", models.LineOpening, time.Hour, -3, 47),
		line("c", models.LineOpening, 2*time.Hour, -3.5, 48),
		line("d", models.LineClosing, 70*time.Hour, -4, 48),
		line("e", models.LineClosing, 72*time.Hour, -5, 49),
	))

	pair, err := repo.Pair(gameID, "a")
	require.NoError(t, err)

	assert.True(t, pair.Fallback)
	assert.Equal(t, models.LineSourceMedian, pair.Source)
	assert.Equal(t, -3.0, pair.Opening.Spread)
	assert.Equal(t, 47.0, pair.Opening.Total)
	assert.Equal(t, -4.5, pair.Closing.Spread)
	assert.Equal(t, 48.5, pair.Closing.Total)
	assert.Equal(t, -110, pair.Closing.HomeSpreadOdds)
	assert.Equal(t, t0, pair.Opening.Timestamp)
	assert.Equal(t, t0.Add(72*time.Hour), pair.Closing.Timestamp)
}

func TestPairMissingClosing(t *testing.T) {
	repo := NewRepository()
	require.NoError(t, repo.Add(line("a", models.LineOpening, 0, -3, 47)))

	_, err := repo.Pair(gameID, "")
	var md *models.MissingDataError
	require.True(t, errors.As(err, &md))
	assert.Equal(t, "closing_line", md.Feature)
}

func TestPairForBookKeepsPricingBook(t *testing.T) {
	repo := NewRepository()
	require.NoError(t, repo.Add(
		line("pinnacle", models.LineOpening, 0, -3, 47),
		line("dk", models.LineOpening, 0, -6, 47),
		line("dk", models.LineClosing, 72*time.Hour, -4, 48),
		line("fd", models.LineClosing, 72*time.Hour, -5, 48),
	))

	pair, err := repo.PairForBook(gameID, "dk")
	require.NoError(t, err)
	assert.Equal(t, "dk", pair.Book)
	assert.Equal(t, models.LineSourceSameBook, pair.Source)
	assert.False(t, pair.Fallback)
	assert.Equal(t, 2.0, pair.Movement())

	pair, err = repo.PairForBook(gameID, "pinnacle")
	require.NoError(t, err)
	assert.Equal(t, "pinnacle", pair.Book)
	assert.Equal(t, -3.0, pair.Opening.Spread)
	assert.Equal(t, -4.5, pair.Closing.Spread, "median closing across books")
	assert.Equal(t, models.LineSourceMedianClosing, pair.Source)
	assert.True(t, pair.Fallback)

	pair, err = repo.PairForBook(gameID, "unknown")
	require.NoError(t, err)
	assert.Equal(t, models.LineSourceMedian, pair.Source)
	assert.True(t, pair.Fallback)
}

func TestPairForBookWithoutClosing(t *testing.T) {
	repo := NewRepository()
	require.NoError(t, repo.Add(line("pinnacle", models.LineOpening, 0, -3, 47)))

	_, err := repo.PairForBook(gameID, "pinnacle")
	var md *models.MissingDataError
	require.True(t, errors.As(err, &md))
	assert.Equal(t, "closing_line", md.Feature)
}

func TestLatestBefore(t *testing.T) {
	repo := NewRepository()
	require.NoError(t, repo.Add(
		line("a", models.LineOpening, 0, -3, 47),
		line("pinnacle", models.LineOpening, time.Hour, -3.5, 47),
		line("a", models.LineClosing, 10*time.Hour, -4, 48),
		line("pinnacle", models.LineClosing, 20*time.Hour, -5, 48),
	))

	l, err := repo.LatestBefore(gameID, t0.Add(15*time.Hour), "pinnacle")
	require.NoError(t, err)
	assert.Equal(t, -3.5, l.Spread, "preferred book wins over a newer line elsewhere")

	l, err = repo.LatestBefore(gameID, t0.Add(15*time.Hour), "")
	require.NoError(t, err)
	assert.Equal(t, -4.0, l.Spread)

	l, err = repo.LatestBefore(gameID, t0.Add(30*time.Minute), "pinnacle")
	require.NoError(t, err)
	assert.Equal(t, "a", l.Book, "falls back to any book when preferred has nothing yet")

	_, err = repo.LatestBefore(gameID, t0.Add(-time.Minute), "")
	assert.Error(t, err)
}

func TestPreferredOpening(t *testing.T) {
	repo := NewRepository()
	require.NoError(t, repo.Add(
		line("b", models.LineOpening, 0, -3, 47),
		line("pinnacle", models.LineOpening, 0, -2.5, 47),
	))

	l, err := repo.PreferredOpening(gameID, "pinnacle")
	require.NoError(t, err)
	assert.Equal(t, "pinnacle", l.Book)

	l, err = repo.PreferredOpening(gameID, "circa")
	require.NoError(t, err)
	assert.Equal(t, "b", l.Book)
}

func TestCheckFreshness(t *testing.T) {
	quote := models.MarketQuote{GameID: gameID, Book: "pinnacle", QuotedAt: t0}

	assert.NoError(t, CheckFreshness(quote, t0.Add(time.Hour), 2*time.Hour))
	assert.NoError(t, CheckFreshness(quote, t0.Add(100*time.Hour), 0))

	err := CheckFreshness(quote, t0.Add(3*time.Hour), 2*time.Hour)
	var stale *models.StaleLineError
	require.True(t, errors.As(err, &stale))
	assert.Equal(t, 3*time.Hour, stale.Age)
	assert.Equal(t, models.KindStaleLine, models.ErrorKind(err))
}
