// Package market holds sportsbook lines per game and resolves opening/closing pairs.
package market

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/yourusername/gridline/internal/models"
)

// Repository is an in-memory store of market lines keyed by game.
// Reads and writes are safe for concurrent use.
type Repository struct {
	mu       sync.RWMutex
	lines    map[string][]models.MarketLine
	validate *validator.Validate
}

// NewRepository creates an empty repository.
func NewRepository() *Repository {
	return &Repository{
		lines:    make(map[string][]models.MarketLine),
		validate: validator.New(),
	}
}

// Add validates and stores lines. Lines stay ordered by timestamp per game.
func (r *Repository) Add(lines ...models.MarketLine) error {
	for i := range lines {
		if err := r.validate.Struct(&lines[i]); err != nil {
			return fmt.Errorf("invalid market line %d for game %q: %w", i, lines[i].GameID, err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	touched := make(map[string]struct{})
	for _, l := range lines {
		r.lines[l.GameID] = append(r.lines[l.GameID], l)
		touched[l.GameID] = struct{}{}
	}
	for gameID := range touched {
		ls := r.lines[gameID]
		sort.SliceStable(ls, func(i, j int) bool { return ls[i].Timestamp.Before(ls[j].Timestamp) })
	}
	return nil
}

// Lines returns a copy of every line for a game in timestamp order.
func (r *Repository) Lines(gameID string) []models.MarketLine {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.MarketLine(nil), r.lines[gameID]...)
}

// Books returns the sorted set of books quoting a game.
func (r *Repository) Books(gameID string) []string {
	seen := make(map[string]struct{})
	for _, l := range r.Lines(gameID) {
		seen[l.Book] = struct{}{}
	}
	books := make([]string, 0, len(seen))
	for b := range seen {
		books = append(books, b)
	}
	sort.Strings(books)
	return books
}

// Opening returns the earliest opening line from book.
func (r *Repository) Opening(gameID, book string) (models.MarketLine, error) {
	for _, l := range r.Lines(gameID) {
		if l.Book == book && l.Kind == models.LineOpening {
			return l, nil
		}
	}
	return models.MarketLine{}, &models.MissingDataError{GameID: gameID, Feature: "opening_line", Reason: "no opening line from " + book}
}

// Closing returns the latest closing line from book.
func (r *Repository) Closing(gameID, book string) (models.MarketLine, error) {
	lines := r.Lines(gameID)
	for i := len(lines) - 1; i >= 0; i-- {
		if lines[i].Book == book && lines[i].Kind == models.LineClosing {
			return lines[i], nil
		}
	}
	return models.MarketLine{}, &models.MissingDataError{GameID: gameID, Feature: "closing_line", Reason: "no closing line from " + book}
}

// PreferredOpening returns the opening line from the preferred book, or from
// the first book in sorted order that has one.
func (r *Repository) PreferredOpening(gameID, preferredBook string) (models.MarketLine, error) {
	if preferredBook != "" {
		if l, err := r.Opening(gameID, preferredBook); err == nil {
			return l, nil
		}
	}
	for _, book := range r.Books(gameID) {
		if l, err := r.Opening(gameID, book); err == nil {
			return l, nil
		}
	}
	return models.MarketLine{}, &models.MissingDataError{GameID: gameID, Feature: "opening_line", Reason: "no opening line from any book"}
}

// LatestBefore returns the newest line quoted at or before asOf, preferring
// preferredBook when it has one.
func (r *Repository) LatestBefore(gameID string, asOf time.Time, preferredBook string) (models.MarketLine, error) {
	lines := r.Lines(gameID)
	var fallback *models.MarketLine
	for i := len(lines) - 1; i >= 0; i-- {
		l := lines[i]
		if l.Timestamp.After(asOf) {
			continue
		}
		if preferredBook == "" || l.Book == preferredBook {
			return l, nil
		}
		if fallback == nil {
			fallback = &lines[i]
		}
	}
	if fallback != nil {
		return *fallback, nil
	}
	return models.MarketLine{}, &models.MissingDataError{
		GameID:  gameID,
		Feature: "market_prior",
		Reason:  "no line quoted before " + asOf.UTC().Format(time.RFC3339),
	}
}

// Pair resolves the opening and closing lines used together for CLV. The same
// book is used when one has both; otherwise the per-kind median across books is
// used and recorded as a fallback.
func (r *Repository) Pair(gameID, preferredBook string) (models.LinePair, error) {
	books := r.Books(gameID)
	if preferredBook != "" {
		books = append([]string{preferredBook}, books...)
	}
	for _, book := range books {
		open, errOpen := r.Opening(gameID, book)
		closing, errClose := r.Closing(gameID, book)
		if errOpen == nil && errClose == nil {
			return models.LinePair{
				GameID:  gameID,
				Book:    book,
				Opening: open,
				Closing: closing,
				Source:  models.LineSourceSameBook,
			}, nil
		}
	}
	return r.medianPair(gameID)
}

// PairForBook resolves the CLV pair for a bet priced on book. The book's own
// closing line is used when it has one. A book with an opening but no closing
// line is paired with the median closing line across books, and a book with
// no opening line falls back to the median pair. Both fallbacks are flagged.
func (r *Repository) PairForBook(gameID, book string) (models.LinePair, error) {
	open, err := r.Opening(gameID, book)
	if err != nil {
		return r.medianPair(gameID)
	}
	if closing, err := r.Closing(gameID, book); err == nil {
		return models.LinePair{
			GameID:  gameID,
			Book:    book,
			Opening: open,
			Closing: closing,
			Source:  models.LineSourceSameBook,
		}, nil
	}

	closings := r.linesOfKind(gameID, models.LineClosing)
	if len(closings) == 0 {
		return models.LinePair{}, &models.MissingDataError{GameID: gameID, Feature: "closing_line", Reason: "no closing line from any book"}
	}
	return models.LinePair{
		GameID:   gameID,
		Book:     book,
		Opening:  open,
		Closing:  medianLine(gameID, models.LineClosing, closings),
		Source:   models.LineSourceMedianClosing,
		Fallback: true,
	}, nil
}

// medianPair pairs the per-kind median lines across every book.
func (r *Repository) medianPair(gameID string) (models.LinePair, error) {
	openings := r.linesOfKind(gameID, models.LineOpening)
	if len(openings) == 0 {
		return models.LinePair{}, &models.MissingDataError{GameID: gameID, Feature: "opening_line", Reason: "no opening line from any book"}
	}
	closings := r.linesOfKind(gameID, models.LineClosing)
	if len(closings) == 0 {
		return models.LinePair{}, &models.MissingDataError{GameID: gameID, Feature: "closing_line", Reason: "no closing line from any book"}
	}

	return models.LinePair{
		GameID:   gameID,
		Book:     models.LineSourceMedian,
		Opening:  medianLine(gameID, models.LineOpening, openings),
		Closing:  medianLine(gameID, models.LineClosing, closings),
		Source:   models.LineSourceMedian,
		Fallback: true,
	}, nil
}

// linesOfKind returns one line of kind per book: the earliest opening or the latest closing.
func (r *Repository) linesOfKind(gameID string, kind models.LineKind) []models.MarketLine {
	var out []models.MarketLine
	for _, book := range r.Books(gameID) {
		var l models.MarketLine
		var err error
		if kind == models.LineOpening {
			l, err = r.Opening(gameID, book)
		} else {
			l, err = r.Closing(gameID, book)
		}
		if err == nil {
			out = append(out, l)
		}
	}
	return out
}

// CheckFreshness fails with a StaleLineError when quote is older than window.
// A zero window disables the check.
func CheckFreshness(quote models.MarketQuote, now time.Time, window time.Duration) error {
	if window <= 0 {
		return nil
	}
	age := now.Sub(quote.QuotedAt)
	if age > window {
		return &models.StaleLineError{
			GameID:   quote.GameID,
			Book:     quote.Book,
			QuotedAt: quote.QuotedAt,
			Age:      age,
			Window:   window,
		}
	}
	return nil
}

// medianLine builds a synthetic line from the per-field medians of lines.
func medianLine(gameID string, kind models.LineKind, lines []models.MarketLine) models.MarketLine {
	field := func(get func(models.MarketLine) float64) float64 {
		vals := make([]float64, len(lines))
		for i, l := range lines {
			vals[i] = get(l)
		}
		return median(vals)
	}
	price := func(get func(models.MarketLine) int) int {
		var vals []float64
		for _, l := range lines {
			if v := get(l); v != 0 {
				vals = append(vals, float64(v))
			}
		}
		if len(vals) == 0 {
			return 0
		}
		return int(math.Round(median(vals)))
	}
	moneyline := func(get func(models.MarketLine) *int) *int {
		var vals []float64
		for _, l := range lines {
			if v := get(l); v != nil {
				vals = append(vals, float64(*v))
			}
		}
		if len(vals) == 0 {
			return nil
		}
		m := int(math.Round(median(vals)))
		return &m
	}

	ts := lines[0].Timestamp
	for _, l := range lines {
		if kind == models.LineClosing && l.Timestamp.After(ts) {
			ts = l.Timestamp
		}
		if kind == models.LineOpening && l.Timestamp.Before(ts) {
			ts = l.Timestamp
		}
	}

	return models.MarketLine{
		GameID:         gameID,
		Book:           models.LineSourceMedian,
		Timestamp:      ts,
		Kind:           kind,
		Spread:         field(func(l models.MarketLine) float64 { return l.Spread }),
		Total:          field(func(l models.MarketLine) float64 { return l.Total }),
		HomeSpreadOdds: price(func(l models.MarketLine) int { return l.HomeSpreadOdds }),
		AwaySpreadOdds: price(func(l models.MarketLine) int { return l.AwaySpreadOdds }),
		OverOdds:       price(func(l models.MarketLine) int { return l.OverOdds }),
		UnderOdds:      price(func(l models.MarketLine) int { return l.UnderOdds }),
		HomeMoneyline:  moneyline(func(l models.MarketLine) *int { return l.HomeMoneyline }),
		AwayMoneyline:  moneyline(func(l models.MarketLine) *int { return l.AwayMoneyline }),
	}
}

func median(vals []float64) float64 {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
