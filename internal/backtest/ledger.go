package backtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/yourusername/gridline/internal/models"
)

// RecordSink persists backtest records. Implementations must be append-only.
type RecordSink interface {
	Append(ctx context.Context, records ...models.BacktestRecord) error
}

// Ledger is the in-memory append-only record of one backtest run.
// Records can be added and read, never changed or removed.
type Ledger struct {
	mu      sync.RWMutex
	records []models.BacktestRecord
	ids     map[uuid.UUID]struct{}
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{ids: make(map[uuid.UUID]struct{})}
}

// Append adds records. A record whose ID is already present is rejected with
// ErrAppendOnly and nothing from the call is added.
func (l *Ledger) Append(_ context.Context, records ...models.BacktestRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	seen := make(map[uuid.UUID]struct{}, len(records))
	for _, r := range records {
		if r.ID == uuid.Nil {
			return fmt.Errorf("backtest record for game %s: %w", r.GameID, models.ErrInvalidID)
		}
		_, exists := l.ids[r.ID]
		_, dup := seen[r.ID]
		if exists || dup {
			return fmt.Errorf("backtest record %s: %w", r.ID, models.ErrAppendOnly)
		}
		seen[r.ID] = struct{}{}
	}
	for _, r := range records {
		l.ids[r.ID] = struct{}{}
		l.records = append(l.records, r)
	}
	return nil
}

// Records returns a copy of the records in append order.
func (l *Ledger) Records() []models.BacktestRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]models.BacktestRecord(nil), l.records...)
}

// Len returns the number of records.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}
