package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/gridline/internal/database"
	"github.com/yourusername/gridline/internal/models"
)

const errScanBacktestRecord = "failed to scan backtest record: %w"

const insertBacktestRecordQuery = `
	INSERT INTO backtest_records (
		id, run_id, season, week, game_id, bet_type, side, line, odds, stake,
		win_prob, push_prob, tier, home_score, away_score, outcome, profit,
		closing_line, closing_odds, clv, clv_source, clv_fallback,
		model_margin, model_version, config_version, recorded_at
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26)
`

// PostgresBacktestRecordRepository implements BacktestRecordRepository for PostgreSQL
type PostgresBacktestRecordRepository struct {
	db database.Querier
}

// NewPostgresBacktestRecordRepository creates a new backtest record repository
func NewPostgresBacktestRecordRepository(db database.Querier) BacktestRecordRepository {
	return &PostgresBacktestRecordRepository{db: db}
}

// Append inserts records atomically. A record whose ID already exists fails
// the whole batch with models.ErrAppendOnly.
func (r *PostgresBacktestRecordRepository) Append(ctx context.Context, records ...models.BacktestRecord) error {
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, rec := range records {
		if rec.ID == uuid.Nil || rec.RunID == uuid.Nil {
			return fmt.Errorf("backtest record for game %s: %w", rec.GameID, models.ErrInvalidID)
		}
		bet := rec.Recommendation
		batch.Queue(insertBacktestRecordQuery,
			rec.ID, rec.RunID, rec.Season, rec.Week, rec.GameID,
			string(bet.BetType), string(bet.Side), bet.Line, bet.Odds, bet.Stake,
			bet.WinProb, bet.PushProb, string(bet.Tier),
			rec.HomeScore, rec.AwayScore, string(rec.Outcome), rec.Profit,
			rec.ClosingLine, rec.ClosingOdds, rec.CLV, rec.CLVSource, rec.CLVFallback,
			rec.ModelMargin, rec.ModelVersion, rec.ConfigVersion, rec.RecordedAt,
		)
	}
	return execBatch(ctx, r.db, batch, "backtest record", models.ErrAppendOnly)
}

// GetByRun retrieves a run's records in chronological order
func (r *PostgresBacktestRecordRepository) GetByRun(ctx context.Context, runID uuid.UUID) ([]models.BacktestRecord, error) {
	query := `
		SELECT id, run_id, season, week, game_id, bet_type, side, line, odds, stake,
			win_prob, push_prob, tier, home_score, away_score, outcome, profit,
			closing_line, closing_odds, clv, clv_source, clv_fallback,
			model_margin, model_version, config_version, recorded_at
		FROM backtest_records WHERE run_id = $1
		ORDER BY season, week, game_id, bet_type, side
	`
	rows, err := r.db.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query backtest records: %w", err)
	}
	defer rows.Close()

	var records []models.BacktestRecord
	for rows.Next() {
		var rec models.BacktestRecord
		bet := &rec.Recommendation
		if err := rows.Scan(
			&rec.ID, &rec.RunID, &rec.Season, &rec.Week, &rec.GameID,
			&bet.BetType, &bet.Side, &bet.Line, &bet.Odds, &bet.Stake,
			&bet.WinProb, &bet.PushProb, &bet.Tier,
			&rec.HomeScore, &rec.AwayScore, &rec.Outcome, &rec.Profit,
			&rec.ClosingLine, &rec.ClosingOdds, &rec.CLV, &rec.CLVSource, &rec.CLVFallback,
			&rec.ModelMargin, &rec.ModelVersion, &rec.ConfigVersion, &rec.RecordedAt,
		); err != nil {
			return nil, fmt.Errorf(errScanBacktestRecord, err)
		}
		bet.GameID = rec.GameID
		bet.ModelVersion = rec.ModelVersion
		bet.ConfigVersion = rec.ConfigVersion
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf(errScanBacktestRecord, err)
	}
	return records, nil
}
