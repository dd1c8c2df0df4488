package database

// Schema creates the output tables. Statements are idempotent.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS predictions (
		id               UUID PRIMARY KEY,
		game_id          TEXT NOT NULL,
		season           INT NOT NULL,
		week             INT NOT NULL,
		home_team        TEXT NOT NULL,
		away_team        TEXT NOT NULL,
		projected_margin DOUBLE PRECISION NOT NULL,
		projected_total  DOUBLE PRECISION NOT NULL,
		home_win_prob    DOUBLE PRECISION NOT NULL,
		sample_count     INT NOT NULL,
		model_version    TEXT NOT NULL,
		config_version   TEXT NOT NULL,
		model_signal     BOOLEAN NOT NULL,
		created_at       TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_predictions_week ON predictions (season, week)`,
	`CREATE TABLE IF NOT EXISTS recommendations (
		id               UUID PRIMARY KEY,
		game_id          TEXT NOT NULL,
		bet_type         TEXT NOT NULL,
		side             TEXT NOT NULL,
		line             DOUBLE PRECISION NOT NULL,
		odds             INT NOT NULL,
		book             TEXT NOT NULL,
		quoted_at        TIMESTAMPTZ NOT NULL,
		win_prob         DOUBLE PRECISION NOT NULL,
		push_prob        DOUBLE PRECISION NOT NULL,
		edge_points      DOUBLE PRECISION NOT NULL,
		edge_probability DOUBLE PRECISION NOT NULL,
		expected_value   DOUBLE PRECISION NOT NULL,
		kelly_fraction   DOUBLE PRECISION NOT NULL,
		tier             TEXT NOT NULL,
		stake            NUMERIC(12, 2) NOT NULL CHECK (stake > 0),
		model_version    TEXT NOT NULL,
		config_version   TEXT NOT NULL,
		created_at       TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_recommendations_game ON recommendations (game_id)`,
	`CREATE TABLE IF NOT EXISTS backtest_records (
		id             UUID PRIMARY KEY,
		run_id         UUID NOT NULL,
		season         INT NOT NULL,
		week           INT NOT NULL,
		game_id        TEXT NOT NULL,
		bet_type       TEXT NOT NULL,
		side           TEXT NOT NULL,
		line           DOUBLE PRECISION NOT NULL,
		odds           INT NOT NULL,
		stake          NUMERIC(12, 2) NOT NULL,
		win_prob       DOUBLE PRECISION NOT NULL,
		push_prob      DOUBLE PRECISION NOT NULL,
		tier           TEXT NOT NULL,
		home_score     INT NOT NULL,
		away_score     INT NOT NULL,
		outcome        TEXT NOT NULL,
		profit         NUMERIC(12, 2) NOT NULL,
		closing_line   DOUBLE PRECISION NOT NULL,
		closing_odds   INT NOT NULL,
		clv            DOUBLE PRECISION NOT NULL,
		clv_source     TEXT NOT NULL,
		clv_fallback   BOOLEAN NOT NULL,
		model_margin   DOUBLE PRECISION NOT NULL,
		model_version  TEXT NOT NULL,
		config_version TEXT NOT NULL,
		recorded_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_backtest_records_run ON backtest_records (run_id, season, week)`,
	// Backtest records are append-only.
	`CREATE OR REPLACE FUNCTION reject_backtest_record_change() RETURNS trigger AS $$
	BEGIN
		RAISE EXCEPTION 'backtest_records is append-only';
	END;
	$$ LANGUAGE plpgsql`,
	`DROP TRIGGER IF EXISTS backtest_records_append_only ON backtest_records`,
	`CREATE TRIGGER backtest_records_append_only
		BEFORE UPDATE OR DELETE ON backtest_records
		FOR EACH ROW EXECUTE FUNCTION reject_backtest_record_change()`,
	`CREATE TABLE IF NOT EXISTS model_artifacts (
		id              UUID PRIMARY KEY,
		version         TEXT NOT NULL UNIQUE,
		config_version  TEXT NOT NULL,
		trained_season  INT NOT NULL,
		trained_week    INT NOT NULL,
		samples         INT NOT NULL,
		path            TEXT NOT NULL DEFAULT '',
		artifact        JSONB NOT NULL,
		hyperparameters JSONB,
		validated       BOOLEAN NOT NULL DEFAULT FALSE,
		validated_at    TIMESTAMPTZ,
		trained_at      TIMESTAMPTZ NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}
