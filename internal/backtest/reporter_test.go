package backtest

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/gridline/internal/models"
)

func sampleReport() *Report {
	records := sampleRecords()
	return &Report{
		Range:             BacktestRange{From: models.SeasonWeek{Season: 2023, Week: 5}, To: models.SeasonWeek{Season: 2023, Week: 6}},
		ModelName:         "residual-ridge",
		ModelVersion:      "rm-123",
		ConfigVersion:     "cfg-abc",
		Weeks:             []WeekRun{{Season: 2023, Week: 5}, {Season: 2023, Week: 6}},
		Summary:           Summarize(records),
		FeatureImportance: map[string]float64{"prior_spread": 0.4, "home_off_epa": 0.6},
		EquityCurve:       BuildEquityCurve(records, 1000),
		Records:           records,
	}
}

func TestGenerateConsoleReport(t *testing.T) {
	out := GenerateConsoleReport(sampleReport())

	assert.Contains(t, out, "Backtest Report")
	assert.Contains(t, out, "Version: cfg-abc/rm-123")
	assert.Contains(t, out, "Bets: 4 (W 2 / L 1 / P 1)")
	assert.Contains(t, out, "Profit: 68.18")
	assert.Contains(t, out, "CLV Positive Rate: 50.00%")
	assert.Contains(t, out, "By Bet Type")
	assert.Contains(t, out, "2023-W05")
	assert.Less(t, strings.Index(out, "home_off_epa"), strings.Index(out, "prior_spread"), "features ordered by importance")
}

func TestExportRecordsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "records.csv")
	require.NoError(t, ExportRecordsCSV(sampleRecords(), path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 5)
	assert.Equal(t, recordHeader, rows[0])
	assert.Equal(t, "2023-06-KC@BUF", rows[1][3])
	assert.Equal(t, "win", rows[1][14])
	assert.Equal(t, "90.91", rows[1][15])
	assert.Equal(t, "1.500", rows[1][18])
}

func TestExportAndLoadReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	report := sampleReport()
	require.NoError(t, ExportJSON(report, path))

	loaded, err := LoadReport(path)
	require.NoError(t, err)
	assert.Equal(t, report.Version(), loaded.Version())
	assert.Equal(t, report.Summary.Aggregate.Bets, loaded.Summary.Aggregate.Bets)
	assert.True(t, report.Summary.Aggregate.Profit.Equal(loaded.Summary.Aggregate.Profit))
	assert.Equal(t, report.Summary.ByBetType[models.BetTypeTotal].Bets, loaded.Summary.ByBetType[models.BetTypeTotal].Bets)
	assert.Empty(t, loaded.Records, "records are exported separately")

	_, err = LoadReport(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestFileValidationLedger(t *testing.T) {
	ctx := context.Background()
	path := ValidationPath(filepath.Join(t.TempDir(), "models", "residual.json"))
	l := NewFileValidationLedger(path)

	ok, err := l.IsValidated(ctx, "rm-1")
	require.NoError(t, err)
	assert.False(t, ok, "missing ledger validates nothing")

	require.NoError(t, l.MarkValidated(ctx, "rm-1"))
	require.NoError(t, l.MarkValidated(ctx, "rm-1"))
	require.NoError(t, l.MarkValidated(ctx, "rm-2"))

	reopened := NewFileValidationLedger(path)
	ok, err = reopened.IsValidated(ctx, "rm-1")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = reopened.IsValidated(ctx, "rm-3")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))
	_, err = reopened.IsValidated(ctx, "rm-1")
	assert.Error(t, err)
}

func TestBacktestRange(t *testing.T) {
	r := BacktestRange{From: models.SeasonWeek{Season: 2022, Week: 10}, To: models.SeasonWeek{Season: 2023, Week: 2}}
	require.NoError(t, r.Validate())
	assert.True(t, r.Contains(models.SeasonWeek{Season: 2022, Week: 18}))
	assert.True(t, r.Contains(models.SeasonWeek{Season: 2023, Week: 2}))
	assert.False(t, r.Contains(models.SeasonWeek{Season: 2023, Week: 3}))
	assert.False(t, r.Contains(models.SeasonWeek{Season: 2022, Week: 9}))

	assert.Error(t, BacktestRange{From: r.To, To: r.From}.Validate())
}
