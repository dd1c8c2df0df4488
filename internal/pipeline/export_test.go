package pipeline

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/gridline/internal/models"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestExportWeek(t *testing.T) {
	games := []models.Game{weekGame("BUF", "KC", 5), weekGame("SF", "LV", 5), weekGame("MIA", "NYJ", 5)}
	p := newTestPipeline(t, fixedArtifact(8, 0), games)

	res, err := p.RunWeek(context.Background(), WeekRequest{Season: 2023, Week: 5, Games: games, Now: weekDate(5).Add(-30 * time.Minute)})
	require.NoError(t, err)

	dir := WeekDir(t.TempDir(), 2023, 5)
	assert.Equal(t, "2023-W05", filepath.Base(dir))
	require.NoError(t, ExportWeek(res, dir))

	preds := readCSV(t, filepath.Join(dir, PredictionsFile))
	require.Len(t, preds, 3)
	assert.Equal(t, predictionHeader, preds[0])
	assert.Equal(t, "2023-05-KC@BUF", preds[1][0])
	assert.Equal(t, "rm-fixed", preds[1][10])

	recs := readCSV(t, filepath.Join(dir, RecommendationsFile))
	assert.Equal(t, recommendationHeader, recs[0])
	assert.Len(t, recs, len(res.RecommendationRows())+1)

	statuses := readCSV(t, filepath.Join(dir, StatusFile))
	require.Len(t, statuses, 4)
	assert.Equal(t, statusHeader, statuses[0])

	var failed []string
	for _, row := range statuses[1:] {
		if row[1] == models.GameStatusFailed {
			failed = append(failed, row[0])
			assert.Equal(t, models.KindMissingData, row[2])
			assert.NotEmpty(t, row[3])
		}
	}
	assert.Equal(t, []string{"2023-05-NYJ@MIA"}, failed)
}

func TestExportWeekEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, ExportWeek(&WeekResult{Season: 2023, Week: 1}, dir))

	preds := readCSV(t, filepath.Join(dir, PredictionsFile))
	assert.Equal(t, [][]string{predictionHeader}, preds)
}

func TestUpcomingWeek(t *testing.T) {
	score := 21
	done := weekGame("BUF", "KC", 4)
	done.HomeScore, done.AwayScore = &score, &score
	games := []models.Game{weekGame("SF", "LV", 6), done, weekGame("MIA", "NYJ", 5)}

	sw, ok := UpcomingWeek(games, weekDate(4).Add(-time.Hour))
	require.True(t, ok)
	assert.Equal(t, models.SeasonWeek{Season: 2023, Week: 5}, sw)

	sw, ok = UpcomingWeek(games, weekDate(5).Add(time.Hour))
	require.True(t, ok)
	assert.Equal(t, 6, sw.Week)

	_, ok = UpcomingWeek(games, weekDate(7))
	assert.False(t, ok)
}
