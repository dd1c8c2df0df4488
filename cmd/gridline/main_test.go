package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/gridline/internal/models"
)

const testConfigPath = "../../internal/config/testdata/valid_config.yaml"

func loadTestConfig(t *testing.T) {
	t.Helper()
	prevFile, prevLevel := configFile, logLevel
	t.Cleanup(func() { configFile, logLevel = prevFile, prevLevel })

	configFile, logLevel = testConfigPath, "debug"
	require.NoError(t, loadConfig(context.Background()))
}

func TestLoadConfigOverridesLogLevel(t *testing.T) {
	loadTestConfig(t)
	require.NotNil(t, cfg)
	require.NotNil(t, log)
	assert.Equal(t, "debug", log.GetLevel().String())
	assert.Equal(t, "residual-ridge", cfg.Model.Name)
}

func TestBacktestRangeFlags(t *testing.T) {
	loadTestConfig(t)

	r, err := backtestRange("", "")
	require.NoError(t, err)
	assert.Equal(t, models.SeasonWeek{Season: 2023, Week: 5}, r.From)
	assert.Equal(t, models.SeasonWeek{Season: 2023, Week: 18}, r.To)

	r, err = backtestRange("2022-W10", "2023-W02")
	require.NoError(t, err)
	assert.Equal(t, models.SeasonWeek{Season: 2022, Week: 10}, r.From)
	assert.Equal(t, models.SeasonWeek{Season: 2023, Week: 2}, r.To)

	_, err = backtestRange("2023-W10", "2023-W02")
	assert.Error(t, err, "range ends before it starts")

	_, err = backtestRange("week ten", "")
	assert.Error(t, err)
}

func TestCommandsRegistered(t *testing.T) {
	for _, name := range []string{"predict", "train", "backtest", "schedule"} {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}

	train, _, err := rootCmd.Find([]string{"train"})
	require.NoError(t, err)
	assert.NotNil(t, train.Flags().Lookup("through-season"))
	assert.NotNil(t, train.Flags().Lookup("through-week"))
}

func TestSelectWeek(t *testing.T) {
	kickoff := time.Date(2023, 10, 8, 17, 0, 0, 0, time.UTC)
	games := []models.Game{
		{Season: 2023, Week: 5, HomeTeam: "BUF", AwayTeam: "KC", Kickoff: kickoff},
		{Season: 2023, Week: 6, HomeTeam: "SF", AwayTeam: "LV", Kickoff: kickoff.AddDate(0, 0, 7)},
	}

	sw, err := selectWeek(2022, 17, games, kickoff)
	require.NoError(t, err)
	assert.Equal(t, models.SeasonWeek{Season: 2022, Week: 17}, sw)

	sw, err = selectWeek(0, 0, games, kickoff.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 5, sw.Week)

	sw, err = selectWeek(0, 0, games, kickoff.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 6, sw.Week)

	_, err = selectWeek(0, 0, games, kickoff.AddDate(0, 1, 0))
	assert.Error(t, err, "no upcoming games")

	_, err = selectWeek(2023, 0, games, kickoff)
	assert.Error(t, err)

	_, err = selectWeek(2023, 40, games, kickoff)
	assert.Error(t, err)
}
