package backtest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/yourusername/gridline/internal/models"
)

// GenerateConsoleReport formats a backtest report for terminal output
func GenerateConsoleReport(report *Report) string {
	agg := report.Summary.Aggregate
	var builder strings.Builder
	builder.WriteString("Backtest Report\n")
	builder.WriteString("================\n")
	builder.WriteString(fmt.Sprintf("Range: %s\n", report.Range))
	builder.WriteString(fmt.Sprintf("Version: %s\n", report.Version()))
	builder.WriteString(fmt.Sprintf("Weeks Replayed: %d (skipped %d)\n", len(report.Weeks), len(report.Skipped)))
	builder.WriteString(fmt.Sprintf("Bets: %d (W %d / L %d / P %d)\n", agg.Bets, agg.Wins, agg.Losses, agg.Pushes))
	builder.WriteString(fmt.Sprintf("Win Rate: %.2f%%\n", agg.WinRate*100))
	builder.WriteString(fmt.Sprintf("Staked: %s\n", agg.Staked.StringFixed(2)))
	builder.WriteString(fmt.Sprintf("Profit: %s\n", agg.Profit.StringFixed(2)))
	builder.WriteString(fmt.Sprintf("ROI: %.2f%%\n", agg.ROI*100))
	builder.WriteString(fmt.Sprintf("CLV Positive Rate: %.2f%%\n", agg.CLVPositiveRate*100))
	builder.WriteString(fmt.Sprintf("Mean CLV: %.3f\n", agg.MeanCLV))
	builder.WriteString(fmt.Sprintf("Max Drawdown: %.2f%%  Weekly Volatility: %.2f%%\n",
		report.MaxDrawdown*100, report.EquityCurve.GetVolatility()*100))
	builder.WriteString(fmt.Sprintf("Model Margin MAE: %.3f (market %.3f, %d games)\n",
		report.Accuracy.ModelMAE, report.Accuracy.MarketMAE, report.Accuracy.Games))
	builder.WriteString(fmt.Sprintf("P(profit): %.2f%%  P(ruin): %.2f%%  VaR95: %.2f%%\n",
		report.Risk.ProbabilityOfProfit*100, report.Risk.ProbabilityOfRuin*100, report.Risk.VaR95*100))

	if len(report.Summary.ByBetType) > 0 {
		builder.WriteString("\nBy Bet Type\n")
		types := make([]string, 0, len(report.Summary.ByBetType))
		for bt := range report.Summary.ByBetType {
			types = append(types, string(bt))
		}
		sort.Strings(types)
		for _, bt := range types {
			m := report.Summary.ByBetType[models.BetType(bt)]
			builder.WriteString(fmt.Sprintf("  %-10s bets=%-4d win=%.2f%% roi=%.2f%% clv+=%.2f%%\n",
				bt, m.Bets, m.WinRate*100, m.ROI*100, m.CLVPositiveRate*100))
		}
	}

	if len(report.Summary.ByWeek) > 0 {
		builder.WriteString("\nBy Week\n")
		for _, w := range report.Summary.ByWeek {
			builder.WriteString(fmt.Sprintf("  %d-W%02d bets=%-4d profit=%s clv+=%.2f%%\n",
				w.Season, w.Week, w.Bets, w.Profit.StringFixed(2), w.CLVPositiveRate*100))
		}
	}

	if len(report.FeatureImportance) > 0 {
		builder.WriteString("\nTop Features\n")
		names := make([]string, 0, len(report.FeatureImportance))
		for name := range report.FeatureImportance {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool {
			a, b := report.FeatureImportance[names[i]], report.FeatureImportance[names[j]]
			if a != b {
				return a > b
			}
			return names[i] < names[j]
		})
		if len(names) > 10 {
			names = names[:10]
		}
		for _, name := range names {
			builder.WriteString(fmt.Sprintf("  %-28s %.4f\n", name, report.FeatureImportance[name]))
		}
	}
	return builder.String()
}

var recordHeader = []string{
	"run_id", "season", "week", "game_id", "bet_type", "side", "line", "odds", "stake",
	"win_prob", "edge_probability", "tier", "home_score", "away_score", "outcome", "profit",
	"closing_line", "closing_odds", "clv", "clv_source", "clv_fallback", "model_version", "config_version",
}

// ExportRecordsCSV writes one row per graded bet.
func ExportRecordsCSV(records []models.BacktestRecord, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(recordHeader); err != nil {
		return err
	}
	for _, r := range records {
		rec := r.Recommendation
		row := []string{
			r.RunID.String(),
			strconv.Itoa(r.Season),
			strconv.Itoa(r.Week),
			r.GameID,
			string(rec.BetType),
			string(rec.Side),
			strconv.FormatFloat(rec.Line, 'f', 1, 64),
			strconv.Itoa(rec.Odds),
			rec.Stake.StringFixed(2),
			strconv.FormatFloat(rec.WinProb, 'f', 4, 64),
			strconv.FormatFloat(rec.EdgeProbability, 'f', 4, 64),
			string(rec.Tier),
			strconv.Itoa(r.HomeScore),
			strconv.Itoa(r.AwayScore),
			string(r.Outcome),
			r.Profit.StringFixed(2),
			strconv.FormatFloat(r.ClosingLine, 'f', 1, 64),
			strconv.Itoa(r.ClosingOdds),
			strconv.FormatFloat(r.CLV, 'f', 3, 64),
			r.CLVSource,
			strconv.FormatBool(r.CLVFallback),
			r.ModelVersion,
			r.ConfigVersion,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// ExportJSON writes the report summary, breakdowns, feature importance and
// risk profile as indented JSON.
func ExportJSON(report *Report, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(outputPath, data, 0o644)
}

// LoadReport reads a report written by ExportJSON. Records and the trained
// artifact are not part of the export.
func LoadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read backtest report: %w", err)
	}
	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("parse backtest report %s: %w", path, err)
	}
	return &report, nil
}
