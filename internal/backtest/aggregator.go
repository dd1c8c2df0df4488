package backtest

import (
	"fmt"
	"math"
)

// Retention decisions
const (
	DecisionAccept      = "ACCEPT"
	DecisionReject      = "REJECT"
	DecisionNeedsReview = "NEEDS_REVIEW"
)

// VersionDecision is the outcome of comparing a candidate backtest against a baseline.
type VersionDecision struct {
	Decision         string  `json:"decision"`
	BaselineVersion  string  `json:"baseline_version"`
	CandidateVersion string  `json:"candidate_version"`
	BaselineCLVRate  float64 `json:"baseline_clv_positive_rate"`
	CandidateCLVRate float64 `json:"candidate_clv_positive_rate"`
	BaselineBets     int     `json:"baseline_bets"`
	CandidateBets    int     `json:"candidate_bets"`
	WinRateDelta     float64 `json:"win_rate_delta"`
	Reason           string  `json:"reason"`
}

// Accepted reports whether the candidate may replace the baseline.
func (d VersionDecision) Accepted() bool {
	return d.Decision == DecisionAccept
}

// CompareVersions decides whether candidate is retained over baseline. Only the
// held-out CLV-positivity rate decides; win rate is reported but never accepts
// or rejects on its own. A candidate with fewer than minBets graded bets, or
// one backtested over a different range than the baseline, needs review.
func CompareVersions(baseline, candidate *Report, minBets int) VersionDecision {
	base := baseline.Summary.Aggregate
	cand := candidate.Summary.Aggregate
	d := VersionDecision{
		BaselineVersion:  baseline.Version(),
		CandidateVersion: candidate.Version(),
		BaselineCLVRate:  base.CLVPositiveRate,
		CandidateCLVRate: cand.CLVPositiveRate,
		BaselineBets:     base.Bets,
		CandidateBets:    cand.Bets,
		WinRateDelta:     cand.WinRate - base.WinRate,
	}
	if baseline.Range != candidate.Range {
		d.Decision = DecisionNeedsReview
		d.Reason = fmt.Sprintf("candidate covers %s, baseline covers %s", candidate.Range, baseline.Range)
		return d
	}
	d.Decision, d.Reason = GenerateRecommendation(base.CLVPositiveRate, cand.CLVPositiveRate, cand.Bets, minBets)
	return d
}

// GenerateRecommendation applies the retention rule to headline figures.
func GenerateRecommendation(baselineCLVRate, candidateCLVRate float64, candidateBets, minBets int) (string, string) {
	if candidateBets < minBets {
		return DecisionNeedsReview, fmt.Sprintf("candidate has %d bets, need %d", candidateBets, minBets)
	}
	if candidateCLVRate+clvTolerance >= baselineCLVRate {
		return DecisionAccept, fmt.Sprintf("clv positive rate %.3f >= baseline %.3f", candidateCLVRate, baselineCLVRate)
	}
	return DecisionReject, fmt.Sprintf("clv positive rate %.3f < baseline %.3f (%.1f points)",
		candidateCLVRate, baselineCLVRate, math.Abs(candidateCLVRate-baselineCLVRate)*100)
}
