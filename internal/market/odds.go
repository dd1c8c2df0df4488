package market

// AmericanToDecimal converts American odds to decimal odds.
// Odds in (-100, 100) are invalid and return 0.
func AmericanToDecimal(american int) float64 {
	switch {
	case american >= 100:
		return float64(american)/100.0 + 1.0
	case american <= -100:
		return 100.0/float64(-american) + 1.0
	default:
		return 0
	}
}

// ImpliedProbability returns the bookmaker-implied probability of American odds, vig included.
func ImpliedProbability(american int) float64 {
	d := AmericanToDecimal(american)
	if d <= 0 {
		return 0
	}
	return 1.0 / d
}

// RemoveVig converts a two-way American price pair to fair probabilities
// by stripping the bookmaker's overround.
func RemoveVig(a, b int) (float64, float64) {
	rawA := ImpliedProbability(a)
	rawB := ImpliedProbability(b)
	total := rawA + rawB
	if total == 0 {
		return 0, 0
	}
	return rawA / total, rawB / total
}
