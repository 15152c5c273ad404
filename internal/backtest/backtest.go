// Package backtest replays an algorithm over a sliding historical window
// and scores its predictions against the draws that actually followed.
package backtest

import (
	"math"

	"github.com/rs/zerolog/log"

	"github.com/lotobonheur/predictor/models"
)

const (
	// DefaultWindowSize is how many preceding draws each test point sees.
	DefaultWindowSize = 50
	maxTestPoints     = 20
)

// PredictFunc is any history-to-prediction function under test.
type PredictFunc func(history []models.DrawResult) models.Prediction

// Run slides a window of windowSize draws across up to 20 test points. At
// each point the algorithm only sees the draws preceding the target draw
// (no look-ahead; history is most-recent-first, so the window for the draw
// at index i is history[i+1 : i+1+windowSize]). A panicking algorithm
// scores 0 matches at that point; Run itself never fails.
func Run(fn PredictFunc, name string, history []models.DrawResult, windowSize int) models.BacktestResult {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}

	result := models.BacktestResult{Algorithm: name, WorstMatch: 5}

	points := len(history) - windowSize
	if points > maxTestPoints {
		points = maxTestPoints
	}

	for i := 0; i < points; i++ {
		window := history[i+1 : i+1+windowSize]
		matches := safeMatches(fn, name, window, history[i].WinningNumbers)

		result.MatchCounts = append(result.MatchCounts, matches)
		result.TestPoints++
		if matches > result.BestMatch {
			result.BestMatch = matches
		}
		if matches < result.WorstMatch {
			result.WorstMatch = matches
		}
	}

	if result.TestPoints == 0 {
		result.WorstMatch = 0
		return result
	}

	mean := 0.0
	for _, m := range result.MatchCounts {
		mean += float64(m)
	}
	mean /= float64(result.TestPoints)
	result.Accuracy = mean / 5 * 100

	variance := 0.0
	for _, m := range result.MatchCounts {
		variance += (float64(m) - mean) * (float64(m) - mean)
	}
	variance /= float64(result.TestPoints)
	result.Consistency = math.Sqrt(variance)

	return result
}

func safeMatches(fn PredictFunc, name string, window []models.DrawResult, actual []int) (matches int) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().
				Str("component", "backtest").
				Str("algorithm", name).
				Interface("panic", r).
				Msg("algorithm failed at test point, scoring 0")
			matches = 0
		}
	}()

	pred := fn(window)
	return CountMatches(pred.Numbers, actual)
}

// CountMatches returns how many predicted numbers hit the realized draw.
func CountMatches(predicted, actual []int) int {
	set := make(map[int]bool, len(actual))
	for _, n := range actual {
		set[n] = true
	}
	matches := 0
	for _, n := range predicted {
		if set[n] {
			matches++
		}
	}
	return matches
}
