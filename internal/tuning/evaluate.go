package tuning

import (
	"time"

	"github.com/lotobonheur/predictor/internal/backtest"
	"github.com/lotobonheur/predictor/models"
)

// Evaluate scores one stored prediction against the draw that realized it
// and produces the append-only performance row the tuner later consumes.
func Evaluate(pred models.Prediction, realized models.DrawResult, executionMs int64) models.PerformanceRecord {
	matches := backtest.CountMatches(pred.Numbers, realized.WinningNumbers)
	accuracy := float64(matches) / 5

	// Precision and recall coincide here (5 picks against 5 winners), so
	// the F1-like score reduces to the same ratio; kept separate because
	// the tuner weighs them independently.
	precision := float64(matches) / 5
	recall := float64(matches) / 5
	f1 := 0.0
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}

	return models.PerformanceRecord{
		Algorithm:   pred.Algorithm,
		DrawName:    realized.DrawName,
		Predicted:   pred.Numbers,
		Winning:     realized.WinningNumbers,
		MatchCount:  matches,
		Accuracy:    accuracy,
		F1Score:     f1,
		Confidence:  pred.Confidence,
		ExecutionMs: executionMs,
		CreatedAt:   time.Now().UTC(),
	}
}
