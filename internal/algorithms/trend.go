package algorithms

import (
	"fmt"
	"math"

	"github.com/lotobonheur/predictor/internal/stats"
	"github.com/lotobonheur/predictor/models"
)

// GapTrend fits, per number, a least-squares line through its appearance
// indices against their occurrence rank and extrapolates where the next
// appearance should land. The next draw sits at index -1 in the
// most-recent-first ordering, so numbers extrapolated to land there score
// highest: score = 1 / (1 + |extrapolated - (-1)|).
type GapTrend struct{}

func NewGapTrend() *GapTrend { return &GapTrend{} }

func (g *GapTrend) Name() string              { return "Tendance des Écarts" }
func (g *GapTrend) Category() models.Category { return models.CategoryNeural }
func (g *GapTrend) MinHistory() int           { return 10 }

func (g *GapTrend) Predict(history []models.DrawResult) models.Prediction {
	scores := make([]float64, stats.MaxNumber+1)
	maxScore := 0.0

	for n := 1; n <= stats.MaxNumber; n++ {
		indices := appearanceIndices(history, n)
		if len(indices) < 2 {
			continue
		}
		extrapolated := extrapolateNext(indices)
		score := 1 / (1 + math.Abs(extrapolated-(-1)))
		scores[n] = score
		if score > maxScore {
			maxScore = score
		}
	}

	candidates := topCandidates(scores, shortlistSize)
	numbers := stats.SelectBalanced(candidates, 5)
	confidence := math.Min(0.9, maxScore*1.5)

	return models.Prediction{
		Numbers:    numbers,
		Confidence: confidence,
		Algorithm:  g.Name(),
		Factors: []string{
			fmt.Sprintf("Régression linéaire des écarts sur %d tirages", len(history)),
			fmt.Sprintf("Score d'extrapolation maximal: %.3f", maxScore),
		},
		Score:    confidence * (1 + avgScore(scores, numbers)),
		Category: g.Category(),
	}
}

// appearanceIndices lists where n appears, most recent first.
func appearanceIndices(history []models.DrawResult, n int) []int {
	var indices []int
	for i, d := range history {
		for _, v := range d.WinningNumbers {
			if v == n {
				indices = append(indices, i)
				break
			}
		}
	}
	return indices
}

// extrapolateNext fits index = a + b*rank over the observed appearances and
// evaluates the line at rank -1, i.e. one appearance beyond the newest.
func extrapolateNext(indices []int) float64 {
	m := float64(len(indices))
	var sumX, sumY, sumXY, sumXX float64
	for rank, idx := range indices {
		x, y := float64(rank), float64(idx)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := m*sumXX - sumX*sumX
	if denom == 0 {
		return sumY / m
	}
	b := (m*sumXY - sumX*sumY) / denom
	a := (sumY - b*sumX) / m
	return a + b*(-1)
}
