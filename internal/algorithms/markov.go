package algorithms

import (
	"fmt"
	"math"

	"github.com/lotobonheur/predictor/internal/stats"
	"github.com/lotobonheur/predictor/models"
)

// Markov builds a 90x90 transition count matrix from consecutive-draw
// co-occurrence (every number of a draw transitions to every number of the
// following draw), row-normalizes it, and predicts from the probability
// mass flowing out of the latest draw's numbers.
type Markov struct{}

func NewMarkov() *Markov { return &Markov{} }

func (m *Markov) Name() string              { return "Chaîne de Markov" }
func (m *Markov) Category() models.Category { return models.CategoryMarkov }
func (m *Markov) MinHistory() int           { return 10 }

func (m *Markov) Predict(history []models.DrawResult) models.Prediction {
	var counts [stats.MaxNumber + 1][stats.MaxNumber + 1]float64
	var rowTotals [stats.MaxNumber + 1]float64

	// history[i+1] is the draw preceding history[i].
	for i := 0; i+1 < len(history); i++ {
		for _, from := range history[i+1].WinningNumbers {
			for _, to := range history[i].WinningNumbers {
				counts[from][to]++
				rowTotals[from]++
			}
		}
	}

	scores := make([]float64, stats.MaxNumber+1)
	latest := history[0].WinningNumbers
	for _, from := range latest {
		if rowTotals[from] == 0 {
			continue
		}
		for to := 1; to <= stats.MaxNumber; to++ {
			scores[to] += counts[from][to] / rowTotals[from]
		}
	}

	candidates := topCandidates(scores, shortlistSize)
	numbers := stats.SelectBalanced(candidates, 5)
	avg := avgScore(scores, numbers)
	confidence := math.Min(0.85, math.Tanh(avg*10)+0.2)

	return models.Prediction{
		Numbers:    numbers,
		Confidence: confidence,
		Algorithm:  m.Name(),
		Factors: []string{
			fmt.Sprintf("Matrice de transition sur %d paires de tirages", len(history)-1),
			fmt.Sprintf("Force moyenne de transition: %.3f", avg),
		},
		Score:    confidence * (1 + avg),
		Category: m.Category(),
	}
}
