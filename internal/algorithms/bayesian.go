package algorithms

import (
	"fmt"
	"math"

	"github.com/lotobonheur/predictor/internal/stats"
	"github.com/lotobonheur/predictor/models"
)

// Bayesian ranks numbers by their Laplace-smoothed posterior appearance
// probability: (count + alpha) / (N + 2*alpha) with alpha = 1 by default.
type Bayesian struct {
	alpha float64
}

func NewBayesian(params models.Hyperparams) *Bayesian {
	alpha := params.SmoothingAlpha
	if alpha <= 0 {
		alpha = 1
	}
	return &Bayesian{alpha: alpha}
}

func (b *Bayesian) Name() string              { return "Analyse Bayésienne" }
func (b *Bayesian) Category() models.Category { return models.CategoryBayesian }
func (b *Bayesian) MinHistory() int           { return 5 }

func (b *Bayesian) Predict(history []models.DrawResult) models.Prediction {
	freq := stats.Frequencies(history)
	n := float64(len(history))

	scores := make([]float64, stats.MaxNumber+1)
	maxPosterior := 0.0
	for num := 1; num <= stats.MaxNumber; num++ {
		posterior := (float64(freq[num]) + b.alpha) / (n + 2*b.alpha)
		scores[num] = posterior
		if posterior > maxPosterior {
			maxPosterior = posterior
		}
	}

	candidates := topCandidates(scores, shortlistSize)
	numbers := stats.SelectBalanced(candidates, 5)

	// Lift of the best posterior over the uniform prior 1/90.
	confidence := math.Min(0.8, maxPosterior/(1.0/float64(stats.MaxNumber)))

	return models.Prediction{
		Numbers:    numbers,
		Confidence: confidence,
		Algorithm:  b.Name(),
		Factors: []string{
			fmt.Sprintf("Lissage de Laplace (alpha=%.1f) sur %d tirages", b.alpha, len(history)),
			fmt.Sprintf("Posterior maximal: %.4f", maxPosterior),
		},
		Score:    confidence * (1 + avgScore(scores, numbers)*10),
		Category: b.Category(),
	}
}
