package algorithms

import (
	"fmt"
	"math"

	"github.com/lotobonheur/predictor/internal/stats"
	"github.com/lotobonheur/predictor/models"
)

// WeightedFrequency scores each number by its exponentially decayed recency
// weight across the history: the draw at index i contributes e^(-decay*i)
// to every number it contains.
type WeightedFrequency struct {
	decay float64
}

func NewWeightedFrequency(params models.Hyperparams) *WeightedFrequency {
	decay := params.DecayRate
	if decay <= 0 {
		decay = 0.05
	}
	return &WeightedFrequency{decay: decay}
}

func (w *WeightedFrequency) Name() string              { return "Fréquence Pondérée" }
func (w *WeightedFrequency) Category() models.Category { return models.CategoryStatistical }
func (w *WeightedFrequency) MinHistory() int           { return 5 }

func (w *WeightedFrequency) Predict(history []models.DrawResult) models.Prediction {
	scores := make([]float64, stats.MaxNumber+1)
	totalWeight := 0.0
	for i, draw := range history {
		weight := math.Exp(-w.decay * float64(i))
		totalWeight += weight
		for _, n := range draw.WinningNumbers {
			scores[n] += weight
		}
	}
	for n := range scores {
		scores[n] /= totalWeight
	}

	candidates := topCandidates(scores, shortlistSize)
	numbers := stats.SelectBalanced(candidates, 5)
	avg := avgScore(scores, numbers)
	confidence := math.Min(0.85, avg*12+0.2)

	return models.Prediction{
		Numbers:    numbers,
		Confidence: confidence,
		Algorithm:  w.Name(),
		Factors: []string{
			fmt.Sprintf("Pondération exponentielle sur %d tirages", len(history)),
			fmt.Sprintf("Score moyen des numéros retenus: %.3f", avg),
		},
		Score:    confidence * (1 + avg*10),
		Category: w.Category(),
	}
}
