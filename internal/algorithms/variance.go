package algorithms

import (
	"fmt"
	"math"

	"github.com/lotobonheur/predictor/internal/stats"
	"github.com/lotobonheur/predictor/models"
)

// VarianceAnalysis divides each number's raw frequency by the dispersion of
// the whole frequency distribution, dampening scores when usage is uneven.
type VarianceAnalysis struct{}

func NewVarianceAnalysis() *VarianceAnalysis { return &VarianceAnalysis{} }

func (v *VarianceAnalysis) Name() string              { return "Analyse de Variance" }
func (v *VarianceAnalysis) Category() models.Category { return models.CategoryVariance }
func (v *VarianceAnalysis) MinHistory() int           { return 5 }

func (v *VarianceAnalysis) Predict(history []models.DrawResult) models.Prediction {
	freq := stats.Frequencies(history)
	sd := stats.FrequencyStdDev(history)

	scores := make([]float64, stats.MaxNumber+1)
	for n := 1; n <= stats.MaxNumber; n++ {
		scores[n] = float64(freq[n]) / (sd + 1)
	}

	candidates := topCandidates(scores, shortlistSize)
	numbers := stats.SelectBalanced(candidates, 5)
	avg := avgScore(scores, numbers)
	confidence := math.Min(0.80, avg*10+0.3)

	return models.Prediction{
		Numbers:    numbers,
		Confidence: confidence,
		Algorithm:  v.Name(),
		Factors: []string{
			fmt.Sprintf("Écart-type des fréquences: %.2f", sd),
			fmt.Sprintf("Score moyen ajusté: %.3f", avg),
		},
		Score:    confidence * (1 + avg),
		Category: v.Category(),
	}
}
