package algorithms

import (
	"fmt"

	"github.com/lotobonheur/predictor/internal/stats"
	"github.com/lotobonheur/predictor/models"
)

// CrossDraw correlates two draw schedules index-aligned and boosts numbers
// within ±5 of the companion schedule's latest draw. Confidence is fixed at
// 0.78. Registered only when a companion history is available.
type CrossDraw struct {
	companionName string
	companion     []models.DrawResult
}

func NewCrossDraw(companionName string, companion []models.DrawResult) *CrossDraw {
	return &CrossDraw{companionName: companionName, companion: companion}
}

func (c *CrossDraw) Name() string              { return "Corrélation Croisée" }
func (c *CrossDraw) Category() models.Category { return models.CategoryStatistical }

func (c *CrossDraw) MinHistory() int {
	if len(c.companion) == 0 {
		// Force the fallback path when no companion data exists.
		return int(^uint(0) >> 1)
	}
	return 5
}

func (c *CrossDraw) Predict(history []models.DrawResult) models.Prediction {
	aligned := len(history)
	if len(c.companion) < aligned {
		aligned = len(c.companion)
	}

	scores := make([]float64, stats.MaxNumber+1)
	for n, count := range stats.Frequencies(history[:aligned]) {
		scores[n] = float64(count)
	}

	// Numbers orbiting the companion's latest draw get boosted.
	boosted := 0
	for _, cn := range c.companion[0].WinningNumbers {
		for n := cn - 5; n <= cn+5; n++ {
			if n >= 1 && n <= stats.MaxNumber {
				scores[n] *= 1.5
				boosted++
			}
		}
	}

	candidates := topCandidates(scores, shortlistSize)
	numbers := stats.SelectBalanced(candidates, 5)

	return models.Prediction{
		Numbers:    numbers,
		Confidence: 0.78,
		Algorithm:  c.Name(),
		Factors: []string{
			fmt.Sprintf("Corrélation avec le tirage %s sur %d tirages alignés", c.companionName, aligned),
			fmt.Sprintf("%d numéros renforcés autour du dernier tirage apparié", boosted),
		},
		Score:    0.78,
		Category: c.Category(),
	}
}
