// Package explain derives human-readable justifications for predicted
// numbers from their frequency, recency and trend in the source history.
package explain

import (
	"fmt"

	"github.com/lotobonheur/predictor/models"
)

// Explain builds one Explanation per predicted number.
func Explain(numbers []int, history []models.DrawResult) []models.Explanation {
	out := make([]models.Explanation, 0, len(numbers))
	for _, n := range numbers {
		out = append(out, explainNumber(n, history))
	}
	return out
}

func explainNumber(n int, history []models.DrawResult) models.Explanation {
	count := 0
	lastSeen := -1
	for i, d := range history {
		for _, v := range d.WinningNumbers {
			if v == n {
				count++
				if lastSeen == -1 {
					lastSeen = i
				}
				break
			}
		}
	}

	freqPct := 0.0
	if len(history) > 0 {
		freqPct = float64(count) / float64(len(history)) * 100
	}

	trend := trendOf(n, history)

	var reasons []string
	if freqPct > 15 {
		reasons = append(reasons, fmt.Sprintf("Fréquence élevée (%.0f%% des tirages)", freqPct))
	}
	if lastSeen >= 0 && lastSeen <= 5 {
		reasons = append(reasons, fmt.Sprintf("Vu récemment (il y a %d tirages)", lastSeen))
	}
	if trend == "rising" {
		reasons = append(reasons, "Tendance à la hausse sur les derniers tirages")
	}
	if freqPct > 10 && lastSeen >= 0 && lastSeen <= 5 {
		reasons = append(reasons, "Numéro chaud: fréquent et récent")
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "Sélectionné pour équilibrer la grille")
	}

	return models.Explanation{
		Number:       n,
		FrequencyPct: freqPct,
		LastSeen:     lastSeen,
		Trend:        trend,
		Reasons:      reasons,
	}
}

// trendOf compares occurrences in the last 10 draws against draws 10-20
// back: more recent occurrences means rising, fewer means falling.
func trendOf(n int, history []models.DrawResult) string {
	recent := countIn(n, history, 0, 10)
	previous := countIn(n, history, 10, 20)
	switch {
	case recent > previous:
		return "rising"
	case recent < previous:
		return "falling"
	default:
		return "stable"
	}
}

func countIn(n int, history []models.DrawResult, from, to int) int {
	count := 0
	for i := from; i < to && i < len(history); i++ {
		for _, v := range history[i].WinningNumbers {
			if v == n {
				count++
				break
			}
		}
	}
	return count
}
