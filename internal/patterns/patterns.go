// Package patterns mines recurring structures out of a draw history:
// co-occurring pairs, cyclic reappearance gaps and hot/cold classification.
package patterns

import (
	"fmt"
	"math"
	"sort"

	"github.com/lotobonheur/predictor/internal/stats"
	"github.com/lotobonheur/predictor/models"
)

const maxPatterns = 10

// Detect runs the three passes over the same history, merges the findings
// and keeps the ten most confident.
func Detect(history []models.DrawResult) []models.Pattern {
	var found []models.Pattern
	found = append(found, pairPatterns(history)...)
	found = append(found, cyclePatterns(history)...)
	found = append(found, hotColdPatterns(history)...)

	sort.SliceStable(found, func(i, j int) bool {
		return found[i].Confidence > found[j].Confidence
	})
	if len(found) > maxPatterns {
		found = found[:maxPatterns]
	}
	return found
}

// pairPatterns keeps unordered pairs co-occurring in at least 3 draws.
func pairPatterns(history []models.DrawResult) []models.Pattern {
	counts := make(map[[2]int]int)
	for _, d := range history {
		nums := append([]int(nil), d.WinningNumbers...)
		sort.Ints(nums)
		for i := 0; i < len(nums); i++ {
			for j := i + 1; j < len(nums); j++ {
				counts[[2]int{nums[i], nums[j]}]++
			}
		}
	}

	var out []models.Pattern
	for pair, count := range counts {
		if count < 3 {
			continue
		}
		out = append(out, models.Pattern{
			Type:        "pair",
			Numbers:     []int{pair[0], pair[1]},
			Confidence:  math.Min(0.9, float64(count)/10),
			Frequency:   float64(count) / float64(len(history)),
			Description: fmt.Sprintf("Paire %d-%d apparue %d fois", pair[0], pair[1], count),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return lessPair(out[i].Numbers, out[j].Numbers)
	})
	return out
}

// cyclePatterns flags numbers whose reappearance gaps are regular:
// gap variance below half the mean gap.
func cyclePatterns(history []models.DrawResult) []models.Pattern {
	var out []models.Pattern
	for n := 1; n <= stats.MaxNumber; n++ {
		var indices []int
		for i, d := range history {
			for _, v := range d.WinningNumbers {
				if v == n {
					indices = append(indices, i)
					break
				}
			}
		}
		if len(indices) < 3 {
			continue
		}

		gaps := make([]float64, 0, len(indices)-1)
		for i := 1; i < len(indices); i++ {
			gaps = append(gaps, float64(indices[i]-indices[i-1]))
		}
		mean, variance := meanVariance(gaps)
		if variance >= 0.5*mean {
			continue
		}
		out = append(out, models.Pattern{
			Type:        "cycle",
			Numbers:     []int{n},
			Confidence:  math.Min(0.85, 1/(variance+1)),
			Frequency:   float64(len(indices)) / float64(len(history)),
			Description: fmt.Sprintf("Numéro %d réapparaît tous les %.1f tirages", n, mean),
		})
	}
	return out
}

// hotColdPatterns classifies numbers appearing >=3 times in the last 10
// draws as hot, and numbers unseen for more than 20 draws as cold.
func hotColdPatterns(history []models.DrawResult) []models.Pattern {
	recent := history
	if len(recent) > 10 {
		recent = recent[:10]
	}
	recentCounts := stats.Frequencies(recent)

	var out []models.Pattern
	for n := 1; n <= stats.MaxNumber; n++ {
		if recentCounts[n] >= 3 {
			out = append(out, models.Pattern{
				Type:        "hot",
				Numbers:     []int{n},
				Confidence:  float64(recentCounts[n]) / 10,
				Frequency:   float64(recentCounts[n]) / float64(len(recent)),
				Description: fmt.Sprintf("Numéro %d chaud: %d sorties sur les 10 derniers tirages", n, recentCounts[n]),
			})
			continue
		}

		lastSeen := -1
		for i, d := range history {
			if containsNumber(d.WinningNumbers, n) {
				lastSeen = i
				break
			}
		}
		if lastSeen > 20 {
			out = append(out, models.Pattern{
				Type:        "cold",
				Numbers:     []int{n},
				Confidence:  0.6,
				Frequency:   0,
				Description: fmt.Sprintf("Numéro %d froid: absent depuis %d tirages", n, lastSeen),
			})
		}
	}
	return out
}

// PredictFromPatterns scores each number by the sum of
// confidence*frequency*10 across all patterns touching it and returns the
// top 5, ascending.
func PredictFromPatterns(found []models.Pattern) []int {
	scores := make([]float64, stats.MaxNumber+1)
	for _, p := range found {
		for _, n := range p.Numbers {
			scores[n] += p.Confidence * p.Frequency * 10
		}
	}

	nums := make([]int, stats.MaxNumber)
	for i := range nums {
		nums[i] = i + 1
	}
	sort.SliceStable(nums, func(i, j int) bool {
		if scores[nums[i]] != scores[nums[j]] {
			return scores[nums[i]] > scores[nums[j]]
		}
		return nums[i] < nums[j]
	})
	picked := append([]int(nil), nums[:5]...)
	sort.Ints(picked)
	return picked
}

func meanVariance(values []float64) (float64, float64) {
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))
	return mean, variance
}

func containsNumber(nums []int, n int) bool {
	for _, v := range nums {
		if v == n {
			return true
		}
	}
	return false
}

func lessPair(a, b []int) bool {
	if a[0] != b[0] {
		return a[0] < b[0]
	}
	return a[1] < b[1]
}
