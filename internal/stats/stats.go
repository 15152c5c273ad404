// Package stats holds the pure numeric helpers shared by the prediction
// algorithms: frequency counting, correlation, dispersion and the two
// candidate-selection strategies.
package stats

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/lotobonheur/predictor/models"
)

// MaxNumber is the top of the Loto Bonheur number space.
const MaxNumber = 90

// ColorGroupOf maps a number in [1,90] onto one of 9 decade-ish buckets
// (1-9, 10-19, ..., 70-79, 80-90). Used only to diversify selections.
func ColorGroupOf(n int) int {
	switch {
	case n < 10:
		return 0
	case n >= 80:
		return 8
	default:
		return n / 10
	}
}

// Frequencies counts how many draws each number appears in.
func Frequencies(draws []models.DrawResult) map[int]int {
	freq := make(map[int]int, MaxNumber)
	for _, d := range draws {
		for _, n := range d.WinningNumbers {
			freq[n]++
		}
	}
	return freq
}

// SelectBalanced takes at most one candidate per color group first, in
// candidate order, then fills remaining slots from leftover candidates in
// order. Returns exactly k distinct numbers ascending when enough
// candidates are supplied, or all of them otherwise.
func SelectBalanced(candidates []int, k int) []int {
	picked := make([]int, 0, k)
	used := make(map[int]bool, k)
	groupTaken := make(map[int]bool, 9)

	for _, c := range candidates {
		if len(picked) == k {
			break
		}
		if used[c] {
			continue
		}
		g := ColorGroupOf(c)
		if groupTaken[g] {
			continue
		}
		groupTaken[g] = true
		used[c] = true
		picked = append(picked, c)
	}
	for _, c := range candidates {
		if len(picked) == k {
			break
		}
		if !used[c] {
			used[c] = true
			picked = append(picked, c)
		}
	}

	sort.Ints(picked)
	return picked
}

// SelectWithRandomization samples k candidates without replacement, the
// candidate at rank i carrying relative weight 0.8^i. Non-deterministic by
// design; callers needing reproducibility seed the rng.
func SelectWithRandomization(rng *rand.Rand, candidates []int, k int) []int {
	pool := make([]int, 0, len(candidates))
	seen := make(map[int]bool, len(candidates))
	for _, c := range candidates {
		if !seen[c] {
			seen[c] = true
			pool = append(pool, c)
		}
	}

	picked := make([]int, 0, k)
	weights := make([]float64, len(pool))
	for i := range pool {
		weights[i] = math.Pow(0.8, float64(i))
	}

	for len(picked) < k && len(pool) > 0 {
		total := 0.0
		for _, w := range weights {
			total += w
		}
		r := rng.Float64() * total
		idx := len(pool) - 1
		for i, w := range weights {
			r -= w
			if r <= 0 {
				idx = i
				break
			}
		}
		picked = append(picked, pool[idx])
		pool = append(pool[:idx], pool[idx+1:]...)
		weights = append(weights[:idx], weights[idx+1:]...)
	}

	sort.Ints(picked)
	return picked
}

// PairwiseCorrelation computes the phi coefficient from the 2x2 contingency
// table of "draw contains a" x "draw contains b". Returns 0 when the
// denominator vanishes.
func PairwiseCorrelation(draws []models.DrawResult, a, b int) float64 {
	var n11, n10, n01, n00 float64
	for _, d := range draws {
		hasA, hasB := contains(d.WinningNumbers, a), contains(d.WinningNumbers, b)
		switch {
		case hasA && hasB:
			n11++
		case hasA:
			n10++
		case hasB:
			n01++
		default:
			n00++
		}
	}
	denom := math.Sqrt((n11 + n10) * (n01 + n00) * (n11 + n01) * (n10 + n00))
	if denom == 0 {
		return 0
	}
	return (n11*n00 - n10*n01) / denom
}

// FrequencyStdDev returns the population standard deviation of the
// frequency distribution of every number 1..90 across the draws. Used as a
// dampening denominator when number usage is uneven.
func FrequencyStdDev(draws []models.DrawResult) float64 {
	freq := Frequencies(draws)
	mean := 0.0
	for n := 1; n <= MaxNumber; n++ {
		mean += float64(freq[n])
	}
	mean /= MaxNumber

	variance := 0.0
	for n := 1; n <= MaxNumber; n++ {
		diff := float64(freq[n]) - mean
		variance += diff * diff
	}
	variance /= MaxNumber
	return math.Sqrt(variance)
}

// DataQuality blends volume, freshness and completeness into [0,1]:
// 0.4*min(1, count/100) + 0.3*max(0, 1 - daysSinceNewest/7) + 0.3*complete.
func DataQuality(draws []models.DrawResult, now time.Time) float64 {
	if len(draws) == 0 {
		return 0
	}

	volume := math.Min(1, float64(len(draws))/100) * 0.4

	newest := draws[0].DrawDate
	for _, d := range draws {
		if d.DrawDate.After(newest) {
			newest = d.DrawDate
		}
	}
	days := now.Sub(newest).Hours() / 24
	freshness := math.Max(0, 1-days/7) * 0.3

	complete := 0
	for _, d := range draws {
		if len(d.WinningNumbers) == 5 {
			complete++
		}
	}
	completeness := float64(complete) / float64(len(draws)) * 0.3

	return volume + freshness + completeness
}

func contains(nums []int, n int) bool {
	for _, v := range nums {
		if v == n {
			return true
		}
	}
	return false
}
