package algorithms

import (
	"fmt"
	"math"
	"sort"

	"github.com/lotobonheur/predictor/internal/stats"
	"github.com/lotobonheur/predictor/models"
)

// Sequence mines co-occurring pairs and triples with recency decay 0.93^i,
// triples weighted 1.5x, and builds the prediction preferring triples, then
// pairs, then raw frequency. Confidence is fixed by which tier filled the
// shortlist.
type Sequence struct{}

func NewSequence() *Sequence { return &Sequence{} }

func (s *Sequence) Name() string              { return "Séquences et Paires" }
func (s *Sequence) Category() models.Category { return models.CategoryML }
func (s *Sequence) MinHistory() int           { return 8 }

type combo struct {
	numbers []int
	weight  float64
}

func (s *Sequence) Predict(history []models.DrawResult) models.Prediction {
	pairWeights := make(map[[2]int]float64)
	tripleWeights := make(map[[3]int]float64)

	for i, draw := range history {
		decay := math.Pow(0.93, float64(i))
		nums := append([]int(nil), draw.WinningNumbers...)
		sort.Ints(nums)
		for a := 0; a < len(nums); a++ {
			for b := a + 1; b < len(nums); b++ {
				pairWeights[[2]int{nums[a], nums[b]}] += decay
				for c := b + 1; c < len(nums); c++ {
					tripleWeights[[3]int{nums[a], nums[b], nums[c]}] += decay * 1.5
				}
			}
		}
	}

	triples := rankTriples(tripleWeights)
	pairs := rankPairs(pairWeights)

	// Fill the shortlist tier by tier.
	var candidates []int
	seen := make(map[int]bool)
	fromTriples, fromPairs := 0, 0
	add := func(n int) bool {
		if !seen[n] && len(candidates) < shortlistSize {
			seen[n] = true
			candidates = append(candidates, n)
			return true
		}
		return false
	}
	for _, t := range triples {
		for _, n := range t.numbers {
			if add(n) {
				fromTriples++
			}
		}
	}
	for _, p := range pairs {
		for _, n := range p.numbers {
			if add(n) {
				fromPairs++
			}
		}
	}
	freqScores := make([]float64, stats.MaxNumber+1)
	for n, c := range stats.Frequencies(history) {
		freqScores[n] = float64(c)
	}
	for _, n := range topCandidates(freqScores, stats.MaxNumber) {
		add(n)
	}

	numbers := stats.SelectBalanced(candidates, 5)

	confidence := 0.62
	switch {
	case fromTriples >= 2:
		confidence = 0.82
	case fromPairs >= 2:
		confidence = 0.74
	}

	return models.Prediction{
		Numbers:    numbers,
		Confidence: confidence,
		Algorithm:  s.Name(),
		Factors: []string{
			fmt.Sprintf("%d triplets et %d paires récurrents", len(triples), len(pairs)),
			fmt.Sprintf("Candidats issus des triplets: %d, des paires: %d", fromTriples, fromPairs),
		},
		Score:    confidence,
		Category: s.Category(),
	}
}

func rankTriples(weights map[[3]int]float64) []combo {
	combos := make([]combo, 0, len(weights))
	for k, w := range weights {
		if w < 1.5 { // a single decayed occurrence carries no signal
			continue
		}
		combos = append(combos, combo{numbers: []int{k[0], k[1], k[2]}, weight: w})
	}
	sortCombos(combos)
	return combos
}

func rankPairs(weights map[[2]int]float64) []combo {
	combos := make([]combo, 0, len(weights))
	for k, w := range weights {
		if w < 1.0 {
			continue
		}
		combos = append(combos, combo{numbers: []int{k[0], k[1]}, weight: w})
	}
	sortCombos(combos)
	return combos
}

func sortCombos(combos []combo) {
	sort.SliceStable(combos, func(i, j int) bool {
		if combos[i].weight != combos[j].weight {
			return combos[i].weight > combos[j].weight
		}
		return lessNumbers(combos[i].numbers, combos[j].numbers)
	})
}

func lessNumbers(a, b []int) bool {
	for i := range a {
		if i >= len(b) {
			return false
		}
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
