// Package algorithms holds the catalog of heuristic prediction algorithms.
// Each one maps a most-recent-first draw history to a 5-number prediction
// with a confidence and a category tag. Run enforces the fallback contract:
// whatever happens inside an algorithm, the caller always gets a valid
// prediction back.
package algorithms

import (
	"math/rand"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/lotobonheur/predictor/internal/stats"
	"github.com/lotobonheur/predictor/models"
)

// Algorithm is one pluggable scoring function.
type Algorithm interface {
	Name() string
	Category() models.Category
	MinHistory() int
	Predict(history []models.DrawResult) models.Prediction
}

const shortlistSize = 15

// Run invokes an algorithm behind its failure boundary. Insufficient
// history or a panic inside Predict both degrade to the fallback
// prediction; errors never propagate to the caller.
func Run(algo Algorithm, history []models.DrawResult) (pred models.Prediction) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("component", "algorithms").
				Str("algorithm", algo.Name()).
				Interface("panic", r).
				Msg("algorithm failed, returning fallback")
			pred = Fallback(algo)
		}
	}()

	if len(history) < algo.MinHistory() {
		return Fallback(algo)
	}
	return algo.Predict(history)
}

// Fallback is the degraded-mode prediction: 5 uniformly random distinct
// numbers at confidence exactly 0.2, category unchanged.
func Fallback(algo Algorithm) models.Prediction {
	return models.Prediction{
		Numbers:    RandomNumbers(5),
		Confidence: 0.2,
		Algorithm:  algo.Name() + " (Données Insuffisantes)",
		Factors:    []string{"Données insuffisantes", "Mode dégradé"},
		Score:      0.2,
		Category:   algo.Category(),
	}
}

// RandomNumbers returns k distinct numbers in [1,90], ascending.
func RandomNumbers(k int) []int {
	perm := rand.Perm(stats.MaxNumber)
	nums := make([]int, k)
	for i := 0; i < k; i++ {
		nums[i] = perm[i] + 1
	}
	sort.Ints(nums)
	return nums
}

// topCandidates ranks every number 1..90 by score descending, ties broken
// by ascending number, and returns the first k.
func topCandidates(scores []float64, k int) []int {
	nums := make([]int, stats.MaxNumber)
	for i := range nums {
		nums[i] = i + 1
	}
	sort.SliceStable(nums, func(i, j int) bool {
		si, sj := scores[nums[i]], scores[nums[j]]
		if si != sj {
			return si > sj
		}
		return nums[i] < nums[j]
	})
	if k > len(nums) {
		k = len(nums)
	}
	return nums[:k]
}

// avgScore averages the per-number scores of a selection.
func avgScore(scores []float64, selected []int) float64 {
	if len(selected) == 0 {
		return 0
	}
	total := 0.0
	for _, n := range selected {
		total += scores[n]
	}
	return total / float64(len(selected))
}

// Registry holds the active catalog.
type Registry struct {
	algos []Algorithm
}

// NewRegistry builds the default catalog with default hyperparameters.
func NewRegistry() *Registry {
	params := models.DefaultHyperparams()
	return &Registry{algos: []Algorithm{
		NewWeightedFrequency(params),
		NewVarianceAnalysis(),
		NewBayesian(params),
		NewGapTrend(),
		NewSequence(),
		NewMarkov(),
	}}
}

// Register appends an algorithm (used for cross-draw correlation, which
// needs a companion history the default catalog does not carry).
func (r *Registry) Register(a Algorithm) { r.algos = append(r.algos, a) }

// All returns the registered algorithms in registration order.
func (r *Registry) All() []Algorithm { return r.algos }

// Get looks an algorithm up by display name.
func (r *Registry) Get(name string) (Algorithm, bool) {
	for _, a := range r.algos {
		if a.Name() == name {
			return a, true
		}
	}
	return nil, false
}

// RunAll evaluates every algorithm concurrently. Failures degrade to
// fallbacks inside Run, so the result always has one prediction per
// registered algorithm, in registration order.
func (r *Registry) RunAll(history []models.DrawResult) []models.Prediction {
	preds := make([]models.Prediction, len(r.algos))
	var wg sync.WaitGroup
	for i, a := range r.algos {
		wg.Add(1)
		go func(i int, a Algorithm) {
			defer wg.Done()
			preds[i] = Run(a, history)
		}(i, a)
	}
	wg.Wait()
	return preds
}
