// Package ensemble combines the member algorithms into one prediction via
// confidence-weighted voting over the number space.
package ensemble

import (
	"math"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lotobonheur/predictor/internal/algorithms"
	"github.com/lotobonheur/predictor/internal/stats"
	"github.com/lotobonheur/predictor/models"
)

const name = "Ensemble Intelligent"

// Ensemble votes across a fixed member list. Members use deterministic
// selection only, so identical inputs always yield identical numbers
// (ties in the tally break by ascending number).
type Ensemble struct {
	members []algorithms.Algorithm
	logger  zerolog.Logger
}

// New builds the default member list: weighted frequency, bayesian,
// trend, markov, sequence and variance.
func New() *Ensemble {
	params := models.DefaultHyperparams()
	return &Ensemble{
		members: []algorithms.Algorithm{
			algorithms.NewWeightedFrequency(params),
			algorithms.NewBayesian(params),
			algorithms.NewGapTrend(),
			algorithms.NewMarkov(),
			algorithms.NewSequence(),
			algorithms.NewVarianceAnalysis(),
		},
		logger: log.With().Str("component", "ensemble").Logger(),
	}
}

type fallbackShape struct{}

func (fallbackShape) Name() string              { return name }
func (fallbackShape) Category() models.Category { return models.CategoryEnsemble }
func (fallbackShape) MinHistory() int           { return 5 }
func (fallbackShape) Predict([]models.DrawResult) models.Prediction {
	return models.Prediction{}
}

// Predict runs every member concurrently, drops failures, and tallies each
// member's confidence onto every number it predicted.
func (e *Ensemble) Predict(history []models.DrawResult) models.Prediction {
	if len(history) < 5 {
		return algorithms.Fallback(fallbackShape{})
	}

	results := make([]*models.Prediction, len(e.members))
	var wg sync.WaitGroup
	for i, m := range e.members {
		wg.Add(1)
		go func(i int, m algorithms.Algorithm) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					e.logger.Error().Str("member", m.Name()).Interface("panic", r).
						Msg("member failed, excluded from vote")
				}
			}()
			p := algorithms.Run(m, history)
			results[i] = &p
		}(i, m)
	}
	wg.Wait()

	tally := make([]float64, stats.MaxNumber+1)
	var confidences []float64
	for _, p := range results {
		if p == nil {
			continue
		}
		confidences = append(confidences, p.Confidence)
		for _, n := range p.Numbers {
			tally[n] += p.Confidence
		}
	}
	if len(confidences) == 0 {
		return algorithms.Fallback(fallbackShape{})
	}

	nums := make([]int, stats.MaxNumber)
	for i := range nums {
		nums[i] = i + 1
	}
	sort.SliceStable(nums, func(i, j int) bool {
		if tally[nums[i]] != tally[nums[j]] {
			return tally[nums[i]] > tally[nums[j]]
		}
		return nums[i] < nums[j]
	})
	numbers := append([]int(nil), nums[:5]...)
	sort.Ints(numbers)

	avg := 0.0
	for _, c := range confidences {
		avg += c
	}
	avg /= float64(len(confidences))
	confidence := math.Min(0.92, avg*1.1)

	return models.Prediction{
		Numbers:    numbers,
		Confidence: confidence,
		Algorithm:  name,
		Factors:    []string{"Vote pondéré par confiance de 6 algorithmes"},
		Score:      confidence,
		Category:   models.CategoryEnsemble,
	}
}
