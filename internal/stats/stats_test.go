package stats

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lotobonheur/predictor/models"
)

func generateTestDraws(n int, generator func(int) models.DrawResult) []models.DrawResult {
	draws := make([]models.DrawResult, n)
	for i := 0; i < n; i++ {
		draws[i] = generator(i)
	}
	return draws
}

func TestColorGroupOf(t *testing.T) {
	tests := []struct {
		number   int
		expected int
	}{
		{1, 0}, {9, 0}, {10, 1}, {19, 1}, {45, 4}, {79, 7}, {80, 8}, {90, 8},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, ColorGroupOf(tt.number), "number %d", tt.number)
	}
}

func TestSelectBalanced(t *testing.T) {
	t.Run("spreads across color groups", func(t *testing.T) {
		candidates := []int{1, 2, 3, 15, 27, 44, 81}
		picked := SelectBalanced(candidates, 5)

		require.Len(t, picked, 5)
		assertDistinctSubset(t, picked, candidates)
		// One per group first: 1, 15, 27, 44, 81.
		assert.Equal(t, []int{1, 15, 27, 44, 81}, picked)
	})

	t.Run("fills from leftovers when groups exhausted", func(t *testing.T) {
		candidates := []int{1, 2, 3, 4, 5, 6, 7}
		picked := SelectBalanced(candidates, 5)

		require.Len(t, picked, 5)
		assertDistinctSubset(t, picked, candidates)
		assert.Equal(t, []int{1, 2, 3, 4, 5}, picked)
	})

	t.Run("returns everything when candidates run short", func(t *testing.T) {
		picked := SelectBalanced([]int{42, 7}, 5)
		assert.Equal(t, []int{7, 42}, picked)
	})
}

func TestSelectWithRandomization(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	candidates := []int{5, 12, 23, 34, 45, 56, 67, 78, 89, 90}

	for i := 0; i < 50; i++ {
		picked := SelectWithRandomization(rng, candidates, 5)
		require.Len(t, picked, 5)
		assertDistinctSubset(t, picked, candidates)
	}

	t.Run("exhausts a short pool", func(t *testing.T) {
		picked := SelectWithRandomization(rng, []int{3, 9}, 5)
		assert.Equal(t, []int{3, 9}, picked)
	})
}

func TestPairwiseCorrelation(t *testing.T) {
	t.Run("perfect co-occurrence", func(t *testing.T) {
		draws := generateTestDraws(10, func(i int) models.DrawResult {
			if i%2 == 0 {
				return models.DrawResult{WinningNumbers: []int{1, 2, 30, 40, 50}}
			}
			return models.DrawResult{WinningNumbers: []int{60, 70, 80, 85, 90}}
		})
		assert.InDelta(t, 1.0, PairwiseCorrelation(draws, 1, 2), 1e-9)
	})

	t.Run("zero denominator", func(t *testing.T) {
		draws := generateTestDraws(5, func(i int) models.DrawResult {
			return models.DrawResult{WinningNumbers: []int{1, 2, 3, 4, 5}}
		})
		// 7 never appears: a marginal is zero.
		assert.Equal(t, 0.0, PairwiseCorrelation(draws, 1, 7))
	})
}

func TestFrequencyStdDev(t *testing.T) {
	t.Run("empty history", func(t *testing.T) {
		assert.Equal(t, 0.0, FrequencyStdDev(nil))
	})

	t.Run("concentrated history is dispersed", func(t *testing.T) {
		draws := generateTestDraws(10, func(i int) models.DrawResult {
			return models.DrawResult{WinningNumbers: []int{1, 2, 3, 4, 5}}
		})
		assert.Greater(t, FrequencyStdDev(draws), 1.0)
	})
}

func TestDataQuality(t *testing.T) {
	now := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)

	t.Run("fresh complete century scores full", func(t *testing.T) {
		draws := generateTestDraws(100, func(i int) models.DrawResult {
			return models.DrawResult{
				DrawDate:       now.Add(-time.Duration(i) * 24 * time.Hour),
				WinningNumbers: []int{1, 12, 23, 34, 45},
			}
		})
		assert.InDelta(t, 1.0, DataQuality(draws, now), 0.01)
	})

	t.Run("stale history loses the freshness share", func(t *testing.T) {
		draws := generateTestDraws(100, func(i int) models.DrawResult {
			return models.DrawResult{
				DrawDate:       now.Add(-time.Duration(i+30) * 24 * time.Hour),
				WinningNumbers: []int{1, 12, 23, 34, 45},
			}
		})
		assert.InDelta(t, 0.7, DataQuality(draws, now), 0.01)
	})

	t.Run("empty history scores zero", func(t *testing.T) {
		assert.Equal(t, 0.0, DataQuality(nil, now))
	})
}

func assertDistinctSubset(t *testing.T, picked, candidates []int) {
	t.Helper()
	seen := make(map[int]bool)
	pool := make(map[int]bool)
	for _, c := range candidates {
		pool[c] = true
	}
	for _, n := range picked {
		assert.False(t, seen[n], "duplicate %d", n)
		assert.True(t, pool[n], "%d not in candidates", n)
		seen[n] = true
	}
}
