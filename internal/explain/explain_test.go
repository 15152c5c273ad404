package explain

import (
	"testing"

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

func TestExplainHotNumber(t *testing.T) {
	// 33 appears in every draw, including the most recent one.
	history := generateTestDraws(20, func(i int) models.DrawResult {
		return models.DrawResult{WinningNumbers: []int{33, 10 + i%4, 40 + i%4, 60 + i%4, 80 + i%4}}
	})

	out := Explain([]int{33}, history)
	require.Len(t, out, 1)

	exp := out[0]
	assert.Equal(t, 33, exp.Number)
	assert.InDelta(t, 100.0, exp.FrequencyPct, 1e-9)
	assert.Equal(t, 0, exp.LastSeen)
	assert.Contains(t, exp.Reasons, "Fréquence élevée (100% des tirages)")
	assert.Contains(t, exp.Reasons, "Vu récemment (il y a 0 tirages)")
	assert.Contains(t, exp.Reasons, "Numéro chaud: fréquent et récent")
}

func TestExplainNeverSeen(t *testing.T) {
	history := generateTestDraws(20, func(i int) models.DrawResult {
		return models.DrawResult{WinningNumbers: []int{1, 2, 3, 4, 5}}
	})

	out := Explain([]int{89}, history)
	require.Len(t, out, 1)

	exp := out[0]
	assert.Equal(t, 0.0, exp.FrequencyPct)
	assert.Equal(t, -1, exp.LastSeen)
	assert.Equal(t, "stable", exp.Trend)
	assert.Equal(t, []string{"Sélectionné pour équilibrer la grille"}, exp.Reasons)
}

func TestTrendDirections(t *testing.T) {
	// 12 appears in all of the last 10 draws but none of draws 10-20: rising.
	// 70 appears only in draws 10-20: falling.
	history := generateTestDraws(20, func(i int) models.DrawResult {
		if i < 10 {
			return models.DrawResult{WinningNumbers: []int{12, 25, 38, 51, 64}}
		}
		return models.DrawResult{WinningNumbers: []int{70, 26, 39, 52, 65}}
	})

	out := Explain([]int{12, 70}, history)
	require.Len(t, out, 2)

	assert.Equal(t, "rising", out[0].Trend)
	assert.Contains(t, out[0].Reasons, "Tendance à la hausse sur les derniers tirages")
	assert.Equal(t, "falling", out[1].Trend)
}

func TestExplainEmptyHistory(t *testing.T) {
	out := Explain([]int{5, 10}, nil)
	require.Len(t, out, 2)
	for _, exp := range out {
		assert.Equal(t, 0.0, exp.FrequencyPct)
		assert.Equal(t, -1, exp.LastSeen)
		assert.NotEmpty(t, exp.Reasons)
	}
}
