package tuning

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lotobonheur/predictor/models"
)

type fakeStore struct {
	configs  []models.AlgorithmConfig
	perf     map[string][]models.PerformanceRecord
	training []models.TrainingHistoryEntry
	upserts  []models.AlgorithmConfig
}

func (f *fakeStore) GetConfigs() ([]models.AlgorithmConfig, error) {
	return f.configs, nil
}

func (f *fakeStore) UpsertConfig(cfg models.AlgorithmConfig) error {
	f.upserts = append(f.upserts, cfg)
	for i := range f.configs {
		if f.configs[i].Algorithm == cfg.Algorithm {
			f.configs[i] = cfg
			return nil
		}
	}
	f.configs = append(f.configs, cfg)
	return nil
}

func (f *fakeStore) GetPerformance(algorithm, drawName string, limit int) ([]models.PerformanceRecord, error) {
	rows := f.perf[algorithm]
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (f *fakeStore) InsertTrainingEntries(entries []models.TrainingHistoryEntry) error {
	f.training = append(f.training, entries...)
	return nil
}

func (f *fakeStore) GetTrainingEntriesAt(runAt time.Time) ([]models.TrainingHistoryEntry, error) {
	var out []models.TrainingHistoryEntry
	for _, e := range f.training {
		if e.RunAt.Equal(runAt) {
			out = append(out, e)
		}
	}
	return out, nil
}

func flatRows(n int, accuracy float64) []models.PerformanceRecord {
	rows := make([]models.PerformanceRecord, n)
	for i := range rows {
		rows[i] = models.PerformanceRecord{Accuracy: accuracy, F1Score: accuracy}
	}
	return rows
}

func newTestTuner(store Store) *Tuner {
	tuner := New(store)
	tuner.now = func() time.Time {
		return time.Date(2025, 8, 15, 6, 0, 0, 0, time.UTC)
	}
	return tuner
}

func TestTrainRewardsStrongPerformer(t *testing.T) {
	store := &fakeStore{
		configs: []models.AlgorithmConfig{{
			Algorithm: "Fréquence Pondérée",
			Weight:    1.0,
			Params:    models.DefaultHyperparams(),
			IsEnabled: true,
		}},
		perf: map[string][]models.PerformanceRecord{
			"Fréquence Pondérée": flatRows(10, 0.9),
		},
	}

	report, err := newTestTuner(store).Train()
	require.NoError(t, err)

	assert.Equal(t, 1, report.Evaluated)
	assert.Equal(t, 1, report.Updated)
	require.Len(t, report.Entries, 1)

	entry := report.Entries[0]
	assert.True(t, entry.Applied)
	assert.InDelta(t, 0.9, entry.CompositeScore, 1e-9)
	assert.InDelta(t, 0.0, entry.AccuracyVariance, 1e-9)
	// adjustment (0.9-0.5)*0.4 = +16%, damped by momentum to +11.2%.
	assert.InDelta(t, 1.112, entry.NewWeight, 1e-9)
	assert.InDelta(t, 11.2, entry.ImprovementPct, 1e-9)

	// High and stable composite grows the capacity knobs.
	assert.Greater(t, entry.NewParams.LearningRate, entry.PreviousParams.LearningRate)
	assert.Greater(t, entry.NewParams.HiddenUnits, entry.PreviousParams.HiddenUnits)

	assert.InDelta(t, 1.112, store.configs[0].Weight, 1e-9)
	assert.Len(t, store.training, 1)
}

func TestTrainPunishesWeakPerformer(t *testing.T) {
	store := &fakeStore{
		configs: []models.AlgorithmConfig{{
			Algorithm: "Chaîne de Markov",
			Weight:    0.8,
			Params:    models.DefaultHyperparams(),
			IsEnabled: true,
		}},
		perf: map[string][]models.PerformanceRecord{
			"Chaîne de Markov": flatRows(12, 0.1),
		},
	}

	report, err := newTestTuner(store).Train()
	require.NoError(t, err)
	require.Len(t, report.Entries, 1)

	entry := report.Entries[0]
	assert.True(t, entry.Applied)
	assert.Less(t, entry.NewWeight, 0.8)
	assert.Negative(t, entry.ImprovementPct)

	// Poor composite shrinks the learning rate and raises regularization.
	assert.Less(t, entry.NewParams.LearningRate, entry.PreviousParams.LearningRate)
	assert.Greater(t, entry.NewParams.Regularization, entry.PreviousParams.Regularization)
}

func TestTrainWeightNeverBelowFloor(t *testing.T) {
	store := &fakeStore{
		configs: []models.AlgorithmConfig{{
			Algorithm: "ARIMA",
			Weight:    0.052,
			Params:    models.DefaultHyperparams(),
			IsEnabled: true,
		}},
		perf: map[string][]models.PerformanceRecord{
			"ARIMA": flatRows(8, 0.0),
		},
	}

	report, err := newTestTuner(store).Train()
	require.NoError(t, err)
	require.Len(t, report.Entries, 1)
	assert.Equal(t, MinWeight, report.Entries[0].NewWeight)
}

func TestTrainSkipsSparseAndDisabled(t *testing.T) {
	store := &fakeStore{
		configs: []models.AlgorithmConfig{
			{Algorithm: "Analyse Bayésienne", Weight: 1.0, Params: models.DefaultHyperparams(), IsEnabled: true},
			{Algorithm: "Transformer", Weight: 1.0, Params: models.DefaultHyperparams(), IsEnabled: false},
		},
		perf: map[string][]models.PerformanceRecord{
			"Analyse Bayésienne": flatRows(MinEvaluations-1, 0.8),
		},
	}

	report, err := newTestTuner(store).Train()
	require.NoError(t, err)

	assert.Equal(t, 0, report.Evaluated)
	assert.Equal(t, 2, report.Skipped)
	assert.Empty(t, report.Entries)
	assert.Empty(t, store.training)
	assert.Empty(t, store.upserts)
}

func TestTrainRecordsUnappliedEntry(t *testing.T) {
	// Composite exactly 0.5 means zero adjustment: the entry is audited
	// but no config write happens.
	store := &fakeStore{
		configs: []models.AlgorithmConfig{{
			Algorithm: "Analyse de Variance",
			Weight:    1.0,
			Params:    models.DefaultHyperparams(),
			IsEnabled: true,
		}},
		perf: map[string][]models.PerformanceRecord{
			"Analyse de Variance": flatRows(10, 0.5),
		},
	}

	report, err := newTestTuner(store).Train()
	require.NoError(t, err)

	assert.Equal(t, 1, report.Evaluated)
	assert.Equal(t, 0, report.Updated)
	require.Len(t, report.Entries, 1)
	assert.False(t, report.Entries[0].Applied)
	assert.Len(t, store.training, 1)
	assert.Empty(t, store.upserts)
}

func TestRollbackRestoresPreviousValues(t *testing.T) {
	store := &fakeStore{
		configs: []models.AlgorithmConfig{{
			Algorithm: "Fréquence Pondérée",
			Weight:    1.0,
			Params:    models.DefaultHyperparams(),
			IsEnabled: true,
		}},
		perf: map[string][]models.PerformanceRecord{
			"Fréquence Pondérée": flatRows(10, 0.9),
		},
	}

	tuner := newTestTuner(store)
	report, err := tuner.Train()
	require.NoError(t, err)
	require.Equal(t, 1, report.Updated)
	require.NotEqual(t, 1.0, store.configs[0].Weight)

	restored, err := tuner.Rollback(report.RunAt)
	require.NoError(t, err)
	assert.Equal(t, 1, restored)
	assert.Equal(t, 1.0, store.configs[0].Weight)
	assert.Equal(t, models.DefaultHyperparams(), store.configs[0].Params)
	assert.True(t, store.configs[0].IsEnabled)
}

func TestRollbackUnknownRun(t *testing.T) {
	tuner := newTestTuner(&fakeStore{})
	_, err := tuner.Rollback(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Error(t, err)
}

type failingStore struct {
	fakeStore
}

func (f *failingStore) GetPerformance(string, string, int) ([]models.PerformanceRecord, error) {
	return nil, errors.New("connexion perdue")
}

func TestTrainPropagatesStoreErrors(t *testing.T) {
	store := &failingStore{fakeStore{
		configs: []models.AlgorithmConfig{{
			Algorithm: "Fréquence Pondérée",
			Weight:    1.0,
			IsEnabled: true,
		}},
	}}

	_, err := newTestTuner(store).Train()
	assert.Error(t, err)
}

func TestEvaluateScoresMatches(t *testing.T) {
	pred := models.Prediction{
		Algorithm:  "Fréquence Pondérée",
		Numbers:    []int{3, 17, 42, 68, 90},
		Confidence: 0.7,
	}
	realized := models.DrawResult{
		DrawName:       "Reveil",
		WinningNumbers: []int{3, 17, 42, 11, 22},
	}

	rec := Evaluate(pred, realized, 12)

	assert.Equal(t, 3, rec.MatchCount)
	assert.InDelta(t, 0.6, rec.Accuracy, 1e-9)
	assert.InDelta(t, 0.6, rec.F1Score, 1e-9)
	assert.Equal(t, 0.7, rec.Confidence)
	assert.Equal(t, int64(12), rec.ExecutionMs)
	assert.Equal(t, "Reveil", rec.DrawName)
}

func TestEvaluateZeroMatches(t *testing.T) {
	pred := models.Prediction{Numbers: []int{1, 2, 3, 4, 5}}
	realized := models.DrawResult{WinningNumbers: []int{10, 20, 30, 40, 50}}

	rec := Evaluate(pred, realized, 0)
	assert.Equal(t, 0, rec.MatchCount)
	assert.Equal(t, 0.0, rec.Accuracy)
	assert.Equal(t, 0.0, rec.F1Score)
}
