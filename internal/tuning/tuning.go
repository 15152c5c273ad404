// Package tuning implements the self-adjusting training loop: it reads
// aggregate performance records, recomputes each algorithm's weight and
// hyperparameters under momentum and stability constraints, and keeps an
// append-only audit trail supporting rollback.
//
// Concurrent training runs are not serialized. The product triggers
// training from a single admin action; two overlapping runs may race on
// config writes, which the audit trail makes reconstructible. Accepted
// risk, not adjudicated here.
package tuning

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lotobonheur/predictor/models"
)

const (
	// MinEvaluations is the insufficient-data guard: algorithms with fewer
	// performance rows are skipped entirely for the run.
	MinEvaluations = 5
	// MaxWeightChange caps the raw adjustment factor per run.
	MaxWeightChange = 0.3
	// MinWeight and MaxWeight clamp the persisted weight.
	MinWeight = 0.05
	MaxWeight = 2.0

	momentum       = 0.3
	recencyDecay   = 0.95
	minChangePct   = 1.0 // below this the config write is skipped
	perfBatchLimit = 50
)

// Store is the persistence surface the tuner needs.
type Store interface {
	GetConfigs() ([]models.AlgorithmConfig, error)
	UpsertConfig(cfg models.AlgorithmConfig) error
	GetPerformance(algorithm, drawName string, limit int) ([]models.PerformanceRecord, error)
	InsertTrainingEntries(entries []models.TrainingHistoryEntry) error
	GetTrainingEntriesAt(runAt time.Time) ([]models.TrainingHistoryEntry, error)
}

// Report summarizes one training run.
type Report struct {
	RunAt     time.Time                     `json:"run_at"`
	Evaluated int                           `json:"evaluated"`
	Updated   int                           `json:"updated"`
	Skipped   int                           `json:"skipped"`
	Entries   []models.TrainingHistoryEntry `json:"entries"`
}

// Tuner drives training runs and rollbacks against the store.
type Tuner struct {
	store  Store
	logger zerolog.Logger
	now    func() time.Time
}

func New(store Store) *Tuner {
	return &Tuner{
		store:  store,
		logger: log.With().Str("component", "tuning").Logger(),
		now:    time.Now,
	}
}

// Train runs one tuning pass over every configured algorithm. Every
// evaluated algorithm gets an audit entry; only changes above 1% are
// written back to the config.
func (t *Tuner) Train() (*Report, error) {
	configs, err := t.store.GetConfigs()
	if err != nil {
		return nil, fmt.Errorf("loading configs: %w", err)
	}

	report := &Report{RunAt: t.now().UTC().Truncate(time.Second)}

	for _, cfg := range configs {
		if !cfg.IsEnabled {
			report.Skipped++
			continue
		}

		rows, err := t.store.GetPerformance(cfg.Algorithm, "", perfBatchLimit)
		if err != nil {
			return nil, fmt.Errorf("loading performance for %s: %w", cfg.Algorithm, err)
		}
		if len(rows) < MinEvaluations {
			t.logger.Info().Str("algorithm", cfg.Algorithm).Int("rows", len(rows)).
				Msg("not enough evaluations, skipping")
			report.Skipped++
			continue
		}

		entry := t.evaluate(cfg, rows, report.RunAt)
		report.Entries = append(report.Entries, entry)
		report.Evaluated++

		if entry.Applied {
			updated := cfg
			updated.Weight = entry.NewWeight
			updated.Params = entry.NewParams
			updated.UpdatedAt = report.RunAt
			if err := t.store.UpsertConfig(updated); err != nil {
				return nil, fmt.Errorf("updating config for %s: %w", cfg.Algorithm, err)
			}
			report.Updated++
		}
	}

	if len(report.Entries) > 0 {
		if err := t.store.InsertTrainingEntries(report.Entries); err != nil {
			return nil, fmt.Errorf("recording training history: %w", err)
		}
	}

	t.logger.Info().Int("evaluated", report.Evaluated).Int("updated", report.Updated).
		Int("skipped", report.Skipped).Msg("training run complete")
	return report, nil
}

// evaluate computes the new weight and hyperparameters for one algorithm.
// Rows arrive most-recent-first; the recency weight of row i is 0.95^i.
func (t *Tuner) evaluate(cfg models.AlgorithmConfig, rows []models.PerformanceRecord, runAt time.Time) models.TrainingHistoryEntry {
	var weightSum, accSum, f1Sum, overallSum float64
	for i, row := range rows {
		w := math.Pow(recencyDecay, float64(i))
		weightSum += w
		accSum += w * row.Accuracy
		f1Sum += w * row.F1Score
		overallSum += row.Accuracy
	}
	accuracy := accSum / weightSum
	f1 := f1Sum / weightSum
	overall := overallSum / float64(len(rows))
	composite := 0.4*accuracy + 0.4*f1 + 0.2*overall

	variance := 0.0
	mean := overall
	for _, row := range rows {
		variance += (row.Accuracy - mean) * (row.Accuracy - mean)
	}
	variance /= float64(len(rows))

	stabilityPenalty := math.Min(0.2, variance*5)
	adjustment := (composite - 0.5) * 0.4 * (1 - stabilityPenalty)
	adjustment = clamp(adjustment, -MaxWeightChange, MaxWeightChange)

	newWeight := cfg.Weight*momentum + cfg.Weight*(1+adjustment)*(1-momentum)
	newWeight = clamp(newWeight, MinWeight, MaxWeight)

	newParams := adjustParams(cfg.Params, composite, variance)

	changePct := 0.0
	if cfg.Weight != 0 {
		changePct = (newWeight - cfg.Weight) / cfg.Weight * 100
	}

	return models.TrainingHistoryEntry{
		RunAt:            runAt,
		Algorithm:        cfg.Algorithm,
		PreviousWeight:   cfg.Weight,
		NewWeight:        newWeight,
		PreviousParams:   cfg.Params,
		NewParams:        newParams,
		ImprovementPct:   changePct,
		CompositeScore:   composite,
		AccuracyVariance: variance,
		Applied:          math.Abs(changePct) > minChangePct,
	}
}

// adjustParams nudges the hyperparameters: a high and stable composite
// score grows the learning-rate/capacity knobs, a poor or unstable one
// shrinks them and raises regularization.
func adjustParams(p models.Hyperparams, composite, variance float64) models.Hyperparams {
	out := p
	switch {
	case composite > 0.7 && variance < 0.01:
		out.LearningRate = math.Min(p.LearningRate*1.15, models.MaxLearningRate)
		out.HiddenUnits = minInt(int(float64(p.HiddenUnits)*1.1)+1, models.MaxHiddenUnits)
	case composite < 0.4 || variance > 0.05:
		out.LearningRate = math.Max(p.LearningRate*0.85, models.MinLearningRate)
		out.HiddenUnits = maxInt(int(float64(p.HiddenUnits)*0.85), models.MinHiddenUnits)
		out.Regularization = math.Min(1, p.Regularization*1.2+0.01)
	}
	return out
}

// Rollback restores every algorithm's weight and parameters to the
// previous_* values recorded by the training run at runAt. Irreversible
// once applied. Returns how many configs were restored.
func (t *Tuner) Rollback(runAt time.Time) (int, error) {
	entries, err := t.store.GetTrainingEntriesAt(runAt)
	if err != nil {
		return 0, fmt.Errorf("loading training entries: %w", err)
	}
	if len(entries) == 0 {
		return 0, fmt.Errorf("no training run recorded at %s", runAt.Format(time.RFC3339))
	}

	restored := 0
	for _, e := range entries {
		cfg := models.AlgorithmConfig{
			Algorithm: e.Algorithm,
			Weight:    e.PreviousWeight,
			Params:    e.PreviousParams,
			IsEnabled: true,
			UpdatedAt: t.now().UTC(),
		}
		if err := t.store.UpsertConfig(cfg); err != nil {
			return restored, fmt.Errorf("restoring config for %s: %w", e.Algorithm, err)
		}
		restored++
	}

	t.logger.Info().Time("run_at", runAt).Int("restored", restored).Msg("rollback applied")
	return restored, nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
