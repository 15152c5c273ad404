package models

import (
	"fmt"
	"time"
)

// Category identifies the family an algorithm belongs to.
type Category string

const (
	CategoryStatistical Category = "statistical"
	CategoryML          Category = "ml"
	CategoryBayesian    Category = "bayesian"
	CategoryNeural      Category = "neural"
	CategoryVariance    Category = "variance"
	CategoryLightGBM    Category = "lightgbm"
	CategoryCatBoost    Category = "catboost"
	CategoryTransformer Category = "transformer"
	CategoryARIMA       Category = "arima"
	CategoryMarkov      Category = "markov"
	CategoryEnsemble    Category = "ensemble"
)

// DrawResult is one published draw. Histories handed to the algorithms are
// ordered most-recent-first: index 0 is the latest draw.
type DrawResult struct {
	DrawName       string    `json:"draw_name"`
	DrawDate       time.Time `json:"draw_date"`
	WinningNumbers []int     `json:"winning_numbers"`
	MachineNumbers []int     `json:"machine_numbers,omitempty"`
}

// Validate checks the number constraints (5 distinct values in [1,90]).
func (d DrawResult) Validate() error {
	if err := validateNumbers(d.WinningNumbers); err != nil {
		return fmt.Errorf("winning numbers: %w", err)
	}
	if len(d.MachineNumbers) > 0 {
		if err := validateNumbers(d.MachineNumbers); err != nil {
			return fmt.Errorf("machine numbers: %w", err)
		}
	}
	return nil
}

func validateNumbers(nums []int) error {
	if len(nums) != 5 {
		return fmt.Errorf("expected 5 numbers, got %d", len(nums))
	}
	seen := make(map[int]bool, 5)
	for _, n := range nums {
		if n < 1 || n > 90 {
			return fmt.Errorf("number %d out of range [1,90]", n)
		}
		if seen[n] {
			return fmt.Errorf("duplicate number %d", n)
		}
		seen[n] = true
	}
	return nil
}

// Prediction is the output of one algorithm invocation. Numbers are ascending.
// Score combines confidence with an internal quality estimate and is only
// meaningful for ranking outputs of the same algorithm.
type Prediction struct {
	Numbers    []int    `json:"numbers"`
	Confidence float64  `json:"confidence"`
	Algorithm  string   `json:"algorithm"`
	Factors    []string `json:"factors"`
	Score      float64  `json:"score"`
	Category   Category `json:"category"`
}

// Pattern is one mined regularity over a draw history.
type Pattern struct {
	Type        string  `json:"type"` // pair, cycle, hot, cold
	Numbers     []int   `json:"numbers"`
	Confidence  float64 `json:"confidence"`
	Frequency   float64 `json:"frequency"`
	Description string  `json:"description"`
}

// Explanation justifies one predicted number from its history.
type Explanation struct {
	Number       int      `json:"number"`
	FrequencyPct float64  `json:"frequency_pct"`
	LastSeen     int      `json:"last_seen"` // draws ago, -1 if never
	Trend        string   `json:"trend"`     // rising, falling, stable
	Reasons      []string `json:"reasons"`
}

// BacktestResult aggregates one algorithm's replay over a sliding window.
type BacktestResult struct {
	Algorithm   string  `json:"algorithm"`
	TestPoints  int     `json:"test_points"`
	Accuracy    float64 `json:"accuracy"` // mean matches / 5 * 100
	BestMatch   int     `json:"best_match"`
	WorstMatch  int     `json:"worst_match"`
	Consistency float64 `json:"consistency"` // std-dev of match counts, lower is steadier
	MatchCounts []int   `json:"match_counts"`
}

// AlgorithmConfig is the persisted tunable state of one algorithm.
// Mutated only by the training loop and rollback.
type AlgorithmConfig struct {
	Algorithm string      `json:"algorithm"`
	Weight    float64     `json:"weight"`
	Params    Hyperparams `json:"parameters"`
	IsEnabled bool        `json:"is_enabled"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// PerformanceRecord is one evaluated (prediction, realized draw) pair.
// Append-only; consumed by ranking and training.
type PerformanceRecord struct {
	ID          int64     `json:"id"`
	Algorithm   string    `json:"algorithm"`
	DrawName    string    `json:"draw_name"`
	Predicted   []int     `json:"predicted_numbers"`
	Winning     []int     `json:"winning_numbers"`
	MatchCount  int       `json:"match_count"`
	Accuracy    float64   `json:"accuracy"`
	F1Score     float64   `json:"f1_score"`
	Confidence  float64   `json:"confidence"`
	ExecutionMs int64     `json:"execution_ms,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// TrainingHistoryEntry is the audit snapshot of one algorithm across one
// training run. Never mutated after creation; rollback restores the
// Previous* values as current config.
type TrainingHistoryEntry struct {
	ID               int64       `json:"id"`
	RunAt            time.Time   `json:"run_at"`
	Algorithm        string      `json:"algorithm"`
	PreviousWeight   float64     `json:"previous_weight"`
	NewWeight        float64     `json:"new_weight"`
	PreviousParams   Hyperparams `json:"previous_parameters"`
	NewParams        Hyperparams `json:"new_parameters"`
	ImprovementPct   float64     `json:"improvement_pct"`
	CompositeScore   float64     `json:"composite_score"`
	AccuracyVariance float64     `json:"accuracy_variance"`
	Applied          bool        `json:"applied"`
}

// AlgorithmRanking is the aggregate standing of one algorithm.
type AlgorithmRanking struct {
	Algorithm   string  `json:"algorithm"`
	Weight      float64 `json:"weight"`
	AvgAccuracy float64 `json:"avg_accuracy"`
	Evaluations int     `json:"evaluations"`
}
