package models

import "fmt"

// Hyperparams holds the tunable knobs of an algorithm. A single validated
// struct replaces the open key/value map the dashboard used to persist:
// every family shares the learning-rate/regularization axes the tuner
// adjusts, the remaining fields apply where they make sense.
type Hyperparams struct {
	LearningRate   float64 `json:"learning_rate,omitempty"`
	Regularization float64 `json:"regularization,omitempty"`
	DecayRate      float64 `json:"decay_rate,omitempty"`
	WindowSize     int     `json:"window_size,omitempty"`
	HiddenUnits    int     `json:"hidden_units,omitempty"`
	SmoothingAlpha float64 `json:"smoothing_alpha,omitempty"`
}

// Tuning bounds enforced by Validate and by the auto-tuning nudges.
const (
	MinLearningRate = 0.001
	MaxLearningRate = 0.5
	MinHiddenUnits  = 8
	MaxHiddenUnits  = 512
)

// DefaultHyperparams returns the starting point for an untrained algorithm.
func DefaultHyperparams() Hyperparams {
	return Hyperparams{
		LearningRate:   0.05,
		Regularization: 0.01,
		DecayRate:      0.05,
		WindowSize:     50,
		HiddenUnits:    32,
		SmoothingAlpha: 1.0,
	}
}

// Validate checks every populated field against its allowed range.
func (h Hyperparams) Validate() error {
	if h.LearningRate != 0 && (h.LearningRate < MinLearningRate || h.LearningRate > MaxLearningRate) {
		return fmt.Errorf("learning_rate %.4f outside [%.3f, %.1f]", h.LearningRate, MinLearningRate, MaxLearningRate)
	}
	if h.Regularization < 0 || h.Regularization > 1 {
		return fmt.Errorf("regularization %.4f outside [0, 1]", h.Regularization)
	}
	if h.DecayRate < 0 || h.DecayRate > 1 {
		return fmt.Errorf("decay_rate %.4f outside [0, 1]", h.DecayRate)
	}
	if h.WindowSize < 0 {
		return fmt.Errorf("window_size %d negative", h.WindowSize)
	}
	if h.HiddenUnits != 0 && (h.HiddenUnits < MinHiddenUnits || h.HiddenUnits > MaxHiddenUnits) {
		return fmt.Errorf("hidden_units %d outside [%d, %d]", h.HiddenUnits, MinHiddenUnits, MaxHiddenUnits)
	}
	if h.SmoothingAlpha < 0 {
		return fmt.Errorf("smoothing_alpha %.4f negative", h.SmoothingAlpha)
	}
	return nil
}
