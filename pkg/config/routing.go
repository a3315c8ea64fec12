package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// RoutingConfig holds the tunables of the routing core.
type RoutingConfig struct {
	Weights   Weights         `yaml:"weights,omitempty"`
	Strategy  StrategyConfig  `yaml:"strategy,omitempty"`
	Evaluator EvaluatorConfig `yaml:"evaluator,omitempty"`
	Learning  LearningConfig  `yaml:"learning,omitempty"`
	Retry     RetryConfig     `yaml:"retry,omitempty"`
	Debug     bool            `yaml:"debug,omitempty"`
}

// Weights are the scoring coefficients used by the router.
type Weights struct {
	SuccessRate float64 `yaml:"success_rate,omitempty"`
	Quality     float64 `yaml:"quality,omitempty"`
	Latency     float64 `yaml:"latency,omitempty"`
	GapPenalty  float64 `yaml:"gap_penalty,omitempty"`
}

// StrategyConfig tunes adaptive performance tracking.
type StrategyConfig struct {
	Alpha        float64 `yaml:"alpha,omitempty"`         // EWMA decay factor
	NeutralPrior float64 `yaml:"neutral_prior,omitempty"` // seed for new keys
	MinSamples   int     `yaml:"min_samples,omitempty"`   // confidence threshold
}

// EvaluatorConfig tunes response evaluation.
type EvaluatorConfig struct {
	PassThreshold float64 `yaml:"pass_threshold,omitempty"`
	MinLength     int     `yaml:"min_length,omitempty"`
}

// LearningConfig tunes failure-pattern suppression.
type LearningConfig struct {
	WindowSize       int `yaml:"window_size,omitempty"`
	FailureThreshold int `yaml:"failure_threshold,omitempty"`
}

// RetryConfig defines retry and backoff behavior for adaptive generation.
// MaxAttempts counts distinct models tried, not retries per model.
type RetryConfig struct {
	MaxAttempts   int `yaml:"max_attempts,omitempty"`
	BaseBackoffMs int `yaml:"base_backoff_ms,omitempty"`
	MaxBackoffMs  int `yaml:"max_backoff_ms,omitempty"`
}

// LoadRoutingConfig reads routing tunables from a YAML file.
func LoadRoutingConfig(path string) (*RoutingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg RoutingConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyRoutingDefaults(&cfg)
	return &cfg, nil
}

// DefaultRoutingConfig returns the default routing tunables.
func DefaultRoutingConfig() *RoutingConfig {
	cfg := &RoutingConfig{}
	applyRoutingDefaults(cfg)
	return cfg
}

func applyRoutingDefaults(cfg *RoutingConfig) {
	if cfg == nil {
		return
	}
	if cfg.Weights.SuccessRate == 0 {
		cfg.Weights.SuccessRate = 0.4
	}
	if cfg.Weights.Quality == 0 {
		cfg.Weights.Quality = 0.4
	}
	if cfg.Weights.Latency == 0 {
		cfg.Weights.Latency = 0.1
	}
	if cfg.Weights.GapPenalty == 0 {
		cfg.Weights.GapPenalty = 0.3
	}
	if cfg.Strategy.Alpha == 0 {
		cfg.Strategy.Alpha = 0.2
	}
	if cfg.Strategy.NeutralPrior == 0 {
		cfg.Strategy.NeutralPrior = 0.5
	}
	if cfg.Strategy.MinSamples == 0 {
		cfg.Strategy.MinSamples = 3
	}
	if cfg.Evaluator.PassThreshold == 0 {
		cfg.Evaluator.PassThreshold = 0.7
	}
	if cfg.Evaluator.MinLength == 0 {
		cfg.Evaluator.MinLength = 40
	}
	if cfg.Learning.WindowSize == 0 {
		cfg.Learning.WindowSize = 5
	}
	if cfg.Learning.FailureThreshold == 0 {
		cfg.Learning.FailureThreshold = 3
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = 3
	}
	if cfg.Retry.BaseBackoffMs == 0 {
		cfg.Retry.BaseBackoffMs = 200
	}
	if cfg.Retry.MaxBackoffMs == 0 {
		cfg.Retry.MaxBackoffMs = 2000
	}
	if cfg.Retry.MaxBackoffMs < cfg.Retry.BaseBackoffMs {
		cfg.Retry.MaxBackoffMs = cfg.Retry.BaseBackoffMs
	}
}
