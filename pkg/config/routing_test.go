package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultRoutingConfig(t *testing.T) {
	cfg := DefaultRoutingConfig()

	if cfg.Weights.SuccessRate != 0.4 || cfg.Weights.Quality != 0.4 {
		t.Errorf("weights = %+v, want success/quality 0.4", cfg.Weights)
	}
	if cfg.Strategy.Alpha != 0.2 {
		t.Errorf("alpha = %v, want 0.2", cfg.Strategy.Alpha)
	}
	if cfg.Strategy.NeutralPrior != 0.5 {
		t.Errorf("neutral prior = %v, want 0.5", cfg.Strategy.NeutralPrior)
	}
	if cfg.Learning.WindowSize != 5 || cfg.Learning.FailureThreshold != 3 {
		t.Errorf("learning = %+v, want window 5 threshold 3", cfg.Learning)
	}
	if cfg.Retry.MaxAttempts != 3 {
		t.Errorf("max attempts = %v, want 3", cfg.Retry.MaxAttempts)
	}
}

func TestLoadRoutingConfig_PartialFileKeepsDefaults(t *testing.T) {
	content := `weights:
  success_rate: 0.6
strategy:
  alpha: 0.5
`
	path := filepath.Join(t.TempDir(), "routing.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadRoutingConfig(path)
	if err != nil {
		t.Fatalf("LoadRoutingConfig() error = %v", err)
	}

	if cfg.Weights.SuccessRate != 0.6 {
		t.Errorf("success rate = %v, want file value 0.6", cfg.Weights.SuccessRate)
	}
	if cfg.Strategy.Alpha != 0.5 {
		t.Errorf("alpha = %v, want file value 0.5", cfg.Strategy.Alpha)
	}
	// Unset fields fall back to defaults.
	if cfg.Weights.Quality != 0.4 {
		t.Errorf("quality = %v, want default 0.4", cfg.Weights.Quality)
	}
	if cfg.Evaluator.PassThreshold != 0.7 {
		t.Errorf("pass threshold = %v, want default 0.7", cfg.Evaluator.PassThreshold)
	}
}

func TestLoadRoutingConfig_MissingFile(t *testing.T) {
	if _, err := LoadRoutingConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadRoutingConfig() expected error for missing file")
	}
}

func TestApplyRoutingDefaults_BackoffOrdering(t *testing.T) {
	cfg := &RoutingConfig{}
	cfg.Retry.BaseBackoffMs = 5000
	cfg.Retry.MaxBackoffMs = 100
	applyRoutingDefaults(cfg)

	if cfg.Retry.MaxBackoffMs < cfg.Retry.BaseBackoffMs {
		t.Errorf("max backoff %d below base %d", cfg.Retry.MaxBackoffMs, cfg.Retry.BaseBackoffMs)
	}
}

func TestHasAdapter(t *testing.T) {
	cfg := &Config{AnthropicAPIKey: "sk-test"}

	if !cfg.HasAdapter("anthropic") {
		t.Error("HasAdapter(anthropic) = false with key set")
	}
	if cfg.HasAdapter("openai") {
		t.Error("HasAdapter(openai) = true without key")
	}
	if cfg.HasAdapter("unknown") {
		t.Error("HasAdapter(unknown) = true")
	}
}
