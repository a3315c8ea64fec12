package router

import (
	"github.com/zen-systems/taskpilot/pkg/task"
)

// Rule names how a routing decision was selected.
type Rule string

const (
	// RuleHint marks a decision forced by an explicit caller hint.
	RuleHint Rule = "hint"

	// RuleScored marks a decision won on the adaptive score.
	RuleScored Rule = "scored"

	// RuleFallback marks a degraded decision taken when every
	// candidate was excluded.
	RuleFallback Rule = "fallback"
)

// Request is one classified task, immutable once built.
type Request struct {
	ID         string          `json:"id"`
	TaskType   task.Type       `json:"task_type"`
	Complexity task.Complexity `json:"complexity"`
	Prompt     string          `json:"prompt"`
	ModelHint  string          `json:"model_hint,omitempty"`
	SessionID  string          `json:"session_id,omitempty"`
}

// Decision captures the chosen model and the retry order behind it.
type Decision struct {
	Model      string          `json:"model"`
	Adapter    string          `json:"adapter"`
	Rule       Rule            `json:"rule"`
	Alternates []string        `json:"alternates,omitempty"`
	Degraded   bool            `json:"degraded"`
	TaskType   task.Type       `json:"task_type"`
	Complexity task.Complexity `json:"complexity"`

	// LatencySeconds is filled in after dispatch for attribution.
	LatencySeconds float64 `json:"latency_seconds,omitempty"`
}

// candidate pairs a model with its computed score for ranking.
type candidate struct {
	id        string
	adapter   string
	costClass int
	adequate  bool
	score     float64
}
