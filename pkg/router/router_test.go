package router

import (
	"testing"

	"github.com/zen-systems/taskpilot/pkg/config"
	"github.com/zen-systems/taskpilot/pkg/fault"
	"github.com/zen-systems/taskpilot/pkg/learning"
	"github.com/zen-systems/taskpilot/pkg/model"
	"github.com/zen-systems/taskpilot/pkg/strategy"
	"github.com/zen-systems/taskpilot/pkg/task"
)

func newTestRouter(t *testing.T, descriptors []model.Descriptor) (*Router, *strategy.Manager, *learning.System) {
	t.Helper()
	cfg := config.DefaultRoutingConfig()

	registry := model.NewRegistry()
	for _, d := range descriptors {
		if err := registry.Register(d); err != nil {
			t.Fatalf("Register(%s) error = %v", d.ID, err)
		}
	}

	perf := strategy.NewManager(cfg.Strategy)
	supp := learning.NewSystem(cfg.Learning)
	return NewRouter(registry, perf, supp, cfg.Weights), perf, supp
}

func coderPair() []model.Descriptor {
	return []model.Descriptor{
		{
			ID:            "model-moderate",
			Adapter:       "mock",
			Roles:         []task.Role{task.RoleCoder},
			CostClass:     1,
			LatencyClass:  2,
			MaxComplexity: task.Moderate,
		},
		{
			ID:            "model-expert",
			Adapter:       "mock",
			Roles:         []task.Role{task.RoleCoder},
			CostClass:     3,
			LatencyClass:  2,
			MaxComplexity: task.Expert,
		},
	}
}

func TestRoute_CostTieBreakAtModerate(t *testing.T) {
	r, _, _ := newTestRouter(t, coderPair())

	decision, err := r.Route(task.TypeRefactoring, task.Moderate, nil)
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if decision.Model != "model-moderate" {
		t.Errorf("Route() model = %s, want model-moderate (cost tie-break)", decision.Model)
	}
	if decision.Rule != RuleScored {
		t.Errorf("Route() rule = %s, want scored", decision.Rule)
	}
	if len(decision.Alternates) != 1 || decision.Alternates[0] != "model-expert" {
		t.Errorf("Route() alternates = %v, want [model-expert]", decision.Alternates)
	}
}

func TestRoute_ExpertWinsAtComplex(t *testing.T) {
	r, _, _ := newTestRouter(t, coderPair())

	for _, level := range []task.Complexity{task.Complex, task.Expert} {
		decision, err := r.Route(task.TypeRefactoring, level, nil)
		if err != nil {
			t.Fatalf("Route(%v) error = %v", level, err)
		}
		if decision.Model != "model-expert" {
			t.Errorf("Route(%v) model = %s, want model-expert", level, decision.Model)
		}
	}
}

func TestRoute_AdequateModelAlwaysBeatsUnderrated(t *testing.T) {
	r, perf, _ := newTestRouter(t, coderPair())

	// Even a strongly-performing underrated model must not beat an
	// adequately-rated one at complex requests.
	for i := 0; i < 20; i++ {
		perf.RecordOutcome(task.TypeRefactoring, "model-moderate", true, 1.0, 0.5)
		perf.RecordOutcome(task.TypeRefactoring, "model-expert", false, 0.1, 20)
	}

	decision, err := r.Route(task.TypeRefactoring, task.Complex, nil)
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if decision.Model != "model-expert" {
		t.Errorf("Route() model = %s, want model-expert despite worse stats", decision.Model)
	}
}

func TestRoute_AdaptiveScoresShiftSelection(t *testing.T) {
	r, perf, _ := newTestRouter(t, coderPair())

	// Both adequate at moderate; drive the cheap model's record down.
	for i := 0; i < 20; i++ {
		perf.RecordOutcome(task.TypeRefactoring, "model-moderate", false, 0.0, 10)
		perf.RecordOutcome(task.TypeRefactoring, "model-expert", true, 0.9, 1)
	}

	decision, err := r.Route(task.TypeRefactoring, task.Moderate, nil)
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if decision.Model != "model-expert" {
		t.Errorf("Route() model = %s, want model-expert after learned outcomes", decision.Model)
	}
}

func TestRoute_Deterministic(t *testing.T) {
	r, perf, _ := newTestRouter(t, coderPair())
	perf.RecordOutcome(task.TypeRefactoring, "model-expert", true, 0.8, 2)

	first, err := r.Route(task.TypeRefactoring, task.Moderate, nil)
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	for i := 0; i < 10; i++ {
		decision, err := r.Route(task.TypeRefactoring, task.Moderate, nil)
		if err != nil {
			t.Fatalf("Route() error = %v", err)
		}
		if decision.Model != first.Model {
			t.Fatalf("Route() not deterministic: got %s, want %s", decision.Model, first.Model)
		}
	}
}

func TestRoute_ExplicitExclusion(t *testing.T) {
	r, _, _ := newTestRouter(t, coderPair())

	decision, err := r.Route(task.TypeRefactoring, task.Moderate, map[string]bool{"model-moderate": true})
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if decision.Model != "model-expert" {
		t.Errorf("Route() model = %s, want model-expert after exclusion", decision.Model)
	}
}

func TestRoute_SuppressionExcludes(t *testing.T) {
	r, _, supp := newTestRouter(t, coderPair())

	for i := 0; i < 3; i++ {
		supp.RecordError(task.TypeRefactoring, "model-moderate", errFake)
	}

	decision, err := r.Route(task.TypeRefactoring, task.Moderate, nil)
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if decision.Model != "model-expert" {
		t.Errorf("Route() model = %s, want model-expert while model-moderate suppressed", decision.Model)
	}
}

func TestRoute_DegradedFallback(t *testing.T) {
	r, _, _ := newTestRouter(t, coderPair())

	exclude := map[string]bool{"model-moderate": true, "model-expert": true}
	decision, err := r.Route(task.TypeRefactoring, task.Moderate, exclude)
	if err != nil {
		t.Fatalf("Route() error = %v, want degraded decision", err)
	}
	if !decision.Degraded {
		t.Error("Route() degraded = false, want true")
	}
	if decision.Rule != RuleFallback {
		t.Errorf("Route() rule = %s, want fallback", decision.Rule)
	}
	if decision.Model != "model-expert" {
		t.Errorf("Route() model = %s, want highest-rated model-expert", decision.Model)
	}
}

func TestRoute_NoModelsForRole(t *testing.T) {
	r, _, _ := newTestRouter(t, coderPair())

	// coderPair registers no planner-role models.
	_, err := r.Route(task.TypePlanning, task.Moderate, nil)
	if err == nil {
		t.Fatal("Route() expected error for empty role")
	}
	if !fault.IsKind(err, fault.KindNoEligibleModel) {
		t.Errorf("Route() error kind = %v, want no_eligible_model", fault.KindOf(err))
	}
}

func TestRouteRequest_HintWins(t *testing.T) {
	r, _, _ := newTestRouter(t, coderPair())

	req := &Request{
		TaskType:   task.TypeRefactoring,
		Complexity: task.Moderate,
		ModelHint:  "model-expert",
	}
	decision, err := r.RouteRequest(req, nil)
	if err != nil {
		t.Fatalf("RouteRequest() error = %v", err)
	}
	if decision.Model != "model-expert" {
		t.Errorf("RouteRequest() model = %s, want hinted model-expert", decision.Model)
	}
	if decision.Rule != RuleHint {
		t.Errorf("RouteRequest() rule = %s, want hint", decision.Rule)
	}
	if len(decision.Alternates) != 1 || decision.Alternates[0] != "model-moderate" {
		t.Errorf("RouteRequest() alternates = %v, want [model-moderate]", decision.Alternates)
	}
}

func TestRouteRequest_UnknownHintFallsBack(t *testing.T) {
	r, _, _ := newTestRouter(t, coderPair())

	req := &Request{
		TaskType:   task.TypeRefactoring,
		Complexity: task.Moderate,
		ModelHint:  "model-missing",
	}
	decision, err := r.RouteRequest(req, nil)
	if err != nil {
		t.Fatalf("RouteRequest() error = %v", err)
	}
	if decision.Rule != RuleScored {
		t.Errorf("RouteRequest() rule = %s, want scored", decision.Rule)
	}
}

type fakeError struct{}

func (fakeError) Error() string { return "upstream returned status 503" }

var errFake = fakeError{}
