package pilot

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/zen-systems/taskpilot/pkg/adapter"
	"github.com/zen-systems/taskpilot/pkg/classify"
	"github.com/zen-systems/taskpilot/pkg/config"
	"github.com/zen-systems/taskpilot/pkg/evaluate"
	"github.com/zen-systems/taskpilot/pkg/fault"
	"github.com/zen-systems/taskpilot/pkg/learning"
	"github.com/zen-systems/taskpilot/pkg/model"
	"github.com/zen-systems/taskpilot/pkg/router"
	"github.com/zen-systems/taskpilot/pkg/strategy"
)

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Manager owns one instance of each core component and exposes the
// request lifecycle: analyze, generate adaptively, evaluate, learn.
type Manager struct {
	cfg        config.RoutingConfig
	registry   model.Registry
	adapters   map[string]adapter.Adapter
	classifier *classify.Classifier
	router     *router.Router
	strategy   *strategy.Manager
	evaluator  *evaluate.Evaluator
	learning   *learning.System
	usage      *usageTracker
	clock      Clock
	debug      bool

	requests    atomic.Int64
	generations atomic.Int64
	evaluations atomic.Int64
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithClock replaces the wall clock, for deterministic tests.
func WithClock(clock Clock) ManagerOption {
	return func(m *Manager) {
		m.clock = clock
	}
}

// WithClassifier replaces the default classifier.
func WithClassifier(c *classify.Classifier) ManagerOption {
	return func(m *Manager) {
		m.classifier = c
	}
}

// NewManager wires the core components over the given registry and
// transport adapters, keyed by adapter name.
func NewManager(cfg config.RoutingConfig, registry model.Registry, adapters map[string]adapter.Adapter, opts ...ManagerOption) *Manager {
	strategyMgr := strategy.NewManager(cfg.Strategy)
	learningSys := learning.NewSystem(cfg.Learning)

	m := &Manager{
		cfg:        cfg,
		registry:   registry,
		adapters:   adapters,
		classifier: classify.NewClassifier(),
		strategy:   strategyMgr,
		evaluator:  evaluate.NewEvaluator(cfg.Evaluator),
		learning:   learningSys,
		usage:      newUsageTracker(),
		clock:      systemClock{},
		debug:      cfg.Debug,
	}
	m.router = router.NewRouter(registry, strategyMgr, learningSys, cfg.Weights, router.WithDebug(cfg.Debug))

	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AnalyzeRequest classifies raw input and assembles a routing request.
func (m *Manager) AnalyzeRequest(raw string, hints classify.Hints) (*router.Request, error) {
	taskType, complexity, err := m.classifier.Classify(raw, hints)
	if err != nil {
		return nil, err
	}
	m.requests.Add(1)

	return &router.Request{
		ID:         uuid.NewString(),
		TaskType:   taskType,
		Complexity: complexity,
		Prompt:     raw,
	}, nil
}

// RouteOnly returns the routing decision for a request without
// dispatching it.
func (m *Manager) RouteOnly(req *router.Request) (*router.Decision, error) {
	return m.router.RouteRequest(req, nil)
}

// GenerateAdaptive routes the request and dispatches it, advancing
// through the decision's ranked alternates on transport failure up to
// the configured attempt cap. Every absorbed failure is recorded into
// the strategy manager and the learning system before the next attempt.
func (m *Manager) GenerateAdaptive(ctx context.Context, req *router.Request) (*router.Decision, string, error) {
	decision, err := m.router.RouteRequest(req, nil)
	if err != nil {
		return nil, "", err
	}

	targets := append([]string{decision.Model}, decision.Alternates...)
	if len(targets) > m.cfg.Retry.MaxAttempts {
		targets = targets[:m.cfg.Retry.MaxAttempts]
	}

	var lastErr error
	attempted := make([]string, 0, len(targets))
	for idx, target := range targets {
		adapterImpl, findErr := m.adapterFor(target)
		if findErr != nil {
			lastErr = findErr
			attempted = append(attempted, target)
			continue
		}

		start := m.clock.Now()
		resp, genErr := adapterImpl.Generate(ctx, target, req.Prompt)
		latency := m.clock.Now().Sub(start).Seconds()
		attempted = append(attempted, target)

		if genErr == nil {
			m.generations.Add(1)
			m.usage.record(target, resp.Usage)
			final := *decision
			final.Model = target
			if d, ok := m.registry.Model(target); ok {
				final.Adapter = d.Adapter
			}
			final.Alternates = targets[idx+1:]
			final.LatencySeconds = latency
			return &final, resp.Content, nil
		}

		lastErr = genErr
		m.strategy.RecordOutcome(req.TaskType, target, false, 0, latency)
		m.learning.RecordError(req.TaskType, target, genErr)
		if m.debug {
			log.Printf("[pilot] attempt %d/%d on %s failed: %v", idx+1, len(targets), target, genErr)
		}

		if ctx.Err() != nil {
			break
		}
		// Back off only when the failure looks like provider pressure;
		// a hard rejection moves straight to the next model.
		if idx < len(targets)-1 && adapter.IsTransient(genErr) {
			backoff := computeBackoff(m.cfg.Retry.BaseBackoffMs, m.cfg.Retry.MaxBackoffMs, idx)
			if err := sleepWithContext(ctx, backoff); err != nil {
				return nil, "", err
			}
		}
	}

	return nil, "", &fault.Error{
		Kind:      fault.KindExhausted,
		Op:        "generate",
		Attempted: attempted,
		Err:       lastErr,
	}
}

// EvaluateResponseIntelligent scores the response and feeds the outcome
// back into the strategy manager and the learning system.
func (m *Manager) EvaluateResponseIntelligent(req *router.Request, decision *router.Decision, response string) evaluate.Result {
	result := m.evaluator.Evaluate(req.TaskType, req.Prompt, response)
	m.evaluations.Add(1)

	m.strategy.RecordOutcome(req.TaskType, decision.Model, result.Passed, result.Quality, decision.LatencySeconds)
	if result.Passed {
		m.learning.RecordSuccess(req.TaskType, decision.Model)
	} else {
		m.learning.RecordError(req.TaskType, decision.Model,
			fmt.Errorf("evaluation failed: %s", firstOr(result.Failures, "below pass threshold")))
	}

	return result
}

// GetErrorLearningStats returns the learning system's observability
// snapshot.
func (m *Manager) GetErrorLearningStats() map[string]any {
	return m.learning.Stats()
}

// GetStats returns a read-only snapshot of all core counters.
func (m *Manager) GetStats() map[string]any {
	performance := make(map[string]strategy.Record)
	for key, rec := range m.strategy.All() {
		performance[string(key.TaskType)+"/"+key.Model] = rec
	}

	perModel, total := m.usage.snapshot()

	return map[string]any{
		"requests":    m.requests.Load(),
		"generations": m.generations.Load(),
		"evaluations": m.evaluations.Load(),
		"performance": performance,
		"learning":    m.learning.Stats(),
		"usage":       perModel,
		"usage_total": total,
	}
}

// Reset clears all adaptive state.
func (m *Manager) Reset() {
	m.strategy.Reset()
}

// adapterFor resolves the transport adapter for a model ID.
func (m *Manager) adapterFor(modelID string) (adapter.Adapter, error) {
	d, ok := m.registry.Model(modelID)
	if !ok {
		return nil, fmt.Errorf("model %s not registered", modelID)
	}
	a, ok := m.adapters[d.Adapter]
	if !ok {
		return nil, fmt.Errorf("adapter %s not available for model %s", d.Adapter, modelID)
	}
	return a, nil
}

func computeBackoff(baseMs, maxMs, attempt int) time.Duration {
	backoff := time.Duration(baseMs) * time.Millisecond
	for i := 0; i < attempt; i++ {
		backoff *= 2
		if backoff >= time.Duration(maxMs)*time.Millisecond {
			return time.Duration(maxMs) * time.Millisecond
		}
	}
	if backoff > time.Duration(maxMs)*time.Millisecond {
		return time.Duration(maxMs) * time.Millisecond
	}
	return backoff
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func firstOr(list []string, fallback string) string {
	if len(list) > 0 {
		return list[0]
	}
	return fallback
}
