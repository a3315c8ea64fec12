package router

import (
	"fmt"
	"log"
	"sort"

	"github.com/zen-systems/taskpilot/pkg/config"
	"github.com/zen-systems/taskpilot/pkg/fault"
	"github.com/zen-systems/taskpilot/pkg/model"
	"github.com/zen-systems/taskpilot/pkg/task"
)

// PerformanceSource exposes the adaptive statistics the router scores
// with. *strategy.Manager satisfies it.
type PerformanceSource interface {
	SuccessRate(taskType task.Type, model string) float64
	MeanQuality(taskType task.Type, model string) float64
	MeanLatency(taskType task.Type, model string) float64
	Samples(taskType task.Type, model string) int
}

// Suppressor reports models currently excluded by failure-pattern
// learning. *learning.System satisfies it.
type Suppressor interface {
	ShouldExclude(taskType task.Type, model string) bool
}

// Router selects the best-fit model for a classified task. It reads
// registry, performance, and suppression state and never mutates any
// of them.
type Router struct {
	registry    model.Registry
	performance PerformanceSource
	suppressor  Suppressor
	weights     config.Weights
	debug       bool
}

// Option configures a Router.
type Option func(*Router)

// WithDebug enables debug logging.
func WithDebug(debug bool) Option {
	return func(r *Router) {
		r.debug = debug
	}
}

// NewRouter creates a router over the given collaborators.
func NewRouter(registry model.Registry, performance PerformanceSource, suppressor Suppressor, weights config.Weights, opts ...Option) *Router {
	r := &Router{
		registry:    registry,
		performance: performance,
		suppressor:  suppressor,
		weights:     weights,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RouteRequest routes a full request, honoring an explicit model hint
// when the hinted model is registered.
func (r *Router) RouteRequest(req *Request, exclude map[string]bool) (*Decision, error) {
	if req.ModelHint != "" {
		if d, ok := r.registry.Model(req.ModelHint); ok {
			decision := &Decision{
				Model:      d.ID,
				Adapter:    d.Adapter,
				Rule:       RuleHint,
				TaskType:   req.TaskType,
				Complexity: req.Complexity,
			}
			// Scored order behind the hint feeds the retry path.
			if scored, err := r.Route(req.TaskType, req.Complexity, exclude); err == nil {
				for _, alt := range append([]string{scored.Model}, scored.Alternates...) {
					if alt != d.ID {
						decision.Alternates = append(decision.Alternates, alt)
					}
				}
			}
			return decision, nil
		}
		if r.debug {
			log.Printf("[router] hint %q not registered; falling back to scoring", req.ModelHint)
		}
	}
	return r.Route(req.TaskType, req.Complexity, exclude)
}

// Route selects a model for the task type and complexity, skipping
// models in exclude or currently suppressed. When every candidate is
// excluded it falls back to the highest-rated model for the role and
// marks the decision degraded. A role with no registered models at all
// fails with a no-eligible-model error.
func (r *Router) Route(taskType task.Type, complexity task.Complexity, exclude map[string]bool) (*Decision, error) {
	role := task.RoleFor(taskType)
	descriptors := r.registry.ModelsByRole(role)
	if len(descriptors) == 0 {
		return nil, &fault.Error{
			Kind: fault.KindNoEligibleModel,
			Op:   "route",
			Role: string(role),
			Err:  fmt.Errorf("no models registered for role %s", role),
		}
	}

	var candidates []candidate
	for _, d := range descriptors {
		if exclude[d.ID] {
			continue
		}
		if r.suppressor != nil && r.suppressor.ShouldExclude(taskType, d.ID) {
			if r.debug {
				log.Printf("[router] %s suppressed for %s", d.ID, taskType)
			}
			continue
		}
		candidates = append(candidates, candidate{
			id:        d.ID,
			adapter:   d.Adapter,
			costClass: d.CostClass,
			adequate:  d.MaxComplexity >= complexity,
			score:     r.score(taskType, complexity, d),
		})
	}

	if len(candidates) == 0 {
		return r.degradedFallback(taskType, complexity, descriptors), nil
	}

	rankCandidates(candidates)

	decision := &Decision{
		Model:      candidates[0].id,
		Adapter:    candidates[0].adapter,
		Rule:       RuleScored,
		TaskType:   taskType,
		Complexity: complexity,
	}
	for _, c := range candidates[1:] {
		decision.Alternates = append(decision.Alternates, c.id)
	}
	if r.debug {
		log.Printf("[router] %s/%s -> %s (score=%.3f, alternates=%d)",
			taskType, complexity, decision.Model, candidates[0].score, len(decision.Alternates))
	}
	return decision, nil
}

// score computes the adaptive fitness of one model for a task.
func (r *Router) score(taskType task.Type, complexity task.Complexity, d model.Descriptor) float64 {
	success := r.performance.SuccessRate(taskType, d.ID)
	quality := r.performance.MeanQuality(taskType, d.ID)
	latency := r.normalizedLatency(taskType, d)

	penalty := 0.0
	if d.MaxComplexity < complexity {
		gap := float64(complexity - d.MaxComplexity)
		penalty = gap / float64(task.Levels-1)
	}

	return r.weights.SuccessRate*success +
		r.weights.Quality*quality -
		r.weights.Latency*latency -
		r.weights.GapPenalty*penalty
}

// normalizedLatency maps observed latency into [0,1]. With no
// observations yet the declared latency class stands in.
func (r *Router) normalizedLatency(taskType task.Type, d model.Descriptor) float64 {
	if r.performance.Samples(taskType, d.ID) == 0 {
		// Classes run 1 (fastest) to 3 (slowest).
		return float64(d.LatencyClass-1) / 2.0
	}
	lat := r.performance.MeanLatency(taskType, d.ID)
	norm := lat / 30.0 // seconds; anything past 30s saturates
	if norm > 1 {
		norm = 1
	}
	return norm
}

// degradedFallback picks the highest-complexity-rated model for the
// role, ignoring exclusions.
func (r *Router) degradedFallback(taskType task.Type, complexity task.Complexity, descriptors []model.Descriptor) *Decision {
	best := descriptors[0]
	for _, d := range descriptors[1:] {
		if d.MaxComplexity > best.MaxComplexity ||
			(d.MaxComplexity == best.MaxComplexity && d.ID < best.ID) {
			best = d
		}
	}
	if r.debug {
		log.Printf("[router] all candidates excluded for %s; degraded fallback to %s", taskType, best.ID)
	}
	return &Decision{
		Model:      best.ID,
		Adapter:    best.Adapter,
		Rule:       RuleFallback,
		Degraded:   true,
		TaskType:   taskType,
		Complexity: complexity,
	}
}

// rankCandidates orders adequately-rated models first, then by score
// descending, then cost class ascending, then model ID, for
// deterministic decisions. Adequacy leads so a model rated at or above
// the request complexity always beats an underrated one when both are
// available.
func rankCandidates(candidates []candidate) {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].adequate != candidates[j].adequate {
			return candidates[i].adequate
		}
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		if candidates[i].costClass != candidates[j].costClass {
			return candidates[i].costClass < candidates[j].costClass
		}
		return candidates[i].id < candidates[j].id
	})
}
