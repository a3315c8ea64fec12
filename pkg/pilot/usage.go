package pilot

import (
	"sync"

	"github.com/zen-systems/taskpilot/pkg/adapter"
)

// usageTracker aggregates token usage per model across a manager's
// lifetime. Providers that report no usage contribute nothing.
type usageTracker struct {
	mu       sync.Mutex
	perModel map[string]adapter.Usage
	total    adapter.Usage
}

func newUsageTracker() *usageTracker {
	return &usageTracker{perModel: make(map[string]adapter.Usage)}
}

func (t *usageTracker) record(model string, u *adapter.Usage) {
	if u == nil {
		return
	}
	usage := *u
	if usage.TotalTokens == 0 && (usage.PromptTokens > 0 || usage.CompletionTokens > 0) {
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.perModel[model] = addUsage(t.perModel[model], usage)
	t.total = addUsage(t.total, usage)
}

// snapshot returns a copy of per-model and total usage.
func (t *usageTracker) snapshot() (map[string]adapter.Usage, adapter.Usage) {
	t.mu.Lock()
	defer t.mu.Unlock()

	perModel := make(map[string]adapter.Usage, len(t.perModel))
	for model, u := range t.perModel {
		perModel[model] = u
	}
	return perModel, t.total
}

func addUsage(a, b adapter.Usage) adapter.Usage {
	return adapter.Usage{
		PromptTokens:     a.PromptTokens + b.PromptTokens,
		CompletionTokens: a.CompletionTokens + b.CompletionTokens,
		TotalTokens:      a.TotalTokens + b.TotalTokens,
	}
}
