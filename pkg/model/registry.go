package model

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/zen-systems/taskpilot/pkg/task"
)

// InMemoryRegistry is a Registry backed by a map. Reads take a shared
// lock so the router sees a consistent snapshot while models are
// registered or replaced.
type InMemoryRegistry struct {
	mu     sync.RWMutex
	models map[string]Descriptor
}

// NewRegistry creates an empty registry.
func NewRegistry() *InMemoryRegistry {
	return &InMemoryRegistry{models: make(map[string]Descriptor)}
}

// Register adds or replaces a descriptor.
func (r *InMemoryRegistry) Register(d Descriptor) error {
	if d.ID == "" {
		return fmt.Errorf("model descriptor requires an id")
	}
	if len(d.Roles) == 0 {
		return fmt.Errorf("model %s declares no roles", d.ID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.models[d.ID] = d
	return nil
}

// Model returns the descriptor for an identifier.
func (r *InMemoryRegistry) Model(id string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.models[id]
	return d, ok
}

// ModelsByRole returns every descriptor declaring the role,
// sorted by ID for deterministic iteration.
func (r *InMemoryRegistry) ModelsByRole(role task.Role) []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Descriptor
	for _, d := range r.models {
		if d.HasRole(role) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// All returns every registered descriptor sorted by ID.
func (r *InMemoryRegistry) All() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.models))
	for _, d := range r.models {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// registryFile is the YAML schema for a registry catalog.
type registryFile struct {
	Models []modelEntry `yaml:"models"`
}

type modelEntry struct {
	ID            string   `yaml:"id"`
	Adapter       string   `yaml:"adapter"`
	Roles         []string `yaml:"roles"`
	CostClass     int      `yaml:"cost_class"`
	LatencyClass  int      `yaml:"latency_class"`
	MaxComplexity string   `yaml:"max_complexity"`
}

// LoadRegistry reads a model catalog from a YAML file.
func LoadRegistry(path string) (*InMemoryRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse registry file: %w", err)
	}

	reg := NewRegistry()
	for _, entry := range file.Models {
		maxComplexity, err := task.ParseComplexity(entry.MaxComplexity)
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", entry.ID, err)
		}
		roles := make([]task.Role, 0, len(entry.Roles))
		for _, r := range entry.Roles {
			roles = append(roles, task.Role(r))
		}
		d := Descriptor{
			ID:            entry.ID,
			Adapter:       entry.Adapter,
			Roles:         roles,
			CostClass:     entry.CostClass,
			LatencyClass:  entry.LatencyClass,
			MaxComplexity: maxComplexity,
		}
		if err := reg.Register(d); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// DefaultRegistry returns the built-in model catalog.
func DefaultRegistry() *InMemoryRegistry {
	reg := NewRegistry()
	for _, d := range []Descriptor{
		{
			ID:            "claude-sonnet-4-20250514",
			Adapter:       "anthropic",
			Roles:         []task.Role{task.RoleCoder, task.RoleReviewer, task.RoleReasoner, task.RoleGeneralist},
			CostClass:     2,
			LatencyClass:  2,
			MaxComplexity: task.Complex,
		},
		{
			ID:            "claude-opus-4-20250514",
			Adapter:       "anthropic",
			Roles:         []task.Role{task.RoleCoder, task.RoleReviewer, task.RoleReasoner, task.RolePlanner},
			CostClass:     3,
			LatencyClass:  3,
			MaxComplexity: task.Expert,
		},
		{
			ID:            "gpt-5.2-instant",
			Adapter:       "openai",
			Roles:         []task.Role{task.RoleExplainer, task.RoleGeneralist},
			CostClass:     1,
			LatencyClass:  1,
			MaxComplexity: task.Moderate,
		},
		{
			ID:            "gpt-5.2-thinking",
			Adapter:       "openai",
			Roles:         []task.Role{task.RoleReasoner, task.RolePlanner, task.RoleExplainer},
			CostClass:     2,
			LatencyClass:  3,
			MaxComplexity: task.Expert,
		},
		{
			ID:            "gpt-5.2-codex",
			Adapter:       "openai",
			Roles:         []task.Role{task.RoleCoder, task.RoleReviewer},
			CostClass:     2,
			LatencyClass:  2,
			MaxComplexity: task.Complex,
		},
		{
			ID:            "gemini-2.0-pro",
			Adapter:       "google",
			Roles:         []task.Role{task.RoleExplainer, task.RoleGeneralist, task.RolePlanner},
			CostClass:     2,
			LatencyClass:  2,
			MaxComplexity: task.Complex,
		},
		{
			ID:            "deepseek-coder",
			Adapter:       "deepseek",
			Roles:         []task.Role{task.RoleCoder},
			CostClass:     1,
			LatencyClass:  2,
			MaxComplexity: task.Moderate,
		},
		{
			ID:            "deepseek-reasoner",
			Adapter:       "deepseek",
			Roles:         []task.Role{task.RoleReasoner},
			CostClass:     1,
			LatencyClass:  3,
			MaxComplexity: task.Complex,
		},
	} {
		if err := reg.Register(d); err != nil {
			panic(err) // built-in catalog is always valid
		}
	}
	return reg
}
