package model

import (
	"github.com/zen-systems/taskpilot/pkg/task"
)

// Descriptor describes a registered model's capabilities.
// The router holds descriptors by value and never mutates them.
type Descriptor struct {
	ID            string
	Adapter       string
	Roles         []task.Role
	CostClass     int // 1 = cheapest
	LatencyClass  int // 1 = fastest
	MaxComplexity task.Complexity
}

// HasRole reports whether the descriptor declares the given role.
func (d Descriptor) HasRole(role task.Role) bool {
	for _, r := range d.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Registry exposes read-only model lookup.
type Registry interface {
	// Model returns the descriptor for an identifier.
	Model(id string) (Descriptor, bool)

	// ModelsByRole returns every descriptor declaring the role.
	ModelsByRole(role task.Role) []Descriptor
}
