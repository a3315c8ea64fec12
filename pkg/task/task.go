package task

import (
	"fmt"
	"strings"
)

// Type is a closed category of incoming work.
type Type string

const (
	TypeCodeGeneration Type = "code_generation"
	TypeCodeReview     Type = "code_review"
	TypeRefactoring    Type = "refactoring"
	TypeExplanation    Type = "explanation"
	TypeDebugging      Type = "debugging"
	TypePlanning       Type = "planning"
	TypeGeneral        Type = "general"
)

// Types lists every known task type in a stable order.
func Types() []Type {
	return []Type{
		TypeCodeGeneration,
		TypeCodeReview,
		TypeRefactoring,
		TypeExplanation,
		TypeDebugging,
		TypePlanning,
		TypeGeneral,
	}
}

// Valid reports whether t is a known task type.
func (t Type) Valid() bool {
	for _, known := range Types() {
		if t == known {
			return true
		}
	}
	return false
}

// Complexity is an ordered difficulty tier. Higher values are harder.
type Complexity int

const (
	Trivial Complexity = iota
	Moderate
	Complex
	Expert
)

// Levels is the number of complexity tiers.
const Levels = 4

// String returns the lowercase name of the complexity level.
func (c Complexity) String() string {
	switch c {
	case Trivial:
		return "trivial"
	case Moderate:
		return "moderate"
	case Complex:
		return "complex"
	case Expert:
		return "expert"
	default:
		return fmt.Sprintf("complexity(%d)", int(c))
	}
}

// ParseComplexity parses a complexity name. It accepts any case.
func ParseComplexity(s string) (Complexity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trivial":
		return Trivial, nil
	case "moderate":
		return Moderate, nil
	case "complex":
		return Complex, nil
	case "expert":
		return Expert, nil
	default:
		return Moderate, fmt.Errorf("unknown complexity %q", s)
	}
}

// Role is a capability grouping used to filter candidate models.
type Role string

const (
	RoleCoder      Role = "coder"
	RoleReviewer   Role = "reviewer"
	RoleReasoner   Role = "reasoner"
	RoleExplainer  Role = "explainer"
	RolePlanner    Role = "planner"
	RoleGeneralist Role = "generalist"
)

// roleTable maps each task type to the role used for candidate selection.
var roleTable = map[Type]Role{
	TypeCodeGeneration: RoleCoder,
	TypeCodeReview:     RoleReviewer,
	TypeRefactoring:    RoleCoder,
	TypeExplanation:    RoleExplainer,
	TypeDebugging:      RoleReasoner,
	TypePlanning:       RolePlanner,
	TypeGeneral:        RoleGeneralist,
}

// RoleFor returns the role for a task type. Unknown types map to generalist.
func RoleFor(t Type) Role {
	if role, ok := roleTable[t]; ok {
		return role
	}
	return RoleGeneralist
}
