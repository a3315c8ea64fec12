package fault

import (
	"errors"
	"fmt"
	"strings"
)

// Kind tags the category of a core routing error.
type Kind string

const (
	// KindClassification marks malformed or empty input. Not retryable;
	// the caller must fix the input.
	KindClassification Kind = "classification"

	// KindNoEligibleModel marks a role with zero registered models.
	// Not retryable; a configuration problem.
	KindNoEligibleModel Kind = "no_eligible_model"

	// KindExhausted marks a transport failure that survived every
	// alternate up to the attempt cap.
	KindExhausted Kind = "exhausted"
)

// Error is a tagged-variant error carrying structured routing context.
// Callers dispatch on Kind rather than on concrete types.
type Error struct {
	Kind      Kind
	Op        string
	Role      string
	Attempted []string // models tried, in order, for KindExhausted
	Err       error
}

func (e *Error) Error() string {
	var sb strings.Builder
	if e.Op != "" {
		sb.WriteString(e.Op)
		sb.WriteString(": ")
	}
	sb.WriteString(string(e.Kind))
	if e.Role != "" {
		fmt.Fprintf(&sb, " (role=%s)", e.Role)
	}
	if len(e.Attempted) > 0 {
		fmt.Fprintf(&sb, " (attempted: %s)", strings.Join(e.Attempted, ", "))
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error with the given kind and operation.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the kind from an error chain, or "" if none.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// IsKind reports whether any error in the chain carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
