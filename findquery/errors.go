package findquery

import (
	"errors"
	"fmt"
	"strings"
)

// UnrepresentableError reports an expression the wire format cannot
// carry: its DNF branches' omit sets do not form a subset chain under
// the size-heuristic ordering, and the protocol applies every omit
// request to all preceding find requests.
//
// This is a deterministic, caller-actionable failure; retrying with the
// same expression cannot succeed. The heuristic tries exactly one branch
// ordering, so rejection is not a proof that no valid ordering exists.
type UnrepresentableError struct {
	// EarlierOmits and LaterOmits describe the adjacent branches whose
	// omit sets broke the chain, earlier branch first.
	EarlierOmits []string
	LaterOmits   []string
}

// Error implements the error interface.
func (e *UnrepresentableError) Error() string {
	return fmt.Sprintf(
		"cannot represent query: omitted conditions in OR branches must form a subset chain "+
			"because omit requests apply to all preceding find requests; "+
			"branch omits [%s] do not cover [%s] (ordering search is a size heuristic, not exhaustive)",
		strings.Join(e.EarlierOmits, ", "),
		strings.Join(e.LaterOmits, ", "),
	)
}

// IsUnrepresentable reports whether err is an UnrepresentableError.
// Uses errors.As to handle wrapped errors.
func IsUnrepresentable(err error) bool {
	var ue *UnrepresentableError
	return errors.As(err, &ue)
}

// InternalError reports a broken pipeline invariant, such as an empty
// group or a negated group that still wraps more than one literal after
// pushdown. It indicates a bug in the compiler, never bad caller input.
type InternalError struct {
	Stage   string
	Message string
}

// Error implements the error interface.
func (e *InternalError) Error() string {
	return fmt.Sprintf("findquery internal error in %s: %s", e.Stage, e.Message)
}
