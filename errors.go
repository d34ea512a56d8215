package regulator

import "errors"

var (
	// ErrConflictDetected is returned by Regulate when the selector activates a bit covered by
	// a conflict-table entry. It carries no further detail.
	ErrConflictDetected = errors.New("conflict detected")
	// ErrSelectorOutOfRange is returned when the selector's highest set bit has no bound action.
	ErrSelectorOutOfRange = errors.New("selector out of range")
	// ErrNilAction is returned when a set bit is bound to a nil action.
	ErrNilAction = errors.New("nil action")
	// ErrNilItem is returned when Regulate is called with a nil item.
	ErrNilItem = errors.New("nil item")
	// ErrNoActions is returned by Build when no action was provided.
	ErrNoActions = errors.New("actions must be provided")
	// ErrTooManyActions is returned by Build when the action list exceeds the selector width.
	ErrTooManyActions = errors.New("action count exceeds selector width")
	// ErrConflictOutOfRange is returned by Build when a conflict value names a bit without an action.
	ErrConflictOutOfRange = errors.New("conflict value out of range")
	// ErrBuilderUsed is returned when Build is called twice on the same Builder.
	ErrBuilderUsed = errors.New("builder already used")
	// ErrInvalidConfig wraps configuration validation failures.
	ErrInvalidConfig = errors.New("invalid configuration")
)
