package regulator

import "github.com/MrEthical07/regulator/sigma"

// New builds a Regulator from an ordered action list (action i is bound to bit i), a
// conflict table, and the selector. The action slice and table are copied.
//
// New performs no validation; out-of-range selectors and nil actions are reported by
// Regulate. Use [Builder] for build-time validation, metrics, audit, and logging.
func New[T any, S sigma.Sigma[S]](actions []Action[T], conflicts ConflictTable[S], selector S) *Regulator[T, S] {
	return newRegulator(actions, nil, conflicts, selector, defaultObservers())
}

// FromActions builds a Regulator with an empty conflict table.
func FromActions[T any, S sigma.Sigma[S]](selector S, fns ...func(*T)) *Regulator[T, S] {
	return New[T, S](Funcs(fns...), nil, selector)
}

// FromActionsWithConflicts builds a Regulator whose conflict table is populated from
// "from => to" pairs, e.g. Excludes(a, b) or Excludes(a, b, c).
func FromActionsWithConflicts[T any, S sigma.Sigma[S]](selector S, fns []func(*T), pairs ...Conflict[S]) *Regulator[T, S] {
	return New[T, S](Funcs(fns...), NewConflictTable(pairs...), selector)
}
