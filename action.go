package regulator

// Action is a unary operation bound to one bit position. Apply mutates item in place.
type Action[T any] interface {
	Apply(item *T)
}

// ActionFunc adapts an ordinary function to [Action].
type ActionFunc[T any] func(item *T)

// Apply calls f(item).
func (f ActionFunc[T]) Apply(item *T) {
	f(item)
}

// Funcs converts plain functions into an action list. Nil functions stay nil so that
// Regulate can report them instead of panicking.
func Funcs[T any](fns ...func(*T)) []Action[T] {
	out := make([]Action[T], len(fns))
	for i, fn := range fns {
		if fn != nil {
			out[i] = ActionFunc[T](fn)
		}
	}
	return out
}
