package regulator

import "github.com/MrEthical07/regulator/sigma"

// Target is the "to" side of a conflict entry: either one bit-set or an ordered group of
// bit-sets. Both forms are reduced with bitwise OR before testing.
type Target[S sigma.Sigma[S]] struct {
	values []S
	many   bool
}

// One returns a single-value target.
func One[S sigma.Sigma[S]](value S) Target[S] {
	return Target[S]{values: []S{value}}
}

// Many returns a group target. An empty group combines to the zero value.
func Many[S sigma.Sigma[S]](values ...S) Target[S] {
	out := make([]S, len(values))
	copy(out, values)
	return Target[S]{values: out, many: true}
}

// IsMany reports whether the target was built as a group.
func (t Target[S]) IsMany() bool {
	return t.many
}

// Len returns the number of values in the target.
func (t Target[S]) Len() int {
	return len(t.values)
}

// Values returns a copy of the target's values in insertion order.
func (t Target[S]) Values() []S {
	out := make([]S, len(t.values))
	copy(out, t.values)
	return out
}

// Combined returns the bitwise OR of all values.
func (t Target[S]) Combined() S {
	var out S
	for _, v := range t.values {
		out = out.Union(v)
	}
	return out
}

// Conflict is one "from => to" pair used to populate a [ConflictTable].
type Conflict[S sigma.Sigma[S]] struct {
	From S
	To   Target[S]
}

// Excludes builds a conflict pair. One "to" value yields a single target, anything else a group.
func Excludes[S sigma.Sigma[S]](from S, to ...S) Conflict[S] {
	if len(to) == 1 {
		return Conflict[S]{From: from, To: One(to[0])}
	}
	return Conflict[S]{From: from, To: Many(to...)}
}

// ConflictTable maps a "from" bit-set to the bit-sets that must not co-occur with it.
type ConflictTable[S sigma.Sigma[S]] map[S]Target[S]

// NewConflictTable builds a table from pairs. Pairs sharing a "from" key are merged into
// one group target; the OR-based test makes the merged entry fire exactly when either
// original entry would.
func NewConflictTable[S sigma.Sigma[S]](pairs ...Conflict[S]) ConflictTable[S] {
	t := make(ConflictTable[S], len(pairs))
	for _, p := range pairs {
		t.Add(p.From, p.To)
	}
	return t
}

// Add inserts an entry, merging with an existing entry for the same key.
func (t ConflictTable[S]) Add(from S, to Target[S]) {
	existing, ok := t[from]
	if !ok {
		t[from] = to
		return
	}
	merged := make([]S, 0, len(existing.values)+len(to.values))
	merged = append(merged, existing.values...)
	merged = append(merged, to.values...)
	t[from] = Target[S]{values: merged, many: true}
}

// Clone returns an independent copy of the table.
func (t ConflictTable[S]) Clone() ConflictTable[S] {
	out := make(ConflictTable[S], len(t))
	for k, v := range t {
		out[k] = Target[S]{values: v.Values(), many: v.many}
	}
	return out
}
