package ruleset

import (
	"errors"
	"fmt"
	"sort"

	"github.com/MrEthical07/regulator"
	"github.com/MrEthical07/regulator/sigma"
)

var (
	ErrMissingAction = errors.New("no implementation for action")
	ErrWidthMismatch = errors.New("rule set width does not match mask type")
)

// Compile builds a Regulator from rs using the named implementations in actions.
func Compile[T any, S sigma.Sigma[S]](rs *RuleSet, actions map[string]regulator.Action[T]) (*regulator.Regulator[T, S], error) {
	b := regulator.NewBuilder[T, S]()
	if err := Configure(rs, actions, b); err != nil {
		return nil, err
	}
	return b.Build()
}

// Configure applies rs to b so callers can add logging, audit, or metrics options before
// calling Build.
func Configure[T any, S sigma.Sigma[S]](rs *RuleSet, actions map[string]regulator.Action[T], b *regulator.Builder[T, S]) error {
	if err := rs.Validate(); err != nil {
		return err
	}

	var zero S
	if rs.Width != 0 && rs.Width != zero.Width() {
		return fmt.Errorf("%w: %d vs %d", ErrWidthMismatch, rs.Width, zero.Width())
	}
	if len(rs.Actions) > zero.Width() {
		return fmt.Errorf("%w: %d actions, width %d", ErrWidthMismatch, len(rs.Actions), zero.Width())
	}

	reg, err := rs.Registry()
	if err != nil {
		return err
	}

	b.WithName(rs.Name)
	for _, name := range rs.Actions {
		impl, ok := actions[name]
		if !ok || impl == nil {
			return fmt.Errorf("%w: %s", ErrMissingAction, name)
		}
		b.WithAction(name, impl)
	}

	conflicts, err := Conflicts[S](rs, reg)
	if err != nil {
		return err
	}
	b.WithConflicts(conflicts...)

	selector, err := Selector[S](rs, reg)
	if err != nil {
		return err
	}
	b.WithSelector(selector)
	return nil
}

// Conflicts converts the named conflict rules to bit-set pairs.
func Conflicts[S sigma.Sigma[S]](rs *RuleSet, reg *sigma.Registry) ([]regulator.Conflict[S], error) {
	out := make([]regulator.Conflict[S], 0, len(rs.Conflicts))
	for i, c := range rs.Conflicts {
		from, err := sigma.MaskOf[S](reg, c.From...)
		if err != nil {
			return nil, fmt.Errorf("conflict %d: %w", i, err)
		}
		to := make([]S, 0, len(c.To.Groups))
		for _, group := range c.To.Groups {
			m, err := sigma.MaskOf[S](reg, group...)
			if err != nil {
				return nil, fmt.Errorf("conflict %d: %w", i, err)
			}
			to = append(to, m)
		}
		if c.To.IsMany() {
			out = append(out, regulator.Conflict[S]{From: from, To: regulator.Many(to...)})
			continue
		}
		var one S
		if len(to) > 0 {
			one = to[0]
		}
		out = append(out, regulator.Conflict[S]{From: from, To: regulator.One(one)})
	}
	return out, nil
}

// Selector resolves the rule set's selector names or preset to a bit-set. A rule set with
// neither yields the empty selector.
func Selector[S sigma.Sigma[S]](rs *RuleSet, reg *sigma.Registry) (S, error) {
	if rs.Preset != "" {
		presets, err := Presets[S](rs, reg)
		if err != nil {
			var zero S
			return zero, err
		}
		m, ok := presets.Get(rs.Preset)
		if !ok {
			var zero S
			return zero, fmt.Errorf("%w: %s", ErrUnknownPreset, rs.Preset)
		}
		return m, nil
	}
	return sigma.MaskOf[S](reg, rs.Selector...)
}

// Presets returns a frozen preset manager holding every preset in rs.
func Presets[S sigma.Sigma[S]](rs *RuleSet, reg *sigma.Registry) (*sigma.PresetManager[S], error) {
	pm := sigma.NewPresetManager[S](reg)
	names := make([]string, 0, len(rs.Presets))
	for name := range rs.Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := pm.RegisterPreset(name, rs.Presets[name]); err != nil {
			return nil, err
		}
	}
	pm.Freeze()
	return pm, nil
}
