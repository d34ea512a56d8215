package cli

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/MrEthical07/regulator"
	"github.com/MrEthical07/regulator/metrics/export/prometheus"
	"github.com/MrEthical07/regulator/ruleset"
	"github.com/MrEthical07/regulator/sigma"
	"github.com/MrEthical07/regulator/token"
)

// trace records which actions ran, in order.
type trace struct {
	ran []string
}

// engine hides the mask width chosen for a rule set from the commands.
type engine interface {
	// plan returns the actions the selection would run without invoking any.
	plan(sel selection) ([]string, error)
	// conflicting returns the presets whose selector conflicts, sorted.
	conflicting() []string
	// runner returns a regulate closure for sel plus the regulator's metrics source.
	runner(sel selection) (func() error, prometheus.Source, error)
	issue(m *token.Manager, sel selection, version int64) (string, error)
	verify(m *token.Manager, tok string, version int64) ([]string, error)
	close()
}

// selection picks a selector by names or preset; empty means the rule set's own.
type selection struct {
	names  []string
	preset string
}

func newEngine(rs *ruleset.RuleSet, cfg regulator.Config, logger *zap.Logger) (engine, error) {
	switch rs.EffectiveWidth() {
	case 8:
		return compileEngine[sigma.Mask8](rs, cfg, logger)
	case 16:
		return compileEngine[sigma.Mask16](rs, cfg, logger)
	case 32:
		return compileEngine[sigma.Mask32](rs, cfg, logger)
	case 64:
		return compileEngine[sigma.Mask64](rs, cfg, logger)
	case 128:
		return compileEngine[sigma.Mask128](rs, cfg, logger)
	case 256:
		return compileEngine[sigma.Mask256](rs, cfg, logger)
	case 512:
		return compileEngine[sigma.Mask512](rs, cfg, logger)
	default:
		return nil, fmt.Errorf("%w: %d", sigma.ErrInvalidWidth, rs.EffectiveWidth())
	}
}

type typedEngine[S sigma.Sigma[S]] struct {
	rs       *ruleset.RuleSet
	registry *sigma.Registry
	presets  *sigma.PresetManager[S]
	base     *regulator.Regulator[trace, S]
}

func compileEngine[S sigma.Sigma[S]](rs *ruleset.RuleSet, cfg regulator.Config, logger *zap.Logger) (*typedEngine[S], error) {
	actions := make(map[string]regulator.Action[trace], len(rs.Actions))
	for _, name := range rs.Actions {
		actions[name] = regulator.ActionFunc[trace](func(t *trace) {
			t.ran = append(t.ran, name)
		})
	}

	b := regulator.NewBuilder[trace, S]().WithConfig(cfg).WithLogger(logger)
	if err := ruleset.Configure(rs, actions, b); err != nil {
		return nil, err
	}
	base, err := b.Build()
	if err != nil {
		return nil, err
	}

	registry, err := rs.Registry()
	if err != nil {
		base.Close()
		return nil, err
	}
	presets, err := ruleset.Presets[S](rs, registry)
	if err != nil {
		base.Close()
		return nil, err
	}

	return &typedEngine[S]{rs: rs, registry: registry, presets: presets, base: base}, nil
}

func (e *typedEngine[S]) selector(sel selection) (S, error) {
	switch {
	case sel.preset != "":
		m, ok := e.presets.Get(sel.preset)
		if !ok {
			var zero S
			return zero, fmt.Errorf("%w: %s", ruleset.ErrUnknownPreset, sel.preset)
		}
		return m, nil
	case len(sel.names) > 0:
		return sigma.MaskOf[S](e.registry, sel.names...)
	default:
		return e.base.Selector(), nil
	}
}

func (e *typedEngine[S]) regulatorFor(sel selection) (*regulator.Regulator[trace, S], error) {
	s, err := e.selector(sel)
	if err != nil {
		return nil, err
	}
	return e.base.WithSelector(s), nil
}

func (e *typedEngine[S]) plan(sel selection) ([]string, error) {
	r, err := e.regulatorFor(sel)
	if err != nil {
		return nil, err
	}
	return r.PlanNames()
}

func (e *typedEngine[S]) conflicting() []string {
	var out []string
	for _, name := range e.presets.Names() {
		m, _ := e.presets.Get(name)
		if e.base.WithSelector(m).Conflicting() {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func (e *typedEngine[S]) runner(sel selection) (func() error, prometheus.Source, error) {
	r, err := e.regulatorFor(sel)
	if err != nil {
		return nil, nil, err
	}
	return func() error {
		return r.Regulate(&trace{ran: make([]string, 0, len(e.rs.Actions))})
	}, r, nil
}

func (e *typedEngine[S]) issue(m *token.Manager, sel selection, version int64) (string, error) {
	s, err := e.selector(sel)
	if err != nil {
		return "", err
	}
	return token.IssueSelector(m, e.rs.Name, s, version)
}

func (e *typedEngine[S]) verify(m *token.Manager, tok string, version int64) ([]string, error) {
	s, err := token.Verify[S](m, tok, e.rs.Name, version)
	if err != nil {
		return nil, err
	}
	return sigma.NamesOf(e.registry, s), nil
}

func (e *typedEngine[S]) close() {
	e.base.Close()
}
