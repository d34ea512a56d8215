package regulator

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/MrEthical07/regulator/internal/audit"
	"github.com/MrEthical07/regulator/sigma"
)

// Builder assembles a validated Regulator with metrics, audit, and logging attached.
//
// Builder instances are single-use: Build may be called once.
type Builder[T any, S sigma.Sigma[S]] struct {
	config Config
	name   string

	actions     []Action[T]
	actionNames []string
	conflicts   []Conflict[S]

	selector      S
	selectorNames []string

	auditSink AuditSink
	logger    *zap.Logger

	built bool
}

// NewBuilder returns a Builder using [DefaultConfig].
func NewBuilder[T any, S sigma.Sigma[S]]() *Builder[T, S] {
	return &Builder[T, S]{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the ambient configuration.
func (b *Builder[T, S]) WithConfig(cfg Config) *Builder[T, S] {
	b.config = cfg
	return b
}

// WithName labels the regulator in logs and audit events.
func (b *Builder[T, S]) WithName(name string) *Builder[T, S] {
	b.name = name
	return b
}

// WithAction appends a named action; it is bound to the next bit.
func (b *Builder[T, S]) WithAction(name string, action Action[T]) *Builder[T, S] {
	b.actions = append(b.actions, action)
	b.actionNames = append(b.actionNames, name)
	return b
}

// WithFunc appends a named function action.
func (b *Builder[T, S]) WithFunc(name string, fn func(*T)) *Builder[T, S] {
	var action Action[T]
	if fn != nil {
		action = ActionFunc[T](fn)
	}
	return b.WithAction(name, action)
}

// WithActions appends unnamed actions in bit order.
func (b *Builder[T, S]) WithActions(actions ...Action[T]) *Builder[T, S] {
	for _, a := range actions {
		b.WithAction("", a)
	}
	return b
}

// WithConflict adds a "from => to" entry. Several "to" values form a group target.
func (b *Builder[T, S]) WithConflict(from S, to ...S) *Builder[T, S] {
	b.conflicts = append(b.conflicts, Excludes(from, to...))
	return b
}

// WithConflicts adds prepared conflict pairs.
func (b *Builder[T, S]) WithConflicts(pairs ...Conflict[S]) *Builder[T, S] {
	b.conflicts = append(b.conflicts, pairs...)
	return b
}

// WithSelector sets the selector bits directly. It is ORed with any names given to
// [Builder.WithSelectorNames].
func (b *Builder[T, S]) WithSelector(selector S) *Builder[T, S] {
	b.selector = selector
	return b
}

// WithSelectorNames selects actions by the names given to [Builder.WithAction].
func (b *Builder[T, S]) WithSelectorNames(names ...string) *Builder[T, S] {
	b.selectorNames = append(b.selectorNames, names...)
	return b
}

// WithAuditSink sets the sink used when audit is enabled.
func (b *Builder[T, S]) WithAuditSink(sink AuditSink) *Builder[T, S] {
	b.auditSink = sink
	return b
}

// WithLogger overrides the logger derived from Config.Logging.
func (b *Builder[T, S]) WithLogger(logger *zap.Logger) *Builder[T, S] {
	b.logger = logger
	return b
}

// WithMetricsEnabled toggles counter collection.
func (b *Builder[T, S]) WithMetricsEnabled(enabled bool) *Builder[T, S] {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the Regulate latency histogram.
func (b *Builder[T, S]) WithLatencyHistograms(enabled bool) *Builder[T, S] {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns the Regulator.
func (b *Builder[T, S]) Build() (*Regulator[T, S], error) {
	if b.built {
		return nil, ErrBuilderUsed
	}
	b.built = true

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if len(b.actions) == 0 {
		return nil, ErrNoActions
	}

	var zero S
	if len(b.actions) > zero.Width() {
		return nil, fmt.Errorf("%w: %d actions, width %d", ErrTooManyActions, len(b.actions), zero.Width())
	}

	for i, a := range b.actions {
		if a == nil {
			return nil, fmt.Errorf("%w: bit %d", ErrNilAction, i)
		}
	}

	registry, names, err := b.registerNames(zero.Width())
	if err != nil {
		return nil, err
	}

	selector := b.selector
	if len(b.selectorNames) > 0 {
		named, err := sigma.MaskOf[S](registry, b.selectorNames...)
		if err != nil {
			return nil, fmt.Errorf("selector: %w", err)
		}
		selector = selector.Union(named)
	}

	if n := selector.BitLength(); n >= len(b.actions) {
		return nil, fmt.Errorf("%w: bit %d set, %d actions bound", ErrSelectorOutOfRange, n, len(b.actions))
	}

	table := NewConflictTable(b.conflicts...)
	for from, to := range table {
		if from.BitLength() >= len(b.actions) || to.Combined().BitLength() >= len(b.actions) {
			return nil, ErrConflictOutOfRange
		}
	}

	logger := b.logger
	if logger == nil {
		logger, err = newLogger(cfg.Logging)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}

	obs := &observers{
		logger:  logger.Named("regulator"),
		metrics: NewMetrics(cfg.Metrics),
		audit: audit.NewDispatcher(audit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
	}

	r := newRegulator(b.actions, names, table, selector, obs)
	r.name = b.name
	return r, nil
}

// registerNames assigns action names to bits through a frozen registry. Unnamed actions
// only get a registry entry when at least one action is named.
func (b *Builder[T, S]) registerNames(width int) (*sigma.Registry, []string, error) {
	registryWidth := width
	if !sigma.ValidWidth(registryWidth) {
		registryWidth = 512
	}
	registry, err := sigma.NewRegistry(registryWidth)
	if err != nil {
		return nil, nil, err
	}

	named := false
	for _, name := range b.actionNames {
		if name != "" {
			named = true
			break
		}
	}

	if named {
		for i, name := range b.actionNames {
			if name == "" {
				name = fmt.Sprintf("#%d", i)
			}
			if _, err := registry.Register(name); err != nil {
				return nil, nil, fmt.Errorf("action %q: %w", name, err)
			}
		}
	}
	registry.Freeze()

	if !named {
		return registry, nil, nil
	}
	return registry, registry.Names(), nil
}
