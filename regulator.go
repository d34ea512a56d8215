package regulator

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/MrEthical07/regulator/internal/audit"
	"github.com/MrEthical07/regulator/sigma"
)

// Regulator binds an ordered action list to the bits of a selector and dispatches the
// actions whose bits are set, after checking the selector against a conflict table.
//
// A Regulator is immutable after construction. Regulate may be called concurrently as
// long as each call passes its own item.
type Regulator[T any, S sigma.Sigma[S]] struct {
	name      string
	actions   []Action[T]
	names     []string
	conflicts ConflictTable[S]
	entries   []conflictEntry[S]
	selector  S

	selectorHex string
	obs         *observers
}

type conflictEntry[S sigma.Sigma[S]] struct {
	from     S
	combined S
}

// observers are shared by every Regulator derived from the same build.
type observers struct {
	logger  *zap.Logger
	metrics *Metrics
	audit   *audit.Dispatcher
}

func defaultObservers() *observers {
	return &observers{logger: zap.NewNop()}
}

func newRegulator[T any, S sigma.Sigma[S]](
	actions []Action[T],
	names []string,
	conflicts ConflictTable[S],
	selector S,
	obs *observers,
) *Regulator[T, S] {
	acts := make([]Action[T], len(actions))
	copy(acts, actions)

	var labels []string
	if len(names) > 0 {
		labels = make([]string, len(names))
		copy(labels, names)
	}

	table := conflicts.Clone()
	entries := make([]conflictEntry[S], 0, len(table))
	for from, to := range table {
		entries = append(entries, conflictEntry[S]{from: from, combined: to.Combined()})
	}

	r := &Regulator[T, S]{
		actions:   acts,
		names:     labels,
		conflicts: table,
		entries:   entries,
		obs:       obs,
	}
	r.setSelector(selector)
	return r
}

func (r *Regulator[T, S]) setSelector(selector S) {
	r.selector = selector
	r.selectorHex = ""
	if raw, err := sigma.EncodeMask(selector); err == nil {
		r.selectorHex = hex.EncodeToString(raw)
	}
}

// Regulate runs the actions selected by the selector against item.
//
// It returns [ErrConflictDetected] when any conflict entry fires and
// [ErrSelectorOutOfRange] or [ErrNilAction] when a set bit has no usable action. In every
// error case no action is invoked. On success the actions run synchronously from the
// highest set bit down to bit 0.
func (r *Regulator[T, S]) Regulate(item *T) error {
	return r.RegulateContext(context.Background(), item)
}

// RegulateContext is [Regulator.Regulate] with a context for audit delivery.
// Dispatch itself never blocks and ignores cancellation.
func (r *Regulator[T, S]) RegulateContext(ctx context.Context, item *T) error {
	if item == nil {
		return ErrNilItem
	}

	var start time.Time
	if r.obs.metrics.LatencyEnabled() {
		start = time.Now()
	}

	invoked, err := r.dispatch(item)
	r.record(ctx, invoked, err)

	if !start.IsZero() {
		r.obs.metrics.Observe(MetricRegulateLatency, time.Since(start))
	}
	return err
}

func (r *Regulator[T, S]) dispatch(item *T) (int, error) {
	if err := r.check(); err != nil {
		return 0, err
	}

	invoked := 0
	for bit := r.selector.BitLength(); bit >= 0; bit-- {
		if !r.selector.MaskOne(bit) {
			continue
		}
		if ce := r.obs.logger.Check(zap.DebugLevel, "dispatch"); ce != nil {
			ce.Write(zap.Int("bit", bit), zap.String("action", r.label(bit)))
		}
		r.actions[bit].Apply(item)
		invoked++
	}
	return invoked, nil
}

// check runs the conflict scan followed by the bounds check. Iteration order over the
// table is unspecified; only the existence of a firing entry matters.
func (r *Regulator[T, S]) check() error {
	if r.Conflicting() {
		return ErrConflictDetected
	}

	n := r.selector.BitLength()
	if n >= len(r.actions) {
		return fmt.Errorf("%w: bit %d set, %d actions bound", ErrSelectorOutOfRange, n, len(r.actions))
	}
	for bit := n; bit >= 0; bit-- {
		if r.selector.MaskOne(bit) && r.actions[bit] == nil {
			return fmt.Errorf("%w: bit %d", ErrNilAction, bit)
		}
	}
	return nil
}

func (r *Regulator[T, S]) record(ctx context.Context, invoked int, err error) {
	m := r.obs.metrics
	switch {
	case err == nil:
		m.Inc(MetricRegulateSuccess)
		m.Add(MetricActionInvoked, uint64(invoked))
	case errors.Is(err, ErrConflictDetected):
		m.Inc(MetricRegulateConflict)
		r.obs.logger.Warn("conflict detected",
			zap.String("regulator", r.name),
			zap.String("selector", r.selectorHex),
		)
	default:
		m.Inc(MetricRegulateOutOfRange)
		r.obs.logger.Warn("selector rejected",
			zap.String("regulator", r.name),
			zap.String("selector", r.selectorHex),
			zap.Error(err),
		)
	}

	if r.obs.audit == nil {
		return
	}
	ev := audit.NewEvent(audit.EventRegulate)
	ev.Regulator = r.name
	ev.Selector = r.selectorHex
	ev.Invoked = invoked
	ev.Success = err == nil
	if err != nil {
		ev.Error = err.Error()
	}
	r.obs.audit.Emit(ctx, ev)
}

// Conflicting reports whether the selector fires any conflict-table entry.
func (r *Regulator[T, S]) Conflicting() bool {
	for _, e := range r.entries {
		if r.selector.CheckConflict(e.from, e.combined) {
			return true
		}
	}
	return false
}

// Plan returns the bit positions Regulate would dispatch, in dispatch order, or the error
// Regulate would return. No action is invoked.
func (r *Regulator[T, S]) Plan() ([]int, error) {
	if err := r.check(); err != nil {
		return nil, err
	}
	var out []int
	for bit := r.selector.BitLength(); bit >= 0; bit-- {
		if r.selector.MaskOne(bit) {
			out = append(out, bit)
		}
	}
	return out, nil
}

// PlanNames is [Regulator.Plan] with bits translated to action names.
// Unnamed actions are reported as "#<bit>".
func (r *Regulator[T, S]) PlanNames() ([]string, error) {
	bits, err := r.Plan()
	if err != nil {
		return nil, err
	}
	out := make([]string, len(bits))
	for i, bit := range bits {
		out[i] = r.label(bit)
	}
	return out, nil
}

func (r *Regulator[T, S]) label(bit int) string {
	if bit < len(r.names) && r.names[bit] != "" {
		return r.names[bit]
	}
	return fmt.Sprintf("#%d", bit)
}

// WithSelector returns a Regulator sharing this one's actions, conflicts, and observers
// but using selector. The receiver is unchanged.
func (r *Regulator[T, S]) WithSelector(selector S) *Regulator[T, S] {
	next := *r
	next.setSelector(selector)
	return &next
}

// Selector returns the active selector.
func (r *Regulator[T, S]) Selector() S {
	return r.selector
}

// Len returns the number of bound actions.
func (r *Regulator[T, S]) Len() int {
	return len(r.actions)
}

// Name returns the regulator name given at build time, if any.
func (r *Regulator[T, S]) Name() string {
	return r.name
}

// ActionNames returns the action names in bit order, or nil when actions are unnamed.
func (r *Regulator[T, S]) ActionNames() []string {
	if r.names == nil {
		return nil
	}
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Conflicts returns a copy of the conflict table.
func (r *Regulator[T, S]) Conflicts() ConflictTable[S] {
	return r.conflicts.Clone()
}

// MetricsSnapshot returns the current metric values.
func (r *Regulator[T, S]) MetricsSnapshot() MetricsSnapshot {
	return r.obs.metrics.Snapshot()
}

// AuditDropped returns the number of audit events dropped under backpressure.
func (r *Regulator[T, S]) AuditDropped() uint64 {
	return r.obs.audit.Dropped()
}

// Close drains and stops the audit dispatcher. Regulators derived through WithSelector
// share the dispatcher, so Close affects all of them.
func (r *Regulator[T, S]) Close() {
	if r == nil {
		return
	}
	r.obs.audit.Close()
}
