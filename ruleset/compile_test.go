package ruleset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/regulator"
	"github.com/MrEthical07/regulator/sigma"
)

type item struct {
	flag  bool
	trace []string
}

func flagActions() map[string]regulator.Action[item] {
	return map[string]regulator.Action[item]{
		"clear_flag": regulator.ActionFunc[item](func(it *item) {
			it.flag = false
			it.trace = append(it.trace, "clear_flag")
		}),
		"set_flag": regulator.ActionFunc[item](func(it *item) {
			it.flag = true
			it.trace = append(it.trace, "set_flag")
		}),
		"log": regulator.ActionFunc[item](func(it *item) {
			it.trace = append(it.trace, "log")
		}),
		"purge": regulator.ActionFunc[item](func(it *item) {
			it.trace = append(it.trace, "purge")
		}),
		"archive": regulator.ActionFunc[item](func(it *item) {
			it.trace = append(it.trace, "archive")
		}),
	}
}

func TestCompileAndRegulate(t *testing.T) {
	rs, err := Parse([]byte(flagsYAML))
	require.NoError(t, err)

	reg, err := Compile[item, sigma.Mask8](rs, flagActions())
	require.NoError(t, err)
	defer reg.Close()

	assert.Equal(t, "flags", reg.Name())
	assert.Equal(t, sigma.Mask8(0b001), reg.Selector())

	it := &item{flag: true}
	require.NoError(t, reg.Regulate(it))
	assert.False(t, it.flag)
	assert.Equal(t, []string{"clear_flag"}, it.trace)
}

func TestCompilePresetConflicts(t *testing.T) {
	rs, err := Parse([]byte(flagsYAML))
	require.NoError(t, err)
	rs.Selector = nil
	rs.Preset = "audit"

	reg, err := Compile[item, sigma.Mask8](rs, flagActions())
	require.NoError(t, err)
	defer reg.Close()

	it := &item{}
	require.ErrorIs(t, reg.Regulate(it), regulator.ErrConflictDetected)
	assert.Empty(t, it.trace)

	// A selector touching no conflicted bit still dispatches.
	it = &item{}
	require.NoError(t, reg.WithSelector(sigma.Mask8(0b011)).Regulate(it))
	assert.Equal(t, []string{"set_flag", "clear_flag"}, it.trace)
}

func TestCompileManyTargetUsesUnion(t *testing.T) {
	rs := &RuleSet{
		Actions: []string{"clear_flag", "set_flag", "log", "purge"},
		Conflicts: []ConflictRule{
			{From: []string{"purge"}, To: Target{Groups: [][]string{{"log"}, {"set_flag"}}, Many: true}},
		},
	}

	reg, err := Compile[item, sigma.Mask8](rs, flagActions())
	require.NoError(t, err)
	defer reg.Close()

	assert.False(t, reg.WithSelector(sigma.Mask8(0b0001)).Conflicting())
	assert.True(t, reg.WithSelector(sigma.Mask8(0b0010)).Conflicting())
	assert.True(t, reg.WithSelector(sigma.Mask8(0b0100)).Conflicting())
	assert.True(t, reg.WithSelector(sigma.Mask8(0b1000)).Conflicting())
	assert.False(t, reg.WithSelector(sigma.Mask8(0)).Conflicting())
}

func TestConflictsKeepsEveryGroup(t *testing.T) {
	rs := &RuleSet{
		Actions: []string{"clear_flag", "set_flag", "log", "purge"},
		Conflicts: []ConflictRule{
			{From: []string{"purge"}, To: Target{Groups: [][]string{{"log"}, {"set_flag"}}}},
		},
	}

	reg, err := rs.Registry()
	require.NoError(t, err)

	conflicts, err := Conflicts[sigma.Mask8](rs, reg)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.True(t, conflicts[0].To.IsMany())
	assert.Equal(t, []sigma.Mask8{0b0100, 0b0010}, conflicts[0].To.Values())
}

func TestCompileDescendingOrder(t *testing.T) {
	rs := &RuleSet{
		Actions:  []string{"clear_flag", "set_flag", "log"},
		Selector: []string{"clear_flag", "set_flag", "log"},
	}

	reg, err := Compile[item, sigma.Mask16](rs, flagActions())
	require.NoError(t, err)
	defer reg.Close()

	it := &item{}
	require.NoError(t, reg.Regulate(it))
	assert.Equal(t, []string{"log", "set_flag", "clear_flag"}, it.trace)
	assert.False(t, it.flag)
}

func TestCompileMissingAction(t *testing.T) {
	rs := &RuleSet{Actions: []string{"clear_flag", "unbound"}}
	_, err := Compile[item, sigma.Mask8](rs, flagActions())
	require.ErrorIs(t, err, ErrMissingAction)
}

func TestCompileWidthMismatch(t *testing.T) {
	rs := &RuleSet{Width: 16, Actions: []string{"log"}}
	_, err := Compile[item, sigma.Mask8](rs, flagActions())
	require.ErrorIs(t, err, ErrWidthMismatch)
}

func TestConfigureAllowsExtraOptions(t *testing.T) {
	rs, err := Parse([]byte(flagsYAML))
	require.NoError(t, err)

	cfg := regulator.DefaultConfig()
	cfg.Audit.Enabled = true
	sink := regulator.NewChannelSink(4)
	b := regulator.NewBuilder[item, sigma.Mask8]().WithConfig(cfg).WithAuditSink(sink)
	require.NoError(t, Configure(rs, flagActions(), b))

	reg, err := b.Build()
	require.NoError(t, err)
	require.NoError(t, reg.Regulate(&item{}))
	reg.Close()

	ev := <-sink.Events()
	assert.Equal(t, "flags", ev.Regulator)
	assert.Equal(t, 1, ev.Invoked)
}

func TestPresetsSelectors(t *testing.T) {
	rs, err := Parse([]byte(flagsYAML))
	require.NoError(t, err)
	reg, err := rs.Registry()
	require.NoError(t, err)

	pm, err := Presets[sigma.Mask8](rs, reg)
	require.NoError(t, err)
	assert.Equal(t, []string{"audit", "both", "wipe"}, pm.Names())

	both, ok := pm.Get("both")
	require.True(t, ok)
	assert.Equal(t, sigma.Mask8(0b011), both)
}
