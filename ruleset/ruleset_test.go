package ruleset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/regulator/sigma"
)

const flagsYAML = `
name: flags
width: 8
actions: [clear_flag, set_flag, log, purge, archive]
selector: [clear_flag]
presets:
  both: [clear_flag, set_flag]
  audit: [log, set_flag]
  wipe: [purge]
conflicts:
  - from: [purge]
    to: [archive]
  - from: [archive]
    to: [[purge], [log]]
  - from: [purge]
    to: purge
`

func TestParseTargetShapes(t *testing.T) {
	rs, err := Parse([]byte(flagsYAML))
	require.NoError(t, err)

	require.Len(t, rs.Conflicts, 3)
	assert.False(t, rs.Conflicts[0].To.Many)
	assert.Equal(t, [][]string{{"archive"}}, rs.Conflicts[0].To.Groups)

	assert.True(t, rs.Conflicts[1].To.Many)
	assert.Equal(t, [][]string{{"purge"}, {"log"}}, rs.Conflicts[1].To.Groups)

	assert.False(t, rs.Conflicts[2].To.Many)
	assert.Equal(t, [][]string{{"purge"}}, rs.Conflicts[2].To.Groups)
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("name: x\nactions: [a]\nbogus: 1\n"))
	require.Error(t, err)
}

func TestParseRejectsMappingTarget(t *testing.T) {
	_, err := Parse([]byte("actions: [a, b]\nconflicts:\n  - from: [a]\n    to: {b: 1}\n"))
	require.ErrorIs(t, err, ErrInvalidTarget)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		rs   RuleSet
		want error
	}{
		{"no actions", RuleSet{}, ErrNoActions},
		{"empty name", RuleSet{Actions: []string{""}}, sigma.ErrEmptyName},
		{"duplicate", RuleSet{Actions: []string{"a", "a"}}, ErrDuplicateAction},
		{"bad width", RuleSet{Width: 12, Actions: []string{"a"}}, sigma.ErrInvalidWidth},
		{"too many", RuleSet{Width: 8, Actions: strings.Split("a,b,c,d,e,f,g,h,i", ",")}, sigma.ErrRegistryFull},
		{"unknown selector", RuleSet{Actions: []string{"a"}, Selector: []string{"b"}}, ErrUnknownName},
		{"unknown preset", RuleSet{Actions: []string{"a"}, Preset: "p"}, ErrUnknownPreset},
		{"selector and preset", RuleSet{
			Actions:  []string{"a"},
			Selector: []string{"a"},
			Preset:   "p",
			Presets:  map[string][]string{"p": {"a"}},
		}, ErrSelectorAndPreset},
		{"preset unknown name", RuleSet{Actions: []string{"a"}, Presets: map[string][]string{"p": {"z"}}}, ErrUnknownName},
		{"empty from", RuleSet{Actions: []string{"a"}, Conflicts: []ConflictRule{{}}}, ErrEmptyConflict},
		{"unknown to", RuleSet{
			Actions:   []string{"a"},
			Conflicts: []ConflictRule{{From: []string{"a"}, To: Target{Groups: [][]string{{"b"}}}}},
		}, ErrUnknownName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, tt.rs.Validate(), tt.want)
		})
	}
}

func TestLoadHashesRawBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flags.yaml")
	require.NoError(t, os.WriteFile(path, []byte(flagsYAML), 0o600))

	rs, hash, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "flags", rs.Name)
	assert.Equal(t, Hash([]byte(flagsYAML)), hash)
	assert.True(t, strings.HasPrefix(hash, "sha256:"))
	assert.Len(t, hash, len("sha256:")+64)
}

func TestLoadMissingFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestMarshalRoundTripKeepsTargetShape(t *testing.T) {
	rs, err := Parse([]byte(flagsYAML))
	require.NoError(t, err)

	data, err := Marshal(rs)
	require.NoError(t, err)

	again, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, rs, again)
}

func TestMarshalSeveralGroupsWithoutManyFlag(t *testing.T) {
	rs := &RuleSet{
		Name:    "flags",
		Actions: []string{"clear_flag", "set_flag", "log"},
		Conflicts: []ConflictRule{
			{From: []string{"clear_flag"}, To: Target{Groups: [][]string{{"set_flag"}, {"log"}}}},
		},
	}

	data, err := Marshal(rs)
	require.NoError(t, err)

	again, err := Parse(data)
	require.NoError(t, err)
	to := again.Conflicts[0].To
	assert.True(t, to.Many)
	assert.Equal(t, [][]string{{"set_flag"}, {"log"}}, to.Groups)
}

func TestEffectiveWidth(t *testing.T) {
	assert.Equal(t, 8, (&RuleSet{Actions: []string{"a"}}).EffectiveWidth())
	assert.Equal(t, 16, (&RuleSet{Actions: make([]string, 9)}).EffectiveWidth())
	assert.Equal(t, 64, (&RuleSet{Width: 64, Actions: []string{"a"}}).EffectiveWidth())
}

func TestRegistryAssignsBitsInOrder(t *testing.T) {
	rs, err := Parse([]byte(flagsYAML))
	require.NoError(t, err)

	reg, err := rs.Registry()
	require.NoError(t, err)
	for i, name := range rs.Actions {
		bit, ok := reg.Bit(name)
		require.True(t, ok)
		assert.Equal(t, i, bit)
	}
	_, err = reg.Register("late")
	require.ErrorIs(t, err, sigma.ErrRegistryFrozen)
}
