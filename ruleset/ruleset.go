package ruleset

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/MrEthical07/regulator/sigma"
)

var (
	ErrNoActions         = errors.New("rule set has no actions")
	ErrDuplicateAction   = errors.New("duplicate action name")
	ErrUnknownName       = errors.New("unknown action name")
	ErrUnknownPreset     = errors.New("unknown preset")
	ErrSelectorAndPreset = errors.New("selector and preset are mutually exclusive")
	ErrEmptyConflict     = errors.New("conflict has empty from")
	ErrInvalidTarget     = errors.New("invalid conflict target")
)

// RuleSet is the declarative form of a regulator.
type RuleSet struct {
	Name      string              `yaml:"name"`
	Width     int                 `yaml:"width,omitempty"`
	Actions   []string            `yaml:"actions"`
	Selector  []string            `yaml:"selector,omitempty"`
	Preset    string              `yaml:"preset,omitempty"`
	Presets   map[string][]string `yaml:"presets,omitempty"`
	Conflicts []ConflictRule      `yaml:"conflicts,omitempty"`
}

// ConflictRule is one "from => to" entry expressed with action names.
type ConflictRule struct {
	From []string `yaml:"from"`
	To   Target   `yaml:"to"`
}

// Target is either one group of names or several groups.
type Target struct {
	Groups [][]string
	Many   bool
}

// UnmarshalYAML accepts a scalar name, a list of names (one group), or a list of lists
// (several groups).
func (t *Target) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*t = Target{Groups: [][]string{{node.Value}}}
		return nil
	case yaml.SequenceNode:
	default:
		return fmt.Errorf("%w: line %d", ErrInvalidTarget, node.Line)
	}

	if len(node.Content) == 0 {
		*t = Target{Groups: [][]string{{}}}
		return nil
	}

	switch node.Content[0].Kind {
	case yaml.ScalarNode:
		var names []string
		if err := node.Decode(&names); err != nil {
			return fmt.Errorf("%w: line %d: %v", ErrInvalidTarget, node.Line, err)
		}
		*t = Target{Groups: [][]string{names}}
	case yaml.SequenceNode:
		var groups [][]string
		if err := node.Decode(&groups); err != nil {
			return fmt.Errorf("%w: line %d: %v", ErrInvalidTarget, node.Line, err)
		}
		*t = Target{Groups: groups, Many: true}
	default:
		return fmt.Errorf("%w: line %d", ErrInvalidTarget, node.Line)
	}
	return nil
}

// IsMany reports whether t holds several groups. A target built with more than
// one group counts as several even when Many is unset.
func (t Target) IsMany() bool {
	return t.Many || len(t.Groups) > 1
}

// MarshalYAML writes the same shapes UnmarshalYAML accepts.
func (t Target) MarshalYAML() (any, error) {
	if t.IsMany() {
		return t.Groups, nil
	}
	if len(t.Groups) == 0 {
		return []string{}, nil
	}
	return t.Groups[0], nil
}

// Parse decodes and validates a YAML rule set. Unknown fields are rejected.
func Parse(data []byte) (*RuleSet, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var rs RuleSet
	if err := dec.Decode(&rs); err != nil {
		return nil, fmt.Errorf("failed to parse rule set: %w", err)
	}
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	return &rs, nil
}

// Load reads a rule set file and returns it with the "sha256:" hash of the raw bytes.
func Load(path string) (*RuleSet, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read rule set: %w", err)
	}
	rs, err := Parse(data)
	if err != nil {
		return nil, "", err
	}
	return rs, Hash(data), nil
}

// Hash returns the content hash used by Load.
func Hash(data []byte) string {
	h := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(h[:])
}

// Marshal encodes rs as YAML.
func Marshal(rs *RuleSet) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(rs); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Validate checks names, references, and width limits.
func (rs *RuleSet) Validate() error {
	if len(rs.Actions) == 0 {
		return ErrNoActions
	}
	if rs.Width != 0 {
		if !sigma.ValidWidth(rs.Width) {
			return fmt.Errorf("%w: %d", sigma.ErrInvalidWidth, rs.Width)
		}
		if len(rs.Actions) > rs.Width {
			return fmt.Errorf("%w: %d actions, width %d", sigma.ErrRegistryFull, len(rs.Actions), rs.Width)
		}
	}

	known := make(map[string]struct{}, len(rs.Actions))
	for _, name := range rs.Actions {
		if name == "" {
			return sigma.ErrEmptyName
		}
		if _, dup := known[name]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateAction, name)
		}
		known[name] = struct{}{}
	}

	check := func(where string, names []string) error {
		for _, n := range names {
			if _, ok := known[n]; !ok {
				return fmt.Errorf("%s: %w: %s", where, ErrUnknownName, n)
			}
		}
		return nil
	}

	if len(rs.Selector) > 0 && rs.Preset != "" {
		return ErrSelectorAndPreset
	}
	if err := check("selector", rs.Selector); err != nil {
		return err
	}
	if rs.Preset != "" {
		if _, ok := rs.Presets[rs.Preset]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownPreset, rs.Preset)
		}
	}
	for name, names := range rs.Presets {
		if err := check("preset "+name, names); err != nil {
			return err
		}
	}

	for i, c := range rs.Conflicts {
		where := fmt.Sprintf("conflict %d", i)
		if len(c.From) == 0 {
			return fmt.Errorf("%s: %w", where, ErrEmptyConflict)
		}
		if err := check(where, c.From); err != nil {
			return err
		}
		for _, group := range c.To.Groups {
			if err := check(where, group); err != nil {
				return err
			}
		}
	}
	return nil
}

// EffectiveWidth returns Width, or the narrowest supported width that holds every action
// when Width is unset.
func (rs *RuleSet) EffectiveWidth() int {
	if rs.Width != 0 {
		return rs.Width
	}
	for _, w := range []int{8, 16, 32, 64, 128, 256, 512} {
		if len(rs.Actions) <= w {
			return w
		}
	}
	return 512
}

// Registry returns a frozen registry assigning Actions[i] to bit i.
func (rs *RuleSet) Registry() (*sigma.Registry, error) {
	reg, err := sigma.NewRegistry(rs.EffectiveWidth())
	if err != nil {
		return nil, err
	}
	for _, name := range rs.Actions {
		if _, err := reg.Register(name); err != nil {
			return nil, fmt.Errorf("action %q: %w", name, err)
		}
	}
	reg.Freeze()
	return reg, nil
}
