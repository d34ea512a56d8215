package store

import (
	"context"
	"errors"

	"github.com/MrEthical07/regulator/ruleset"
)

var (
	ErrNotFound           = errors.New("rule set not found")
	ErrUnnamed            = errors.New("rule set has no name")
	ErrBackendUnavailable = errors.New("rule set backend unavailable")
	ErrCorrupt            = errors.New("stored rule set is corrupt")
)

// Store is the persistence contract shared by the backends.
type Store interface {
	// Save validates rs, writes it, and returns the new version.
	Save(ctx context.Context, rs *ruleset.RuleSet) (int64, error)
	// Get returns the rule set and its version, or ErrNotFound.
	Get(ctx context.Context, name string) (*ruleset.RuleSet, int64, error)
	// Version returns the current version without decoding the body, or ErrNotFound.
	Version(ctx context.Context, name string) (int64, error)
	// Delete is idempotent. Versions never go backwards: saving a deleted
	// name continues from its last version.
	Delete(ctx context.Context, name string) error
	// List returns stored names, sorted.
	List(ctx context.Context) ([]string, error)
}

func encode(rs *ruleset.RuleSet) ([]byte, error) {
	if rs == nil || rs.Name == "" {
		return nil, ErrUnnamed
	}
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	return ruleset.Marshal(rs)
}

func decode(data []byte) (*ruleset.RuleSet, error) {
	rs, err := ruleset.Parse(data)
	if err != nil {
		return nil, errors.Join(ErrCorrupt, err)
	}
	return rs, nil
}
