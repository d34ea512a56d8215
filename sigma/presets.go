package sigma

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrPresetsFrozen   = errors.New("preset manager frozen")
	ErrDuplicatePreset = errors.New("preset already registered")
)

// PresetManager holds named selectors composed from registry names.
//
// PresetManager instances are configured during initialization and then frozen.
type PresetManager[S Sigma[S]] struct {
	registry *Registry

	mu      sync.RWMutex
	presets map[string]S
	frozen  bool
}

// NewPresetManager creates a [PresetManager] resolving names through registry.
func NewPresetManager[S Sigma[S]](registry *Registry) *PresetManager[S] {
	return &PresetManager[S]{
		registry: registry,
		presets:  make(map[string]S),
	}
}

// RegisterPreset stores the union of the named bits under presetName.
func (pm *PresetManager[S]) RegisterPreset(presetName string, names []string) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if pm.frozen {
		return ErrPresetsFrozen
	}
	if presetName == "" {
		return ErrEmptyName
	}
	if _, exists := pm.presets[presetName]; exists {
		return ErrDuplicatePreset
	}

	mask, err := MaskOf[S](pm.registry, names...)
	if err != nil {
		return fmt.Errorf("preset %q: %w", presetName, err)
	}

	pm.presets[presetName] = mask
	return nil
}

// Get returns the selector registered under presetName.
func (pm *PresetManager[S]) Get(presetName string) (S, bool) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	mask, ok := pm.presets[presetName]
	return mask, ok
}

// Names returns the registered preset names, sorted.
func (pm *PresetManager[S]) Names() []string {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	out := make([]string, 0, len(pm.presets))
	for name := range pm.presets {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Freeze prevents further registrations.
func (pm *PresetManager[S]) Freeze() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.frozen = true
}

// Count returns the number of registered presets.
func (pm *PresetManager[S]) Count() int {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return len(pm.presets)
}
