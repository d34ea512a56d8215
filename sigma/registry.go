package sigma

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrRegistryFrozen   = errors.New("registry frozen")
	ErrEmptyName        = errors.New("name cannot be empty")
	ErrDuplicateName    = errors.New("name already registered")
	ErrRegistryFull     = errors.New("bit limit exceeded")
	ErrInvalidWidth     = errors.New("invalid mask width")
	ErrUnregisteredName = errors.New("name not registered")
)

// Registry maps action names to bit positions within a mask of a fixed width.
// Bits are assigned in registration order starting at 0, so bit i names action i.
type Registry struct {
	maxBits int

	mu        sync.RWMutex
	nameToBit map[string]int
	bitToName []string
	frozen    bool
}

// ValidWidth reports whether bits is one of the supported mask widths.
func ValidWidth(bits int) bool {
	switch bits {
	case 8, 16, 32, 64, 128, 256, 512:
		return true
	}
	return false
}

// NewRegistry creates a [Registry] for masks of maxBits width.
func NewRegistry(maxBits int) (*Registry, error) {
	if !ValidWidth(maxBits) {
		return nil, ErrInvalidWidth
	}

	return &Registry{
		maxBits:   maxBits,
		nameToBit: make(map[string]int),
	}, nil
}

// Register assigns the next available bit to name and returns it.
// Must be called before [Registry.Freeze].
func (r *Registry) Register(name string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return -1, ErrRegistryFrozen
	}
	if name == "" {
		return -1, ErrEmptyName
	}
	if _, exists := r.nameToBit[name]; exists {
		return -1, ErrDuplicateName
	}

	nextBit := len(r.bitToName)
	if nextBit >= r.maxBits {
		return -1, ErrRegistryFull
	}

	r.nameToBit[name] = nextBit
	r.bitToName = append(r.bitToName, name)

	return nextBit, nil
}

// Bit returns the bit index for name, or false if not registered.
func (r *Registry) Bit(name string) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	bit, ok := r.nameToBit[name]
	return bit, ok
}

// Name returns the name assigned to bit, or false if unassigned.
func (r *Registry) Name(bit int) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if bit < 0 || bit >= len(r.bitToName) {
		return "", false
	}
	return r.bitToName[bit], true
}

// Names returns registered names in bit order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.bitToName))
	copy(out, r.bitToName)
	return out
}

// Freeze prevents further registrations.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Count returns the number of registered names.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bitToName)
}

// Width returns the mask width the registry was created for.
func (r *Registry) Width() int {
	return r.maxBits
}

// MaskOf builds a mask of type S with the bits of the given names set.
func MaskOf[S Sigma[S]](r *Registry, names ...string) (S, error) {
	var s S
	if r.maxBits > s.Width() {
		return s, ErrInvalidWidth
	}
	for _, name := range names {
		bit, ok := r.Bit(name)
		if !ok {
			var zero S
			return zero, fmt.Errorf("%w: %s", ErrUnregisteredName, name)
		}
		s = s.WithBit(bit)
	}
	return s, nil
}

// NamesOf returns the registered names of the bits set in s, in ascending bit order.
// Bits without a registered name are skipped.
func NamesOf[S Sigma[S]](r *Registry, s S) []string {
	var out []string
	for _, bit := range Bits(s) {
		if name, ok := r.Name(bit); ok {
			out = append(out, name)
		}
	}
	return out
}
