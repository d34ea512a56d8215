package sigma

import (
	"errors"
	"fmt"
)

// ErrBitOutOfRange is returned when a bit index does not fit the mask width.
var ErrBitOutOfRange = errors.New("bit out of range")

// Sigma is the capability contract a bit-set type must satisfy to act as a selector or a
// conflict-table value. S is the implementing type itself.
//
// The zero value of S must be the empty set.
type Sigma[S any] interface {
	comparable

	// BitLength returns the index of the highest set bit, or -1 when no bit is set.
	BitLength() int
	// CheckConflict reports whether the receiver shares any set bit with ex | ey.
	CheckConflict(ex, ey S) bool
	// MaskOne reports whether bit is set. Bits outside the width are never set.
	MaskOne(bit int) bool
	// Union returns the bitwise OR of the receiver and other.
	Union(other S) S
	// WithBit returns a copy with bit set. Bits outside the width are ignored.
	WithBit(bit int) S
	// Width returns the fixed capacity in bits.
	Width() int
}

// FromBits builds a mask with the given bits set.
func FromBits[S Sigma[S]](bits ...int) (S, error) {
	var s S
	for _, bit := range bits {
		if bit < 0 || bit >= s.Width() {
			var zero S
			return zero, fmt.Errorf("%w: %d (width %d)", ErrBitOutOfRange, bit, s.Width())
		}
		s = s.WithBit(bit)
	}
	return s, nil
}

// Bits returns the set bits of s in ascending order.
func Bits[S Sigma[S]](s S) []int {
	n := s.BitLength()
	if n < 0 {
		return nil
	}
	out := make([]int, 0, n+1)
	for bit := 0; bit <= n; bit++ {
		if s.MaskOne(bit) {
			out = append(out, bit)
		}
	}
	return out
}

// IsZero reports whether no bit of s is set.
func IsZero[S Sigma[S]](s S) bool {
	var zero S
	return s == zero
}
