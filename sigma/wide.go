package sigma

import "math/bits"

// Mask128 is a 128-bit mask. Word 0 holds bits 0..63.
type Mask128 [2]uint64

// Mask256 is a 256-bit mask. Word 0 holds bits 0..63.
type Mask256 [4]uint64

// Mask512 is a 512-bit mask. Word 0 holds bits 0..63.
type Mask512 [8]uint64

func (m Mask128) BitLength() int { return wordsBitLength(m[:]) }
func (m Mask128) MaskOne(bit int) bool { return wordsHas(m[:], bit) }
func (m Mask128) Width() int { return 128 }

func (m Mask128) CheckConflict(ex, ey Mask128) bool {
	return wordsIntersect(m[:], ex[:], ey[:])
}

func (m Mask128) Union(other Mask128) Mask128 {
	wordsOr(m[:], other[:])
	return m
}

func (m Mask128) WithBit(bit int) Mask128 {
	wordsSet(m[:], bit)
	return m
}

func (m Mask256) BitLength() int { return wordsBitLength(m[:]) }
func (m Mask256) MaskOne(bit int) bool { return wordsHas(m[:], bit) }
func (m Mask256) Width() int { return 256 }

func (m Mask256) CheckConflict(ex, ey Mask256) bool {
	return wordsIntersect(m[:], ex[:], ey[:])
}

func (m Mask256) Union(other Mask256) Mask256 {
	wordsOr(m[:], other[:])
	return m
}

func (m Mask256) WithBit(bit int) Mask256 {
	wordsSet(m[:], bit)
	return m
}

func (m Mask512) BitLength() int { return wordsBitLength(m[:]) }
func (m Mask512) MaskOne(bit int) bool { return wordsHas(m[:], bit) }
func (m Mask512) Width() int { return 512 }

func (m Mask512) CheckConflict(ex, ey Mask512) bool {
	return wordsIntersect(m[:], ex[:], ey[:])
}

func (m Mask512) Union(other Mask512) Mask512 {
	wordsOr(m[:], other[:])
	return m
}

func (m Mask512) WithBit(bit int) Mask512 {
	wordsSet(m[:], bit)
	return m
}

// The helpers below operate on the receiver's copy; callers pass slices of value receivers.

func wordsBitLength(w []uint64) int {
	for i := len(w) - 1; i >= 0; i-- {
		if w[i] != 0 {
			return i*64 + bits.Len64(w[i]) - 1
		}
	}
	return -1
}

func wordsHas(w []uint64, bit int) bool {
	if bit < 0 || bit >= len(w)*64 {
		return false
	}
	return w[bit/64]&(1<<(bit%64)) != 0
}

func wordsSet(w []uint64, bit int) {
	if bit < 0 || bit >= len(w)*64 {
		return
	}
	w[bit/64] |= 1 << (bit % 64)
}

func wordsOr(dst, src []uint64) {
	for i := range dst {
		dst[i] |= src[i]
	}
}

func wordsIntersect(self, ex, ey []uint64) bool {
	for i := range self {
		if self[i]&(ex[i]|ey[i]) != 0 {
			return true
		}
	}
	return false
}
