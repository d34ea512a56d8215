package sigma

import "math/bits"

// Mask8 is an 8-bit mask.
type Mask8 uint8

// Mask16 is a 16-bit mask.
type Mask16 uint16

// Mask32 is a 32-bit mask.
type Mask32 uint32

// Mask64 is a 64-bit mask.
type Mask64 uint64

func (m Mask8) BitLength() int { return bits.Len8(uint8(m)) - 1 }
func (m Mask8) CheckConflict(ex, ey Mask8) bool { return m&(ex|ey) != 0 }
func (m Mask8) MaskOne(bit int) bool { return bit >= 0 && bit < 8 && m&(1<<bit) != 0 }
func (m Mask8) Union(other Mask8) Mask8 { return m | other }
func (m Mask8) Width() int { return 8 }

func (m Mask8) WithBit(bit int) Mask8 {
	if bit < 0 || bit >= 8 {
		return m
	}
	return m | 1<<bit
}

func (m Mask16) BitLength() int { return bits.Len16(uint16(m)) - 1 }
func (m Mask16) CheckConflict(ex, ey Mask16) bool { return m&(ex|ey) != 0 }
func (m Mask16) MaskOne(bit int) bool { return bit >= 0 && bit < 16 && m&(1<<bit) != 0 }
func (m Mask16) Union(other Mask16) Mask16 { return m | other }
func (m Mask16) Width() int { return 16 }

func (m Mask16) WithBit(bit int) Mask16 {
	if bit < 0 || bit >= 16 {
		return m
	}
	return m | 1<<bit
}

func (m Mask32) BitLength() int { return bits.Len32(uint32(m)) - 1 }
func (m Mask32) CheckConflict(ex, ey Mask32) bool { return m&(ex|ey) != 0 }
func (m Mask32) MaskOne(bit int) bool { return bit >= 0 && bit < 32 && m&(1<<bit) != 0 }
func (m Mask32) Union(other Mask32) Mask32 { return m | other }
func (m Mask32) Width() int { return 32 }

func (m Mask32) WithBit(bit int) Mask32 {
	if bit < 0 || bit >= 32 {
		return m
	}
	return m | 1<<bit
}

func (m Mask64) BitLength() int { return bits.Len64(uint64(m)) - 1 }
func (m Mask64) CheckConflict(ex, ey Mask64) bool { return m&(ex|ey) != 0 }
func (m Mask64) MaskOne(bit int) bool { return bit >= 0 && bit < 64 && m&(1<<bit) != 0 }
func (m Mask64) Union(other Mask64) Mask64 { return m | other }
func (m Mask64) Width() int { return 64 }

func (m Mask64) WithBit(bit int) Mask64 {
	if bit < 0 || bit >= 64 {
		return m
	}
	return m | 1<<bit
}

// Raw returns the mask as a plain uint64.
func (m Mask64) Raw() uint64 {
	return uint64(m)
}
