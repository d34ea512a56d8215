package sigma

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	// ErrInvalidMaskType is returned by EncodeMask for values that are not sigma masks.
	ErrInvalidMaskType = errors.New("invalid mask type")
	// ErrInvalidMaskSize is returned by DecodeMask when the input length matches no width.
	ErrInvalidMaskSize = errors.New("invalid mask size")
	// ErrMaskWidthMismatch is returned by Decode when the encoded width differs from the target type.
	ErrMaskWidthMismatch = errors.New("mask width mismatch")
)

// EncodeMask serializes a mask big-endian. The output length identifies the width:
// 1, 2, 4, 8, 16, 32, or 64 bytes. Wide masks are written most-significant word first.
func EncodeMask(mask any) ([]byte, error) {
	switch m := mask.(type) {
	case Mask8:
		return []byte{byte(m)}, nil
	case Mask16:
		return binary.BigEndian.AppendUint16(nil, uint16(m)), nil
	case Mask32:
		return binary.BigEndian.AppendUint32(nil, uint32(m)), nil
	case Mask64:
		return binary.BigEndian.AppendUint64(nil, uint64(m)), nil
	case Mask128:
		return encodeWords(m[:]), nil
	case Mask256:
		return encodeWords(m[:]), nil
	case Mask512:
		return encodeWords(m[:]), nil
	case *Mask8, *Mask16, *Mask32, *Mask64, *Mask128, *Mask256, *Mask512:
		return encodePointer(m)
	default:
		return nil, fmt.Errorf("%w: %T", ErrInvalidMaskType, mask)
	}
}

// DecodeMask parses bytes produced by EncodeMask and returns the mask value
// (Mask8 ... Mask512) selected by the input length.
func DecodeMask(data []byte) (any, error) {
	switch len(data) {
	case 1:
		return Mask8(data[0]), nil
	case 2:
		return Mask16(binary.BigEndian.Uint16(data)), nil
	case 4:
		return Mask32(binary.BigEndian.Uint32(data)), nil
	case 8:
		return Mask64(binary.BigEndian.Uint64(data)), nil
	case 16:
		var m Mask128
		decodeWords(m[:], data)
		return m, nil
	case 32:
		var m Mask256
		decodeWords(m[:], data)
		return m, nil
	case 64:
		var m Mask512
		decodeWords(m[:], data)
		return m, nil
	default:
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidMaskSize, len(data))
	}
}

// Decode parses data into the concrete mask type S.
func Decode[S Sigma[S]](data []byte) (S, error) {
	var zero S
	v, err := DecodeMask(data)
	if err != nil {
		return zero, err
	}
	s, ok := v.(S)
	if !ok {
		return zero, fmt.Errorf("%w: got %d bits, want %d", ErrMaskWidthMismatch, len(data)*8, zero.Width())
	}
	return s, nil
}

func encodePointer(mask any) ([]byte, error) {
	switch m := mask.(type) {
	case *Mask8:
		if m != nil {
			return EncodeMask(*m)
		}
	case *Mask16:
		if m != nil {
			return EncodeMask(*m)
		}
	case *Mask32:
		if m != nil {
			return EncodeMask(*m)
		}
	case *Mask64:
		if m != nil {
			return EncodeMask(*m)
		}
	case *Mask128:
		if m != nil {
			return EncodeMask(*m)
		}
	case *Mask256:
		if m != nil {
			return EncodeMask(*m)
		}
	case *Mask512:
		if m != nil {
			return EncodeMask(*m)
		}
	}
	return nil, ErrInvalidMaskType
}

func encodeWords(w []uint64) []byte {
	out := make([]byte, 0, len(w)*8)
	for i := len(w) - 1; i >= 0; i-- {
		out = binary.BigEndian.AppendUint64(out, w[i])
	}
	return out
}

func decodeWords(w []uint64, data []byte) {
	n := len(w)
	for i := 0; i < n; i++ {
		off := (n - 1 - i) * 8
		w[i] = binary.BigEndian.Uint64(data[off : off+8])
	}
}
