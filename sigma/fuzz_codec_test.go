package sigma

import (
	"bytes"
	"testing"
)

// FuzzMaskCodecRoundTrip exercises the mask encode/decode path with arbitrary bytes.
// Goal: no panics; valid-length inputs should roundtrip.
func FuzzMaskCodecRoundTrip(f *testing.F) {
	for _, n := range []int{1, 2, 4, 8, 16, 32, 64} {
		f.Add(make([]byte, n))
	}

	// Invalid sizes.
	f.Add([]byte{})
	f.Add([]byte{1, 2, 3})
	f.Add(make([]byte, 7))
	f.Add(make([]byte, 65))

	f.Fuzz(func(t *testing.T, data []byte) {
		mask, err := DecodeMask(data)
		if err != nil {
			return
		}

		encoded, err := EncodeMask(mask)
		if err != nil {
			t.Fatalf("EncodeMask failed after successful DecodeMask: %v", err)
		}
		if !bytes.Equal(encoded, data) {
			t.Fatalf("roundtrip mismatch: % x vs % x", encoded, data)
		}
	})
}
