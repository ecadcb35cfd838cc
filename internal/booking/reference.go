package booking

import (
	"crypto/rand"
	"fmt"
)

// referenceAlphabet omits easily confused glyphs (0/O, 1/I/L) so references
// survive being read over the phone.
const referenceAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

const referenceLength = 8

// referenceIndex maps one random byte onto the alphabet. Bytes past the
// largest multiple of the alphabet size are rejected; taking them modulo
// would skew the low glyphs.
func referenceIndex(b byte) (int, bool) {
	limit := 256 - 256%len(referenceAlphabet)
	if int(b) >= limit {
		return 0, false
	}
	return int(b) % len(referenceAlphabet), true
}

// NewReference produces a customer-facing booking reference like VG-7KQ2M9XF.
// Uniqueness is enforced by the database; collisions surface as unique
// violations and the caller retries.
func NewReference() (string, error) {
	out := make([]byte, 0, referenceLength)
	buf := make([]byte, referenceLength)
	for len(out) < referenceLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("generate booking reference: %w", err)
		}
		for _, b := range buf {
			idx, ok := referenceIndex(b)
			if !ok {
				continue
			}
			out = append(out, referenceAlphabet[idx])
			if len(out) == referenceLength {
				break
			}
		}
	}
	return "VG-" + string(out), nil
}
