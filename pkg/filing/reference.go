package filing

import (
	"crypto/rand"
	"time"
)

// Reference alphabet excludes easily-confused glyphs (0/O, 1/I/L).
const refAlphabet = "ABCDEFGHJKMNPQRSTVWXYZ23456789"

// NewReference builds a short human-readable submission reference such as
// "JK-7G9Q2M": a two-letter prefix derived from the submission time and six
// characters mixing the timestamp with randomness. References are opaque;
// nothing parses them back.
func NewReference(now time.Time) string {
	letters := refAlphabet[:22]
	buf := make([]byte, 0, 9)
	buf = append(buf,
		letters[now.Year()%len(letters)],
		letters[int(now.Month())%len(letters)],
		'-',
	)

	seed := now.UnixNano()
	entropy := make([]byte, 6)
	_, _ = rand.Read(entropy)
	for i := 0; i < 6; i++ {
		idx := (int(seed>>uint(i*5)) + int(entropy[i])) % len(refAlphabet)
		if idx < 0 {
			idx = -idx
		}
		buf = append(buf, refAlphabet[idx])
	}
	return string(buf)
}
