package voice

import "strings"

// minDialableLength is the shortest accepted number, counting the leading +.
const minDialableLength = 10

// PhoneNumber is a destination that went through NormalizeDestination:
// a leading + followed by digits only.
type PhoneNumber string

func (p PhoneNumber) String() string {
	return string(p)
}

// NormalizeDestination turns a caller-supplied destination into a dialable
// number. Everything except ASCII digits is dropped, including any + past
// the prefix, and a single + is prepended. Results shorter than 10
// characters are rejected.
//
// Country codes and upper bounds are not checked; the provider validates the
// number when it dials.
func NormalizeDestination(raw string) (PhoneNumber, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	var b strings.Builder
	b.Grow(len(raw) + 1)
	b.WriteByte('+')
	for _, r := range raw {
		// a + is only meaningful as the prefix, which is always written above
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if len(cleaned) < minDialableLength {
		return "", false
	}
	return PhoneNumber(cleaned), true
}
