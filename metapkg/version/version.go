// Package version tokenizes arbitrary version strings and imposes a single
// total order over them, regardless of the convention they come from
// (semver-like, date-like, RPM-like or free-form).
package version

import (
	"encoding/json"
	"strings"
	"unicode"
)

// A segment is a maximal run of same-class characters: either all digits,
// compared by integer value, or all non-digit non-separator characters,
// compared by code-point order. Numeric values are kept as strings with
// leading zeros trimmed so arbitrarily long digit runs never overflow.
type segment struct {
	value   string
	numeric bool
}

// Token is an ordered sequence of segments parsed from a raw version string.
// The zero value is the empty token, which sorts below every non-empty one.
type Token struct {
	raw      string
	segments []segment
}

func isSeparator(r rune) bool {
	return r == '.' || r == '-' || r == '_' || unicode.IsSpace(r)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// Parse splits raw into alternating maximal digit and non-digit runs,
// discarding separators. It never fails: any input, including the empty
// string, yields a valid comparable token.
func Parse(raw string) Token {
	t := Token{raw: raw}
	var run strings.Builder
	runNumeric := false

	flush := func() {
		if run.Len() == 0 {
			return
		}
		value := run.String()
		if runNumeric {
			value = strings.TrimLeft(value, "0")
			if value == "" {
				value = "0"
			}
		}
		t.segments = append(t.segments, segment{value: value, numeric: runNumeric})
		run.Reset()
	}

	for _, r := range raw {
		switch {
		case isSeparator(r):
			flush()
		case isDigit(r):
			if run.Len() > 0 && !runNumeric {
				flush()
			}
			runNumeric = true
			run.WriteRune(r)
		default:
			if run.Len() > 0 && runNumeric {
				flush()
			}
			runNumeric = false
			run.WriteRune(r)
		}
	}
	flush()
	return t
}

// Raw returns the original string the token was parsed from.
func (t Token) Raw() string {
	return t.raw
}

// IsEmpty reports whether the token holds no segments at all.
func (t Token) IsEmpty() bool {
	return len(t.segments) == 0
}

// String renders the canonical form: segments joined by a single dot.
// Re-parsing the rendering yields a token equal to the original, though the
// literal text may differ from the raw input.
func (t Token) String() string {
	parts := make([]string, len(t.segments))
	for i, seg := range t.segments {
		parts[i] = seg.value
	}
	return strings.Join(parts, ".")
}

// compareSegments orders two present segments. A numeric segment sorts lower
// than an alphabetic one at the same position: numeric release cores sort
// below alphabetic pre-release and suffix markers.
func compareSegments(a, b segment) int {
	if a.numeric != b.numeric {
		if a.numeric {
			return -1
		}
		return 1
	}
	if a.numeric {
		// Leading zeros are already trimmed, so a longer run is a
		// strictly larger integer.
		if len(a.value) != len(b.value) {
			if len(a.value) < len(b.value) {
				return -1
			}
			return 1
		}
	}
	return strings.Compare(a.value, b.value)
}

// Compare returns -1, 0 or 1. The order is total: segment-wise comparison,
// with the shorter token padded by absent segments that sort below any
// present segment, so "1.2" < "1.2.0" < "1.2.1".
func (t Token) Compare(other Token) int {
	n := len(t.segments)
	if len(other.segments) > n {
		n = len(other.segments)
	}
	for i := 0; i < n; i++ {
		aPresent := i < len(t.segments)
		bPresent := i < len(other.segments)
		switch {
		case !aPresent && !bPresent:
			return 0
		case !aPresent:
			return -1
		case !bPresent:
			return 1
		}
		if c := compareSegments(t.segments[i], other.segments[i]); c != 0 {
			return c
		}
	}
	return 0
}

// Equal reports value equality: same segment sequence, raw text ignored.
func (t Token) Equal(other Token) bool {
	return t.Compare(other) == 0
}

// LessThan reports t < other.
func (t Token) LessThan(other Token) bool {
	return t.Compare(other) < 0
}

// AtLeast reports t >= other.
func (t Token) AtLeast(other Token) bool {
	return t.Compare(other) >= 0
}

// MarshalJSON renders the canonical string form.
func (t Token) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON parses a JSON string into a token. Parsing never fails, so
// only a non-string value is an error.
func (t *Token) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = Parse(raw)
	return nil
}
