package telegram

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Everything arriving over telegram is attacker-reachable input, so the
// handler validates before any of it touches state, logs or the audit log.

var (
	safeNameRe     = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)
	safeMarketIDRe = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,128}$`)
	safeParamRe    = regexp.MustCompile(`^[a-zA-Z0-9_.]{1,64}$`)
)

// SafeName accepts strategy names and similar short identifiers.
func SafeName(s string) bool { return safeNameRe.MatchString(s) }

// SafeMarketID accepts market/condition identifiers.
func SafeMarketID(s string) bool { return safeMarketIDRe.MatchString(s) }

// SafeParam accepts risk parameter names, including dotted strategy caps.
func SafeParam(s string) bool { return safeParamRe.MatchString(s) }

// ValidateNumericValue parses s as a float and checks it against [min, max].
func ValidateNumericValue(s string, min, max float64) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if v < min || v > max {
		return 0, fmt.Errorf("value %g out of range [%g, %g]", v, min, max)
	}
	return v, nil
}

// SanitizeLogMessage strips control characters so user text cannot forge
// log lines or audit entries.
func SanitizeLogMessage(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\n' || r == '\r' || r < 0x20 || r == 0x7f {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(r)
	}
	out := b.String()
	if len(out) > 256 {
		out = out[:256]
	}
	return out
}
