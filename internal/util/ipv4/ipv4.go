package ipv4

import (
	"regexp"
	"strconv"
	"strings"
)

// FormatHint is shown to the operator after an invalid entry.
const FormatHint = "expected four decimal octets 0-255 separated by dots, without leading zeros (e.g. 203.0.113.9)"

var digitsOnly = regexp.MustCompile(`^[0-9]+$`)

// IsValid reports whether candidate is a dotted-decimal IPv4 address.
// It never panics and never errors; malformed input yields false.
func IsValid(candidate string) bool {
	if candidate == "" {
		return false
	}
	if strings.Count(candidate, ".") != 3 {
		return false
	}

	parts := strings.Split(candidate, ".")
	if len(parts) != 4 {
		return false
	}

	for _, part := range parts {
		if !digitsOnly.MatchString(part) {
			return false
		}
		// Length guard keeps Atoi away from overflow on absurd input.
		if len(part) > 3 {
			return false
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > 255 {
			return false
		}
		if len(part) > 1 && part[0] == '0' {
			return false
		}
	}

	return true
}
