// File: utils/phone.go
package utils

import (
	"strings"

	"groomly/config"
)

// NormalizePhone converts a phone-number-shaped string to the canonical
// "+<digits>" form. All equality comparisons on contact handles must go
// through this first. A local number with a leading zero gets the
// configured default country code.
func NormalizePhone(raw string) string {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	n := digits.String()
	if n == "" {
		return ""
	}

	cc := config.AppConfig.DefaultCountryCode
	if cc == "" {
		cc = "234"
	}

	switch {
	case strings.HasPrefix(n, "00"):
		return "+" + n[2:]
	case strings.HasPrefix(n, "0"):
		return "+" + cc + n[1:]
	default:
		return "+" + n
	}
}
