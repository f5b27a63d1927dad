// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strconv"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Dialable converts a raw phone number into a form the telephony provider
// accepts. Formatting characters are stripped, an existing international
// prefix ("+" or "00") is respected, a bare 10-digit local number gets the
// default country code, and anything else is treated as already carrying a
// country code. When the result parses as a valid number it is canonicalized
// to E.164; otherwise the heuristic result is returned as-is.
func Dialable(raw, defaultCountryCode string) string {
	s := stripFormatting(raw)
	if s == "" {
		return ""
	}

	switch {
	case strings.HasPrefix(s, "+"):
		// already international
	case strings.HasPrefix(s, "00"):
		s = "+" + s[2:]
	case len(s) == 10 && isDigits(s):
		s = defaultCountryCode + s
	default:
		s = "+" + s
	}

	return canonicalize(s, defaultCountryCode)
}

// stripFormatting keeps digits and a leading plus sign, dropping spaces,
// dashes, dots, parentheses and any other separators.
func stripFormatting(raw string) string {
	var b strings.Builder
	for i, r := range strings.TrimSpace(raw) {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			continue
		}
		if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

func canonicalize(s, defaultCountryCode string) string {
	number, err := phonenumbers.Parse(s, regionFor(defaultCountryCode))
	if err != nil {
		return s
	}
	if !phonenumbers.IsValidNumber(number) {
		return s
	}
	return phonenumbers.Format(number, phonenumbers.E164)
}

// regionFor maps a "+NN" calling code to an ISO region for the parser.
func regionFor(countryCode string) string {
	code, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(countryCode), "+"))
	if err != nil {
		return ""
	}
	return phonenumbers.GetRegionCodeForCountryCode(code)
}
