// Package normalize canonicalizes contact and address text. Everything here
// is deterministic and side-effect free; the same functions run at resolution
// time and at query time so stored and probed values always agree.
package normalize

import (
	"strings"
	"unicode"
)

var countrySuffixes = []string{
	", usa",
	", united states of america",
	", united states",
	", us",
}

// Street-type and directional tokens are contracted to their postal
// abbreviation so "123 North Main Street" and "123 N Main St" compare equal.
var streetTokens = map[string]string{
	"street":    "st",
	"avenue":    "ave",
	"av":        "ave",
	"boulevard": "blvd",
	"drive":     "dr",
	"lane":      "ln",
	"road":      "rd",
	"court":     "ct",
	"circle":    "cir",
	"place":     "pl",
	"terrace":   "ter",
	"highway":   "hwy",
	"parkway":   "pkwy",
	"trail":     "trl",
	"north":     "n",
	"south":     "s",
	"east":      "e",
	"west":      "w",
	"northeast": "ne",
	"northwest": "nw",
	"southeast": "se",
	"southwest": "sw",
	"apartment": "apt",
	"suite":     "ste",
	"unit":      "unit",
}

// Address canonicalizes a postal address fragment: lowercases, strips country
// suffixes, collapses whitespace and punctuation, contracts directional and
// street-type words, and repairs "street name then number" inversions some
// sources produce ("Main St 123" becomes "123 Main St" order).
func Address(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}

	for _, suffix := range countrySuffixes {
		if strings.HasSuffix(s, suffix) {
			s = strings.TrimSuffix(s, suffix)
			break
		}
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '#':
			// "#4" unit markers survive as their number.
		default:
			b.WriteRune(' ')
		}
	}

	fields := strings.Fields(b.String())
	for i, f := range fields {
		if canonical, ok := streetTokens[f]; ok {
			fields[i] = canonical
		}
	}

	fields = repairInversion(fields)
	return strings.Join(fields, " ")
}

// repairInversion moves a trailing house number to the front when the address
// starts with a street name: ["main", "st", "123"] -> ["123", "main", "st"].
// Addresses already leading with a number are left alone.
func repairInversion(fields []string) []string {
	if len(fields) < 2 {
		return fields
	}
	if isNumeric(fields[0]) {
		return fields
	}
	last := fields[len(fields)-1]
	if !isNumeric(last) {
		return fields
	}
	out := make([]string, 0, len(fields))
	out = append(out, last)
	out = append(out, fields[:len(fields)-1]...)
	return out
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// AddressContains reports whether the normalized fragment appears inside the
// normalized full address. Used for the weakest scorer signal.
func AddressContains(address, fragment string) bool {
	a := Address(address)
	f := Address(fragment)
	if a == "" || f == "" {
		return false
	}
	return strings.Contains(a, f)
}

// Phone reduces a phone number to ten domestic digits. An eleven-digit number
// with a leading country 1 is accepted; anything else normalizes to empty
// because partial numbers produce false matches.
func Phone(raw string) string {
	var digits strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if len(d) == 11 && strings.HasPrefix(d, "1") {
		d = d[1:]
	}
	if len(d) != 10 {
		return ""
	}
	return d
}

// Email lowercases and trims an email address, rejecting anything without an
// "@" as not-an-email.
func Email(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if !strings.Contains(s, "@") {
		return ""
	}
	return s
}

// Name collapses whitespace and lowercases for comparison.
func Name(raw string) string {
	return strings.Join(strings.Fields(strings.ToLower(raw)), " ")
}
