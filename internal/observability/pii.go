package observability

import (
	"regexp"
	"sort"
	"strings"
)

// PIIKind names a category of personal data found in user text.
type PIIKind string

const (
	PIIEmail      PIIKind = "email"
	PIIPhone      PIIKind = "phone"
	PIISSN        PIIKind = "ssn"
	PIICreditCard PIIKind = "credit_card"
	PIIIPAddress  PIIKind = "ip_address"
)

// PIIMatch is one occurrence of personal data, as a byte range of the input.
type PIIMatch struct {
	Kind  PIIKind
	Start int
	End   int
}

type piiPattern struct {
	kind  PIIKind
	re    *regexp.Regexp
	valid func(string) bool
}

var piiPatterns = []piiPattern{
	{kind: PIIEmail, re: regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`)},
	{kind: PIICreditCard, re: regexp.MustCompile(`\b(?:\d[ -]?){12,18}\d\b`), valid: luhn},
	{kind: PIISSN, re: regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)},
	{kind: PIIPhone, re: regexp.MustCompile(`(?:\+?1[-. ]?)?\(?\b\d{3}\)?[-. ]\d{3}[-. ]\d{4}\b`)},
	{kind: PIIIPAddress, re: regexp.MustCompile(`\b(?:(?:25[0-5]|2[0-4]\d|1?\d?\d)\.){3}(?:25[0-5]|2[0-4]\d|1?\d?\d)\b`)},
}

// FindPII returns the non-overlapping PII matches in text ordered by position.
// Earlier patterns win when two matches overlap.
func FindPII(text string) []PIIMatch {
	var matches []PIIMatch
	for _, p := range piiPatterns {
		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			if p.valid != nil && !p.valid(text[loc[0]:loc[1]]) {
				continue
			}
			m := PIIMatch{Kind: p.kind, Start: loc[0], End: loc[1]}
			if !overlaps(matches, m) {
				matches = append(matches, m)
			}
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Start < matches[j].Start })
	return matches
}

// ContainsPII reports whether text holds any recognisable personal data.
func ContainsPII(text string) bool {
	return len(FindPII(text)) > 0
}

// RedactPII replaces every PII match with a [KIND_REDACTED] marker.
func RedactPII(text string) string {
	matches := FindPII(text)
	if len(matches) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, m := range matches {
		b.WriteString(text[last:m.Start])
		b.WriteString("[" + strings.ToUpper(string(m.Kind)) + "_REDACTED]")
		last = m.End
	}
	b.WriteString(text[last:])
	return b.String()
}

func overlaps(existing []PIIMatch, m PIIMatch) bool {
	for _, e := range existing {
		if m.Start < e.End && e.Start < m.End {
			return true
		}
	}
	return false
}

// luhn validates a card number, ignoring spaces and dashes.
func luhn(s string) bool {
	digits := strings.NewReplacer(" ", "", "-", "").Replace(s)
	if len(digits) < 13 || len(digits) > 19 {
		return false
	}

	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}
