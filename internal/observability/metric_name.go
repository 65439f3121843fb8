package observability

import "strings"

const maxMetricNameLength = 100

// MetricName normalizes free text into a valid instrument name: letters,
// digits and underscores only, starting with a letter, at most 100 characters.
func MetricName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "A"
	}
	if !isASCIILetter(name[0]) {
		name = "A" + name
	}
	name = strings.ReplaceAll(name, " ", "_")

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}

	out := b.String()
	if len(out) > maxMetricNameLength {
		out = out[:maxMetricNameLength]
	}
	return out
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
