package names

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	suffixRegex     = regexp.MustCompile(`(?i)(?:,\s*|\s+)(jr|sr|ii|iii|iv)\.?\s*$`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// Normalize canonicalizes a display name for comparison: generational
// suffixes (with or without a separating comma) and diacritics are
// stripped, punctuation from abbreviated initials removed, whitespace
// collapsed, everything lowercased. Idempotent.
func Normalize(name string) string {
	name = suffixRegex.ReplaceAllString(name, "")
	name = stripAccents(name)
	name = strings.ReplaceAll(name, ".", "")
	name = strings.ReplaceAll(name, ",", "")
	name = strings.ToLower(name)
	name = whitespaceRegex.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// NFD-decompose and drop combining marks, so "Muñoz" == "Munoz".
func stripAccents(s string) string {
	decomposed := norm.NFD.String(s)
	var out strings.Builder
	out.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		out.WriteRune(r)
	}
	return out.String()
}

var suffixTokens = map[string]bool{
	"jr": true, "sr": true, "ii": true, "iii": true, "iv": true,
}

// Split breaks a full display name into (first, last). A trailing
// generational suffix is kept with the last name ("Harold Dutton Jr." →
// "Harold", "Dutton Jr."), matching how the candidate table stores names.
func Split(fullName string) (first, last string) {
	parts := strings.Fields(fullName)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return "", parts[0]
	}

	lastIdx := len(parts) - 1
	tail := strings.ToLower(strings.TrimSuffix(parts[lastIdx], "."))
	if suffixTokens[tail] {
		// "Dutton Jr." carries no given name at all: the first token is
		// the surname, and the suffix stays attached to it
		if len(parts) == 2 {
			return "", strings.Join(parts, " ")
		}
		lastIdx--
	}
	return strings.Join(parts[:lastIdx], " "), strings.Join(parts[lastIdx:], " ")
}
