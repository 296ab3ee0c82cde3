package names

import "strings"

// Acceptance thresholds shared across callers. Surname mismatch is an
// absolute veto regardless of threshold: duplicate candidate rows are a
// cleanup task, merged identities corrupt electoral history.
const (
	// ThresholdConfident accepts a match on its own.
	ThresholdConfident = 0.7
	// ThresholdReview is only meaningful when the caller has a prior
	// ("this should be the sitting incumbent"); it is never used to merge
	// identities without one.
	ThresholdReview = 0.3
)

// Similarity scores how likely two display names refer to the same person,
// in [0,1]. Handles suffixes, accents, initials, and nicknames.
func Similarity(name1, name2 string) float64 {
	if name1 == "" || name2 == "" {
		return 0
	}

	n1 := Normalize(name1)
	n2 := Normalize(name2)
	if n1 == n2 {
		return 1.0
	}

	parts1 := strings.Fields(n1)
	parts2 := strings.Fields(n2)
	if len(parts1) == 0 || len(parts2) == 0 {
		return 0
	}

	// Last name is a hard gate. Compare final tokens, then fall back to
	// token containment for compound/maiden names
	// ("Caroline Harris" vs "Caroline Harris Davila").
	last1 := parts1[len(parts1)-1]
	last2 := parts2[len(parts2)-1]
	if last1 != last2 && !containsToken(parts2, last1) && !containsToken(parts1, last2) {
		return 0
	}

	first1 := parts1[0]
	first2 := parts2[0]
	if first1 == first2 {
		return 0.9
	}
	if nicknameFirstMatch(parts1, parts2) {
		return 0.9
	}
	// One is a non-trivial prefix of the other (Jon/Jonathan). A single
	// letter is an initial, scored weaker below.
	if len(first1) >= 2 && len(first2) >= 2 &&
		(strings.HasPrefix(first1, first2) || strings.HasPrefix(first2, first1)) {
		return 0.8
	}
	if first1[0] == first2[0] {
		return 0.7
	}

	// Same surname, different given name: plausibly family, never auto-merged.
	return 0.3
}

func containsToken(parts []string, token string) bool {
	for _, p := range parts {
		if p == token {
			return true
		}
	}
	return false
}

// Checks first tokens against the nickname table, including multi-word
// given names ("Maria Luisa Flores" → "Maria Luisa" ↔ "Lulu").
func nicknameFirstMatch(parts1, parts2 []string) bool {
	if SameGroup(parts1[0], parts2[0]) {
		return true
	}
	for split := 2; split < len(parts1); split++ {
		if SameGroup(strings.Join(parts1[:split], " "), parts2[0]) {
			return true
		}
	}
	for split := 2; split < len(parts2); split++ {
		if SameGroup(parts1[0], strings.Join(parts2[:split], " ")) {
			return true
		}
	}
	return false
}
