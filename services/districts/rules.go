package districts

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// States whose two-member House districts are labeled "1A"/"1B" or
// "1-Position 1" in sources but stored as district "1" with seat
// designators here.
var pairedHouseStates = map[string]bool{
	"WA": true, "ID": true, "NJ": true, "ND": true, "SD": true, "AZ": true,
}

var (
	subSeatRegex  = regexp.MustCompile(`^(\d+)([AB])$`)
	positionRegex = regexp.MustCompile(`^(\d+)-Position\s+(\d+)$`)
)

// translate applies the fixed per-state, per-chamber label transforms.
// These rules are the accumulated residue of every state that refused to
// number its districts like the rest.
func (ix *Index) translate(chamber, label string) (Resolution, bool) {
	switch {
	case ix.State == "MN" && chamber == "House":
		// each MN Senate district N holds House sub-districts NA and NB,
		// stored under 2N-1 and 2N
		if m := subSeatRegex.FindStringSubmatch(label); m != nil {
			senateNum, _ := strconv.Atoi(m[1])
			num := senateNum * 2
			if m[2] == "A" {
				num = senateNum*2 - 1
			}
			if seats, ok := ix.byNumber[indexKey{chamber, strconv.Itoa(num)}]; ok {
				return Resolution{Seats: seats}, true
			}
		}

	case ix.State == "AK" && chamber == "Senate":
		// lettered districts A..T map to 1..20
		if len(label) == 1 && label[0] >= 'A' && label[0] <= 'Z' {
			num := strconv.Itoa(int(label[0]-'A') + 1)
			if seats, ok := ix.byNumber[indexKey{chamber, num}]; ok {
				return Resolution{Seats: seats}, true
			}
		}

	case pairedHouseStates[ix.State] && (chamber == "House" || chamber == "Assembly"):
		base, hint := splitSubSeatLabel(label)
		if base != "" {
			if seats, ok := ix.byNumber[indexKey{chamber, base}]; ok {
				return Resolution{Seats: seats, SeatHint: hint}, true
			}
		}

	case ix.State == "VT":
		if res, ok := ix.translateVermont(chamber, label); ok {
			return res, true
		}
	}

	return Resolution{}, false
}

// splitSubSeatLabel recovers (base district, seat designator) from labels
// like "1A", "1B", or "1-Position 2". Position numbers become letters so
// the designator space is uniform.
func splitSubSeatLabel(label string) (base, designator string) {
	if m := subSeatRegex.FindStringSubmatch(label); m != nil {
		return m[1], m[2]
	}
	if m := positionRegex.FindStringSubmatch(label); m != nil {
		pos, _ := strconv.Atoi(m[2])
		if pos >= 1 && pos <= 26 {
			return m[1], string(rune('A' + pos - 1))
		}
	}
	return "", ""
}

// Vermont names districts after counties and towns, hyphenates compounds
// inconsistently, and appends "-1" to single sub-districts. Its Senate
// sources also split combined districts ("Essex" for "Essex-Orleans").
func (ix *Index) translateVermont(chamber, label string) (Resolution, bool) {
	if strings.HasSuffix(label, "-1") {
		if seats, ok := ix.byNumber[indexKey{chamber, strings.TrimSuffix(label, "-1")}]; ok {
			return Resolution{Seats: seats}, true
		}
	}

	if strings.Contains(label, "-") {
		parts := strings.Split(label, "-")

		if seats, ok := ix.byNumber[indexKey{chamber, strings.Join(parts, " ")}]; ok {
			return Resolution{Seats: seats}, true
		}
		// partial: first i words joined by space, rest by hyphen
		for i := 2; i < len(parts); i++ {
			candidate := strings.Join(parts[:i], " ") + "-" + strings.Join(parts[i:], "-")
			if seats, ok := ix.byNumber[indexKey{chamber, candidate}]; ok {
				return Resolution{Seats: seats}, true
			}
			if trimmed, found := strings.CutSuffix(candidate, "-1"); found {
				if seats, ok := ix.byNumber[indexKey{chamber, trimmed}]; ok {
					return Resolution{Seats: seats}, true
				}
			}
		}
	}

	if chamber == "Senate" {
		spaced := strings.ReplaceAll(label, "-", " ")
		for _, s := range ix.all {
			if s.Chamber != "Senate" {
				continue
			}
			for _, component := range strings.Split(s.DistrictNumber, "-") {
				if component == label || component == spaced {
					return Resolution{
						Seats: ix.byNumber[indexKey{s.Chamber, s.DistrictNumber}],
					}, true
				}
			}
		}
	}

	return Resolution{}, false
}

// Massachusetts ordinals as sources abbreviate them. The canonical rows
// were numbered by sorting the spelled-out names, so translation has to
// replicate that exact spelling before sorting.
var maOrdinals = map[string]string{
	"1st ": "First ", "2nd ": "Second ", "3rd ": "Third ",
	"4th ": "Fourth ", "5th ": "Fifth ",
}

func spellOutOrdinal(name string, chamber string) string {
	if chamber == "Senate" {
		for abbr, word := range maOrdinals {
			if strings.HasPrefix(name, abbr) {
				name = word + strings.TrimPrefix(name, abbr)
				break
			}
		}
	}
	return strings.ReplaceAll(name, ", and ", " and ")
}

// NamedDistrictNumbering assigns sequential numbers to a complete set of
// named district labels by sorting their spelled-out forms
// lexicographically and zipping with 1..N. The label set must be complete
// for the chamber or the numbering will not line up with the stored rows.
func NamedDistrictNumbering(labels []string, chamber string) map[string]string {
	seen := map[string]bool{}
	var spelled []string
	spelledFor := map[string]string{}
	for _, label := range labels {
		label = strings.TrimSuffix(label, " District")
		if seen[label] {
			continue
		}
		seen[label] = true
		s := spellOutOrdinal(label, chamber)
		spelled = append(spelled, s)
		spelledFor[label] = s
	}
	sort.Strings(spelled)

	numberOf := make(map[string]string, len(spelled))
	for i, s := range spelled {
		numberOf[s] = fmt.Sprint(i + 1)
	}

	out := make(map[string]string, len(spelledFor))
	for label, s := range spelledFor {
		out[label] = numberOf[s]
	}
	return out
}
