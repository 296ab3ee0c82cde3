package districts

import (
	"strings"

	"electiondb/lib/names"

	"github.com/antzucaro/matchr"
)

// jaroWinklerFloor treats near-identical surnames ("Munoz"/"Muñoz" after
// OCR mangling, "MacDonald"/"Macdonald") as overlapping in the fallback.
const jaroWinklerFloor = 0.92

// ResolveByHolderNames is the last-ditch rule: when a source record's
// labels match nothing (typically an import under a retired redistricting
// cycle), pick the same-chamber district whose current officeholders'
// surnames best overlap the record's candidate surnames. Ties break by
// district number so the result never depends on map order.
func (ix *Index) ResolveByHolderNames(chamber string, candidateNames []string) (Resolution, bool) {
	surnames := make([]string, 0, len(candidateNames))
	for _, n := range candidateNames {
		_, last := names.Split(n)
		if last != "" {
			surnames = append(surnames, names.Normalize(last))
		}
	}
	if len(surnames) == 0 {
		return Resolution{}, false
	}

	type scored struct {
		key     indexKey
		overlap int
	}
	best := scored{}
	for key, seats := range ix.byNumber {
		if key.chamber != chamber {
			continue
		}
		overlap := 0
		for _, seat := range seats {
			if seat.CurrentHolder == "" {
				continue
			}
			_, holderLast := names.Split(seat.CurrentHolder)
			holderLast = names.Normalize(holderLast)
			for _, s := range surnames {
				if s == holderLast || matchr.JaroWinkler(s, holderLast, false) >= jaroWinklerFloor {
					overlap++
					break
				}
			}
		}
		if overlap > best.overlap ||
			(overlap == best.overlap && overlap > 0 && lessKey(key, best.key)) {
			best = scored{key, overlap}
		}
	}

	if best.overlap == 0 {
		return Resolution{}, false
	}
	return Resolution{Seats: ix.byNumber[best.key]}, true
}

func lessKey(a, b indexKey) bool {
	if a.chamber != b.chamber {
		return a.chamber < b.chamber
	}
	return strings.Compare(a.district, b.district) < 0
}
