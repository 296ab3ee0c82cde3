package districts

import (
	"sort"
	"strings"

	"electiondb/lib/names"
)

// Contender is one source candidate competing within a resolved district.
type Contender struct {
	Name      string
	Party     string
	Incumbent bool
	// SeatHint routes directly to a designator when the source labels
	// sub-seats explicitly.
	SeatHint string
	Votes    int
}

type Assignment struct {
	Seat      Seat
	Contender Contender
	// MatchedIncumbent is set when the contender was recognized as the
	// seat's current holder.
	MatchedIncumbent bool
}

type Skip struct {
	Contender Contender
	Reason    string
}

// Order fixes the tie-break for contenders without an explicit seat hint
// or incumbent claim. The designator is a stable identifier, not a legal
// distinction, so any deterministic rule works; these are the two the
// datasets conventionally use.
type Order int

const (
	// BySurname is used when populating rosters.
	BySurname Order = iota
	// ByVotesDesc is used when assigning winners out of a multi-winner
	// bloc-vote tally.
	ByVotesDesc
)

// Assign routes contenders in a multi-member district onto specific seats:
// explicit seat hints first, then incumbent-name continuity against each
// seat's current holder, then remaining contenders onto remaining seats in
// the requested order. Contenders left over when seats run out are skipped,
// never squeezed onto an occupied seat.
func Assign(seats []Seat, contenders []Contender, order Order) ([]Assignment, []Skip) {
	var assignments []Assignment
	var skips []Skip

	group := make([]Seat, len(seats))
	copy(group, seats)
	sortByDesignator(group)

	byDesignator := map[string]Seat{}
	for _, s := range group {
		byDesignator[s.Designator] = s
	}

	taken := map[int64]bool{}
	var pending []Contender

	hinted := false
	for _, c := range contenders {
		if c.SeatHint != "" {
			hinted = true
			break
		}
	}

	if hinted {
		for _, c := range contenders {
			seat, ok := byDesignator[c.SeatHint]
			if !ok {
				skips = append(skips, Skip{c, "unknown_seat_" + c.SeatHint})
				continue
			}
			assignments = append(assignments, Assignment{
				Seat:             seat,
				Contender:        c,
				MatchedIncumbent: holderMatches(seat, c.Name, names.ThresholdConfident),
			})
		}
		return assignments, skips
	}

	// incumbents claim their own seat first, protecting a specific
	// officeholder's seat identity across elections
	for _, c := range contenders {
		if !c.Incumbent {
			pending = append(pending, c)
			continue
		}
		claimed := false
		for _, seat := range group {
			if taken[seat.ID] {
				continue
			}
			if holderMatches(seat, c.Name, names.ThresholdReview) {
				assignments = append(assignments, Assignment{
					Seat: seat, Contender: c, MatchedIncumbent: true,
				})
				taken[seat.ID] = true
				claimed = true
				break
			}
		}
		if !claimed {
			// flagged incumbent whose name matches no holder: might be an
			// incumbent running for a different seat, treat as ordinary
			pending = append(pending, c)
		}
	}

	sortContenders(pending, order)

	for _, c := range pending {
		placed := false
		for _, seat := range group {
			if taken[seat.ID] {
				continue
			}
			assignments = append(assignments, Assignment{
				Seat:             seat,
				Contender:        c,
				MatchedIncumbent: holderMatches(seat, c.Name, names.ThresholdConfident),
			})
			taken[seat.ID] = true
			placed = true
			break
		}
		if !placed {
			skips = append(skips, Skip{c, "no_available_seat"})
		}
	}

	return assignments, skips
}

func holderMatches(seat Seat, name string, threshold float64) bool {
	if seat.CurrentHolder == "" {
		return false
	}
	return names.Similarity(name, seat.CurrentHolder) >= threshold
}

func sortContenders(cs []Contender, order Order) {
	surname := func(c Contender) string {
		_, last := names.Split(c.Name)
		return strings.ToLower(last)
	}
	sort.SliceStable(cs, func(i, j int) bool {
		if order == ByVotesDesc && cs[i].Votes != cs[j].Votes {
			return cs[i].Votes > cs[j].Votes
		}
		si, sj := surname(cs[i]), surname(cs[j])
		if si != sj {
			return si < sj
		}
		return cs[i].Name < cs[j].Name
	})
}
