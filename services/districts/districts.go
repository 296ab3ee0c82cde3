// Package districts maps source district labels onto canonical districts
// and seats. Labeling is not uniform across states (numbers, letters,
// lettered sub-districts, county names), so resolution runs a prioritized
// rule chain and refuses to guess when nothing matches.
package districts

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"electiondb/lib/sqlgateway"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("electiondb/services/districts")

// ErrUnmatched means no rule produced a seat. Callers record the record as
// a skip with the wrapped reason, never guess.
var ErrUnmatched = errors.New("district unmatched")

type Seat struct {
	ID                 int64
	DistrictID         int64
	Chamber            string
	DistrictNumber     string
	DistrictName       string
	NumSeats           int
	OfficeType         string
	Designator         string
	SeatLabel          string
	CurrentHolder      string
	CurrentHolderParty string
}

// Resolution is a matched district: one seat for single-member districts,
// the full group (ordered by designator) for multi-member ones. SeatHint
// carries an explicit sub-seat designator recovered from the label itself
// ("62B", "1-Position 2"), when the label had one.
type Resolution struct {
	Seats    []Seat
	SeatHint string
}

type indexKey struct {
	chamber  string
	district string
}

// Index holds one state's seats for one redistricting cycle. Built once
// per run; lookups never hit the database.
type Index struct {
	State string

	byNumber map[indexKey][]Seat
	byName   map[indexKey][]Seat
	all      []Seat
	// named-district numbering (MA): label → canonical district number
	named map[indexKey]string
}

func NewIndex(state string, seats []Seat) *Index {
	ix := &Index{
		State:    state,
		byNumber: map[indexKey][]Seat{},
		byName:   map[indexKey][]Seat{},
		named:    map[indexKey]string{},
		all:      seats,
	}
	for _, s := range seats {
		numKey := indexKey{s.Chamber, s.DistrictNumber}
		ix.byNumber[numKey] = append(ix.byNumber[numKey], s)
		if s.DistrictName != "" {
			nameKey := indexKey{s.Chamber, s.DistrictName}
			ix.byName[nameKey] = append(ix.byName[nameKey], s)
		}
	}
	for _, group := range ix.byNumber {
		sortByDesignator(group)
	}
	return ix
}

func sortByDesignator(seats []Seat) {
	sort.Slice(seats, func(i, j int) bool {
		if seats[i].Designator != seats[j].Designator {
			return seats[i].Designator < seats[j].Designator
		}
		return seats[i].ID < seats[j].ID
	})
}

// LoadIndex reads all legislative seats for a state through the gateway.
func LoadIndex(ctx context.Context, gw sqlgateway.Gateway, state string) (*Index, error) {
	ctx, span := tracer.Start(ctx, "LoadIndex")
	defer span.End()
	span.SetAttributes(attribute.String("state", state))

	rows, err := gw.Execute(ctx, fmt.Sprintf(`
		SELECT
			se.id AS seat_id,
			se.office_type,
			se.seat_designator,
			se.seat_label,
			se.current_holder,
			se.current_holder_party,
			d.id AS district_id,
			d.chamber,
			d.district_number,
			d.district_name,
			d.num_seats
		FROM seats se
		JOIN districts d ON se.district_id = d.id
		JOIN states st ON d.state_id = st.id
		WHERE st.abbreviation = '%s'
		ORDER BY se.id`, sqlgateway.Esc(state)))
	if err != nil {
		return nil, fmt.Errorf("load seats for %s: %w", state, err)
	}

	seats := make([]Seat, 0, len(rows))
	for _, r := range rows {
		seats = append(seats, Seat{
			ID:                 r.Int("seat_id"),
			DistrictID:         r.Int("district_id"),
			Chamber:            r.String("chamber"),
			DistrictNumber:     r.String("district_number"),
			DistrictName:       r.String("district_name"),
			NumSeats:           int(r.Int("num_seats")),
			OfficeType:         r.String("office_type"),
			Designator:         r.String("seat_designator"),
			SeatLabel:          r.String("seat_label"),
			CurrentHolder:      r.String("current_holder"),
			CurrentHolderParty: r.String("current_holder_party"),
		})
	}
	return NewIndex(state, seats), nil
}

// Seats returns every seat in the index, in load order.
func (ix *Index) Seats() []Seat {
	return ix.all
}

// InstallNamedNumbering registers a label → district-number map for states
// whose schema rows carry bare integers derived from named districts (MA).
func (ix *Index) InstallNamedNumbering(chamber string, numbering map[string]string) {
	for label, num := range numbering {
		ix.named[indexKey{chamber, label}] = num
	}
}

// Resolve runs the rule chain for a source label:
// direct number match, state-specific translation, name match with
// punctuation variants. Multi-member districts come back whole; sub-seat
// designators encoded in the label come back as SeatHint.
func (ix *Index) Resolve(chamber, label string) (Resolution, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return Resolution{}, fmt.Errorf("%w: empty_label", ErrUnmatched)
	}

	// 1. direct match
	if seats, ok := ix.byNumber[indexKey{chamber, label}]; ok {
		return Resolution{Seats: seats}, nil
	}
	if seats, ok := ix.byNumber[indexKey{chamber, stripLeadingZeros(label)}]; ok {
		return Resolution{Seats: seats}, nil
	}

	// 2. named-district numbering (installed per-state, see MA)
	if num, ok := ix.named[indexKey{chamber, strings.TrimSuffix(label, " District")}]; ok {
		if seats, ok := ix.byNumber[indexKey{chamber, num}]; ok {
			return Resolution{Seats: seats}, nil
		}
	}

	// 3. state-specific label translation
	if res, ok := ix.translate(chamber, label); ok {
		return res, nil
	}

	// 4. district-name match with punctuation variants
	if seats, ok := ix.lookupByName(chamber, label); ok {
		return Resolution{Seats: seats}, nil
	}

	return Resolution{}, fmt.Errorf("%w: no_seat_in_db", ErrUnmatched)
}

func (ix *Index) lookupByName(chamber, label string) ([]Seat, bool) {
	variants := []string{
		label,
		strings.ReplaceAll(label, "-", " "),
		strings.ReplaceAll(label, " ", "-"),
		strings.TrimSuffix(label, " District"),
	}
	for _, v := range variants {
		if seats, ok := ix.byName[indexKey{chamber, v}]; ok {
			return seats, true
		}
	}

	// last resort: district name containing the label, first match in
	// seat-id order
	lower := strings.ToLower(label)
	for _, s := range ix.all {
		if s.Chamber != chamber || s.DistrictName == "" {
			continue
		}
		if strings.Contains(strings.ToLower(s.DistrictName), lower) {
			return ix.byNumber[indexKey{s.Chamber, s.DistrictNumber}], true
		}
	}
	return nil, false
}

func stripLeadingZeros(s string) string {
	if !isDigits(s) {
		return s
	}
	trimmed := strings.TrimLeft(s, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
