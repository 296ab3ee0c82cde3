package ingest

import (
	"context"
	"errors"
	"io"

	"electiondb/lib/names"
	"electiondb/services/districts"
	"electiondb/services/ingest/openstates"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Gap is one discrepancy between a scraped roster and the database's
// current-holder view of a seat.
type Gap struct {
	SeatLabel  string
	Holder     string
	RosterName string
	// Kind is one of "holder_mismatch", "seat_vacant_in_db",
	// "district_unmatched", "not_in_roster".
	Kind string
}

// AuditSeatGaps compares a scraped roster against the database without
// writing anything. It exercises the same resolution path the populate
// drivers use, so an audit pass doubles as a dry run of the matcher.
func AuditSeatGaps(ctx context.Context, cfg Config, roster []openstates.Legislator) ([]Gap, error) {
	ctx, span := tracer.Start(ctx, "AuditSeatGaps")
	defer span.End()

	ix, err := districts.LoadIndex(ctx, cfg.Gateway, cfg.State)
	if err != nil {
		return nil, err
	}

	var gaps []Gap
	seen := map[int64]bool{}

	for _, group := range groupByDistrict(roster) {
		res, err := ix.Resolve(group.chamber, group.label)
		if err != nil {
			if errors.Is(err, districts.ErrUnmatched) {
				for _, m := range group.members {
					gaps = append(gaps, Gap{
						SeatLabel:  group.chamber + " " + group.label,
						RosterName: m.Name,
						Kind:       "district_unmatched",
					})
				}
				continue
			}
			return nil, err
		}

		contenders := make([]districts.Contender, 0, len(group.members))
		for _, m := range group.members {
			contenders = append(contenders, districts.Contender{
				Name:     m.Name,
				Party:    m.Party,
				SeatHint: res.SeatHint,
			})
		}
		assignments, skips := districts.Assign(res.Seats, contenders, districts.BySurname)
		for _, s := range skips {
			gaps = append(gaps, Gap{
				SeatLabel:  group.chamber + " " + group.label,
				RosterName: s.Contender.Name,
				Kind:       s.Reason,
			})
		}

		for _, a := range assignments {
			seen[a.Seat.ID] = true
			switch {
			case a.Seat.CurrentHolder == "":
				gaps = append(gaps, Gap{
					SeatLabel:  a.Seat.SeatLabel,
					RosterName: a.Contender.Name,
					Kind:       "seat_vacant_in_db",
				})
			case names.Similarity(a.Contender.Name, a.Seat.CurrentHolder) < names.ThresholdConfident:
				gaps = append(gaps, Gap{
					SeatLabel:  a.Seat.SeatLabel,
					Holder:     a.Seat.CurrentHolder,
					RosterName: a.Contender.Name,
					Kind:       "holder_mismatch",
				})
			}
		}
	}

	for _, seat := range ix.Seats() {
		if !seen[seat.ID] && seat.CurrentHolder != "" {
			gaps = append(gaps, Gap{
				SeatLabel: seat.SeatLabel,
				Holder:    seat.CurrentHolder,
				Kind:      "not_in_roster",
			})
		}
	}
	return gaps, nil
}

func RenderGaps(w io.Writer, gaps []Gap) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"seat", "db holder", "roster", "kind"})
	if len(gaps) == 0 {
		tw.AppendRow(table.Row{"", "", "", "no gaps"})
	}
	for _, g := range gaps {
		tw.AppendRow(table.Row{g.SeatLabel, g.Holder, g.RosterName, g.Kind})
	}
	tw.Render()
}
