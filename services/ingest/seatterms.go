package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"electiondb/lib/names"
	"electiondb/lib/sqlgateway"
	"electiondb/services/candidates"
	"electiondb/services/districts"
	"electiondb/services/ingest/openstates"
	"electiondb/services/terms"
)

// PopulateSeatTerms opens one term per roster member: resolve each
// legislator's district, assign seats within multi-member groups, resolve
// or create the candidate row, and open a term with the given start date
// and reason. Fails fast if the state already has legislative terms,
// unless forced.
func PopulateSeatTerms(
	ctx context.Context,
	cfg Config,
	roster []openstates.Legislator,
	startDate, startReason string,
) (*Tally, error) {
	ctx, span := tracer.Start(ctx, "PopulateSeatTerms")
	defer span.End()

	if !cfg.Force {
		rows, err := cfg.Gateway.Execute(ctx, fmt.Sprintf(`
			SELECT COUNT(*) AS cnt
			FROM seat_terms st
			JOIN seats se ON st.seat_id = se.id
			JOIN districts d ON se.district_id = d.id
			JOIN states s ON d.state_id = s.id
			WHERE s.abbreviation = '%s'`, sqlgateway.Esc(cfg.State)))
		if err != nil {
			return nil, err
		}
		if len(rows) > 0 && rows[0].Int("cnt") > 0 {
			return nil, fmt.Errorf("%w: %s has %d seat terms",
				ErrAlreadyPopulated, cfg.State, rows[0].Int("cnt"))
		}
	}

	ix, err := districts.LoadIndex(ctx, cfg.Gateway, cfg.State)
	if err != nil {
		return nil, err
	}
	resolver := candidates.NewResolver(cfg.Gateway)
	if err := resolver.Load(ctx); err != nil {
		return nil, err
	}
	ledger := terms.NewLedger(cfg.Gateway)
	tally := NewTally()

	for _, group := range groupByDistrict(roster) {
		res, err := ix.Resolve(group.chamber, group.label)
		if err != nil {
			if errors.Is(err, districts.ErrUnmatched) {
				slog.WarnContext(ctx, "district unmatched",
					"chamber", group.chamber, "label", group.label)
				for range group.members {
					tally.Skip(skipReason(err))
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
			slog.WarnContext(ctx, "contender skipped",
				"name", s.Contender.Name, "reason", s.Reason)
			tally.Skip(s.Reason)
		}

		for _, a := range assignments {
			if cfg.DryRun {
				tally.Matched++
				continue
			}

			cand, ok := resolver.Resolve(a.Contender.Name, names.ThresholdConfident)
			if !ok {
				cand, err = resolver.Create(ctx, a.Contender.Name)
				if err != nil {
					return nil, err
				}
				tally.Created++
			} else {
				tally.Matched++
			}

			_, err = ledger.Open(ctx, terms.OpenParams{
				SeatID:        a.Seat.ID,
				CandidateID:   cand.ID,
				CandidateName: a.Contender.Name,
				Party:         a.Contender.Party,
				StartDate:     startDate,
				StartReason:   startReason,
			})
			if err != nil {
				if errors.Is(err, terms.ErrSeatOccupied) {
					slog.WarnContext(ctx, "seat already occupied",
						"seat", a.Seat.SeatLabel, "name", a.Contender.Name)
					tally.Skip("seat_occupied")
					continue
				}
				return nil, err
			}
			tally.Written++
		}

		if err := cfg.pause(ctx); err != nil {
			return nil, err
		}
	}

	if err := cfg.finish(ctx, tally); err != nil {
		return nil, err
	}
	return tally, nil
}

type districtGroup struct {
	chamber string
	label   string
	members []openstates.Legislator
}

// groupByDistrict buckets a roster by (chamber, district label) in
// first-seen order, so multi-member districts are assigned as one group.
func groupByDistrict(roster []openstates.Legislator) []*districtGroup {
	type key struct{ chamber, label string }
	index := map[key]*districtGroup{}
	var ordered []*districtGroup
	for _, leg := range roster {
		k := key{leg.Chamber, leg.District}
		g, ok := index[k]
		if !ok {
			g = &districtGroup{chamber: leg.Chamber, label: leg.District}
			index[k] = g
			ordered = append(ordered, g)
		}
		g.members = append(g.members, leg)
	}
	return ordered
}
