package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"electiondb/lib/names"
	"electiondb/services/candidates"
	"electiondb/services/districts"
	"electiondb/services/terms"
)

// SpecialResult is one decided special election: a vacancy and the winner
// who fills it.
type SpecialResult struct {
	Chamber       string
	DistrictLabel string
	Winner        string
	Party         string
	Votes         int
	ElectionDate  string
	// TakeOffice is the swearing-in date. Empty means the election date.
	TakeOffice string
	// Vacancy is the source's free-text reason the seat opened
	// ("resigned", "died in office", "appointed to Senate").
	Vacancy string
	// Departing names the member who left, used to pick the right seat in
	// multi-member districts.
	Departing string
}

// endReasonFor maps free-text vacancy descriptions onto the ledger's end
// reason vocabulary.
func endReasonFor(vacancy string) string {
	v := strings.ToLower(vacancy)
	switch {
	case strings.Contains(v, "resign"):
		return "resigned"
	case strings.Contains(v, "died"), strings.Contains(v, "death"):
		return "died"
	case strings.Contains(v, "appoint"):
		return "appointed_elsewhere"
	case strings.Contains(v, "expel"), strings.Contains(v, "remov"):
		return "removed"
	default:
		return "vacated"
	}
}

// PopulateSpecials processes decided special elections: close the
// departing member's open term with the mapped end reason, then open the
// winner's term. Both sides go through the ledger so the holder cache
// stays consistent.
func PopulateSpecials(ctx context.Context, cfg Config, results []SpecialResult) (*Tally, error) {
	ctx, span := tracer.Start(ctx, "PopulateSpecials")
	defer span.End()

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

	for _, result := range results {
		res, err := ix.Resolve(result.Chamber, result.DistrictLabel)
		if err != nil {
			if errors.Is(err, districts.ErrUnmatched) {
				slog.WarnContext(ctx, "district unmatched",
					"chamber", result.Chamber, "label", result.DistrictLabel)
				tally.Skip(skipReason(err))
				continue
			}
			return nil, err
		}

		seat, ok := pickSeat(res, result)
		if !ok {
			slog.WarnContext(ctx, "no seat identified for special",
				"label", result.DistrictLabel, "departing", result.Departing)
			tally.Skip("ambiguous_seat")
			continue
		}

		if cfg.DryRun {
			tally.Matched++
			continue
		}

		if err := closeDeparting(ctx, cfg, ledger, seat, result, tally); err != nil {
			return nil, err
		}

		cand, err := resolver.FindOrCreate(ctx, result.Winner)
		if err != nil {
			return nil, err
		}
		start := result.TakeOffice
		if start == "" {
			start = result.ElectionDate
		}
		_, err = ledger.Open(ctx, terms.OpenParams{
			SeatID:        seat.ID,
			CandidateID:   cand.ID,
			CandidateName: result.Winner,
			Party:         result.Party,
			StartDate:     start,
			StartReason:   "special_election",
		})
		if err != nil {
			if errors.Is(err, terms.ErrSeatOccupied) || errors.Is(err, terms.ErrOutOfOrder) {
				slog.WarnContext(ctx, "term rejected",
					"seat", seat.SeatLabel, "winner", result.Winner, "err", err)
				tally.Skip("term_rejected")
				continue
			}
			return nil, err
		}
		tally.Written++

		if err := cfg.pause(ctx); err != nil {
			return nil, err
		}
	}

	if err := cfg.finish(ctx, tally); err != nil {
		return nil, err
	}
	return tally, nil
}

// pickSeat narrows a resolution to the one vacated seat. Single-member
// districts are unambiguous; in multi-member groups the departing member's
// name identifies the seat, then an explicit label hint.
func pickSeat(res districts.Resolution, result SpecialResult) (districts.Seat, bool) {
	if len(res.Seats) == 1 {
		return res.Seats[0], true
	}
	if result.Departing != "" {
		for _, seat := range res.Seats {
			if seat.CurrentHolder != "" &&
				names.Similarity(result.Departing, seat.CurrentHolder) >= names.ThresholdReview {
				return seat, true
			}
		}
	}
	if res.SeatHint != "" {
		for _, seat := range res.Seats {
			if seat.Designator == res.SeatHint {
				return seat, true
			}
		}
	}
	// a fully vacant designator works when exactly one seat is empty
	var vacant []districts.Seat
	for _, seat := range res.Seats {
		if seat.CurrentHolder == "" {
			vacant = append(vacant, seat)
		}
	}
	if len(vacant) == 1 {
		return vacant[0], true
	}
	return districts.Seat{}, false
}

func closeDeparting(
	ctx context.Context,
	cfg Config,
	ledger *terms.Ledger,
	seat districts.Seat,
	result SpecialResult,
	tally *Tally,
) error {
	rows, err := cfg.Gateway.Execute(ctx, fmt.Sprintf(
		"SELECT id FROM seat_terms WHERE seat_id = %d AND end_date IS NULL", seat.ID))
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		// already vacant, nothing to close
		return nil
	}

	endDate := result.ElectionDate
	if result.TakeOffice != "" {
		endDate = result.TakeOffice
	}
	if err := ledger.Close(ctx, rows[0].Int("id"), endDate, endReasonFor(result.Vacancy)); err != nil {
		return err
	}
	tally.Written++
	return nil
}
