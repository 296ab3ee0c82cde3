package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"electiondb/lib/sqlgateway"
	"electiondb/services/candidates"
	"electiondb/services/districts"
	"electiondb/services/ingest/ballotpedia"
)

// ElectionSpec pins the contest every parsed race belongs to: one
// Ballotpedia candidate list page covers one (chamber, year, type).
type ElectionSpec struct {
	Chamber string
	Year    int
	// Type is the election type key: "Primary_D", "Primary_R", "General",
	// "Special".
	Type string
	Date string
	// MajorPartiesOnly skips minor-party filings, matching how the
	// historical imports were scoped.
	MajorPartiesOnly bool
}

var majorParties = map[string]bool{
	"Democratic":              true,
	"Republican":              true,
	"Democratic-Farmer-Labor": true,
	"Democratic-NPL":          true,
}

// PopulateCandidacies inserts one candidacy per filed candidate: resolve
// the district, ensure the election row for each assigned seat, resolve or
// create the candidate, insert. Inserts are conflict-tolerant on the
// schema's natural keys so a re-run cannot double-insert.
func PopulateCandidacies(
	ctx context.Context,
	cfg Config,
	races []ballotpedia.DistrictRace,
	spec ElectionSpec,
) (*Tally, error) {
	ctx, span := tracer.Start(ctx, "PopulateCandidacies")
	defer span.End()

	ix, err := districts.LoadIndex(ctx, cfg.Gateway, cfg.State)
	if err != nil {
		return nil, err
	}
	resolver := candidates.NewResolver(cfg.Gateway)
	if err := resolver.Load(ctx); err != nil {
		return nil, err
	}
	tally := NewTally()

	for _, race := range races {
		res, err := ix.Resolve(spec.Chamber, race.DistrictLabel)
		if err != nil {
			if errors.Is(err, districts.ErrUnmatched) {
				slog.WarnContext(ctx, "district unmatched",
					"chamber", spec.Chamber, "label", race.DistrictLabel)
				for range race.Candidates {
					tally.Skip(skipReason(err))
				}
				continue
			}
			return nil, err
		}

		var contenders []districts.Contender
		for _, c := range race.Candidates {
			if spec.MajorPartiesOnly && !majorParties[c.Party] {
				tally.Skip("third_party_skipped")
				continue
			}
			contenders = append(contenders, districts.Contender{
				Name:      c.Name,
				Party:     c.Party,
				Incumbent: c.Incumbent,
				SeatHint:  res.SeatHint,
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
			if err := insertCandidacy(ctx, cfg, resolver, spec, a, tally); err != nil {
				return nil, err
			}
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

func insertCandidacy(
	ctx context.Context,
	cfg Config,
	resolver *candidates.Resolver,
	spec ElectionSpec,
	a districts.Assignment,
	tally *Tally,
) error {
	electionId, err := ensureElection(ctx, cfg.Gateway, a.Seat.ID, spec)
	if err != nil {
		return err
	}

	cand, err := resolver.FindOrCreate(ctx, a.Contender.Name)
	if err != nil {
		return err
	}
	tally.Matched++

	incumbent := 0
	if a.Contender.Incumbent {
		incumbent = 1
	}
	_, err = cfg.Gateway.Execute(ctx, fmt.Sprintf(
		"INSERT INTO candidacies (election_id, candidate_id, candidate_name, party, is_incumbent) "+
			"VALUES (%d, %d, '%s', %s, %d) "+
			"ON CONFLICT (election_id, candidate_name) DO NOTHING",
		electionId, cand.ID, sqlgateway.Esc(a.Contender.Name),
		sqlgateway.Str(a.Contender.Party), incumbent))
	if err != nil {
		return fmt.Errorf("insert candidacy %q: %w", a.Contender.Name, err)
	}
	tally.Written++
	return nil
}

// ensureElection inserts the (seat, year, type) election row if missing
// and returns its id either way.
func ensureElection(ctx context.Context, gw sqlgateway.Gateway, seatId int64, spec ElectionSpec) (int64, error) {
	_, err := gw.Execute(ctx, fmt.Sprintf(
		"INSERT INTO elections (seat_id, election_year, election_type, election_date) "+
			"VALUES (%d, %d, '%s', %s) "+
			"ON CONFLICT (seat_id, election_year, election_type) DO NOTHING",
		seatId, spec.Year, sqlgateway.Esc(spec.Type), sqlgateway.Str(spec.Date)))
	if err != nil {
		return 0, fmt.Errorf("ensure election: %w", err)
	}

	rows, err := gw.Execute(ctx, fmt.Sprintf(
		"SELECT id FROM elections WHERE seat_id = %d AND election_year = %d AND election_type = '%s'",
		seatId, spec.Year, sqlgateway.Esc(spec.Type)))
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("election row missing after insert for seat %d", seatId)
	}
	return rows[0].Int("id"), nil
}
