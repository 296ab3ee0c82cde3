package ingest_test

import (
	"bytes"
	"context"
	"testing"

	"electiondb/lib/sqlgateway"
	"electiondb/lib/testutil"
	"electiondb/services/ingest"
	"electiondb/services/ingest/ballotpedia"
	"electiondb/services/ingest/openstates"
	"electiondb/services/terms"

	"github.com/stretchr/testify/require"
)

// seedNewHampshire sets up a small chamber: two House districts and one
// Senate district, one seat each.
func seedNewHampshire(t *testing.T, gw sqlgateway.Gateway) {
	t.Helper()
	_, err := gw.Execute(context.Background(), `
		INSERT INTO states (id, abbreviation, name) VALUES (1, 'NH', 'New Hampshire');
		INSERT INTO districts (id, state_id, chamber, district_number) VALUES (1, 1, 'House', 'Cheshire 1');
		INSERT INTO districts (id, state_id, chamber, district_number) VALUES (2, 1, 'House', 'Cheshire 2');
		INSERT INTO districts (id, state_id, chamber, district_number) VALUES (3, 1, 'Senate', '4');
		INSERT INTO seats (id, district_id, office_type, office_level, seat_label) VALUES (1, 1, 'State House', 'state', 'NH House Cheshire 1');
		INSERT INTO seats (id, district_id, office_type, office_level, seat_label) VALUES (2, 2, 'State House', 'state', 'NH House Cheshire 2');
		INSERT INTO seats (id, district_id, office_type, office_level, seat_label) VALUES (3, 3, 'State Senate', 'state', 'NH Senate 4')`)
	require.NoError(t, err)
}

func config(gw sqlgateway.Gateway) ingest.Config {
	return ingest.Config{
		Gateway: gw,
		State:   "NH",
		Out:     &bytes.Buffer{},
	}
}

func TestPopulateSeatTerms(t *testing.T) {
	res, cleanup := testutil.SetupGateway(t, "ingest-seat-terms")
	defer cleanup()
	ctx := context.Background()
	seedNewHampshire(t, res.Gateway)

	roster := []openstates.Legislator{
		{Name: "Rita Ruiz", Party: "Democratic", Chamber: "House", District: "Cheshire 1"},
		{Name: "Sam Stone", Party: "Republican", Chamber: "House", District: "Cheshire 2"},
		{Name: "Nina Patel", Party: "Democratic", Chamber: "Senate", District: "4"},
	}

	tally, err := ingest.PopulateSeatTerms(ctx, config(res.Gateway), roster, "2024-12-04", "elected")
	require.NoError(t, err)
	require.Equal(t, 3, tally.Written)
	require.Equal(t, 3, tally.Created)
	require.Zero(t, tally.Skipped())

	rows, err := res.Gateway.Execute(ctx, "SELECT COUNT(*) AS cnt FROM seat_terms WHERE end_date IS NULL")
	require.NoError(t, err)
	require.Equal(t, int64(3), rows[0].Int("cnt"))

	rows, err = res.Gateway.Execute(ctx, "SELECT current_holder FROM seats WHERE id = 1")
	require.NoError(t, err)
	require.Equal(t, "Rita Ruiz", rows[0].String("current_holder"))

	// precondition guards the re-run
	_, err = ingest.PopulateSeatTerms(ctx, config(res.Gateway), roster, "2024-12-04", "elected")
	require.ErrorIs(t, err, ingest.ErrAlreadyPopulated)
}

func TestPopulateSeatTermsUnmatchedDistrict(t *testing.T) {
	res, cleanup := testutil.SetupGateway(t, "ingest-seat-terms-unmatched")
	defer cleanup()
	seedNewHampshire(t, res.Gateway)

	roster := []openstates.Legislator{
		{Name: "Rita Ruiz", Party: "Democratic", Chamber: "House", District: "Cheshire 1"},
		{Name: "Gil Ghost", Party: "Republican", Chamber: "House", District: "Atlantis 9"},
	}

	tally, err := ingest.PopulateSeatTerms(context.Background(), config(res.Gateway), roster, "2024-12-04", "elected")
	require.NoError(t, err)
	require.Equal(t, 1, tally.Written)
	require.Equal(t, 1, tally.Skips["no_seat_in_db"])
}

func TestPopulateSeatTermsDryRun(t *testing.T) {
	res, cleanup := testutil.SetupGateway(t, "ingest-seat-terms-dry")
	defer cleanup()
	ctx := context.Background()
	seedNewHampshire(t, res.Gateway)

	cfg := config(res.Gateway)
	cfg.DryRun = true
	tally, err := ingest.PopulateSeatTerms(ctx, cfg, []openstates.Legislator{
		{Name: "Rita Ruiz", Party: "Democratic", Chamber: "House", District: "Cheshire 1"},
	}, "2024-12-04", "elected")
	require.NoError(t, err)
	require.Zero(t, tally.Written)

	rows, err := res.Gateway.Execute(ctx, "SELECT COUNT(*) AS cnt FROM seat_terms")
	require.NoError(t, err)
	require.Zero(t, rows[0].Int("cnt"))
}

func TestPopulateCandidacies(t *testing.T) {
	res, cleanup := testutil.SetupGateway(t, "ingest-candidacies")
	defer cleanup()
	ctx := context.Background()
	seedNewHampshire(t, res.Gateway)

	races := []ballotpedia.DistrictRace{
		{
			DistrictLabel: "Cheshire 1",
			Candidates: []ballotpedia.Candidate{
				{Name: "Rita Ruiz", Party: "Democratic", Incumbent: true},
				{Name: "Vic Verne", Party: "Libertarian"},
			},
		},
		{
			DistrictLabel: "Cheshire 2",
			Candidates: []ballotpedia.Candidate{
				{Name: "Sam Stone", Party: "Democratic"},
			},
		},
	}
	spec := ingest.ElectionSpec{
		Chamber:          "House",
		Year:             2026,
		Type:             "Primary_D",
		Date:             "2026-09-08",
		MajorPartiesOnly: true,
	}

	tally, err := ingest.PopulateCandidacies(ctx, config(res.Gateway), races, spec)
	require.NoError(t, err)
	require.Equal(t, 2, tally.Written)
	require.Equal(t, 1, tally.Skips["third_party_skipped"])

	rows, err := res.Gateway.Execute(ctx, "SELECT COUNT(*) AS cnt FROM elections")
	require.NoError(t, err)
	require.Equal(t, int64(2), rows[0].Int("cnt"))

	rows, err = res.Gateway.Execute(ctx,
		"SELECT candidate_name, is_incumbent FROM candidacies ORDER BY id")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "Rita Ruiz", rows[0].String("candidate_name"))
	require.Equal(t, int64(1), rows[0].Int("is_incumbent"))

	// re-run lands on the unique keys instead of duplicating
	_, err = ingest.PopulateCandidacies(ctx, config(res.Gateway), races, spec)
	require.NoError(t, err)

	rows, err = res.Gateway.Execute(ctx, "SELECT COUNT(*) AS cnt FROM candidacies")
	require.NoError(t, err)
	require.Equal(t, int64(2), rows[0].Int("cnt"))
}

func TestPopulateSpecials(t *testing.T) {
	res, cleanup := testutil.SetupGateway(t, "ingest-specials")
	defer cleanup()
	ctx := context.Background()
	seedNewHampshire(t, res.Gateway)

	// sitting member on the Senate seat
	_, err := res.Gateway.Execute(ctx,
		"INSERT INTO candidates (id, full_name, first_name, last_name) VALUES (1, 'Omar Osei', 'Omar', 'Osei')")
	require.NoError(t, err)
	ledger := terms.NewLedger(res.Gateway)
	_, err = ledger.Open(ctx, terms.OpenParams{
		SeatID: 3, CandidateID: 1, CandidateName: "Omar Osei",
		Party: "Republican", StartDate: "2022-12-07", StartReason: "elected",
	})
	require.NoError(t, err)

	tally, err := ingest.PopulateSpecials(ctx, config(res.Gateway), []ingest.SpecialResult{{
		Chamber:       "Senate",
		DistrictLabel: "4",
		Winner:        "Wanda Wells",
		Party:         "Democratic",
		Votes:         4120,
		ElectionDate:  "2025-07-22",
		TakeOffice:    "2025-08-01",
		Vacancy:       "Osei resigned to take a federal appointment",
		Departing:     "Omar Osei",
	}})
	require.NoError(t, err)
	require.Equal(t, 2, tally.Written) // one close, one open

	rows, err := res.Gateway.Execute(ctx,
		"SELECT end_date, end_reason FROM seat_terms WHERE candidate_id = 1")
	require.NoError(t, err)
	require.Equal(t, "2025-08-01", rows[0].String("end_date"))
	require.Equal(t, "resigned", rows[0].String("end_reason"))

	rows, err = res.Gateway.Execute(ctx, "SELECT current_holder FROM seats WHERE id = 3")
	require.NoError(t, err)
	require.Equal(t, "Wanda Wells", rows[0].String("current_holder"))
}

func TestBackfillEndDates(t *testing.T) {
	res, cleanup := testutil.SetupGateway(t, "ingest-backfill")
	defer cleanup()
	ctx := context.Background()
	seedNewHampshire(t, res.Gateway)

	_, err := res.Gateway.Execute(ctx, `
		INSERT INTO candidates (id, full_name) VALUES (1, 'Rita Ruiz');
		INSERT INTO candidates (id, full_name) VALUES (2, 'Sam Stone');
		INSERT INTO seat_terms (id, seat_id, candidate_id, start_date) VALUES (1, 1, 1, '2021-01-06');
		INSERT INTO seat_terms (id, seat_id, candidate_id, start_date, end_date) VALUES (2, 1, 2, '2023-01-04', '2024-12-04')`)
	require.NoError(t, err)

	tally, err := ingest.BackfillEndDates(ctx, config(res.Gateway))
	require.NoError(t, err)
	require.Equal(t, 1, tally.Written)

	rows, err := res.Gateway.Execute(ctx, "SELECT end_date FROM seat_terms WHERE id = 1")
	require.NoError(t, err)
	require.Equal(t, "2023-01-04", rows[0].String("end_date"))

	// idempotent
	tally, err = ingest.BackfillEndDates(ctx, config(res.Gateway))
	require.NoError(t, err)
	require.Zero(t, tally.Written)
}

func TestAuditSeatGaps(t *testing.T) {
	res, cleanup := testutil.SetupGateway(t, "ingest-audit")
	defer cleanup()
	ctx := context.Background()
	seedNewHampshire(t, res.Gateway)

	_, err := res.Gateway.Execute(ctx, `
		UPDATE seats SET current_holder = 'Rita Ruiz' WHERE id = 1;
		UPDATE seats SET current_holder = 'Sam Stone' WHERE id = 2;
		UPDATE seats SET current_holder = 'Omar Osei' WHERE id = 3`)
	require.NoError(t, err)

	gaps, err := ingest.AuditSeatGaps(ctx, config(res.Gateway), []openstates.Legislator{
		// matches, nickname-insensitive
		{Name: "Rita Ruiz", Chamber: "House", District: "Cheshire 1"},
		// wrong person on record
		{Name: "Dana Drew", Chamber: "House", District: "Cheshire 2"},
		// Senate seat 3 absent from the roster entirely
	})
	require.NoError(t, err)
	require.Len(t, gaps, 2)

	kinds := map[string]string{}
	for _, g := range gaps {
		kinds[g.Kind] = g.SeatLabel
	}
	require.Equal(t, "NH House Cheshire 2", kinds["holder_mismatch"])
	require.Equal(t, "NH Senate 4", kinds["not_in_roster"])

	// read-only: no rows written
	rows, err := res.Gateway.Execute(ctx, "SELECT COUNT(*) AS cnt FROM seat_terms")
	require.NoError(t, err)
	require.Zero(t, rows[0].Int("cnt"))
}

func TestVerifyFlagsEmptyElection(t *testing.T) {
	res, cleanup := testutil.SetupGateway(t, "ingest-verify")
	defer cleanup()
	ctx := context.Background()
	seedNewHampshire(t, res.Gateway)

	_, err := res.Gateway.Execute(ctx,
		"INSERT INTO elections (seat_id, election_year, election_type) VALUES (1, 2026, 'General')")
	require.NoError(t, err)

	findings, err := ingest.Verify(ctx, res.Gateway, "NH")
	require.NoError(t, err)
	require.Len(t, findings, 1)
	require.Equal(t, "election_without_candidacies", findings[0].Check)
}
