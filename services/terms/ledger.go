// Package terms maintains the append-only record of who holds each seat
// and when. The seats table carries denormalized current-holder columns as
// a read-path cache; every open/close refreshes them in the same gateway
// call sequence, because a stale holder cache is the bug class this data
// set has been burned by before.
package terms

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"electiondb/lib/sqlgateway"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("electiondb/services/terms")

var (
	// ErrSeatOccupied: a seat already has a term with no end date. The
	// caller must close it first.
	ErrSeatOccupied = errors.New("seat already has an open term")
	// ErrAlreadyClosed: double-close of the same term.
	ErrAlreadyClosed = errors.New("term already closed")
	// ErrOutOfOrder: the new term would begin before its predecessor
	// ended. Boundary equality is allowed (same-day transition).
	ErrOutOfOrder = errors.New("term starts before predecessor ended")
)

// Term is one continuous tenure. Dates are ISO strings (YYYY-MM-DD); an
// empty EndDate means currently serving.
type Term struct {
	ID          int64
	SeatID      int64
	CandidateID int64
	Party       string
	Caucus      string
	StartDate   string
	StartReason string
	EndDate     string
	EndReason   string
	ElectionID  int64
}

type Ledger struct {
	gw sqlgateway.Gateway
}

func NewLedger(gw sqlgateway.Gateway) *Ledger {
	return &Ledger{gw: gw}
}

type OpenParams struct {
	SeatID        int64
	CandidateID   int64
	CandidateName string
	Party         string
	Caucus        string
	StartDate     string
	StartReason   string
	ElectionID    int64
}

// Open starts a new term. Fails if the seat still has an open term or if
// the start date precedes the latest recorded end date. On success the
// seat's holder cache is refreshed.
func (l *Ledger) Open(ctx context.Context, p OpenParams) (int64, error) {
	ctx, span := tracer.Start(ctx, "Open")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("seat_id", p.SeatID),
		attribute.Int64("candidate_id", p.CandidateID),
	)

	rows, err := l.gw.Execute(ctx, fmt.Sprintf(
		"SELECT COUNT(*) AS cnt FROM seat_terms WHERE seat_id = %d AND end_date IS NULL",
		p.SeatID))
	if err != nil {
		return 0, err
	}
	if len(rows) > 0 && rows[0].Int("cnt") > 0 {
		return 0, fmt.Errorf("%w: seat %d", ErrSeatOccupied, p.SeatID)
	}

	if p.StartDate != "" {
		rows, err = l.gw.Execute(ctx, fmt.Sprintf(
			"SELECT MAX(end_date) AS latest FROM seat_terms WHERE seat_id = %d",
			p.SeatID))
		if err != nil {
			return 0, err
		}
		if len(rows) > 0 {
			if latest := rows[0].String("latest"); latest != "" && p.StartDate < latest {
				return 0, fmt.Errorf("%w: seat %d start %s < prior end %s",
					ErrOutOfOrder, p.SeatID, p.StartDate, latest)
			}
		}
	}

	caucus := p.Caucus
	if caucus == "" {
		caucus = p.Party
	}
	electionSql := "NULL"
	if p.ElectionID != 0 {
		electionSql = fmt.Sprint(p.ElectionID)
	}
	rows, err = l.gw.Execute(ctx, fmt.Sprintf(
		"INSERT INTO seat_terms (seat_id, candidate_id, party, caucus, "+
			"start_date, start_reason, end_date, end_reason, election_id) "+
			"VALUES (%d, %d, %s, %s, %s, %s, NULL, NULL, %s) RETURNING id",
		p.SeatID, p.CandidateID,
		sqlgateway.Str(p.Party), sqlgateway.Str(caucus),
		sqlgateway.Str(p.StartDate), sqlgateway.Str(p.StartReason),
		electionSql))
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("open term on seat %d: no id returned", p.SeatID)
	}
	termId := rows[0].Int("id")

	_, err = l.gw.Execute(ctx, fmt.Sprintf(
		"UPDATE seats SET current_holder = %s, current_holder_party = %s, "+
			"current_holder_caucus = %s WHERE id = %d",
		sqlgateway.Str(p.CandidateName), sqlgateway.Str(p.Party),
		sqlgateway.Str(caucus), p.SeatID))
	if err != nil {
		return 0, fmt.Errorf("refresh holder cache for seat %d: %w", p.SeatID, err)
	}

	return termId, nil
}

// Close ends a term and clears the seat's holder cache. Fails on a term
// that is already closed.
func (l *Ledger) Close(ctx context.Context, termId int64, endDate, endReason string) error {
	ctx, span := tracer.Start(ctx, "Close")
	defer span.End()
	span.SetAttributes(attribute.Int64("term_id", termId))

	rows, err := l.gw.Execute(ctx, fmt.Sprintf(
		"SELECT seat_id, end_date FROM seat_terms WHERE id = %d", termId))
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("term %d not found", termId)
	}
	if rows[0].String("end_date") != "" {
		return fmt.Errorf("%w: term %d", ErrAlreadyClosed, termId)
	}
	seatId := rows[0].Int("seat_id")

	_, err = l.gw.Execute(ctx, fmt.Sprintf(
		"UPDATE seat_terms SET end_date = %s, end_reason = %s WHERE id = %d",
		sqlgateway.Str(endDate), sqlgateway.Str(endReason), termId))
	if err != nil {
		return err
	}

	_, err = l.gw.Execute(ctx, fmt.Sprintf(
		"UPDATE seats SET current_holder = NULL, current_holder_party = NULL, "+
			"current_holder_caucus = NULL WHERE id = %d", seatId))
	if err != nil {
		return fmt.Errorf("clear holder cache for seat %d: %w", seatId, err)
	}
	return nil
}

// EndDateFix is one inferred backfill produced by InferEndDates.
type EndDateFix struct {
	TermID  int64
	EndDate string
}

// InferEndDates walks one seat's terms in start order and, for any term
// missing an end date whose successor has a start date, borrows the
// successor's start date. Recorded end dates are never overwritten, so
// the operation is idempotent. The input is grouped by seat internally;
// callers can pass a whole state's terms at once.
func InferEndDates(terms []Term) []EndDateFix {
	bySeat := map[int64][]Term{}
	for _, t := range terms {
		bySeat[t.SeatID] = append(bySeat[t.SeatID], t)
	}

	var fixes []EndDateFix
	seatIds := make([]int64, 0, len(bySeat))
	for id := range bySeat {
		seatIds = append(seatIds, id)
	}
	sort.Slice(seatIds, func(i, j int) bool { return seatIds[i] < seatIds[j] })

	for _, seatId := range seatIds {
		seatTerms := bySeat[seatId]
		sort.SliceStable(seatTerms, func(i, j int) bool {
			return seatTerms[i].StartDate < seatTerms[j].StartDate
		})
		for i := 0; i < len(seatTerms)-1; i++ {
			curr := seatTerms[i]
			next := seatTerms[i+1]
			if curr.EndDate == "" && next.StartDate != "" {
				fixes = append(fixes, EndDateFix{TermID: curr.ID, EndDate: next.StartDate})
			}
		}
	}
	return fixes
}

// ApplyEndDateFixes writes inferred end dates in small batches. The end
// reason stays untouched: the inference knows when a tenure ended, not
// why.
func (l *Ledger) ApplyEndDateFixes(ctx context.Context, fixes []EndDateFix) error {
	ctx, span := tracer.Start(ctx, "ApplyEndDateFixes")
	defer span.End()
	span.SetAttributes(attribute.Int("fixes", len(fixes)))

	const batchSize = 20
	for start := 0; start < len(fixes); start += batchSize {
		end := min(start+batchSize, len(fixes))
		stmts := make([]string, 0, end-start)
		for _, f := range fixes[start:end] {
			stmts = append(stmts, fmt.Sprintf(
				"UPDATE seat_terms SET end_date = %s WHERE id = %d AND end_date IS NULL",
				sqlgateway.Str(f.EndDate), f.TermID))
		}
		if _, err := l.gw.Execute(ctx, joinStatements(stmts)); err != nil {
			return err
		}
	}
	return nil
}

func joinStatements(stmts []string) string {
	out := ""
	for i, s := range stmts {
		if i > 0 {
			out += ";\n"
		}
		out += s
	}
	return out
}

// LoadTerms reads every term for one state, oldest first.
func (l *Ledger) LoadTerms(ctx context.Context, state string) ([]Term, error) {
	ctx, span := tracer.Start(ctx, "LoadTerms")
	defer span.End()
	span.SetAttributes(attribute.String("state", state))

	rows, err := l.gw.Execute(ctx, fmt.Sprintf(`
		SELECT st.id, st.seat_id, st.candidate_id, st.party, st.caucus,
		       st.start_date, st.start_reason, st.end_date, st.end_reason
		FROM seat_terms st
		JOIN seats se ON st.seat_id = se.id
		JOIN districts d ON se.district_id = d.id
		JOIN states s ON d.state_id = s.id
		WHERE s.abbreviation = '%s'
		ORDER BY st.seat_id, st.start_date`, sqlgateway.Esc(state)))
	if err != nil {
		return nil, fmt.Errorf("load terms for %s: %w", state, err)
	}

	terms := make([]Term, 0, len(rows))
	for _, r := range rows {
		terms = append(terms, Term{
			ID:          r.Int("id"),
			SeatID:      r.Int("seat_id"),
			CandidateID: r.Int("candidate_id"),
			Party:       r.String("party"),
			Caucus:      r.String("caucus"),
			StartDate:   r.String("start_date"),
			StartReason: r.String("start_reason"),
			EndDate:     r.String("end_date"),
			EndReason:   r.String("end_reason"),
		})
	}
	return terms, nil
}
