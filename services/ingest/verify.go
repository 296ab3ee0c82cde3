package ingest

import (
	"context"
	"fmt"
	"io"

	"electiondb/lib/sqlgateway"

	"github.com/jedib0t/go-pretty/v6/table"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("electiondb/services/ingest")

// Finding is one anomaly surfaced by the post-run verification pass.
type Finding struct {
	Check  string
	Detail string
}

// Verify re-queries aggregate counts after a run and flags anomalies:
// seats with more than one open term, elections with zero candidacies,
// occupied seats whose holder cache is empty. Drivers run this before
// declaring success.
func Verify(ctx context.Context, gw sqlgateway.Gateway, state string) ([]Finding, error) {
	ctx, span := tracer.Start(ctx, "Verify")
	defer span.End()
	span.SetAttributes(attribute.String("state", state))

	var findings []Finding

	rows, err := gw.Execute(ctx, fmt.Sprintf(`
		SELECT se.seat_label, COUNT(*) AS open_terms
		FROM seat_terms st
		JOIN seats se ON st.seat_id = se.id
		JOIN districts d ON se.district_id = d.id
		JOIN states s ON d.state_id = s.id
		WHERE s.abbreviation = '%s' AND st.end_date IS NULL
		GROUP BY st.seat_id, se.seat_label HAVING COUNT(*) > 1`, sqlgateway.Esc(state)))
	if err != nil {
		return nil, fmt.Errorf("verify open terms: %w", err)
	}
	for _, r := range rows {
		findings = append(findings, Finding{
			Check: "duplicate_open_terms",
			Detail: fmt.Sprintf("%s has %d open terms",
				r.String("seat_label"), r.Int("open_terms")),
		})
	}

	rows, err = gw.Execute(ctx, fmt.Sprintf(`
		SELECT e.id, se.seat_label, e.election_year, e.election_type
		FROM elections e
		JOIN seats se ON e.seat_id = se.id
		JOIN districts d ON se.district_id = d.id
		JOIN states s ON d.state_id = s.id
		LEFT JOIN candidacies c ON c.election_id = e.id
		WHERE s.abbreviation = '%s'
		GROUP BY e.id, se.seat_label, e.election_year, e.election_type
		HAVING COUNT(c.id) = 0`, sqlgateway.Esc(state)))
	if err != nil {
		return nil, fmt.Errorf("verify empty elections: %w", err)
	}
	for _, r := range rows {
		findings = append(findings, Finding{
			Check: "election_without_candidacies",
			Detail: fmt.Sprintf("%s %d %s", r.String("seat_label"),
				r.Int("election_year"), r.String("election_type")),
		})
	}

	rows, err = gw.Execute(ctx, fmt.Sprintf(`
		SELECT se.seat_label
		FROM seats se
		JOIN districts d ON se.district_id = d.id
		JOIN states s ON d.state_id = s.id
		WHERE s.abbreviation = '%s'
		  AND se.current_holder IS NULL
		  AND EXISTS (
			SELECT 1 FROM seat_terms st
			WHERE st.seat_id = se.id AND st.end_date IS NULL
		  )`, sqlgateway.Esc(state)))
	if err != nil {
		return nil, fmt.Errorf("verify holder cache: %w", err)
	}
	for _, r := range rows {
		findings = append(findings, Finding{
			Check:  "stale_holder_cache",
			Detail: fmt.Sprintf("%s occupied but holder cache empty", r.String("seat_label")),
		})
	}

	span.SetAttributes(attribute.Int("findings", len(findings)))
	return findings, nil
}

// RenderFindings writes the verification section. An empty findings list
// still renders, so a clean run visibly reports clean.
func RenderFindings(w io.Writer, findings []Finding) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"check", "detail"})
	if len(findings) == 0 {
		tw.AppendRow(table.Row{"ok", "no anomalies"})
	}
	for _, f := range findings {
		tw.AppendRow(table.Row{f.Check, f.Detail})
	}
	tw.Render()
}
