package ingest

import (
	"context"
	"log/slog"

	"electiondb/services/terms"
)

// BackfillEndDates reconciles one state's term history: every term missing
// an end date whose successor has a start date gets the successor's start
// date. Idempotent; recorded dates are never touched.
func BackfillEndDates(ctx context.Context, cfg Config) (*Tally, error) {
	ctx, span := tracer.Start(ctx, "BackfillEndDates")
	defer span.End()

	ledger := terms.NewLedger(cfg.Gateway)
	loaded, err := ledger.LoadTerms(ctx, cfg.State)
	if err != nil {
		return nil, err
	}

	tally := NewTally()
	tally.Matched = len(loaded)

	fixes := terms.InferEndDates(loaded)
	for _, f := range fixes {
		slog.InfoContext(ctx, "inferred end date",
			"term_id", f.TermID, "end_date", f.EndDate, "dry_run", cfg.DryRun)
	}

	if !cfg.DryRun && len(fixes) > 0 {
		if err := ledger.ApplyEndDateFixes(ctx, fixes); err != nil {
			return nil, err
		}
		tally.Written = len(fixes)
	}

	if err := cfg.finish(ctx, tally); err != nil {
		return nil, err
	}
	return tally, nil
}
