package ingest

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"electiondb/lib/sqlgateway"
)

// ErrAlreadyPopulated is the precondition failure for drivers that import
// historical data: the state already has rows of the kind the driver would
// insert, and --force was not given.
var ErrAlreadyPopulated = errors.New("state already populated")

// Config is the shared driver setup. One Config per invocation.
type Config struct {
	Gateway sqlgateway.Gateway
	State   string
	// DryRun resolves and tallies without persisting.
	DryRun bool
	// Force overrides already-populated precondition checks.
	Force bool
	// Pause between persist batches, purely rate-limit courtesy for the
	// remote endpoint. Zero means no pause.
	Pause time.Duration
	// Out receives the tally and verification tables. Nil means stdout.
	Out io.Writer
}

func (c Config) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

func (c Config) pause(ctx context.Context) error {
	if c.Pause <= 0 {
		return nil
	}
	select {
	case <-time.After(c.Pause):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// skipReason extracts the trailing reason token from an unmatched-district
// error for the tally ("no_seat_in_db", "empty_label").
func skipReason(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, ": "); i >= 0 {
		return msg[i+2:]
	}
	return msg
}

// finish runs the shared post-run sequence: verification queries, then the
// findings and tally tables.
func (c Config) finish(ctx context.Context, tally *Tally) error {
	findings, err := Verify(ctx, c.Gateway, c.State)
	if err != nil {
		return err
	}
	RenderFindings(c.out(), findings)
	tally.Render(c.out())
	return nil
}
