// Package ingest holds the drivers that move source records into the
// database: fetch, resolve districts and candidates, compute ledger
// deltas, persist through the gateway. Every driver keeps a running tally
// and ends with a verification pass over aggregate counts.
package ingest

import (
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Tally accumulates per-run outcome counts. Skips are bucketed by reason
// string so the summary shows what went wrong, not just how much.
type Tally struct {
	Matched int
	Created int
	Written int
	Skips   map[string]int
}

func NewTally() *Tally {
	return &Tally{Skips: map[string]int{}}
}

func (t *Tally) Skip(reason string) {
	t.Skips[reason]++
}

func (t *Tally) Skipped() int {
	total := 0
	for _, n := range t.Skips {
		total += n
	}
	return total
}

// Render writes the run summary as a table.
func (t *Tally) Render(w io.Writer) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"outcome", "count"})
	tw.AppendRow(table.Row{"matched", t.Matched})
	tw.AppendRow(table.Row{"created", t.Created})
	tw.AppendRow(table.Row{"written", t.Written})
	tw.AppendRow(table.Row{"skipped", t.Skipped()})

	reasons := make([]string, 0, len(t.Skips))
	for r := range t.Skips {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		tw.AppendRow(table.Row{fmt.Sprintf("  skip: %s", r), t.Skips[r]})
	}
	tw.Render()
}
