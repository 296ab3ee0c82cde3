// Package ballotpedia downloads and parses candidate list tables from
// Ballotpedia election pages. Page layout knowledge lives here; drivers
// only see district labels and candidate entries.
package ballotpedia

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"electiondb/lib/htmlutil"
	"electiondb/lib/telemetry"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("electiondb/services/ingest/ballotpedia")

type Candidate struct {
	Name  string
	Party string
	// Incumbent reflects the page's "(i)" marker next to the name.
	Incumbent bool
}

// DistrictRace is one row of a candidate list table: every filed candidate
// in one district.
type DistrictRace struct {
	DistrictLabel string
	Candidates    []Candidate
}

type Client struct {
	client *resty.Client
}

func NewClient() *Client {
	client := resty.New()
	telemetry.InstrumentResty(client, "ballotpedia")
	return &Client{client: client}
}

func (c *Client) FetchRaces(ctx context.Context, url string) ([]DistrictRace, error) {
	ctx, span := tracer.Start(ctx, "FetchRaces")
	defer span.End()
	span.SetAttributes(attribute.String("url", url))

	res, err := c.client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, err
	}
	if res.StatusCode() != 200 {
		return nil, fmt.Errorf("fetch %s: status %d", url, res.StatusCode())
	}

	races, err := ParseRaces(bytes.NewReader(res.Body()))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}
	span.SetAttributes(attribute.Int("races", len(races)))
	return races, nil
}

// ParseRaces reads the partisan candidate list table: a header row naming
// the party of each column after the first, then one row per district with
// newline-separated candidate names. A trailing "(i)" marks an incumbent.
func ParseRaces(r io.Reader) ([]DistrictRace, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	table := doc.Find("table.candidateListTablePartisan").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("no candidate list table in document")
	}

	var parties []string
	table.Find("tr").First().Find("th").Each(func(i int, th *goquery.Selection) {
		if i > 0 {
			parties = append(parties, htmlutil.CleanText(th))
		}
	})
	if len(parties) == 0 {
		return nil, fmt.Errorf("candidate list table has no party columns")
	}

	var races []DistrictRace
	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return
		}
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}

		race := DistrictRace{
			DistrictLabel: htmlutil.CleanText(cells.First()),
		}
		cells.Each(func(j int, cell *goquery.Selection) {
			if j == 0 || j > len(parties) {
				return
			}
			for _, line := range cellLines(cell) {
				name, incumbent := stripIncumbentMarker(line)
				if name == "" {
					continue
				}
				race.Candidates = append(race.Candidates, Candidate{
					Name:      name,
					Party:     parties[j-1],
					Incumbent: incumbent,
				})
			}
		})
		if race.DistrictLabel != "" {
			races = append(races, race)
		}
	})
	return races, nil
}

// cellLines splits a candidate cell on its line structure. Names are
// usually anchor tags; a bare-text cell holds at most one name.
func cellLines(cell *goquery.Selection) []string {
	var lines []string
	links := cell.Find("a")
	if links.Length() > 0 {
		links.Each(func(_ int, a *goquery.Selection) {
			// the "(i)" marker sits outside the anchor text, so check
			// the anchor's trailing sibling text as well
			text := htmlutil.CleanText(a)
			if next := a.Get(0).NextSibling; next != nil {
				text += htmlutil.GetText(next)
			}
			lines = append(lines, text)
		})
		return lines
	}
	for _, line := range strings.Split(cell.Text(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func stripIncumbentMarker(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, marker := range []string{"(i)", "(I)"} {
		if strings.HasSuffix(s, marker) {
			return strings.TrimSpace(strings.TrimSuffix(s, marker)), true
		}
	}
	return s, false
}
