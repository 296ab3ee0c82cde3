// Package openstates parses the OpenStates current-legislator CSV export,
// the roster source for seat-term population.
package openstates

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

type Legislator struct {
	Name     string
	Party    string
	Chamber  string
	District string
}

// chamberNames maps the export's organization classification onto the
// chamber names the district table uses.
var chamberNames = map[string]string{
	"upper":       "Senate",
	"lower":       "House",
	"legislature": "Senate",
}

// ParseLegislators reads the CSV export. Header names are positionally
// flexible; rows missing a name or district are dropped with an error
// rather than silently, since a partial roster would close seats that are
// actually filled.
func ParseLegislators(r io.Reader) ([]Legislator, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	col := map[string]int{}
	for i, name := range header {
		col[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, required := range []string{"name", "current_chamber", "current_district"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("csv missing column %q", required)
		}
	}

	field := func(record []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var out []Legislator
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		name := field(record, "name")
		district := field(record, "current_district")
		rawChamber := field(record, "current_chamber")
		if name == "" || district == "" {
			return nil, fmt.Errorf("csv line %d: missing name or district", line)
		}
		chamber, ok := chamberNames[rawChamber]
		if !ok {
			return nil, fmt.Errorf("csv line %d: unknown chamber %q", line, rawChamber)
		}

		out = append(out, Legislator{
			Name:     name,
			Party:    field(record, "current_party"),
			Chamber:  chamber,
			District: district,
		})
	}
	return out, nil
}
