// Package candidates resolves loosely-formatted source names onto exactly
// one candidate row. Identity is not a stable source key anywhere in the
// feeds, so it has to be inferred by name matching against the full
// candidate table, preloaded once per run.
package candidates

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"electiondb/lib/names"
	"electiondb/lib/sqlgateway"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("electiondb/services/candidates")

type Candidate struct {
	ID        int64
	FullName  string
	FirstName string
	LastName  string
}

// Resolver owns one ingestion run's candidate index and session cache. It
// is not safe for concurrent use; each run constructs its own.
type Resolver struct {
	gw     sqlgateway.Gateway
	byLast map[string][]Candidate
	// raw-name cache so the same string always resolves to the same row
	// within a run, whatever the score of runner-up buckets entries
	cache map[string]Candidate
}

func NewResolver(gw sqlgateway.Gateway) *Resolver {
	return &Resolver{
		gw:     gw,
		byLast: map[string][]Candidate{},
		cache:  map[string]Candidate{},
	}
}

// Load preloads the entire candidate table into the last-name index. One
// full-table read beats per-record lookups by a couple orders of magnitude
// against the remote gateway.
func (r *Resolver) Load(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Load")
	defer span.End()

	rows, err := r.gw.Execute(ctx,
		"SELECT id, full_name, first_name, last_name FROM candidates ORDER BY id")
	if err != nil {
		return fmt.Errorf("preload candidates: %w", err)
	}

	for _, row := range rows {
		r.register(Candidate{
			ID:        row.Int("id"),
			FullName:  row.String("full_name"),
			FirstName: row.String("first_name"),
			LastName:  row.String("last_name"),
		})
	}

	span.SetAttributes(attribute.Int("candidates", len(rows)))
	slog.InfoContext(ctx, "candidate index loaded", "count", len(rows))
	return nil
}

// bucketKey folds case, accents, and punctuation so "Muñoz" and "Munoz"
// land in the same bucket.
func bucketKey(lastName string) string {
	return names.Normalize(lastName)
}

func (r *Resolver) register(c Candidate) {
	r.byLast[bucketKey(c.LastName)] = append(r.byLast[bucketKey(c.LastName)], c)
}

// Resolve finds the best-scoring existing candidate for a display name, or
// reports not-found. Matches at or above the threshold are cached for the
// rest of the run.
func (r *Resolver) Resolve(name string, threshold float64) (Candidate, bool) {
	name = strings.TrimSpace(name)
	if len(name) < 2 {
		return Candidate{}, false
	}

	cacheKey := names.Normalize(name)
	if hit, ok := r.cache[cacheKey]; ok {
		return hit, true
	}

	_, last := names.Split(name)
	if last == "" {
		return Candidate{}, false
	}

	var best Candidate
	bestScore := 0.0
	for _, c := range r.byLast[bucketKey(last)] {
		// strictly-greater keeps the earliest (lowest id) winner on ties,
		// so resolution order never depends on map iteration
		if score := names.Similarity(name, c.FullName); score > bestScore {
			best = c
			bestScore = score
		}
	}

	if bestScore < threshold {
		return Candidate{}, false
	}
	r.cache[cacheKey] = best
	return best, true
}

// Create inserts a new candidate row and registers it back into the index
// and cache, so a second occurrence of the same new name in this run
// collapses onto it instead of inserting again.
func (r *Resolver) Create(ctx context.Context, name string) (Candidate, error) {
	ctx, span := tracer.Start(ctx, "Create")
	defer span.End()
	span.SetAttributes(attribute.String("name", name))

	name = strings.TrimSpace(name)
	first, last := names.Split(name)

	rows, err := r.gw.Execute(ctx, fmt.Sprintf(
		"INSERT INTO candidates (full_name, first_name, last_name) "+
			"VALUES ('%s', '%s', '%s') RETURNING id",
		sqlgateway.Esc(name), sqlgateway.Esc(first), sqlgateway.Esc(last)))
	if err != nil {
		return Candidate{}, fmt.Errorf("create candidate %q: %w", name, err)
	}
	if len(rows) == 0 {
		return Candidate{}, fmt.Errorf("create candidate %q: no id returned", name)
	}

	c := Candidate{
		ID:        rows[0].Int("id"),
		FullName:  name,
		FirstName: first,
		LastName:  last,
	}
	r.register(c)
	r.cache[names.Normalize(name)] = c
	return c, nil
}

// FindOrCreate resolves at the confident threshold and creates on a miss.
func (r *Resolver) FindOrCreate(ctx context.Context, name string) (Candidate, error) {
	if c, ok := r.Resolve(name, names.ThresholdConfident); ok {
		return c, nil
	}
	return r.Create(ctx, name)
}
