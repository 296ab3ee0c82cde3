// Package sqlgateway is the persistence boundary for every ingestion
// driver: a single "execute this SQL, give me rows" capability. Callers
// batch many logical rows into one statement and treat any non-transient
// failure as fatal for the batch, since later batches usually carry
// foreign keys into earlier ones.
package sqlgateway

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Row is one result row keyed by column name.
type Row map[string]any

// Int reads a column as int64. The remote endpoint decodes numbers as
// float64 and the sqlite driver returns int64; both are handled.
func (r Row) Int(col string) int64 {
	switch v := r[col].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	}
	return 0
}

func (r Row) String(col string) string {
	switch v := r[col].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func (r Row) Float(col string) float64 {
	switch v := r[col].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	}
	return 0
}

type Gateway interface {
	// Execute runs a SQL statement (or a small `;`-joined batch) and
	// returns the result rows. SELECT-shaped statements return data rows,
	// INSERT ... RETURNING returns the generated ids, everything else
	// returns an empty slice.
	Execute(ctx context.Context, query string) ([]Row, error)
}

// Esc escapes single quotes for SQL string literals.
func Esc(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// Str renders a nullable string literal.
func Str(s string) string {
	if s == "" {
		return "NULL"
	}
	return "'" + Esc(s) + "'"
}
