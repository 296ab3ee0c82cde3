package sqlgateway

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// Local runs statements against a database/sql handle (sqlite or libsql).
// Used by tests and offline runs; drivers never know the difference.
type Local struct {
	db *sql.DB
}

func NewLocal(db *sql.DB) *Local {
	return &Local{db: db}
}

// Execute splits `;`-joined batches because the sqlite driver only accepts
// one statement per query. Rows from the last statement win, which matches
// how the drivers use batches (homogeneous statements, result ignored or
// uniform).
func (l *Local) Execute(ctx context.Context, query string) ([]Row, error) {
	var last []Row
	for _, stmt := range splitStatements(query) {
		rows, err := l.db.QueryContext(ctx, stmt)
		if err != nil {
			return nil, err
		}
		out, err := collectRows(rows)
		if err != nil {
			return nil, err
		}
		last = out
	}
	return last, nil
}

func splitStatements(query string) []string {
	var out []string
	for _, stmt := range strings.Split(query, ";\n") {
		stmt = strings.TrimSpace(stmt)
		if stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

func collectRows(rows *sql.Rows) ([]Row, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := []Row{}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := Row{}
		for i, col := range columns {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[col] = v
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
