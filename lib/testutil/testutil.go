package testutil

import (
	"database/sql"
	"fmt"
	"testing"

	"electiondb/db"
	"electiondb/lib/sqlgateway"
	"electiondb/lib/sqliteutil"
	"electiondb/lib/telemetry"
)

type GatewayResult struct {
	DB      *sql.DB
	Gateway *sqlgateway.Local
}

// SetupGateway gives a test an in-memory database behind the same Gateway
// interface the drivers persist through.
func SetupGateway(t testing.TB, name string) (GatewayResult, func()) {
	cleanupTelemetry := telemetry.SetupForTesting(fmt.Sprintf("test:%s", name))

	sqlite, err := sqliteutil.OpenDB(db.Schema, ":memory:")
	if err != nil {
		t.Fatal(err)
	}

	return GatewayResult{
			DB:      sqlite,
			Gateway: sqlgateway.NewLocal(sqlite),
		}, func() {
			sqlite.Close()
			cleanupTelemetry()
		}
}
