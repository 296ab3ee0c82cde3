package sqlgateway_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"electiondb/lib/sqlgateway"
	"electiondb/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func openMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLocalExecute(t *testing.T) {
	defer telemetry.SetupForTesting("test:sqlgateway-local")()
	gw := sqlgateway.NewLocal(openMemoryDB(t))
	ctx := context.Background()

	_, err := gw.Execute(ctx, `
		CREATE TABLE towns (id INTEGER PRIMARY KEY, name TEXT, population INTEGER);
		INSERT INTO towns (name, population) VALUES ('Montpelier', 8074);
		INSERT INTO towns (name, population) VALUES ('Barre', 8491)`)
	require.NoError(t, err)

	rows, err := gw.Execute(ctx, "SELECT name, population FROM towns ORDER BY id")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "Montpelier", rows[0].String("name"))
	require.Equal(t, int64(8074), rows[0].Int("population"))

	rows, err = gw.Execute(ctx,
		"INSERT INTO towns (name, population) VALUES ('Winooski', 7997) RETURNING id")
	require.NoError(t, err)
	require.Equal(t, int64(3), rows[0].Int("id"))

	// NULL columns read back as empty
	rows, err = gw.Execute(ctx, "SELECT MAX(population) AS top FROM towns WHERE id > 99")
	require.NoError(t, err)
	require.Equal(t, "", rows[0].String("top"))
}

func TestRemoteExecute(t *testing.T) {
	defer telemetry.SetupForTesting("test:sqlgateway-remote")()

	var gotAuth, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotQuery = body["query"]

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(201)
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": 7, "full_name": "Rita Ruiz"},
		})
	}))
	defer server.Close()

	gw := sqlgateway.NewRemote(sqlgateway.RemoteConfig{
		BaseUrl:    server.URL,
		ProjectRef: "abc123",
		Token:      "secret",
	})

	rows, err := gw.Execute(context.Background(), "SELECT * FROM candidates")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, int64(7), rows[0].Int("id"))
	require.Equal(t, "Rita Ruiz", rows[0].String("full_name"))
	require.Equal(t, "Bearer secret", gotAuth)
	require.Equal(t, "SELECT * FROM candidates", gotQuery)
}

func TestRemoteRetriesRateLimit(t *testing.T) {
	defer telemetry.SetupForTesting("test:sqlgateway-retry")()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(429)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(201)
		json.NewEncoder(w).Encode([]map[string]any{})
	}))
	defer server.Close()

	gw := sqlgateway.NewRemote(sqlgateway.RemoteConfig{
		BaseUrl: server.URL,
		Backoff: time.Millisecond,
	})

	_, err := gw.Execute(context.Background(), "SELECT 1")
	require.NoError(t, err)
	require.Equal(t, int32(3), calls.Load())
}

func TestRemoteGivesUpAfterRetries(t *testing.T) {
	defer telemetry.SetupForTesting("test:sqlgateway-giveup")()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(429)
	}))
	defer server.Close()

	gw := sqlgateway.NewRemote(sqlgateway.RemoteConfig{
		BaseUrl: server.URL,
		Retries: 2,
		Backoff: time.Millisecond,
	})

	_, err := gw.Execute(context.Background(), "SELECT 1")
	require.ErrorContains(t, err, "rate limited")
}

func TestRemoteSurfacesErrors(t *testing.T) {
	defer telemetry.SetupForTesting("test:sqlgateway-error")()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(400)
		w.Write([]byte(`{"message": "syntax error at or near \"SELEC\""}`))
	}))
	defer server.Close()

	gw := sqlgateway.NewRemote(sqlgateway.RemoteConfig{BaseUrl: server.URL})

	_, err := gw.Execute(context.Background(), "SELEC 1")
	require.ErrorContains(t, err, "returned 400")
	require.ErrorContains(t, err, "syntax error")
}
