package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB creates a PostgreSQL container for testing and applies the
// schema. Returns a cleanup function that must be called after tests
// complete.
func setupTestDB(t *testing.T) (*Pool, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := pgcontainer.Run(ctx, "postgres:15-alpine",
		pgcontainer.WithDatabase("testdb"),
		pgcontainer.WithUsername("test"),
		pgcontainer.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err, "failed to create pool")

	applySchema(t, ctx, pool)

	cleanup := func() {
		pool.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return pool, cleanup
}

// applySchema creates the tables under test. Mirrors the embedded
// migration in internal/storage/migrations/postgres; kept inline so the
// package has no import cycle with the migrations package.
func applySchema(t *testing.T, ctx context.Context, pool *Pool) {
	t.Helper()

	schema := `
		CREATE TABLE IF NOT EXISTS race_outcomes (
			event_id        TEXT PRIMARY KEY,
			timestamp_ms    BIGINT NOT NULL,
			winners         INTEGER[] NOT NULL
		);
		CREATE TABLE IF NOT EXISTS payouts (
			event_id        TEXT NOT NULL,
			combination_key TEXT NOT NULL,
			amount          DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (event_id, combination_key)
		);
		CREATE TABLE IF NOT EXISTS backtest_events (
			run_id          TEXT NOT NULL,
			seq             INTEGER NOT NULL,
			timestamp_ms    BIGINT NOT NULL,
			signal_id       TEXT NOT NULL DEFAULT '',
			entity_id       TEXT NOT NULL DEFAULT '',
			stake_amount    DOUBLE PRECISION NOT NULL DEFAULT 0,
			stake_units     INTEGER NOT NULL DEFAULT 0,
			stake_tickets   INTEGER NOT NULL DEFAULT 0,
			stake_cost      DOUBLE PRECISION NOT NULL DEFAULT 0,
			risk_pct        DOUBLE PRECISION NOT NULL DEFAULT 0,
			kelly_fraction  DOUBLE PRECISION NOT NULL DEFAULT 0,
			budget          DOUBLE PRECISION NOT NULL DEFAULT 0,
			payout          DOUBLE PRECISION NOT NULL DEFAULT 0,
			pnl             DOUBLE PRECISION NOT NULL DEFAULT 0,
			is_hit          BOOLEAN NOT NULL DEFAULT FALSE,
			exit_reason     TEXT NOT NULL DEFAULT '',
			balance         DOUBLE PRECISION NOT NULL DEFAULT 0,
			PRIMARY KEY (run_id, seq)
		);
		CREATE TABLE IF NOT EXISTS model_snapshots (
			name            TEXT NOT NULL,
			version         TEXT NOT NULL,
			backend         TEXT NOT NULL,
			payload         BYTEA NOT NULL,
			feature_names   TEXT[] NOT NULL DEFAULT '{}',
			cv_results      JSONB NOT NULL DEFAULT '[]',
			created_at_ms   BIGINT NOT NULL,
			PRIMARY KEY (name, version)
		);
	`
	_, err := pool.Exec(ctx, schema)
	require.NoError(t, err, "failed to apply schema")
}
