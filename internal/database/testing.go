package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TestDatabaseURLEnv names the environment variable holding an integration test DSN.
const TestDatabaseURLEnv = "GRIDLINE_TEST_DATABASE_URL"

// SetupTestDB connects to the integration database and applies the schema.
// The test is skipped when no DSN is configured.
func SetupTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv(TestDatabaseURLEnv)
	if dsn == "" {
		t.Skipf("Integration test - set %s to run", TestDatabaseURLEnv)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("failed to create test database connection: %v", err)
	}
	db := &DB{pool: pool}
	if err := db.Ping(ctx); err != nil {
		t.Fatalf("failed to ping test database: %v", err)
	}
	if err := ApplySchema(ctx, db.Querier()); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}

	t.Cleanup(db.Close)
	return db
}
