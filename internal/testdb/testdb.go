package testdb

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/phrazzld/tasks-api/internal/redact"
)

// TestTimeout bounds setup calls made against a test database.
const TestTimeout = 10 * time.Second

// PostgresURL returns the postgres test database URL or skips t.
func PostgresURL(t testing.TB) string {
	t.Helper()
	return requireURL(t, EnvPostgresURL, EnvDatabaseURL)
}

// MongoDBURL returns the MongoDB test server URL or skips t.
func MongoDBURL(t testing.TB) string {
	t.Helper()
	return requireURL(t, EnvMongoDBURL)
}

func requireURL(t testing.TB, names ...string) string {
	t.Helper()
	name, url := firstEnv(names...)
	if url == "" {
		if IsCI() {
			t.Fatalf("%s must be set for integration tests in CI", names[0])
		}
		t.Skipf("%s not set, skipping integration test", names[0])
	}
	t.Logf("using test database from %s: %s", name, redact.String(url))
	return url
}

// WithTx runs fn inside a transaction that is always rolled back, so the
// test leaves no rows behind.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			t.Errorf("failed to roll back transaction: %v", err)
		}
	}()

	fn(t, tx)
}

// Truncate empties tables when t finishes. Use it for tests that need
// committed rows, such as stores that open their own transactions.
func Truncate(t testing.TB, db *sql.DB, tables ...string) {
	t.Helper()
	t.Cleanup(func() {
		for _, table := range tables {
			if _, err := db.Exec("TRUNCATE TABLE " + table + " CASCADE"); err != nil {
				t.Errorf("failed to truncate %s: %v", table, err)
			}
		}
	})
}
