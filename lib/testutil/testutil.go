package testutil

import (
	"context"
	"database/sql"
	"gemtracks/internal/db"
	"testing"
)

// OpenDB opens an in-memory database with empty Gems and Songs tables, it
// is closed when the test finishes.
func OpenDB(t testing.TB) *sql.DB {
	sqlite, err := db.OpenSqlite(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { sqlite.Close() })

	err = db.New(sqlite).ResetSchema(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return sqlite
}
