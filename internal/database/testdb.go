package database

import (
	"context"
	"testing"
)

// NewTestDB creates a fresh in-memory SQLite database with every migration
// applied. It is closed when the test ends.
func NewTestDB(t testing.TB) *DB {
	t.Helper()

	db, err := New(context.Background(), Options{Driver: DriverSQLite, URL: ":memory:"})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	if err := db.migrate("up", silentGooseLogger{}); err != nil {
		db.Close()
		t.Fatalf("migrating test database: %v", err)
	}

	t.Cleanup(db.Close)

	return db
}
