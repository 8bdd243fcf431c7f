package db

import (
	"database/sql"
	"testing"
)

// NewTestDB creates a fresh in-memory SQLite database with the schema applied.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	if err := EnsureSchema(db, "sqlite"); err != nil {
		db.Close()
		t.Fatalf("creating test database schema: %v", err)
	}

	t.Cleanup(func() { db.Close() })

	return db
}

// SeedUser inserts a user row for tests.
func SeedUser(t *testing.T, db *sql.DB, id, name, email string) {
	t.Helper()
	if _, err := db.Exec(`INSERT INTO users (id, name, email) VALUES (?, ?, ?)`, id, name, email); err != nil {
		t.Fatalf("seeding user: %v", err)
	}
}

// SeedMaterial inserts a material row for tests.
func SeedMaterial(t *testing.T, db *sql.DB, id, name, category string) {
	t.Helper()
	if _, err := db.Exec(`INSERT INTO materials (id, name, category) VALUES (?, ?, ?)`, id, name, category); err != nil {
		t.Fatalf("seeding material: %v", err)
	}
}

// SeedOrganization inserts an organization row for tests.
func SeedOrganization(t *testing.T, db *sql.DB, id, name string, verified bool) {
	t.Helper()
	if _, err := db.Exec(`INSERT INTO organizations (id, name, verified) VALUES (?, ?, ?)`, id, name, verified); err != nil {
		t.Fatalf("seeding organization: %v", err)
	}
}
