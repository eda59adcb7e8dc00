package storage

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
)

func tableExists(t *testing.T, conn *sql.DB, name string) bool {
	t.Helper()
	var found string
	err := conn.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name = ?`, name).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false
	}
	if err != nil {
		t.Fatalf("Failed to query for table %s: %v", name, err)
	}
	return true
}

func TestMigrationManager_Up(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "migration-test.db")

	mgr, err := NewMigrationManager(dbPath)
	if err != nil {
		t.Fatalf("Failed to create migration manager: %v", err)
	}
	if err := mgr.Up(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	// A second Up is a no-op.
	if err := mgr.Up(); err != nil {
		t.Fatalf("Second Up should not fail: %v", err)
	}

	version, dirty, err := mgr.Version()
	if err != nil {
		t.Fatalf("Failed to get migration version: %v", err)
	}
	if dirty {
		t.Error("Database is in dirty state after migrations")
	}
	if version != 3 {
		t.Errorf("Expected migration version 3, got %d", version)
	}
	if err := mgr.Close(); err != nil {
		t.Fatalf("Failed to close migration manager: %v", err)
	}
}

func TestMigrationManager_Tables(t *testing.T) {
	db, err := Open(DefaultConfig(filepath.Join(t.TempDir(), "tables.db")))
	if err != nil {
		t.Fatalf("Failed to open database with migrations: %v", err)
	}
	defer func() { _ = db.Close() }()

	for _, table := range []string{"card_lookups", "printings", "pricing_runs"} {
		if !tableExists(t, db.Conn(), table) {
			t.Errorf("table %s does not exist after migration", table)
		}
	}
}

func TestMigrationManager_Steps(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "steps.db")

	mgr, err := NewMigrationManager(dbPath)
	if err != nil {
		t.Fatalf("Failed to create migration manager: %v", err)
	}
	defer func() { _ = mgr.Close() }()

	if err := mgr.Up(); err != nil {
		t.Fatalf("Failed to run migrations up: %v", err)
	}
	if err := mgr.Steps(-1); err != nil {
		t.Fatalf("Failed to roll back one migration: %v", err)
	}

	version, dirty, err := mgr.Version()
	if err != nil {
		t.Fatalf("Failed to get version: %v", err)
	}
	if dirty || version != 2 {
		t.Errorf("Version after one step down = %d (dirty=%v), want 2", version, dirty)
	}

	if err := mgr.Down(); err != nil {
		t.Fatalf("Failed to roll back all migrations: %v", err)
	}
	version, _, err = mgr.Version()
	if err != nil {
		t.Fatalf("Failed to get version: %v", err)
	}
	if version != 0 {
		t.Errorf("Version after Down = %d, want 0", version)
	}
}

func TestMigrationManager_LookupsKeyedByCurrency(t *testing.T) {
	db, err := Open(DefaultConfig(filepath.Join(t.TempDir(), "currency.db")))
	if err != nil {
		t.Fatalf("Failed to open database with migrations: %v", err)
	}
	defer func() { _ = db.Close() }()

	for _, table := range []string{"card_lookups", "printings"} {
		var found string
		err := db.Conn().QueryRow(`SELECT name FROM pragma_table_info(?) WHERE name = 'currency'`, table).Scan(&found)
		if err != nil {
			t.Errorf("%s has no currency column: %v", table, err)
		}
	}
}

func TestMigrationManager_FreshVersion(t *testing.T) {
	mgr, err := NewMigrationManager(filepath.Join(t.TempDir(), "fresh.db"))
	if err != nil {
		t.Fatalf("Failed to create migration manager: %v", err)
	}
	defer func() { _ = mgr.Close() }()

	version, dirty, err := mgr.Version()
	if err != nil {
		t.Fatalf("Failed to get version: %v", err)
	}
	if version != 0 || dirty {
		t.Errorf("Fresh database version = %d (dirty=%v), want 0", version, dirty)
	}
}
