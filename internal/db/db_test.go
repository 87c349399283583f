package db

import (
	"path/filepath"
	"testing"
)

func TestOpenMemory(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	defer d.Close()

	var count int
	if err := d.QueryRow("SELECT COUNT(*) FROM audit_entries").Scan(&count); err != nil {
		t.Errorf("audit_entries: %v", err)
	}
	if count != 0 {
		t.Errorf("expected empty table, got %d rows", count)
	}
}

func TestMigrateIdempotent(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	defer d.Close()

	// Running migrate again should not fail.
	if err := d.migrate(); err != nil {
		t.Fatalf("second migrate() error: %v", err)
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data", "sitegrep.db")

	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer d.Close()

	if d.Path() != path {
		t.Errorf("Path() = %q, want %q", d.Path(), path)
	}
	if _, err := d.Exec(`INSERT INTO audit_entries (id, actor_type, actor_id, action) VALUES ('a', 'system', 'test', 'search')`); err != nil {
		t.Errorf("insert: %v", err)
	}

	// CHECK constraint rejects unknown actor types.
	if _, err := d.Exec(`INSERT INTO audit_entries (id, actor_type, actor_id, action) VALUES ('b', 'robot', 'test', 'search')`); err == nil {
		t.Error("expected CHECK constraint failure for actor_type")
	}
}
