package injector

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

var baseTime = time.Date(2024, 3, 1, 10, 0, 0, 0, time.Local)

func TestBackupPathRoundTrip(t *testing.T) {
	path := filepath.Join("docs", "a.html")
	bp := BackupPath(path, baseTime)
	if bp != path+".backup.2024-03-01-10-00-00" {
		t.Fatalf("BackupPath() = %q", bp)
	}

	original, taken, ok := ParseBackupPath(bp)
	if !ok {
		t.Fatal("ParseBackupPath() failed")
	}
	if original != path {
		t.Errorf("original = %q, want %q", original, path)
	}
	if !taken.Equal(baseTime) {
		t.Errorf("taken = %v, want %v", taken, baseTime)
	}
}

func TestParseBackupPathRejects(t *testing.T) {
	for _, p := range []string{
		"a.html",
		"a.html.backup.",
		"a.html.backup.yesterday",
		"notes.txt.backup.2024-03-01-10-00-00",
		".backup.2024-03-01-10-00-00",
	} {
		if _, _, ok := ParseBackupPath(p); ok {
			t.Errorf("ParseBackupPath(%q) should fail", p)
		}
	}
}

func seedBackups(t *testing.T, doc string, n int) []string {
	t.Helper()
	var paths []string
	for i := 0; i < n; i++ {
		p := BackupPath(doc, baseTime.Add(time.Duration(i)*time.Hour))
		writeFile(t, p, "v"+string(rune('0'+i)))
		paths = append(paths, p)
	}
	return paths
}

func TestListFor(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "a.html")
	writeFile(t, doc, "current")
	seeded := seedBackups(t, doc, 3)
	// A backup of a different document sharing the prefix.
	writeFile(t, BackupPath(filepath.Join(dir, "a.html5.html"), baseTime), "other")

	backups, err := ListFor(doc)
	if err != nil {
		t.Fatalf("ListFor() error: %v", err)
	}
	if len(backups) != 3 {
		t.Fatalf("expected 3 backups, got %d", len(backups))
	}
	for i, b := range backups {
		if b.Path != seeded[i] {
			t.Errorf("backups[%d] = %q, want %q", i, b.Path, seeded[i])
		}
		if b.Original != doc {
			t.Errorf("Original = %q, want %q", b.Original, doc)
		}
		if b.Size != 2 {
			t.Errorf("Size = %d, want 2", b.Size)
		}
	}
}

func TestList(t *testing.T) {
	root := t.TempDir()
	seedBackups(t, filepath.Join(root, "b.html"), 2)
	seedBackups(t, filepath.Join(root, "docs", "a.htm"), 1)
	seedBackups(t, filepath.Join(root, "node_modules", "x.html"), 1)

	backups, err := List(context.Background(), root)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(backups) != 3 {
		t.Fatalf("expected 3 backups, got %d: %+v", len(backups), backups)
	}
	if backups[0].Original != filepath.Join(root, "b.html") || backups[2].Original != filepath.Join(root, "docs", "a.htm") {
		t.Errorf("unexpected grouping: %+v", backups)
	}
}

func TestList_MissingRoot(t *testing.T) {
	if _, err := List(context.Background(), filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing root")
	}
}

func TestRetentionExpired(t *testing.T) {
	var backups []Backup
	for i := 0; i < 4; i++ {
		backups = append(backups, Backup{Path: string(rune('a' + i)), Taken: baseTime.Add(time.Duration(i) * 24 * time.Hour)})
	}
	now := baseTime.Add(4 * 24 * time.Hour)

	tests := []struct {
		name string
		r    Retention
		want string
	}{
		{"unlimited", Retention{}, ""},
		{"keep 2", Retention{Keep: 2}, "ab"},
		{"keep more than present", Retention{Keep: 10}, ""},
		{"max age", Retention{MaxAge: 60 * time.Hour}, "ab"},
		{"both", Retention{Keep: 3, MaxAge: 80 * time.Hour}, "a"},
		{"keep 1 and tight age", Retention{Keep: 1, MaxAge: time.Hour}, "abcd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			for _, b := range tt.r.Expired(backups, now) {
				got += b.Path
			}
			if got != tt.want {
				t.Errorf("Expired() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPruneFile_KeepTwo(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "a.html")
	writeFile(t, doc, "current")
	seeded := seedBackups(t, doc, 3)

	removed, err := PruneFile(doc, Retention{Keep: 2}, baseTime.Add(10*time.Hour))
	if err != nil {
		t.Fatalf("PruneFile() error: %v", err)
	}
	if len(removed) != 1 || removed[0].Path != seeded[0] {
		t.Fatalf("removed = %+v, want only the oldest", removed)
	}
	if _, err := os.Stat(seeded[0]); !os.IsNotExist(err) {
		t.Error("oldest backup should be gone")
	}
	for _, p := range seeded[1:] {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("%s should remain: %v", p, err)
		}
	}
}

func TestPruneFile_Disabled(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "a.html")
	seedBackups(t, doc, 3)

	removed, err := PruneFile(doc, Retention{}, time.Now())
	if err != nil || len(removed) != 0 {
		t.Errorf("PruneFile() = %v, %v; want nothing removed", removed, err)
	}
}

func TestPruneAll(t *testing.T) {
	root := t.TempDir()
	seedBackups(t, filepath.Join(root, "a.html"), 3)
	seedBackups(t, filepath.Join(root, "sub", "b.html"), 2)

	removed, err := PruneAll(context.Background(), root, Retention{Keep: 1}, baseTime)
	if err != nil {
		t.Fatalf("PruneAll() error: %v", err)
	}
	if len(removed) != 3 {
		t.Errorf("expected 3 removed, got %d", len(removed))
	}
	left, err := List(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	if len(left) != 2 {
		t.Errorf("expected one backup per document to remain, got %d", len(left))
	}
}

func TestRestore(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "a.html")
	writeFile(t, doc, "modified")
	writeFile(t, BackupPath(doc, baseTime), "older")
	newest := BackupPath(doc, baseTime.Add(time.Minute))
	writeFile(t, newest, "<html>original\x00bytes</html>")

	b, err := Restore(doc)
	if err != nil {
		t.Fatalf("Restore() error: %v", err)
	}
	if b.Path != newest {
		t.Errorf("restored from %q, want %q", b.Path, newest)
	}
	if got := readFile(t, doc); got != "<html>original\x00bytes</html>" {
		t.Errorf("content = %q", got)
	}
}

func TestRestore_NoBackup(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "a.html")
	writeFile(t, doc, "x")

	if _, err := Restore(doc); !errors.Is(err, ErrNoBackup) {
		t.Errorf("expected ErrNoBackup, got %v", err)
	}
}
