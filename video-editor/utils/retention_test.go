package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func touch(t *testing.T, path string, mod time.Time) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mod, mod); err != nil {
		t.Fatal(err)
	}
}

func TestPruneOldFiles(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	old := filepath.Join(dir, "whatsapp_aaaaaaaa.mp4")
	fresh := filepath.Join(dir, "slideshow_bbbbbbbb.mp4")
	touch(t, old, now.Add(-3*time.Hour))
	touch(t, fresh, now.Add(-10*time.Minute))
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0755); err != nil {
		t.Fatal(err)
	}

	removed, err := PruneOldFiles(dir, time.Hour, now)
	if err != nil {
		t.Fatalf("PruneOldFiles: %v", err)
	}
	if len(removed) != 1 || removed[0] != old {
		t.Errorf("removed = %v, want [%s]", removed, old)
	}
	if FileExists(old) {
		t.Error("expired file still present")
	}
	if !FileExists(fresh) || !FileExists(filepath.Join(dir, "nested")) {
		t.Error("fresh file or directory removed")
	}
}

func TestPruneOldFilesMissingDir(t *testing.T) {
	if _, err := PruneOldFiles(filepath.Join(t.TempDir(), "missing"), time.Hour, time.Now()); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestNewRetentionSweeper(t *testing.T) {
	dir := t.TempDir()

	if _, err := NewRetentionSweeper(dir, 0, "@every 1h"); err == nil {
		t.Error("expected error for zero retention")
	}
	if _, err := NewRetentionSweeper(dir, time.Hour, "not a schedule"); err == nil {
		t.Error("expected error for bad schedule")
	}

	s, err := NewRetentionSweeper(dir, time.Hour, "@every 1h")
	if err != nil {
		t.Fatalf("NewRetentionSweeper: %v", err)
	}
	now := time.Now()
	s.now = func() time.Time { return now }
	stale := filepath.Join(dir, "whatsapp_cccccccc.mp4")
	touch(t, stale, now.Add(-2*time.Hour))

	s.Sweep()
	if FileExists(stale) {
		t.Error("Sweep left an expired file")
	}
}
