package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDiskUsageBytes(t *testing.T) {
	dir := t.TempDir()

	db := filepath.Join(dir, "bills.db")
	if err := os.WriteFile(db, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := DiskUsageBytes(db)
	if err != nil {
		t.Fatal(err)
	}
	if got != 5 {
		t.Errorf("single file: got %d bytes, want 5", got)
	}

	idx := filepath.Join(dir, "index", "store")
	if err := os.MkdirAll(idx, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(idx, "seg"), []byte("abc"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err = DiskUsageBytes(db, filepath.Join(dir, "index"), filepath.Join(dir, "missing"), ":memory:", "")
	if err != nil {
		t.Fatal(err)
	}
	if got != 8 {
		t.Errorf("file + dir: got %d bytes, want 8", got)
	}
}
