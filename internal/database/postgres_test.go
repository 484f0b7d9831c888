package database

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMigrationFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"002_notification_logs.sql",
		"001_initial_schema.sql",
		"010_indexes.sql",
		"notes.txt",
		"noprefix.sql",
		"000_bad.sql",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o644); err != nil {
			t.Fatalf("Failed to write fixture: %v", err)
		}
	}

	files, err := migrationFiles(dir)
	if err != nil {
		t.Fatalf("migrationFiles: %v", err)
	}

	want := []migrationFile{
		{version: 1, name: "001_initial_schema.sql"},
		{version: 2, name: "002_notification_logs.sql"},
		{version: 10, name: "010_indexes.sql"},
	}
	if len(files) != len(want) {
		t.Fatalf("Expected %d migrations, got %d: %v", len(want), len(files), files)
	}
	for i, w := range want {
		if files[i] != w {
			t.Errorf("Migration %d: expected %v, got %v", i, w, files[i])
		}
	}
}
