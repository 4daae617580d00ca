// Package testutil provides shared test helpers for setting up settings
// files and backup fixtures.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// SettingsFile writes content to a fresh canonical settings path inside a
// temp dir and returns the path.
func SettingsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "grub")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// WriteFile writes content to path, failing the test on error.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// Touch sets path's modification time, failing the test on error. Backup
// recency tests need deterministic mtimes.
func Touch(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
}
