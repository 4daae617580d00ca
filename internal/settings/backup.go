package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/nyberg/grubedit/internal/apperr"
)

// Backup file naming, shared with any external tooling that inspects backups:
//
//	<path>.backup.initial            created once, never overwritten
//	<path>.backup.manual.<stamp>[.n] rotated, newest maxManualBackups kept
//	<path>.backup                    overwritten before every write
//	<path>.backup.current            legacy name, read fallback only
const (
	initialSuffix  = ".backup.initial"
	manualSuffix   = ".backup.manual."
	autoSuffix     = ".backup"
	legacySuffix   = ".backup.current"
	manualStampFmt = "20060102-150405"

	maxManualBackups = 3
)

// BackupManager owns the backup siblings of a canonical settings file.
type BackupManager struct {
	store *Store
	log   *slog.Logger
}

// NewBackupManager creates a BackupManager that reads through store when it
// needs the canonical file restored.
func NewBackupManager(store *Store, logger *slog.Logger) *BackupManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &BackupManager{store: store, log: logger}
}

// EnsureInitialBackup creates <path>.backup.initial from the canonical file
// if it does not exist yet. It is fully best-effort and never returns an
// error: any failure (missing sources, permissions, read-only filesystem)
// yields ("", false). An existing initial backup is returned as-is, never
// overwritten.
func (b *BackupManager) EnsureInitialBackup(path string) (string, bool) {
	initial := path + initialSuffix
	if _, err := os.Stat(initial); err == nil {
		return initial, true
	}

	if _, err := os.Stat(path); err != nil {
		// Read may restore the canonical file from a fallback.
		if _, readErr := b.store.Read(path); readErr != nil {
			return "", false
		}
		if _, statErr := os.Stat(path); statErr != nil {
			return "", false
		}
	}

	if err := copyFile(path, initial); err != nil {
		b.log.Warn("settings: initial backup failed",
			slog.String("path", initial),
			slog.String("error", err.Error()))
		return "", false
	}
	return initial, true
}

// ListBackups returns every backup sibling of path, most recently modified
// first, ties broken by path. Files vanishing mid-listing are tolerated.
func ListBackups(path string) []string {
	matches, _ := filepath.Glob(path + autoSuffix + "*")

	type candidate struct {
		path  string
		mtime time.Time
	}
	var found []candidate
	for _, p := range matches {
		if p == path {
			continue
		}
		info, err := os.Stat(p)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		found = append(found, candidate{path: p, mtime: info.ModTime()})
	}

	sort.Slice(found, func(i, j int) bool {
		if !found[i].mtime.Equal(found[j].mtime) {
			return found[i].mtime.After(found[j].mtime)
		}
		return found[i].path < found[j].path
	})

	out := make([]string, len(found))
	for i, c := range found {
		out[i] = c.path
	}
	return out
}

// CreateManualBackup snapshots the canonical file (or, if it is missing, the
// best available fallback) to a timestamped manual backup, then prunes the
// manual set down to the newest maxManualBackups. Returns apperr.ErrNotFound
// when no source exists at all.
func (b *BackupManager) CreateManualBackup(path string) (string, error) {
	source := path
	if _, err := os.Stat(source); err != nil {
		fallback, ok := ResolveFallback(path)
		if !ok {
			return "", fmt.Errorf("settings: manual backup of %s: %w", path, apperr.ErrNotFound)
		}
		source = fallback
	}

	base := path + manualSuffix + time.Now().Format(manualStampFmt)
	dst := base
	for n := 1; ; n++ {
		if _, err := os.Lstat(dst); errors.Is(err, fs.ErrNotExist) {
			break
		}
		dst = fmt.Sprintf("%s.%d", base, n)
	}

	if err := copyFile(source, dst); err != nil {
		return "", fmt.Errorf("settings: manual backup %s: %w", dst, err)
	}
	// The copy carries the source's mtime on some filesystems; force it to
	// now so recency sorting sees this as the newest backup.
	now := time.Now()
	_ = os.Chtimes(dst, now, now)

	b.pruneManual(path)
	return dst, nil
}

// pruneManual deletes manual backups beyond the newest maxManualBackups,
// oldest first. Individual deletion failures are logged and skipped.
func (b *BackupManager) pruneManual(path string) {
	prefix := path + manualSuffix
	var manual []string
	for _, p := range ListBackups(path) {
		if strings.HasPrefix(p, prefix) {
			manual = append(manual, p)
		}
	}
	for i := len(manual) - 1; i >= maxManualBackups; i-- {
		if err := os.Remove(manual[i]); err != nil {
			b.log.Warn("settings: prune manual backup failed",
				slog.String("path", manual[i]),
				slog.String("error", err.Error()))
		}
	}
}

// DeleteBackup removes backupPath. It refuses with apperr.ErrInvalidPath
// unless backupPath lives inside the backup namespace of canonicalPath and
// resolves to a different file than the canonical one, so it can never be
// tricked into deleting the live config or an arbitrary file.
func DeleteBackup(backupPath, canonicalPath string) error {
	if !strings.HasPrefix(backupPath, canonicalPath+autoSuffix) {
		return fmt.Errorf("settings: delete %s: %w", backupPath, apperr.ErrInvalidPath)
	}

	backupInfo, backupErr := os.Stat(backupPath)
	canonicalInfo, canonicalErr := os.Stat(canonicalPath)
	if backupErr == nil && canonicalErr == nil && os.SameFile(backupInfo, canonicalInfo) {
		return fmt.Errorf("settings: delete %s: %w", backupPath, apperr.ErrInvalidPath)
	}

	if err := os.Remove(backupPath); err != nil {
		return fmt.Errorf("settings: delete %s: %w", backupPath, err)
	}
	return nil
}

// ResolveFallback picks a read source for a missing canonical file: the most
// recently modified existing regular file among <path>.backup.current,
// <path>.backup, and everything matching <path>.backup.* / <path>.backup*.
func ResolveFallback(path string) (string, bool) {
	candidates := []string{path + legacySuffix, path + autoSuffix}
	for _, pattern := range []string{path + autoSuffix + ".*", path + autoSuffix + "*"} {
		matches, _ := filepath.Glob(pattern)
		sort.Strings(matches)
		candidates = append(candidates, matches...)
	}

	seen := make(map[string]struct{}, len(candidates))
	var best string
	var bestMtime time.Time
	for _, c := range candidates {
		if c == path {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		info, err := os.Stat(c)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if best == "" || info.ModTime().After(bestMtime) {
			best, bestMtime = c, info.ModTime()
		}
	}
	return best, best != ""
}
