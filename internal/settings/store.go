// Package settings reads and writes the flat KEY=VALUE bootloader settings
// file and manages its backup siblings on disk.
package settings

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/nyberg/grubedit/internal/apperr"
)

// Map is a parsed settings file: an ordered key → value mapping. Iteration
// order is insertion order, so a formatted file keeps the key order of its
// source. A duplicate assignment keeps the key's original position but the
// later value wins.
type Map = orderedmap.OrderedMap[string, string]

// NewMap returns an empty settings map.
func NewMap() *Map {
	return orderedmap.New[string, string]()
}

// Store owns the content lifecycle of the canonical settings file.
type Store struct {
	log *slog.Logger
}

// NewStore creates a Store that logs best-effort failures to logger.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{log: logger}
}

// Parse extracts key/value pairs from raw settings text. It never fails:
// blank lines, #-comments, and lines without '=' are skipped. Values wrapped
// in a single matching pair of double or single quotes lose exactly that one
// layer; no escape sequences are processed. The last occurrence of a
// duplicate key wins.
func Parse(text string) *Map {
	m := NewMap()
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = unquote(strings.TrimSpace(value))
		m.Set(key, value)
	}
	return m
}

// unquote strips one layer of matching quotes, if any.
func unquote(v string) string {
	if len(v) >= 2 && v[0] == v[len(v)-1] && (v[0] == '"' || v[0] == '\'') {
		return v[1 : len(v)-1]
	}
	return v
}

// Format renders m as settings-file text: a comment header naming the tool
// and, when backupPath is non-empty, the backup used for the write, then one
// KEY=VALUE line per entry in map order. The output always ends with a
// newline.
func Format(m *Map, backupPath string) string {
	var b strings.Builder
	b.WriteString("# Written by grubedit.\n")
	if backupPath != "" {
		fmt.Fprintf(&b, "# The previous version of this file was saved to %s\n", backupPath)
	}
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		b.WriteString(pair.Key)
		b.WriteByte('=')
		b.WriteString(quoteIfNeeded(pair.Value))
		b.WriteByte('\n')
	}
	return b.String()
}

// quoteIfNeeded wraps v in double quotes when it contains whitespace or a
// shell metacharacter, backslash-escaping any '\' or '"' inside. Other
// values are written bare.
func quoteIfNeeded(v string) string {
	if !needsQuoting(v) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	return `"` + v + `"`
}

func needsQuoting(v string) bool {
	if strings.ContainsAny(v, "$`\"'") {
		return true
	}
	return strings.IndexFunc(v, unicode.IsSpace) >= 0
}

// Read loads and parses the settings file at path. If the canonical file is
// missing it falls back to the most recent backup sibling, first attempting
// to restore it to the canonical path so later writes find the file where
// they expect it; a failed restore degrades to reading the fallback in
// place. Returns apperr.ErrNotFound when neither exists.
func (s *Store) Read(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		return Parse(decode(data)), nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("settings: read %s: %w", path, err)
	}

	fallback, ok := ResolveFallback(path)
	if !ok {
		return nil, fmt.Errorf("settings: read %s: %w", path, apperr.ErrNotFound)
	}

	if copyErr := copyFile(fallback, path); copyErr != nil {
		s.log.Warn("settings: restore from fallback failed, reading fallback directly",
			slog.String("fallback", fallback),
			slog.String("error", copyErr.Error()))
		data, err = os.ReadFile(fallback)
		if err != nil {
			return nil, fmt.Errorf("settings: read fallback %s: %w", fallback, err)
		}
		return Parse(decode(data)), nil
	}

	s.log.Info("settings: restored canonical file from fallback",
		slog.String("path", path),
		slog.String("fallback", fallback))

	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("settings: read restored %s: %w", path, err)
	}
	return Parse(decode(data)), nil
}

// Write persists m to path, backing up the current canonical file to
// <path>.backup first. The canonical file is never touched without a fresh
// backup: if the backup copy fails the whole write fails and the canonical
// file is left untouched. Returns the backup path embedded in the header, or
// "" on a first write where nothing existed to back up.
func (s *Store) Write(m *Map, path string) (string, error) {
	backup := ""

	_, err := os.Stat(path)
	switch {
	case err == nil:
		backup = path + ".backup"
		if copyErr := copyFile(path, backup); copyErr != nil {
			return "", fmt.Errorf("settings: pre-write backup of %s: %w", path, copyErr)
		}
	case errors.Is(err, fs.ErrNotExist):
		// First write: nothing to back up.
	default:
		return "", fmt.Errorf("settings: stat %s: %w", path, err)
	}

	if err := writeFileAtomic(path, []byte(Format(m, backup))); err != nil {
		return "", fmt.Errorf("settings: write %s: %w", path, err)
	}
	return backup, nil
}

// decode converts raw file bytes to text, replacing invalid byte sequences
// instead of failing.
func decode(data []byte) string {
	return strings.ToValidUTF8(string(data), string(utf8.RuneError))
}

// copyFile copies src to dst, carrying over the source's permission bits.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// writeFileAtomic writes content via tmp file → fsync → rename.
func writeFileAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".grubedit-tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	success = true
	return nil
}
