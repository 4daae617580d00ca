package menu

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// RescanCallback is called with the fresh entry list after the generated
// config changed on disk.
type RescanCallback func(choices []Choice, path string)

// Watch starts an fsnotify watcher on the directory holding the generated
// config at path and rescans after every change until ctx is cancelled.
//
// The directory, not the file, is watched: config regeneration replaces the
// file wholesale (write to temp, rename over), which drops an inode-based
// watch. Events are debounced so a regeneration burst triggers one rescan.
func Watch(ctx context.Context, path string, logger *slog.Logger, cb RescanCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	if err := w.Add(dir); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("path", path))

	var rescanTimer *time.Timer
	var rescanCh <-chan time.Time

	scheduleRescan := func() {
		if rescanTimer == nil {
			rescanTimer = time.NewTimer(200 * time.Millisecond)
			rescanCh = rescanTimer.C
		} else {
			rescanTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if rescanTimer != nil {
				rescanTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-rescanCh:
			choices, used := Scan([]string{path})
			logger.Debug("watcher: rescanned",
				slog.String("path", path),
				slog.Int("entries", len(choices)))
			if cb != nil {
				cb(choices, used)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != base {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) != 0 {
				scheduleRescan()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
