// Package internal wires the settings store, backup manager, and menu
// scanner together behind the operations the CLI exposes.
package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/nyberg/grubedit/internal/menu"
	"github.com/nyberg/grubedit/internal/settings"
)

// Regenerator regenerates the menu config after a settings change. The
// exec-backed implementation lives at the command boundary; the core only
// consumes the interface.
type Regenerator interface {
	Regenerate(ctx context.Context) error
}

// App is the assembled application.
type App struct {
	cfg      *Config
	log      *slog.Logger
	store    *settings.Store
	backups  *settings.BackupManager
	discover func() []string
	regen    Regenerator
}

// New builds the application from the given options.
func New(opts ...Option) (*App, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: app.config.App.LogLevel,
	}))
	slog.SetDefault(logger)

	store := settings.NewStore(logger)

	return &App{
		cfg:      app.config,
		log:      logger,
		store:    store,
		backups:  settings.NewBackupManager(store, logger),
		discover: app.discover,
		regen:    app.regen,
	}, nil
}

// SettingsPath returns the canonical settings file path.
func (a *App) SettingsPath() string {
	return a.cfg.Grub.SettingsPath
}

// candidateMenuPaths combines the configured menu config locations with any
// discovered EFI-partition ones. The scanner tries each at most once.
func (a *App) candidateMenuPaths() []string {
	paths := append([]string{}, a.cfg.Grub.MenuConfigPaths...)
	if a.discover != nil {
		paths = append(paths, a.discover()...)
	}
	return paths
}

// Entries scans the generated menu config for selectable boot entries.
// It returns the entries and the path they came from; an empty list with a
// non-empty path means the config was readable but held no entries.
func (a *App) Entries() ([]menu.Choice, string) {
	return menu.Scan(a.candidateMenuPaths())
}

// ReadSettings loads the settings file, restoring it from a backup sibling
// if the canonical file is missing, and lazily creates the initial backup on
// first contact.
func (a *App) ReadSettings() (*settings.Map, error) {
	path := a.cfg.Grub.SettingsPath
	if initial, ok := a.backups.EnsureInitialBackup(path); ok {
		a.log.Debug("initial backup present", slog.String("path", initial))
	}
	return a.store.Read(path)
}

// WriteSettings persists m, backing up the previous version first. Returns
// the backup path.
func (a *App) WriteSettings(m *settings.Map) (string, error) {
	return a.store.Write(m, a.cfg.Grub.SettingsPath)
}

// TypedView reads the settings file and projects it onto the typed view.
func (a *App) TypedView() (settings.View, error) {
	m, err := a.ReadSettings()
	if err != nil {
		return settings.View{}, err
	}
	return settings.ToTypedView(m), nil
}

// ApplyView folds v back into the current settings, preserving every key
// outside the managed set, writes the result, and optionally regenerates the
// menu config. Returns the pre-write backup path.
func (a *App) ApplyView(ctx context.Context, v settings.View, regenerate bool) (string, error) {
	base, err := a.ReadSettings()
	if err != nil {
		return "", err
	}

	backup, err := a.WriteSettings(settings.ToSettingsMap(base, v))
	if err != nil {
		return "", err
	}

	if regenerate && a.regen != nil {
		if err := a.regen.Regenerate(ctx); err != nil {
			return backup, fmt.Errorf("regenerate menu config: %w", err)
		}
	}
	return backup, nil
}

// ListBackups returns the backup siblings of the settings file, newest first.
func (a *App) ListBackups() []string {
	return settings.ListBackups(a.cfg.Grub.SettingsPath)
}

// CreateBackup creates a manual backup and rotates older ones out.
func (a *App) CreateBackup() (string, error) {
	return a.backups.CreateManualBackup(a.cfg.Grub.SettingsPath)
}

// DeleteBackup removes a backup of the settings file, refusing anything
// outside its backup namespace.
func (a *App) DeleteBackup(backupPath string) error {
	return settings.DeleteBackup(backupPath, a.cfg.Grub.SettingsPath)
}

// WatchEntries watches the generated menu config and calls cb with the fresh
// entry list after every change, until ctx is cancelled or a signal arrives.
func (a *App) WatchEntries(ctx context.Context, cb menu.RescanCallback) error {
	choices, used := a.Entries()
	if used == "" {
		return fmt.Errorf("no readable menu config among candidates")
	}
	if cb != nil {
		cb(choices, used)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return menu.Watch(gCtx, used, a.log, cb)
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			a.log.Info("received shutdown signal", slog.String("signal", sig.String()))
			cancel()
		case <-gCtx.Done():
		}
		return nil
	})

	return g.Wait()
}
