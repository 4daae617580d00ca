package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/nyberg/grubedit/internal"
	"github.com/nyberg/grubedit/internal/menu"
	pkgconfig "github.com/nyberg/grubedit/pkg/config"
)

// execRegenerator shells out to the configured mkconfig command. Thin process
// wrapper; the core only sees the Regenerator interface.
type execRegenerator struct {
	argv []string
}

func (r execRegenerator) Regenerate(ctx context.Context) error {
	if len(r.argv) == 0 {
		return fmt.Errorf("no mkconfig command configured")
	}
	c := exec.CommandContext(ctx, r.argv[0], r.argv[1:]...)
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	return c.Run()
}

// discoverEFIMenuConfigs lists generated configs on mounted EFI partitions.
func discoverEFIMenuConfigs() []string {
	var out []string
	for _, pattern := range []string{"/boot/efi/EFI/*/grub.cfg", "/efi/EFI/*/grub.cfg"} {
		matches, _ := filepath.Glob(pattern)
		out = append(out, matches...)
	}
	return out
}

func warnIfNotRoot() {
	if os.Geteuid() != 0 {
		fmt.Fprintln(os.Stderr, "warning: not running as root, writes to system paths will likely fail")
	}
}

func buildApp(cmd *cli.Command) (*internal.App, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadIfPresent(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cmd.IsSet("settings") {
		cfg.Grub.SettingsPath = cmd.String("settings")
	}

	return internal.New(
		internal.WithConfig(cfg),
		internal.WithMenuPathDiscovery(discoverEFIMenuConfigs),
		internal.WithRegenerator(execRegenerator{argv: cfg.Grub.MkconfigCommand}),
	)
}

func entriesAction(_ context.Context, cmd *cli.Command) error {
	app, err := buildApp(cmd)
	if err != nil {
		return err
	}
	choices, used := app.Entries()
	if used == "" {
		return fmt.Errorf("no readable menu config found")
	}
	fmt.Printf("# %s\n", used)
	for _, c := range choices {
		line := fmt.Sprintf("%-8s %s", c.ID, c.Title)
		if c.EntryID != "" {
			line += fmt.Sprintf("  [%s]", c.EntryID)
		}
		line += fmt.Sprintf("  (%s)", c.Source)
		fmt.Println(line)
	}
	return nil
}

func showAction(_ context.Context, cmd *cli.Command) error {
	app, err := buildApp(cmd)
	if err != nil {
		return err
	}
	v, err := app.TypedView()
	if err != nil {
		return err
	}
	fmt.Printf("default entry:    %s\n", v.DefaultEntry)
	fmt.Printf("timeout:          %d\n", v.Timeout)
	fmt.Printf("hidden menu:      %t\n", v.HiddenMenu)
	fmt.Printf("save default:     %t\n", v.SaveDefault)
	fmt.Printf("disable recovery: %t\n", v.DisableRecovery)
	fmt.Printf("disable os-prober: %t\n", v.DisableOSProber)
	fmt.Printf("normal color:     %s\n", v.NormalColor)
	fmt.Printf("highlight color:  %s\n", v.HighlightColor)
	fmt.Printf("gfxmode:          %s\n", v.GfxMode)
	fmt.Printf("theme:            %s\n", v.Theme)
	fmt.Printf("cmdline:          %s\n", v.Cmdline)
	return nil
}

func getAction(_ context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("usage: grubedit get KEY")
	}
	app, err := buildApp(cmd)
	if err != nil {
		return err
	}
	m, err := app.ReadSettings()
	if err != nil {
		return err
	}
	value, ok := m.Get(cmd.Args().Get(0))
	if !ok {
		return fmt.Errorf("key %q is not set", cmd.Args().Get(0))
	}
	fmt.Println(value)
	return nil
}

func setAction(_ context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 2 {
		return fmt.Errorf("usage: grubedit set KEY VALUE")
	}
	warnIfNotRoot()
	app, err := buildApp(cmd)
	if err != nil {
		return err
	}
	m, err := app.ReadSettings()
	if err != nil {
		return err
	}
	m.Set(cmd.Args().Get(0), cmd.Args().Get(1))
	backup, err := app.WriteSettings(m)
	if err != nil {
		return err
	}
	reportWrite(backup)
	return nil
}

func applyAction(ctx context.Context, cmd *cli.Command) error {
	warnIfNotRoot()
	app, err := buildApp(cmd)
	if err != nil {
		return err
	}
	v, err := app.TypedView()
	if err != nil {
		return err
	}

	if cmd.IsSet("timeout") {
		n, err := strconv.Atoi(cmd.String("timeout"))
		if err != nil {
			return fmt.Errorf("invalid --timeout %q", cmd.String("timeout"))
		}
		v.Timeout = n
	}
	if cmd.IsSet("default") {
		v.DefaultEntry = cmd.String("default")
	}
	if cmd.IsSet("hidden-menu") {
		v.HiddenMenu = cmd.Bool("hidden-menu")
	}
	if cmd.IsSet("save-default") {
		v.SaveDefault = cmd.Bool("save-default")
	}
	if cmd.IsSet("disable-recovery") {
		v.DisableRecovery = cmd.Bool("disable-recovery")
	}
	if cmd.IsSet("disable-os-prober") {
		v.DisableOSProber = cmd.Bool("disable-os-prober")
	}
	if cmd.IsSet("gfxmode") {
		v.GfxMode = cmd.String("gfxmode")
	}
	if cmd.IsSet("theme") {
		v.Theme = cmd.String("theme")
	}
	if cmd.IsSet("cmdline") {
		v.Cmdline = cmd.String("cmdline")
		// Re-derive the toggles from the replacement string.
		v.Quiet = strings.Contains(v.Cmdline, "quiet")
		v.Splash = strings.Contains(v.Cmdline, "splash")
	}
	if cmd.IsSet("quiet") {
		v.Quiet = cmd.Bool("quiet")
	}
	if cmd.IsSet("splash") {
		v.Splash = cmd.Bool("splash")
	}

	backup, err := app.ApplyView(ctx, v, cmd.Bool("regenerate"))
	if err != nil {
		return err
	}
	reportWrite(backup)
	return nil
}

// reportWrite prints the write outcome; a first write has no backup to name.
func reportWrite(backup string) {
	if backup == "" {
		fmt.Println("written")
		return
	}
	fmt.Printf("written, previous version backed up to %s\n", backup)
}

func backupListAction(_ context.Context, cmd *cli.Command) error {
	app, err := buildApp(cmd)
	if err != nil {
		return err
	}
	for _, p := range app.ListBackups() {
		fmt.Println(p)
	}
	return nil
}

func backupCreateAction(_ context.Context, cmd *cli.Command) error {
	warnIfNotRoot()
	app, err := buildApp(cmd)
	if err != nil {
		return err
	}
	path, err := app.CreateBackup()
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func backupDeleteAction(_ context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("usage: grubedit backup delete PATH")
	}
	warnIfNotRoot()
	app, err := buildApp(cmd)
	if err != nil {
		return err
	}
	return app.DeleteBackup(cmd.Args().Get(0))
}

func watchAction(ctx context.Context, cmd *cli.Command) error {
	app, err := buildApp(cmd)
	if err != nil {
		return err
	}
	return app.WatchEntries(ctx, func(choices []menu.Choice, path string) {
		fmt.Printf("# %s (%d entries)\n", path, len(choices))
		for _, c := range choices {
			fmt.Printf("%-8s %s\n", c.ID, c.Title)
		}
	})
}

func main() {
	sharedFlags := []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to config file",
			DefaultText: "/etc/grubedit.yaml",
			Value:       "/etc/grubedit.yaml",
			Sources:     cli.EnvVars("GRUBEDIT_CONFIG"),
		},
		&cli.StringFlag{
			Name:    "settings",
			Usage:   "Override the canonical settings file path",
			Sources: cli.EnvVars("GRUBEDIT_SETTINGS"),
		},
	}

	cmd := &cli.Command{
		Name:  "grubedit",
		Usage: "Edit GRUB settings with automatic backups and menu entry inspection",
		Flags: sharedFlags,
		Commands: []*cli.Command{
			{Name: "entries", Usage: "List selectable boot entries from the generated config", Action: entriesAction},
			{Name: "show", Usage: "Show the typed settings view", Action: showAction},
			{Name: "get", Usage: "Print a raw settings value", ArgsUsage: "KEY", Action: getAction},
			{Name: "set", Usage: "Set a raw settings value (backup-then-write)", ArgsUsage: "KEY VALUE", Action: setAction},
			{
				Name:   "apply",
				Usage:  "Apply typed settings changes (backup-then-write)",
				Action: applyAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "timeout", Usage: "Menu timeout in seconds"},
					&cli.StringFlag{Name: "default", Usage: "Default entry (positional id or declared id)"},
					&cli.BoolFlag{Name: "hidden-menu", Usage: "Hide the menu until a key is pressed"},
					&cli.BoolFlag{Name: "save-default", Usage: "Boot the last selected entry next time"},
					&cli.BoolFlag{Name: "disable-recovery", Usage: "Hide recovery entries"},
					&cli.BoolFlag{Name: "disable-os-prober", Usage: "Skip probing for other operating systems"},
					&cli.StringFlag{Name: "gfxmode", Usage: "Graphics mode, e.g. 1024x768"},
					&cli.StringFlag{Name: "theme", Usage: "Theme file path"},
					&cli.StringFlag{Name: "cmdline", Usage: "Kernel command line for normal boots"},
					&cli.BoolFlag{Name: "quiet", Usage: "Toggle the quiet kernel flag"},
					&cli.BoolFlag{Name: "splash", Usage: "Toggle the splash kernel flag"},
					&cli.BoolFlag{Name: "regenerate", Usage: "Run the mkconfig command after writing"},
				},
			},
			{
				Name:  "backup",
				Usage: "Manage settings file backups",
				Commands: []*cli.Command{
					{Name: "list", Usage: "List backups, newest first", Action: backupListAction},
					{Name: "create", Usage: "Create a manual backup (keeps the 3 newest)", Action: backupCreateAction},
					{Name: "delete", Usage: "Delete a backup", ArgsUsage: "PATH", Action: backupDeleteAction},
				},
			},
			{Name: "watch", Usage: "Watch the generated config and re-list entries on change", Action: watchAction},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
