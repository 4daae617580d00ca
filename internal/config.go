package internal

import (
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config represents the application configuration.
type Config struct {
	App  ApplicationConfig `yaml:"app"`
	Grub GrubConfig        `yaml:"grub"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	return c.Grub.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
}

// GrubConfig holds the paths the tool operates on. These are explicit
// configuration, never package-level globals: every operation receives them
// through the App, and defaults are supplied here at the call boundary.
type GrubConfig struct {
	// SettingsPath is the canonical flat settings file the bootloader
	// reads at boot time.
	SettingsPath string `yaml:"settings_path"`
	// MenuConfigPaths are the standard install locations of the generated
	// menu config, tried in order. EFI-partition locations discovered at
	// runtime are appended to this list, not stored in it.
	MenuConfigPaths []string `yaml:"menu_config_paths"`
	// MkconfigCommand regenerates the menu config after a settings write.
	MkconfigCommand []string `yaml:"mkconfig_command"`
}

// Validate validates the path configuration.
func (c *GrubConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.SettingsPath, validation.Required),
		validation.Field(&c.MenuConfigPaths, validation.Required, validation.Length(1, 0)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
		},
		Grub: GrubConfig{
			SettingsPath: "/etc/default/grub",
			MenuConfigPaths: []string{
				"/boot/grub/grub.cfg",
				"/boot/grub2/grub.cfg",
				"/boot/efi/EFI/grub/grub.cfg",
			},
			MkconfigCommand: []string{"update-grub"},
		},
	}
}
