package internal

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config   *Config
	discover func() []string
	regen    Regenerator
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithMenuPathDiscovery plugs in the platform routine that lists additional
// candidate menu config locations (EFI partitions and the like).
func WithMenuPathDiscovery(fn func() []string) Option {
	return func(a *application) {
		a.discover = fn
	}
}

// WithRegenerator sets the hook that regenerates the menu config after a
// settings write.
func WithRegenerator(r Regenerator) Option {
	return func(a *application) {
		a.regen = r
	}
}
