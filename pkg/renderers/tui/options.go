package tui

import "log/slog"

// Theme captures optional formatting hints applied to printed messages. Keep
// minimal to avoid coupling editing logic to ANSI specifics.
type Theme struct {
	HeadingPrefix string
	ErrorPrefix   string
}

// DefaultTheme is used when no theme is configured.
var DefaultTheme = Theme{HeadingPrefix: "== ", ErrorPrefix: "! "}

// Option configures the Editor and Renderer.
type Option func(*config)

type config struct {
	driver    PromptDriver
	theme     Theme
	logger    *slog.Logger
	maxRounds int
}

func newConfig(options []Option) config {
	cfg := config{theme: DefaultTheme}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	return cfg
}

// WithPromptDriver overrides the prompt driver used by the editor.
func WithPromptDriver(driver PromptDriver) Option {
	return func(c *config) {
		if driver != nil {
			c.driver = driver
		}
	}
}

// WithTheme applies message prefixes.
func WithTheme(theme Theme) Option {
	return func(c *config) {
		c.theme = theme
	}
}

// WithLogger sets the logger used for edit diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMaxRounds bounds how many correction passes Edit runs before giving up.
// Zero means the user decides when to stop.
func WithMaxRounds(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.maxRounds = n
		}
	}
}
