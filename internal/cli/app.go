package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alpaka/formengine"
	"github.com/alpaka/formengine/internal/config"
	"github.com/alpaka/formengine/pkg/changerequest"
	"github.com/alpaka/formengine/pkg/renderers/tui"
	"github.com/alpaka/formengine/pkg/schema"
)

// ErrInvalid is returned by commands whose input failed validation. The
// details have already been printed.
var ErrInvalid = errors.New("validation failed")

// Globals holds the persistent root flags.
type Globals struct {
	ConfigPath string
	Schema     string
	APIURL     string
	Token      string
	JSON       bool
}

// App bundles the factories shared by every command.
type App struct {
	Globals *Globals
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer

	// Prompt returns the driver used by the edit command.
	Prompt func() tui.PromptDriver
	// Logger is the logger for commands other than serve.
	Logger *slog.Logger
}

// NewApp wires an App to the process streams.
func NewApp(g *Globals) *App {
	return &App{
		Globals: g,
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Prompt: func() tui.PromptDriver {
			return tui.NewSurveyDriver(tui.Stdio{In: os.Stdin, Out: os.Stdout, Err: os.Stderr})
		},
		Logger: slog.Default(),
	}
}

// Config loads the configuration file, the environment, and the flag
// overrides, in that order.
func (a *App) Config() (config.Config, error) {
	cfg, err := config.Load(a.Globals.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}
	if a.Globals.Schema != "" {
		cfg.Schema = a.Globals.Schema
	}
	if a.Globals.APIURL != "" {
		cfg.API.BaseURL = a.Globals.APIURL
	}
	if a.Globals.Token != "" {
		cfg.API.Token = a.Globals.Token
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// Page loads the configured schema page.
func (a *App) Page(ctx context.Context) (schema.Page, error) {
	cfg, err := a.Config()
	if err != nil {
		return schema.Page{}, err
	}
	return formengine.LoadPage(ctx, cfg.Schema, schema.WithWarningHandler(func(source, msg string) {
		a.Logger.Warn("schema warning", "source", source, "warning", msg)
	}))
}

// Client builds a change-request client from the configuration.
func (a *App) Client() (*changerequest.Client, error) {
	cfg, err := a.Config()
	if err != nil {
		return nil, err
	}
	return changerequest.NewClient(cfg.API.BaseURL,
		changerequest.WithTimeout(cfg.API.Timeout.Std()),
		changerequest.WithToken(cfg.API.Token),
		changerequest.WithLogger(a.Logger),
	), nil
}

// Output returns the formatter selected by --json.
func (a *App) Output() *Output {
	return NewOutput(a.Globals.JSON, a.Stdout, a.Stderr)
}

// readInput reads path, or stdin for "-".
func (a *App) readInput(path string) ([]byte, error) {
	if strings.TrimSpace(path) == "-" {
		return io.ReadAll(a.Stdin)
	}
	return os.ReadFile(path)
}

// writeOutput writes data to path, or stdout when path is empty or "-".
func (a *App) writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := a.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
