package cli

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/alpaka/formengine/internal/config"
	"github.com/alpaka/formengine/internal/logging"
	"github.com/alpaka/formengine/internal/server"
	"github.com/alpaka/formengine/pkg/renderers/vanilla"
	"github.com/alpaka/formengine/pkg/validation"
)

// NewServeCmd creates the serve command.
func NewServeCmd(app *App) *cobra.Command {
	var listen string
	var sweep time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP form service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Config()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}

			logger, err := logging.Setup(logging.Options{
				Level:  cfg.Log.Level,
				Format: cfg.Log.Format,
				Writer: app.Stderr,
			})
			if err != nil {
				return err
			}
			app.Logger = logger

			page, err := app.Page(cmd.Context())
			if err != nil {
				return err
			}
			html, err := vanilla.New(vanilla.WithDefaultStyles())
			if err != nil {
				return err
			}
			v, err := validation.New(validation.WithLogger(logger))
			if err != nil {
				return err
			}

			srv, err := server.New(page,
				server.WithLogger(logger),
				server.WithStore(server.NewStore(cfg.Sessions.TTL.Std(), cfg.Sessions.Max)),
				server.WithMetrics(server.NewMetrics()),
				server.WithHTMLRenderer(html),
				server.WithValidator(v),
				server.WithBackend(cfg.API.BaseURL, &http.Client{Timeout: cfg.API.Timeout.Std()}),
			)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info("starting form service",
				"listen", cfg.Listen,
				"schema", page.PageTitle,
				"backend", cfg.API.BaseURL,
			)
			return srv.Run(ctx, cfg.Listen, sweep)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (overrides config)")
	cmd.Flags().DurationVar(&sweep, "sweep-interval", time.Minute, "How often expired sessions are evicted")

	return cmd
}

// NewInitCmd creates the init command.
func NewInitCmd(app *App) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [PATH]",
		Short: "Write a default configuration file (.yaml, .yml or .toml)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "formengine.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", path)
				}
			}

			data, err := config.Encode(config.Default(), filepath.Ext(path))
			if err != nil {
				return err
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return err
			}
			app.Output().Success("Configuration written to " + path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	return cmd
}
