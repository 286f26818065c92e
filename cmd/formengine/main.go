// Command formengine serves, validates, renders, and edits change-request
// configuration documents described by a schema page.
//
// Usage:
//
//	formengine [--config FILE] [--schema PATH|URL] [--api-url URL] [--json] <command> [flags]
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alpaka/formengine/internal/cli"
)

// version is set through ldflags at build time.
var version = "dev"

func main() {
	var g cli.Globals

	rootCmd := &cobra.Command{
		Use:           "formengine",
		Short:         "Schema-driven forms for gateway change requests",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&g.ConfigPath, "config", "c", "", "Configuration file (.yaml, .yml or .toml)")
	rootCmd.PersistentFlags().StringVar(&g.Schema, "schema", "", "Schema page file or URL (bundled API gateway page if empty)")
	rootCmd.PersistentFlags().StringVar(&g.APIURL, "api-url", "", "Change-request API base URL")
	rootCmd.PersistentFlags().StringVar(&g.Token, "token", "", "Bearer token for the change-request API")
	rootCmd.PersistentFlags().BoolVar(&g.JSON, "json", false, "Output in JSON format")

	app := cli.NewApp(&g)
	rootCmd.AddCommand(
		cli.NewServeCmd(app),
		cli.NewInitCmd(app),
		cli.NewLintCmd(app),
		cli.NewValidateCmd(app),
		cli.NewRenderCmd(app),
		cli.NewEditCmd(app),
		cli.NewOpenAPICmd(app),
		cli.NewCRCmd(app),
	)

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, cli.ErrInvalid) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
