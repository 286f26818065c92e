package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/alpaka/formengine"
	"github.com/alpaka/formengine/pkg/document"
	"github.com/alpaka/formengine/pkg/openapi"
	"github.com/alpaka/formengine/pkg/render"
	"github.com/alpaka/formengine/pkg/renderers/vanilla"
	"github.com/alpaka/formengine/pkg/schema"
	"github.com/alpaka/formengine/pkg/session"
	"github.com/alpaka/formengine/pkg/validation"
)

type lintFinding struct {
	Source  string `json:"source"`
	Level   string `json:"level"`
	Message string `json:"message"`
}

// NewLintCmd creates the lint command.
func NewLintCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "lint [PATH|URL...]",
		Short: "Check schema pages for structural errors and unknown node types",
		Long: "Check schema pages for structural errors and unknown node types.\n" +
			"Without arguments the configured schema (or the bundled page) is checked.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := app.Output()
			targets := args
			if len(targets) == 0 {
				cfg, err := app.Config()
				if err != nil {
					return err
				}
				targets = []string{cfg.Schema}
			}

			var findings []lintFinding
			failed := false
			for _, target := range targets {
				source := target
				if source == "" {
					source = schema.DefaultPageName
				}
				page, err := formengine.LoadPage(cmd.Context(), target)
				if err != nil {
					failed = true
					findings = append(findings, lintFinding{Source: source, Level: "error", Message: errorDetail(err)})
					continue
				}
				for _, msg := range schema.Warnings(page) {
					findings = append(findings, lintFinding{Source: source, Level: "warning", Message: msg})
				}
			}

			if len(findings) > 0 || out.JSONMode() {
				rows := make([][]string, len(findings))
				for i, f := range findings {
					rows[i] = []string{f.Source, f.Level, f.Message}
				}
				if err := out.Print([]string{"SOURCE", "LEVEL", "MESSAGE"}, rows, findings); err != nil {
					return err
				}
			}
			if failed {
				return ErrInvalid
			}
			if !out.JSONMode() {
				out.Success(fmt.Sprintf("%d page(s) checked", len(targets)))
			}
			return nil
		},
	}
}

// errorDetail strips the source prefix a LoadError adds; the table already
// shows it.
func errorDetail(err error) string {
	var loadErr *schema.LoadError
	if errors.As(err, &loadErr) && loadErr.Err != nil {
		return loadErr.Err.Error()
	}
	return err.Error()
}

type validateResult struct {
	Valid  bool                 `json:"valid"`
	Errors validation.ErrorMap  `json:"errors"`
	Issues []validation.Issue   `json:"issues,omitempty"`
	Shape  []openapi.ShapeIssue `json:"shape,omitempty"`
}

// NewValidateCmd creates the validate command.
func NewValidateCmd(app *App) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Validate a config_changes_payload document (- reads stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := app.Output()
			page, err := app.Page(cmd.Context())
			if err != nil {
				return err
			}
			data, err := app.readInput(args[0])
			if err != nil {
				return err
			}
			doc, err := document.Decode(data)
			if err != nil {
				return err
			}

			doc = document.Normalize(page, doc)
			result := validation.Default().Run(page, doc)
			report := validateResult{
				Valid:  result.Valid,
				Errors: result.Errors,
				Issues: result.Issues,
				Shape:  openapi.CheckDocument(page, doc),
			}
			if strict && len(report.Shape) > 0 {
				report.Valid = false
			}

			if out.JSONMode() {
				if err := out.JSON(report); err != nil {
					return err
				}
			} else {
				var rows [][]string
				for _, issue := range result.Issues {
					rows = append(rows, []string{issue.Path, issue.Rule, issue.Message})
				}
				for _, issue := range report.Shape {
					rows = append(rows, []string{issue.Path, "shape", issue.Reason})
				}
				if len(rows) > 0 {
					if err := out.Table([]string{"PATH", "RULE", "MESSAGE"}, rows); err != nil {
						return err
					}
				}
			}

			if !report.Valid {
				return ErrInvalid
			}
			if !out.JSONMode() {
				out.Success("Document is valid")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Treat shape mismatches as errors")

	return cmd
}

// NewRenderCmd creates the render command.
func NewRenderCmd(app *App) *cobra.Command {
	var (
		format   string
		payload  string
		output   string
		action   string
		readOnly bool
		check    bool
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a payload with the vanilla (HTML), json or tui renderer",
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := app.Page(cmd.Context())
			if err != nil {
				return err
			}
			raw := ""
			if payload != "" {
				data, err := app.readInput(payload)
				if err != nil {
					return err
				}
				raw = string(data)
			}

			s := formengine.NewSession(page, raw, session.WithEditable(!readOnly), session.WithLogger(app.Logger))
			if check {
				s.Validate()
			}

			registry, err := formengine.NewRegistry(vanilla.WithDefaultStyles())
			if err != nil {
				return err
			}
			data, err := formengine.Render(cmd.Context(), registry, format, s, render.RenderOptions{Action: action})
			if err != nil {
				return err
			}
			return app.writeOutput(output, data)
		},
	}

	cmd.Flags().StringVar(&format, "format", "vanilla", "Renderer name: vanilla, json or tui")
	cmd.Flags().StringVar(&payload, "payload", "", "Payload file to prefill (- reads stdin)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (stdout if empty)")
	cmd.Flags().StringVar(&action, "action", "", "Form action URL for HTML output")
	cmd.Flags().BoolVar(&readOnly, "read-only", false, "Render every field disabled")
	cmd.Flags().BoolVar(&check, "validate", false, "Validate first so errors are rendered")

	return cmd
}

// NewOpenAPICmd creates the openapi command.
func NewOpenAPICmd(app *App) *cobra.Command {
	var version string
	var output string

	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Print an OpenAPI document describing the payload of the schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := app.Page(cmd.Context())
			if err != nil {
				return err
			}
			doc := openapi.Spec(page, version)
			if err := openapi.ValidateSpec(cmd.Context(), doc); err != nil {
				return err
			}

			data, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return err
			}
			switch strings.ToLower(filepath.Ext(output)) {
			case ".yaml", ".yml":
				if data, err = jsonToYAML(data); err != nil {
					return err
				}
			default:
				data = append(data, '\n')
			}
			return app.writeOutput(output, data)
		},
	}

	cmd.Flags().StringVar(&version, "api-version", "", "info.version of the generated document")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file; .yaml/.yml selects YAML (stdout if empty)")

	return cmd
}

// jsonToYAML re-encodes a JSON document as YAML with sorted keys.
func jsonToYAML(data []byte) ([]byte, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return yaml.Marshal(v)
}
