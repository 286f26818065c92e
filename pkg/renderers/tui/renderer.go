package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alpaka/formengine/pkg/render"
)

// Renderer implements render.Renderer by printing a View as indented plain
// text, the same summary the Editor shows for read-only sessions.
type Renderer struct {
	theme Theme
}

// New constructs a text renderer.
func New(options ...Option) *Renderer {
	cfg := newConfig(options)
	return &Renderer{theme: cfg.theme}
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return "tui"
}

// ContentType reports the serialization format used by Render.
func (r *Renderer) ContentType() string {
	return "text/plain; charset=utf-8"
}

// Render writes the summary of view.
func (r *Renderer) Render(ctx context.Context, view render.View, opts render.RenderOptions) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []byte(summarize(view, opts.FormErrors, r.theme)), nil
}

// Summary renders view with the default theme.
func Summary(view render.View) string {
	return summarize(view, nil, DefaultTheme)
}

func summarize(view render.View, formErrors []string, theme Theme) string {
	var b strings.Builder
	if view.Title != "" {
		b.WriteString(view.Title)
		b.WriteByte('\n')
	}
	for _, msg := range formErrors {
		fmt.Fprintf(&b, "%s%s\n", theme.ErrorPrefix, msg)
	}
	writeBlocks(&b, view.Blocks, 0, theme)
	return b.String()
}

func writeBlocks(b *strings.Builder, blocks []render.Block, depth int, theme Theme) {
	indent := strings.Repeat("  ", depth)
	for _, block := range blocks {
		if block.Kind == render.BlockSection {
			for _, instance := range block.Instances {
				heading := block.Label
				if block.Repeatable {
					heading = fmt.Sprintf("%s %d", block.Label, instance.Index+1)
				}
				fmt.Fprintf(b, "%s[%s]\n", indent, heading)
				writeBlocks(b, instance.Blocks, depth+1, theme)
			}
			continue
		}
		fmt.Fprintf(b, "%s%s: %s\n", indent, block.Label, displayValue(block))
		if block.Error != "" {
			fmt.Fprintf(b, "%s  %s%s\n", indent, theme.ErrorPrefix, block.Error)
		}
	}
}

func displayValue(block render.Block) string {
	switch value := block.Value.(type) {
	case bool:
		if value {
			return "yes"
		}
		return "no"
	case []string:
		if len(value) == 0 {
			return "-"
		}
		return strings.Join(value, ", ")
	case string:
		if value == "" {
			return "-"
		}
		return value
	default:
		return "-"
	}
}
