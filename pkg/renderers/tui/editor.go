package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/alpaka/formengine/pkg/docpath"
	"github.com/alpaka/formengine/pkg/render"
	"github.com/alpaka/formengine/pkg/schema"
	"github.com/alpaka/formengine/pkg/session"
	"github.com/alpaka/formengine/pkg/validation"
)

const noneOption = "(none)"

// Editor walks a session's visible fields with terminal prompts, writing each
// answer through the session so visibility and error clearing behave exactly
// as they do in the HTML flow.
type Editor struct {
	cfg config
}

// NewEditor constructs an Editor. Without WithPromptDriver it prompts on the
// process terminal through survey.
func NewEditor(options ...Option) *Editor {
	cfg := newConfig(options)
	if cfg.driver == nil {
		cfg.driver = NewSurveyDriver(Stdio{})
	}
	return &Editor{cfg: cfg}
}

// pass is one walk over the page. The first pass visits every visible field
// and offers to add repeatable instances; later passes only revisit fields
// that failed validation.
type pass struct {
	only map[string]struct{}
}

func (p pass) full() bool { return p.only == nil }

func (p pass) wants(path string) bool {
	if p.only == nil {
		return true
	}
	_, ok := p.only[path]
	return ok
}

// Edit prompts for every visible field of s, validates, and keeps offering
// correction passes until the document is valid. Read-only sessions are
// printed and ErrNotEditable is returned.
func (e *Editor) Edit(ctx context.Context, s *session.Session) (validation.Result, error) {
	if ctx == nil {
		return validation.Result{}, errors.New("tui: context is required")
	}
	if !s.Editable() {
		if err := e.cfg.driver.Info(ctx, summarize(s.View(), nil, e.cfg.theme)); err != nil {
			return validation.Result{}, err
		}
		return validation.Result{}, session.ErrNotEditable
	}

	current := pass{}
	for round := 1; ; round++ {
		if err := e.walk(ctx, s, s.Page().Elements, "", current); err != nil {
			return validation.Result{}, err
		}

		result := s.Result()
		if result.Valid {
			e.cfg.logger.Debug("tui edit complete", "rounds", round)
			return result, nil
		}
		if err := e.report(ctx, result.Errors); err != nil {
			return result, err
		}
		if e.cfg.maxRounds > 0 && round >= e.cfg.maxRounds {
			return result, ErrUnresolved
		}
		retry, err := e.cfg.driver.Confirm(ctx, ConfirmConfig{
			Message: fmt.Sprintf("Fix %d invalid field(s)?", len(result.Errors)),
			Default: true,
		})
		if err != nil {
			return result, err
		}
		if !retry {
			return result, ErrUnresolved
		}

		current = pass{only: make(map[string]struct{}, len(result.Errors))}
		for path := range result.Errors {
			current.only[path] = struct{}{}
		}
	}
}

func (e *Editor) walk(ctx context.Context, s *session.Session, nodes []schema.Node, parent string, p pass) error {
	for _, node := range nodes {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := docpath.Join(parent, node.Name())
		// re-project so earlier answers drive visibility
		block, ok := s.View().Find(path)
		if !ok {
			continue
		}
		if node.IsSection() {
			if err := e.walkSection(ctx, s, node, path, p); err != nil {
				return err
			}
			continue
		}
		if !p.wants(path) {
			continue
		}
		if err := e.promptField(ctx, s, node, block); err != nil {
			return err
		}
	}
	return nil
}

func (e *Editor) walkSection(ctx context.Context, s *session.Session, node schema.Node, path string, p pass) error {
	for i := 0; ; i++ {
		block, ok := s.View().Find(path)
		if !ok {
			return nil
		}
		if i >= len(block.Instances) {
			if !node.IsRepeatable || !p.full() {
				return nil
			}
			more, err := e.cfg.driver.Confirm(ctx, ConfirmConfig{
				Message: fmt.Sprintf("Add another %s?", block.Label),
			})
			if err != nil {
				return err
			}
			if !more {
				return nil
			}
			if err := s.AddInstance(path); err != nil {
				return err
			}
			continue
		}

		instance := block.Instances[i]
		if p.full() {
			heading := block.Label
			if node.IsRepeatable {
				heading = fmt.Sprintf("%s %d", block.Label, instance.Index+1)
			}
			if err := e.cfg.driver.Info(ctx, e.cfg.theme.HeadingPrefix+heading); err != nil {
				return err
			}
		}
		if err := e.walk(ctx, s, node.Children, instance.Path, p); err != nil {
			return err
		}
	}
}

func (e *Editor) promptField(ctx context.Context, s *session.Session, node schema.Node, block render.Block) error {
	if block.Error != "" {
		if err := e.cfg.driver.Info(ctx, e.cfg.theme.ErrorPrefix+block.Error); err != nil {
			return err
		}
	}
	message := block.Label
	if block.Required {
		message += " *"
	}

	var raw []string
	switch block.Kind {
	case render.BlockCheckbox:
		checked, _ := block.Value.(bool)
		answer, err := e.cfg.driver.Confirm(ctx, ConfirmConfig{
			Message: message,
			Default: checked,
			Help:    block.HelpText,
		})
		if err != nil {
			return err
		}
		raw = []string{strconv.FormatBool(answer)}
	case render.BlockSelect:
		values, err := e.promptSelect(ctx, block, message)
		if err != nil {
			return err
		}
		raw = values
	default:
		current, _ := block.Value.(string)
		answer, err := e.cfg.driver.Input(ctx, InputConfig{
			Message:   message,
			Default:   current,
			Help:      inputHelp(block),
			Validator: inputValidator(node),
		})
		if err != nil {
			return err
		}
		raw = []string{answer}
	}

	if err := s.Input(block.Path, raw); err != nil {
		return fmt.Errorf("tui: store %s: %w", block.Path, err)
	}
	return nil
}

func (e *Editor) promptSelect(ctx context.Context, block render.Block, message string) ([]string, error) {
	labels := make([]string, 0, len(block.Options)+1)
	values := make([]string, 0, len(block.Options)+1)
	if !block.IsMulti && !block.Required {
		labels = append(labels, noneOption)
		values = append(values, "")
	}
	defaultIdx := -1
	var defaults []int
	for _, choice := range block.Options {
		if choice.Selected {
			defaultIdx = len(labels)
			defaults = append(defaults, len(labels))
		}
		labels = append(labels, choice.Label)
		values = append(values, choice.Value)
	}

	if block.IsMulti {
		indices, err := e.cfg.driver.MultiSelect(ctx, SelectConfig{
			Message:  message,
			Options:  labels,
			Defaults: defaults,
			Help:     block.HelpText,
		})
		if err != nil {
			return nil, err
		}
		return pick(values, indices), nil
	}

	for {
		idx, err := e.cfg.driver.Select(ctx, SelectConfig{
			Message:      message,
			Options:      labels,
			DefaultIndex: defaultIdx,
			Help:         block.HelpText,
		})
		if err != nil {
			return nil, err
		}
		if idx >= 0 && idx < len(values) {
			return []string{values[idx]}, nil
		}
		if err := e.cfg.driver.Info(ctx, fmt.Sprintf("%sInvalid %s selection", e.cfg.theme.ErrorPrefix, block.Path)); err != nil {
			return nil, err
		}
	}
}

func (e *Editor) report(ctx context.Context, errs validation.ErrorMap) error {
	lines := make([]string, 0, len(errs))
	for _, path := range errs.Paths() {
		lines = append(lines, fmt.Sprintf("%s%s: %s", e.cfg.theme.ErrorPrefix, path, errs[path]))
	}
	return e.cfg.driver.Info(ctx, strings.Join(lines, "\n"))
}

func inputHelp(block render.Block) string {
	if block.HelpText != "" {
		return block.HelpText
	}
	if block.Placeholder != "" {
		return "e.g. " + block.Placeholder
	}
	return ""
}

// inputValidator rejects text a number field could never store.
func inputValidator(node schema.Node) func(string) error {
	if node.Props.DataType != schema.DataTypeNumber {
		return nil
	}
	return func(text string) error {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		if _, err := strconv.ParseFloat(trimmed, 64); err != nil {
			return errors.New("enter a number")
		}
		return nil
	}
}

func pick(values []string, indices []int) []string {
	out := make([]string, 0, len(indices))
	for _, idx := range indices {
		if idx >= 0 && idx < len(values) {
			out = append(out, values[idx])
		}
	}
	return out
}
