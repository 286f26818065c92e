// Package validation checks a document against a page. Traversal mirrors the
// renderer: the same visibility decisions, the same path joins, and every
// instance of a repeatable section, so error keys line up with rendered
// fields.
package validation

import (
	"log/slog"
	"math"
	"regexp"
	"strconv"

	"github.com/alpaka/formengine/pkg/docpath"
	"github.com/alpaka/formengine/pkg/document"
	"github.com/alpaka/formengine/pkg/schema"
	"github.com/alpaka/formengine/pkg/visibility"
)

var urlPattern = regexp.MustCompile(`^https?://.+`)

// Rule names reported on issues.
const (
	RuleRequired = "required"
	RuleURL      = "url"
	RuleNumber   = "number"
	RuleOption   = "option"
)

// Option configures a Validator.
type Option func(*config)

type config struct {
	messages  Messages
	evaluator visibility.Evaluator
	logger    *slog.Logger
}

// WithMessages overrides rule messages; empty entries keep the defaults.
func WithMessages(m Messages) Option {
	return func(c *config) {
		c.messages = m
	}
}

// WithEvaluator swaps the showIf evaluator.
func WithEvaluator(e visibility.Evaluator) Option {
	return func(c *config) {
		c.evaluator = e
	}
}

// WithLogger sets the logger used for skipped node types.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// Validator evaluates pages against documents. It is safe for concurrent use.
type Validator struct {
	messages  messageSet
	evaluator visibility.Evaluator
	logger    *slog.Logger
}

// New builds a Validator. It fails only when a message template is malformed.
func New(opts ...Option) (*Validator, error) {
	cfg := config{messages: DefaultMessages(), evaluator: visibility.Equality}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	set, err := compileMessages(cfg.messages)
	if err != nil {
		return nil, err
	}
	if cfg.evaluator == nil {
		cfg.evaluator = visibility.Equality
	}
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{messages: set, evaluator: cfg.evaluator, logger: logger}, nil
}

// Evaluator returns the showIf evaluator the validator honours.
func (v *Validator) Evaluator() visibility.Evaluator {
	return v.evaluator
}

// WithEvaluator returns a copy of v deciding visibility with e. A nil e
// means Equality.
func (v *Validator) WithEvaluator(e visibility.Evaluator) *Validator {
	if e == nil {
		e = visibility.Equality
	}
	cp := *v
	cp.evaluator = e
	return &cp
}

var defaultValidator = mustDefault()

func mustDefault() *Validator {
	v, err := New()
	if err != nil {
		panic(err)
	}
	return v
}

// Default returns the shared validator with stock messages.
func Default() *Validator {
	return defaultValidator
}

// Validate runs the default validator.
func Validate(page schema.Page, doc map[string]any) ErrorMap {
	return defaultValidator.Validate(page, doc)
}

// Validate returns the error map for doc. The first failing rule per path wins.
func (v *Validator) Validate(page schema.Page, doc map[string]any) ErrorMap {
	return v.Run(page, doc).Errors
}

// Run validates doc and reports both the error map and per-rule issues.
func (v *Validator) Run(page schema.Page, doc map[string]any) Result {
	var issues []Issue
	v.walk(page.Elements, doc, "", &issues)

	errs := make(ErrorMap, len(issues))
	for _, issue := range issues {
		if _, exists := errs[issue.Path]; !exists {
			errs[issue.Path] = issue.Message
		}
	}
	return Result{Valid: len(errs) == 0, Errors: errs, Issues: issues}
}

func (v *Validator) walk(nodes []schema.Node, doc map[string]any, parent string, issues *[]Issue) {
	for _, node := range nodes {
		if !visibility.NodeVisible(v.evaluator, doc, parent, node) {
			continue
		}
		checks, known := ruleTable[node.Type]
		if !known {
			v.logger.Debug("skipping node with unknown type", "id", node.ID, "type", node.Type)
			continue
		}

		path := docpath.Join(parent, node.Name())
		value, _ := docpath.Get(doc, path)
		for _, check := range checks {
			if issue, failed := check(v, node, path, value); failed {
				*issues = append(*issues, issue)
				break
			}
		}

		if node.IsSection() {
			for _, instance := range document.InstancePaths(doc, path, node.IsRepeatable) {
				v.walk(node.Children, doc, instance, issues)
			}
		}
	}
}

type rule func(v *Validator, node schema.Node, path string, value any) (Issue, bool)

var ruleTable = map[schema.NodeType][]rule{
	schema.NodeSection:  {requiredRule},
	schema.NodeInput:    {requiredRule, inputFormatRule},
	schema.NodeSelect:   {requiredRule, optionRule},
	schema.NodeCheckbox: {requiredRule},
}

func requiredRule(v *Validator, node schema.Node, path string, value any) (Issue, bool) {
	if !node.Props.Required || !document.IsEmpty(value) {
		return Issue{}, false
	}
	return v.issue(node, path, RuleRequired, render(v.messages.required, v.label(node, path), path)), true
}

func inputFormatRule(v *Validator, node schema.Node, path string, value any) (Issue, bool) {
	if document.IsEmpty(value) {
		return Issue{}, false
	}
	switch node.Props.DataType {
	case schema.DataTypeURL:
		str, ok := value.(string)
		if ok && urlPattern.MatchString(str) {
			return Issue{}, false
		}
		return v.issue(node, path, RuleURL, render(v.messages.url, v.label(node, path), path)), true
	case schema.DataTypeNumber:
		if isNumeric(value) {
			return Issue{}, false
		}
		return v.issue(node, path, RuleNumber, render(v.messages.number, v.label(node, path), path)), true
	default:
		return Issue{}, false
	}
}

func optionRule(v *Validator, node schema.Node, path string, value any) (Issue, bool) {
	if document.IsEmpty(value) || len(node.Props.Options) == 0 {
		return Issue{}, false
	}
	valid := true
	switch typed := value.(type) {
	case string:
		valid = node.HasOption(typed)
	case []any:
		if !node.Props.IsMulti {
			valid = false
			break
		}
		for _, item := range typed {
			str, ok := item.(string)
			if !ok || !node.HasOption(str) {
				valid = false
				break
			}
		}
	default:
		valid = false
	}
	if valid {
		return Issue{}, false
	}
	return v.issue(node, path, RuleOption, render(v.messages.option, v.label(node, path), path)), true
}

func (v *Validator) label(node schema.Node, path string) string {
	if node.Props.Label != "" {
		return node.Props.Label
	}
	return path
}

func (v *Validator) issue(node schema.Node, path, ruleName, message string) Issue {
	return Issue{Path: path, Field: node.Name(), Rule: ruleName, Message: message}
}

func isNumeric(value any) bool {
	switch v := value.(type) {
	case float64:
		return !math.IsNaN(v) && !math.IsInf(v, 0)
	case int, int64:
		return true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
	default:
		return false
	}
}
