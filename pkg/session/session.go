// Package session owns the mutable state of one form: the page, the current
// document snapshot, the error map, and the editable flag. Every mutation
// replaces the document with a new snapshot so views handed out earlier stay
// consistent.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alpaka/formengine/pkg/docpath"
	"github.com/alpaka/formengine/pkg/document"
	"github.com/alpaka/formengine/pkg/render"
	"github.com/alpaka/formengine/pkg/schema"
	"github.com/alpaka/formengine/pkg/validation"
	"github.com/alpaka/formengine/pkg/visibility"
)

var (
	// ErrNotEditable is returned for edits on a read-only session.
	ErrNotEditable = errors.New("session: form is read-only")
	// ErrUnknownField is returned when a path does not resolve to a field.
	ErrUnknownField = errors.New("session: unknown field")
	// ErrNotSection is returned when an instance operation targets anything
	// other than a repeatable section.
	ErrNotSection = errors.New("session: not a repeatable section")
	// ErrLastInstance is returned when removing would leave no instance.
	ErrLastInstance = errors.New("session: cannot remove the last instance")
	// ErrInstanceOutOfRange is returned for an index past the last instance.
	ErrInstanceOutOfRange = errors.New("session: instance index out of range")
)

// Option configures a Session.
type Option func(*Session)

// WithEditable sets whether edits are accepted. Sessions are editable by
// default.
func WithEditable(editable bool) Option {
	return func(s *Session) {
		s.editable = editable
	}
}

// WithValidator replaces the default validator.
func WithValidator(v *validation.Validator) Option {
	return func(s *Session) {
		if v != nil {
			s.validator = v
		}
	}
}

// WithEvaluator sets the showIf evaluator for both views and validation,
// overriding the evaluator of any validator given with WithValidator.
func WithEvaluator(e visibility.Evaluator) Option {
	return func(s *Session) {
		s.evaluator = e
	}
}

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Session is safe for concurrent use.
type Session struct {
	mu         sync.Mutex
	page       schema.Page
	doc        document.Document
	errs       validation.ErrorMap
	formErrors []string
	editable   bool

	validator *validation.Validator
	evaluator visibility.Evaluator
	logger    *slog.Logger
}

func newSession(page schema.Page, opts []Option) *Session {
	s := &Session{
		page:      page,
		errs:      validation.ErrorMap{},
		editable:  true,
		validator: validation.Default(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	// views and validation must agree on which fields are visible
	if s.evaluator != nil {
		s.validator = s.validator.WithEvaluator(s.evaluator)
	} else {
		s.evaluator = s.validator.Evaluator()
	}
	return s
}

// New starts a session on a freshly initialized document.
func New(page schema.Page, opts ...Option) *Session {
	s := newSession(page, opts)
	s.doc = document.Initialize(page)
	return s
}

// Load starts a session from a stored payload. Unreadable payloads yield an
// empty document; the result is normalized against page either way.
func Load(page schema.Page, payload string, opts ...Option) *Session {
	s := newSession(page, opts)
	s.doc = document.Normalize(page, document.DecodeOrEmpty(s.logger, payload))
	return s
}

// FromDocument starts a session from an already decoded document.
func FromDocument(page schema.Page, doc document.Document, opts ...Option) *Session {
	s := newSession(page, opts)
	s.doc = document.Normalize(page, doc)
	return s
}

// Page returns the page the session renders.
func (s *Session) Page() schema.Page {
	return s.page
}

// Document returns a deep copy of the current document.
func (s *Session) Document() document.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return document.Clone(s.doc)
}

// Errors returns a copy of the current error map.
func (s *Session) Errors() validation.ErrorMap {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errs.Clone()
}

// FormErrors returns page-level messages received from the backend.
func (s *Session) FormErrors() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.formErrors...)
}

// Editable reports whether edits are accepted.
func (s *Session) Editable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editable
}

// SetEditable toggles the read-only gate.
func (s *Session) SetEditable(editable bool) {
	s.mu.Lock()
	s.editable = editable
	s.mu.Unlock()
}

// Edit stores value at path and clears the error recorded for that exact
// path. Other errors stay until the next Validate.
func (s *Session) Edit(path string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editLocked(path, value)
}

func (s *Session) editLocked(path string, value any) error {
	if !s.editable {
		return ErrNotEditable
	}
	next, err := docpath.SetE(s.doc, path, value)
	if err != nil {
		return fmt.Errorf("session: edit %q: %w", path, err)
	}
	s.doc = next
	s.errs = s.errs.Without(path)
	return nil
}

// Input coerces raw form values for the field at path and stores the result.
// Number inputs that do not parse keep their previous value.
func (s *Session) Input(path string, raw []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.page.Lookup(path)
	if !ok || node.IsSection() {
		return fmt.Errorf("%w: %q", ErrUnknownField, path)
	}
	previous, _ := docpath.Get(s.doc, path)
	value, ok := render.Coerce(node, previous, raw)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, path)
	}
	return s.editLocked(path, value)
}

// AddInstance appends a freshly initialized instance to the repeatable
// section at sectionPath.
func (s *Session) AddInstance(sectionPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.editable {
		return ErrNotEditable
	}
	node, err := s.repeatable(sectionPath)
	if err != nil {
		return err
	}

	current, _ := docpath.Get(s.doc, sectionPath)
	var seq []any
	switch v := current.(type) {
	case []any:
		seq = make([]any, len(v), len(v)+1)
		copy(seq, v)
	case map[string]any:
		seq = []any{v}
	default:
		// the implicit instance at index 0 becomes explicit
		seq = []any{document.NewInstance(node)}
	}
	seq = append(seq, document.NewInstance(node))

	next, err := docpath.SetE(s.doc, sectionPath, seq)
	if err != nil {
		return fmt.Errorf("session: add instance %q: %w", sectionPath, err)
	}
	s.doc = next
	return nil
}

// RemoveInstance deletes instance index of the repeatable section at
// sectionPath. Errors below the removed instance would point at renumbered
// fields, so a non-empty error map is recomputed.
func (s *Session) RemoveInstance(sectionPath string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.editable {
		return ErrNotEditable
	}
	if _, err := s.repeatable(sectionPath); err != nil {
		return err
	}

	current, _ := docpath.Get(s.doc, sectionPath)
	count := 1
	if seq, ok := current.([]any); ok {
		count = len(seq)
	}
	if index < 0 || index >= count {
		return fmt.Errorf("%w: %s.%d", ErrInstanceOutOfRange, sectionPath, index)
	}
	if count <= 1 {
		return ErrLastInstance
	}

	s.doc = docpath.Delete(s.doc, docpath.JoinIndex(sectionPath, index))
	if len(s.errs) > 0 {
		s.errs = s.validator.Validate(s.page, s.doc)
	}
	return nil
}

func (s *Session) repeatable(sectionPath string) (schema.Node, error) {
	node, ok := s.page.Lookup(sectionPath)
	if !ok || !node.IsSection() || !node.IsRepeatable || docpath.Base(sectionPath) != node.Name() {
		return schema.Node{}, fmt.Errorf("%w: %q", ErrNotSection, sectionPath)
	}
	return node, nil
}

// Validate recomputes the error map from scratch and returns a copy.
func (s *Session) Validate() validation.ErrorMap {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = s.validator.Validate(s.page, s.doc)
	return s.errs.Clone()
}

// Result validates like Validate and returns the detailed result.
func (s *Session) Result() validation.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := s.validator.Run(s.page, s.doc)
	s.errs = result.Errors.Clone()
	return result
}

// View projects the current state.
func (s *Session) View() render.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() render.View {
	return render.Project(s.page, s.doc, s.errs, render.ProjectOptions{
		Editable:  s.editable,
		Evaluator: s.evaluator,
		Logger:    s.logger,
	})
}

// Payload serializes the current document as stored on a change request.
func (s *Session) Payload() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return document.EncodeString(s.doc)
}

// ApplyRemoteErrors maps a backend error payload onto rendered fields and
// merges it into the error map. Keys that match no field are kept as
// page-level messages and returned.
func (s *Session) ApplyRemoteErrors(payload map[string][]string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	mapping := render.MapErrorPayload(s.viewLocked(), payload)
	merged := s.errs.Clone()
	for path, message := range mapping.ErrorMap() {
		merged[path] = message
	}
	s.errs = merged
	s.formErrors = render.MergeFormErrors(s.formErrors, mapping.Form...)
	return mapping.Form
}
