package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alpaka/formengine/pkg/changerequest"
	"github.com/alpaka/formengine/pkg/document"
	"github.com/alpaka/formengine/pkg/schema"
	"github.com/alpaka/formengine/pkg/validation"
)

var (
	// ErrMissingTitle is returned when a new change request has no title.
	ErrMissingTitle = errors.New("session: title is required")
	// ErrMissingTeam is returned when a new change request names no team.
	ErrMissingTeam = errors.New("session: requester team is required")
)

// Submitter persists change requests. *changerequest.Client satisfies it.
type Submitter interface {
	CreateChangeRequest(ctx context.Context, req changerequest.CreateRequest) (*changerequest.ChangeRequest, error)
	UpdateChangeRequest(ctx context.Context, id uint, req changerequest.UpdateRequest) (*changerequest.ChangeRequest, error)
}

// Meta carries the change-request fields that live outside the form. A zero
// CRID creates a new request.
type Meta struct {
	Title  string
	TeamID uint
	CRID   uint
}

// ValidationError blocks a submit while fields are invalid.
type ValidationError struct {
	Errors validation.ErrorMap
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("session: %d invalid field(s): %s", len(e.Errors), strings.Join(e.Errors.Paths(), ", "))
}

// Submit validates the document and, when it is clean, creates or updates the
// change request. Validation failures return *ValidationError without any
// call to sub. A failed call leaves the session untouched.
func (s *Session) Submit(ctx context.Context, sub Submitter, meta Meta) (*changerequest.ChangeRequest, error) {
	s.mu.Lock()
	if !s.editable {
		s.mu.Unlock()
		return nil, ErrNotEditable
	}
	s.errs = s.validator.Validate(s.page, s.doc)
	if len(s.errs) > 0 {
		errs := s.errs.Clone()
		s.mu.Unlock()
		return nil, &ValidationError{Errors: errs}
	}
	payload, err := document.EncodeString(s.doc)
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("session: encode payload: %w", err)
	}

	title := strings.TrimSpace(meta.Title)
	if meta.CRID == 0 {
		if title == "" {
			return nil, ErrMissingTitle
		}
		if meta.TeamID == 0 {
			return nil, ErrMissingTeam
		}
		cr, err := sub.CreateChangeRequest(ctx, changerequest.CreateRequest{
			Title:   title,
			Payload: payload,
			TeamID:  meta.TeamID,
		})
		if err != nil {
			return nil, fmt.Errorf("session: create change request: %w", err)
		}
		s.logger.InfoContext(ctx, "change request created", "cr_id", cr.ID)
		return cr, nil
	}

	cr, err := sub.UpdateChangeRequest(ctx, meta.CRID, changerequest.UpdateRequest{
		Title:   title,
		Payload: payload,
	})
	if err != nil {
		return nil, fmt.Errorf("session: update change request %d: %w", meta.CRID, err)
	}
	s.logger.InfoContext(ctx, "change request updated", "cr_id", cr.ID)
	return cr, nil
}

// ForChangeRequest opens a session on cr's payload, editable only when id
// may edit it. A nil cr starts a new request.
func ForChangeRequest(page schema.Page, cr *changerequest.ChangeRequest, id changerequest.Identity, opts ...Option) *Session {
	opts = append(opts, WithEditable(changerequest.CanEdit(cr, id)))
	if cr == nil {
		return New(page, opts...)
	}
	return Load(page, cr.Payload, opts...)
}
