package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/alpaka/formengine/internal/logging"
	"github.com/alpaka/formengine/pkg/changerequest"
	"github.com/alpaka/formengine/pkg/document"
	"github.com/alpaka/formengine/pkg/openapi"
	"github.com/alpaka/formengine/pkg/render"
	"github.com/alpaka/formengine/pkg/renderers/vanilla"
	"github.com/alpaka/formengine/pkg/session"
	"github.com/alpaka/formengine/pkg/validation"
)

type createSessionRequest struct {
	// Payload is a stored config_changes_payload string.
	Payload string `json:"payload,omitempty"`
	// Document is an already decoded document; it wins over Payload.
	Document map[string]any `json:"document,omitempty"`
	Editable *bool          `json:"editable,omitempty"`
}

type sessionResponse struct {
	ID         string              `json:"id"`
	Editable   bool                `json:"editable"`
	Document   document.Document   `json:"document"`
	Errors     validation.ErrorMap `json:"errors"`
	FormErrors []string            `json:"formErrors,omitempty"`
	View       render.View         `json:"view"`
}

type editFieldRequest struct {
	Path  string   `json:"path"`
	Value any      `json:"value"`
	Raw   []string `json:"raw,omitempty"`
}

type instanceRequest struct {
	Path  string `json:"path"`
	Index *int   `json:"index,omitempty"`
}

type submitRequest struct {
	Title  string `json:"title"`
	TeamID uint   `json:"team_id"`
	CRID   uint   `json:"cr_id,omitempty"`
}

type validateRequest struct {
	Document map[string]any `json:"document"`
}

type validateResponse struct {
	Valid  bool                 `json:"valid"`
	Errors validation.ErrorMap  `json:"errors"`
	Issues []validation.Issue   `json:"issues,omitempty"`
	Shape  []openapi.ShapeIssue `json:"shape,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSchema(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.page)
}

func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	doc := openapi.Spec(s.page, r.URL.Query().Get("version"))
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	doc := document.Normalize(s.page, req.Document)
	result := s.validator.Run(s.page, doc)
	s.metrics.observeValidation(result.Valid)
	writeJSON(w, http.StatusOK, validateResponse{
		Valid:  result.Valid,
		Errors: result.Errors,
		Issues: result.Issues,
		Shape:  openapi.CheckDocument(s.page, doc),
	})
}

func (s *Server) newSession(req createSessionRequest) *session.Session {
	opts := []session.Option{
		session.WithValidator(s.validator),
		session.WithLogger(s.logger),
	}
	if req.Editable != nil {
		opts = append(opts, session.WithEditable(*req.Editable))
	}
	switch {
	case req.Document != nil:
		return session.FromDocument(s.page, req.Document, opts...)
	case strings.TrimSpace(req.Payload) != "":
		return session.Load(s.page, req.Payload, opts...)
	default:
		return session.New(s.page, opts...)
	}
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	sess := s.newSession(req)
	id, err := s.store.Put(sess)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.metrics.setSessions(s.store.Len())
	logging.FromContext(r.Context()).Info("session created", "session_id", id, "editable", sess.Editable())
	writeJSON(w, http.StatusCreated, snapshot(id, sess))
}

func snapshot(id string, sess *session.Session) sessionResponse {
	return sessionResponse{
		ID:         id,
		Editable:   sess.Editable(),
		Document:   sess.Document(),
		Errors:     sess.Errors(),
		FormErrors: sess.FormErrors(),
		View:       sess.View(),
	}
}

// lookup resolves the {id} URL parameter, writing a 404 when it is unknown.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (string, *session.Session, bool) {
	id := chi.URLParam(r, "id")
	sess, err := s.store.Get(id)
	if err != nil {
		writeDomainError(w, err)
		return "", nil, false
	}
	return id, sess, true
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, snapshot(id, sess))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.store.Delete(id)
	s.metrics.setSessions(s.store.Len())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEditField(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req editFieldRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var err error
	if req.Raw != nil {
		err = sess.Input(req.Path, req.Raw)
	} else {
		node, found := sess.Page().Lookup(req.Path)
		if !found || node.IsSection() {
			err = fmt.Errorf("%w: %q", session.ErrUnknownField, req.Path)
		} else {
			err = sess.Edit(req.Path, req.Value)
		}
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot(id, sess))
}

func (s *Server) handleAddInstance(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req instanceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := sess.AddInstance(req.Path); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot(id, sess))
}

func (s *Server) handleRemoveInstance(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req instanceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Index == nil {
		writeError(w, http.StatusBadRequest, "index is required")
		return
	}
	if err := sess.RemoveInstance(req.Path, *req.Index); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot(id, sess))
}

func (s *Server) handleValidateSession(w http.ResponseWriter, r *http.Request) {
	_, sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	result := sess.Result()
	s.metrics.observeValidation(result.Valid)
	writeJSON(w, http.StatusOK, validateResponse{
		Valid:  result.Valid,
		Errors: result.Errors,
		Issues: result.Issues,
	})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	_, sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if s.submitter == nil {
		writeError(w, http.StatusNotImplemented, "submission backend is not configured")
		return
	}
	var req submitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cr, err := sess.Submit(r.Context(), s.submitter(r), session.Meta{
		Title:  req.Title,
		TeamID: req.TeamID,
		CRID:   req.CRID,
	})
	if err != nil {
		var apiErr *changerequest.APIError
		if errors.As(err, &apiErr) {
			sess.ApplyRemoteErrors(apiErr.FieldMessages())
		}
		s.metrics.observeSubmit("error")
		logging.FromContext(r.Context()).Warn("submit failed", "error", err)
		writeDomainError(w, err)
		return
	}
	s.metrics.observeSubmit("ok")

	status := http.StatusOK
	if req.CRID == 0 {
		status = http.StatusCreated
	}
	writeJSON(w, status, cr)
}

func (s *Server) handleHTML(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.writeHTML(w, r, id, sess, http.StatusOK)
}

func (s *Server) writeHTML(w http.ResponseWriter, r *http.Request, id string, sess *session.Session, status int) {
	out, err := s.html.Render(r.Context(), sess.View(), render.RenderOptions{
		Action:     "/v1/sessions/" + id + "/form",
		Method:     http.MethodPost,
		Hidden:     render.MergeHiddenFields(s.hidden, render.CSRFToken(CSRFField, s.store.FormToken(id))),
		FormErrors: sess.FormErrors(),
	})
	if err != nil {
		logging.FromContext(r.Context()).Error("render failed", "error", err)
		writeError(w, http.StatusInternalServerError, "render failed")
		return
	}
	w.Header().Set("Content-Type", s.html.ContentType())
	w.WriteHeader(status)
	_, _ = w.Write(out)
}

// CSRFField is the hidden input carrying the session's form token.
const CSRFField = "_csrf"

// handleForm applies an HTML form post: every visible field is bound from the
// posted values, then the button in _action runs.
func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if token := r.PostForm.Get(CSRFField); token == "" || token != s.store.FormToken(id) {
		writeError(w, http.StatusForbidden, "invalid form token")
		return
	}
	if !sess.Editable() {
		writeDomainError(w, session.ErrNotEditable)
		return
	}

	for _, block := range fieldBlocks(sess.View().Blocks) {
		raw, posted := r.PostForm[block.Path]
		switch {
		case posted:
		case block.Kind == render.BlockCheckbox, block.Kind == render.BlockSelect && block.IsMulti:
			// browsers omit unchecked boxes and empty multi-selects
			raw = nil
		default:
			continue
		}
		if err := sess.Input(block.Path, raw); err != nil {
			writeDomainError(w, err)
			return
		}
	}

	if err := applyAction(sess, r.PostForm.Get(vanilla.ActionField)); err != nil {
		if !errors.Is(err, session.ErrLastInstance) {
			writeDomainError(w, err)
			return
		}
	}
	s.writeHTML(w, r, id, sess, http.StatusOK)
}

func applyAction(sess *session.Session, action string) error {
	verb, arg, _ := strings.Cut(action, ":")
	switch verb {
	case "add":
		return sess.AddInstance(arg)
	case "remove":
		idx := strings.LastIndex(arg, ":")
		if idx < 0 {
			return fmt.Errorf("%w: %q", session.ErrNotSection, arg)
		}
		index, err := strconv.Atoi(arg[idx+1:])
		if err != nil {
			return fmt.Errorf("%w: %q", session.ErrInstanceOutOfRange, arg)
		}
		return sess.RemoveInstance(arg[:idx], index)
	default:
		sess.Validate()
		return nil
	}
}

func fieldBlocks(blocks []render.Block) []render.Block {
	var out []render.Block
	for _, block := range blocks {
		if block.IsField() {
			out = append(out, block)
			continue
		}
		for _, instance := range block.Instances {
			out = append(out, fieldBlocks(instance.Blocks)...)
		}
	}
	return out
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}
