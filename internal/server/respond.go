package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/alpaka/formengine/pkg/changerequest"
	"github.com/alpaka/formengine/pkg/docpath"
	"github.com/alpaka/formengine/pkg/session"
	"github.com/alpaka/formengine/pkg/validation"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// errorBody mirrors the change-request backend's {"error": "..."} shape.
type errorBody struct {
	Error  string              `json:"error"`
	Errors validation.ErrorMap `json:"errors,omitempty"`
	Fields map[string][]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: message})
}

func decodeJSON(r *http.Request, v any) error {
	body := io.LimitReader(r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return err
	}
	return nil
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var apiErr *changerequest.APIError
	var verr *session.ValidationError
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrStoreFull):
		return http.StatusServiceUnavailable
	case errors.Is(err, session.ErrNotEditable):
		return http.StatusForbidden
	case errors.Is(err, session.ErrLastInstance):
		return http.StatusConflict
	case errors.Is(err, session.ErrUnknownField),
		errors.Is(err, session.ErrNotSection),
		errors.Is(err, session.ErrInstanceOutOfRange),
		errors.Is(err, session.ErrMissingTitle),
		errors.Is(err, session.ErrMissingTeam),
		errors.Is(err, docpath.ErrInvalidPath):
		return http.StatusBadRequest
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &apiErr):
		if apiErr.Status >= 400 && apiErr.Status < 500 {
			return apiErr.Status
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeDomainError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	body := errorBody{Error: err.Error()}
	var verr *session.ValidationError
	if errors.As(err, &verr) {
		body.Error = "validation failed"
		body.Errors = verr.Errors
	}
	var apiErr *changerequest.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			body.Error = apiErr.Message
		}
		body.Fields = apiErr.FieldMessages()
	}
	if status == http.StatusInternalServerError {
		body.Error = "internal server error"
	}
	writeJSON(w, status, body)
}
