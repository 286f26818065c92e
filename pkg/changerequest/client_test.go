package changerequest_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"

	"github.com/alpaka/formengine/pkg/changerequest"
)

func newServer(t *testing.T, handler http.HandlerFunc) *changerequest.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return changerequest.NewClient(srv.URL + "/api/v1")
}

func TestClient_LoginStoresToken(t *testing.T) {
	var gotAuth string
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/login":
			var body map[string]string
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode login body: %v", err)
			}
			if body["username"] != "ada" || body["password"] != "secret" {
				t.Errorf("unexpected credentials: %v", body)
			}
			_, _ = io.WriteString(w, `{"token":"tok-1","user":{"user_id":7,"username":"ada","is_super_manager":true}}`)
		case "/api/v1/auth/me":
			gotAuth = r.Header.Get("Authorization")
			_, _ = io.WriteString(w, `{"user_id":7,"username":"ada"}`)
		default:
			http.NotFound(w, r)
		}
	})

	auth, err := client.Login(context.Background(), "ada", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if auth.User.ID != 7 || !auth.User.IsSuperManager {
		t.Fatalf("unexpected user: %+v", auth.User)
	}
	if client.Token() != "tok-1" {
		t.Fatalf("token not stored: %q", client.Token())
	}

	me, err := client.Me(context.Background())
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if me.Username != "ada" {
		t.Fatalf("unexpected me: %+v", me)
	}
	if gotAuth != "Bearer tok-1" {
		t.Fatalf("authorization header = %q", gotAuth)
	}
}

func TestClient_CreateChangeRequestSendsPayloadText(t *testing.T) {
	var got map[string]any
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/change-requests" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"cr_id":12,"title":"Add route","requester_team_id":3,"approval_status":"PENDING_APPROVAL","execution_status":"DRAFT","config_changes_payload":"{\"service\":{}}"}`)
	})

	cr, err := client.CreateChangeRequest(context.Background(), changerequest.CreateRequest{
		Title:   "Add route",
		Payload: `{"service":{}}`,
		TeamID:  3,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	want := map[string]any{
		"title":                  "Add route",
		"config_changes_payload": `{"service":{}}`,
		"requester_team_id":      float64(3),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("request body mismatch (-want +got):\n%s", diff)
	}
	if cr.ID != 12 || cr.ApprovalStatus != changerequest.ApprovalPending || cr.ExecutionStatus != changerequest.ExecutionDraft {
		t.Fatalf("unexpected change request: %+v", cr)
	}
}

func TestClient_ListChangeRequestsEncodesFilter(t *testing.T) {
	var query string
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		_, _ = io.WriteString(w, `[{"cr_id":1},{"cr_id":2}]`)
	})

	crs, err := client.ListChangeRequests(context.Background(), changerequest.ListFilter{
		ApprovalStatus: changerequest.ApprovalPending,
		TeamID:         4,
		Limit:          10,
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(crs) != 2 {
		t.Fatalf("expected 2 change requests, got %d", len(crs))
	}
	if want := "approval_status=PENDING_APPROVAL&limit=10&team_id=4"; query != want {
		t.Fatalf("query = %q, want %q", query, want)
	}
}

func TestClient_DecodesAPIError(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"Cannot update an approved change request"}`)
	})

	_, err := client.UpdateChangeRequest(context.Background(), 5, changerequest.UpdateRequest{Title: "x"})
	var apiErr *changerequest.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T %v", err, err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Message != "Cannot update an approved change request" {
		t.Fatalf("unexpected error: %+v", apiErr)
	}
}

func TestClient_APIErrorWithoutBody(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.GetChangeRequest(context.Background(), 99)
	var apiErr *changerequest.APIError
	if !errors.As(err, &apiErr) || !apiErr.NotFound() {
		t.Fatalf("expected not-found APIError, got %v", err)
	}
}

func TestClient_ReviewRejectsUnknownDecision(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected")
	})
	if _, err := client.Review(context.Background(), 1, "MAYBE"); err == nil {
		t.Fatalf("expected error for unknown decision")
	}
}

func TestClient_ExecutionStatus(t *testing.T) {
	var body map[string]string
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/v1/change-requests/8/execution-status" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = io.WriteString(w, `{"cr_id":8,"execution_status":"IN_PROGRESS","approval_status":"APPROVED"}`)
	})

	cr, err := client.UpdateExecutionStatus(context.Background(), 8, changerequest.ExecutionInProgress)
	if err != nil {
		t.Fatalf("update execution: %v", err)
	}
	if body["execution_status"] != "IN_PROGRESS" || cr.ExecutionStatus != changerequest.ExecutionInProgress {
		t.Fatalf("unexpected exchange: body=%v cr=%+v", body, cr)
	}
}
