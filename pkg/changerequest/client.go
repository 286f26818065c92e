package changerequest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// DefaultBaseURL matches the backend's default listen address and API prefix.
const DefaultBaseURL = "http://localhost:8080/api/v1"

const defaultTimeout = 30 * time.Second

// Client is a REST client for the change-request backend. It is safe for
// concurrent use; the bearer token may be swapped with SetToken.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	mu    sync.RWMutex
	token string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d, Transport: c.httpClient.Transport}
		}
	}
}

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string { return c.baseURL }

// SetToken replaces the bearer token.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = strings.TrimSpace(token)
	c.mu.Unlock()
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// --- Auth ---

// Login exchanges credentials for a token and stores it on the client.
func (c *Client) Login(ctx context.Context, username, password string) (*AuthResponse, error) {
	body := map[string]string{"username": username, "password": password}
	var auth AuthResponse
	if err := c.post(ctx, "/auth/login", body, &auth); err != nil {
		return nil, err
	}
	if auth.Token != "" {
		c.SetToken(auth.Token)
	}
	return &auth, nil
}

// Register creates an account and stores the returned token.
func (c *Client) Register(ctx context.Context, username, email, password string) (*AuthResponse, error) {
	body := map[string]string{"username": username, "email": email, "password": password}
	var auth AuthResponse
	if err := c.post(ctx, "/auth/register", body, &auth); err != nil {
		return nil, err
	}
	if auth.Token != "" {
		c.SetToken(auth.Token)
	}
	return &auth, nil
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.get(ctx, "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// --- Change requests ---

// ListChangeRequests returns change requests matching filter.
func (c *Client) ListChangeRequests(ctx context.Context, filter ListFilter) ([]ChangeRequest, error) {
	params := url.Values{}
	if filter.ApprovalStatus != "" {
		params.Set("approval_status", string(filter.ApprovalStatus))
	}
	if filter.ExecutionStatus != "" {
		params.Set("execution_status", string(filter.ExecutionStatus))
	}
	if filter.TeamID > 0 {
		params.Set("team_id", strconv.FormatUint(uint64(filter.TeamID), 10))
	}
	if filter.UserID > 0 {
		params.Set("user_id", strconv.FormatUint(uint64(filter.UserID), 10))
	}
	if filter.Page > 0 {
		params.Set("page", strconv.Itoa(filter.Page))
	}
	if filter.Limit > 0 {
		params.Set("limit", strconv.Itoa(filter.Limit))
	}

	var crs []ChangeRequest
	err := c.get(ctx, "/change-requests", params, &crs)
	return crs, err
}

// GetChangeRequest fetches a change request with its relations.
func (c *Client) GetChangeRequest(ctx context.Context, id uint) (*ChangeRequest, error) {
	var cr ChangeRequest
	if err := c.get(ctx, crPath(id), nil, &cr); err != nil {
		return nil, err
	}
	return &cr, nil
}

// CreateChangeRequest submits a new change request.
func (c *Client) CreateChangeRequest(ctx context.Context, req CreateRequest) (*ChangeRequest, error) {
	var cr ChangeRequest
	if err := c.post(ctx, "/change-requests", req, &cr); err != nil {
		return nil, err
	}
	return &cr, nil
}

// UpdateChangeRequest replaces title and payload of an existing request.
func (c *Client) UpdateChangeRequest(ctx context.Context, id uint, req UpdateRequest) (*ChangeRequest, error) {
	var cr ChangeRequest
	if err := c.put(ctx, crPath(id), req, &cr); err != nil {
		return nil, err
	}
	return &cr, nil
}

// Review records a super-manager decision.
func (c *Client) Review(ctx context.Context, id uint, decision ReviewDecision) (*ChangeRequest, error) {
	if !decision.Valid() {
		return nil, fmt.Errorf("changerequest: invalid review decision %q", decision)
	}
	body := map[string]ReviewDecision{"review_decision": decision}
	var cr ChangeRequest
	if err := c.post(ctx, crPath(id)+"/review", body, &cr); err != nil {
		return nil, err
	}
	return &cr, nil
}

// UpdateExecutionStatus moves an approved request through execution.
func (c *Client) UpdateExecutionStatus(ctx context.Context, id uint, status ExecutionStatus) (*ChangeRequest, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("changerequest: invalid execution status %q", status)
	}
	body := map[string]ExecutionStatus{"execution_status": status}
	var cr ChangeRequest
	if err := c.put(ctx, crPath(id)+"/execution-status", body, &cr); err != nil {
		return nil, err
	}
	return &cr, nil
}

// AddComment attaches a comment to a change request.
func (c *Client) AddComment(ctx context.Context, id uint, text string) (*Comment, error) {
	body := map[string]string{"comment_text": text}
	var comment Comment
	if err := c.post(ctx, crPath(id)+"/comments", body, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

// Comments lists comments on a change request.
func (c *Client) Comments(ctx context.Context, id uint) ([]Comment, error) {
	var comments []Comment
	err := c.get(ctx, crPath(id)+"/comments", nil, &comments)
	return comments, err
}

// History lists the audit trail of a change request.
func (c *Client) History(ctx context.Context, id uint) ([]History, error) {
	var history []History
	err := c.get(ctx, crPath(id)+"/history", nil, &history)
	return history, err
}

// --- Teams and users ---

// ListTeams returns every team.
func (c *Client) ListTeams(ctx context.Context) ([]Team, error) {
	var teams []Team
	err := c.get(ctx, "/teams", nil, &teams)
	return teams, err
}

// MyTeams returns the teams of the authenticated user.
func (c *Client) MyTeams(ctx context.Context) ([]Team, error) {
	var teams []Team
	err := c.get(ctx, "/teams/my-teams", nil, &teams)
	return teams, err
}

// GetTeam fetches a team with its members.
func (c *Client) GetTeam(ctx context.Context, id uint) (*Team, error) {
	var team Team
	if err := c.get(ctx, "/teams/"+strconv.FormatUint(uint64(id), 10), nil, &team); err != nil {
		return nil, err
	}
	return &team, nil
}

// ListUsers returns every user.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	err := c.get(ctx, "/users", nil, &users)
	return users, err
}

func crPath(id uint) string {
	return "/change-requests/" + strconv.FormatUint(uint64(id), 10)
}

// --- HTTP helpers ---

func (c *Client) get(ctx context.Context, path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}
	return c.doJSON(ctx, http.MethodGet, path, nil, result)
}

func (c *Client) post(ctx context.Context, path string, body, result any) error {
	return c.doJSON(ctx, http.MethodPost, path, body, result)
}

func (c *Client) put(ctx context.Context, path string, body, result any) error {
	return c.doJSON(ctx, http.MethodPut, path, body, result)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, result any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkError(resp); err != nil {
		return err
	}
	if resp.StatusCode == http.StatusNoContent || result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("changerequest: decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("changerequest: marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("changerequest: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("changerequest: %s %s: %w", method, path, err)
	}
	c.logger.DebugContext(ctx, "api request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)
	return resp, nil
}

func checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}
	apiErr := &APIError{Status: resp.StatusCode}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err == nil {
		apiErr.Message = er.Error
		if apiErr.Message == "" {
			apiErr.Message = er.Message
		}
		apiErr.Fields = er.Errors
	}
	return apiErr
}
