package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Self-Labs/pmes/internal/model"
)

// HTTPClient implements RosterClient using the HTTP/JSON REST API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://localhost:8080"). When token is non-empty, an Authorization
// header is set on every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
	}
}

// SetToken replaces the bearer token used on subsequent requests. The login
// command uses it to adopt the fresh session token.
func (c *HTTPClient) SetToken(token string) { c.token = token }

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

// --- Auth ---

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	body := map[string]string{"email": email, "senha": password}
	var resp LoginResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/auth/login", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Signup(ctx context.Context, req *SignupRequest) (*model.User, error) {
	var user model.User
	if err := c.doJSON(ctx, http.MethodPost, "/v1/auth/signup", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *HTTPClient) RequestPasswordReset(ctx context.Context, email string) error {
	return c.doJSON(ctx, http.MethodPost, "/v1/auth/password-reset/request", map[string]string{"email": email}, nil)
}

func (c *HTTPClient) ResetPassword(ctx context.Context, token, password string) error {
	body := map[string]string{"token": token, "senha": password}
	return c.doJSON(ctx, http.MethodPost, "/v1/auth/password-reset", body, nil)
}

func (c *HTTPClient) Me(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := c.doJSON(ctx, http.MethodGet, "/v1/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// --- Units ---

func (c *HTTPClient) CreateUnit(ctx context.Context, req *CreateUnitRequest) (*model.Unit, error) {
	var unit model.Unit
	if err := c.doJSON(ctx, http.MethodPost, "/v1/units", req, &unit); err != nil {
		return nil, err
	}
	return &unit, nil
}

func (c *HTTPClient) GetUnit(ctx context.Context, id string) (*model.Unit, error) {
	var unit model.Unit
	if err := c.doJSON(ctx, http.MethodGet, "/v1/units/"+url.PathEscape(id), nil, &unit); err != nil {
		return nil, err
	}
	return &unit, nil
}

func (c *HTTPClient) ListUnits(ctx context.Context, activeOnly bool) ([]*model.Unit, error) {
	path := "/v1/units"
	if activeOnly {
		path += "?active=true"
	}
	var resp struct {
		Units []*model.Unit `json:"units"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Units, nil
}

func (c *HTTPClient) UnitTree(ctx context.Context) ([]*model.UnitNode, error) {
	var resp struct {
		Tree []*model.UnitNode `json:"tree"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/units/tree", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tree, nil
}

func (c *HTTPClient) UpdateUnit(ctx context.Context, id string, req *UpdateUnitRequest) (*model.Unit, error) {
	var unit model.Unit
	if err := c.doJSON(ctx, http.MethodPatch, "/v1/units/"+url.PathEscape(id), req, &unit); err != nil {
		return nil, err
	}
	return &unit, nil
}

func (c *HTTPClient) DeleteUnit(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/units/"+url.PathEscape(id), nil, nil)
}

// --- Users ---

func (c *HTTPClient) ListUsers(ctx context.Context, pendingOnly bool) ([]*model.User, error) {
	path := "/v1/users"
	if pendingOnly {
		path += "?pending=true"
	}
	var resp struct {
		Users []*model.User `json:"users"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

func (c *HTTPClient) ApproveUser(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := c.doJSON(ctx, http.MethodPost, "/v1/users/"+url.PathEscape(id)+"/approve", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *HTTPClient) DeleteUser(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/users/"+url.PathEscape(id), nil, nil)
}

// --- Schedules ---

func (c *HTTPClient) GetSchedule(ctx context.Context, typ model.ScheduleType, unitID string) (*model.Schedule, error) {
	path := "/v1/schedules/" + url.PathEscape(string(typ))
	if unitID != "" {
		path += "?unit_id=" + url.QueryEscape(unitID)
	}
	var resp struct {
		Schedule *model.Schedule `json:"schedule"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Schedule, nil
}

func (c *HTTPClient) SaveSchedule(ctx context.Context, typ model.ScheduleType, req *SaveScheduleRequest) (*model.Schedule, error) {
	var sched model.Schedule
	if err := c.doJSON(ctx, http.MethodPut, "/v1/schedules/"+url.PathEscape(string(typ)), req, &sched); err != nil {
		return nil, err
	}
	return &sched, nil
}

func (c *HTTPClient) ListSchedules(ctx context.Context) ([]*model.Schedule, error) {
	var resp struct {
		Schedules []*model.Schedule `json:"schedules"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/schedules", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Schedules, nil
}

// --- Health ---

func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/health", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// doJSON performs an HTTP request with optional JSON body and decodes the JSON response.
// If result is nil, the response body is discarded (for DELETE/204 responses).
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	// 204 No Content: success with no body.
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Code  string `json:"code"`
			Error string `json:"error"`
		}
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Code: errResp.Code, Message: errResp.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
