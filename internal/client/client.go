// Package client provides a REST client for the speaker directory Gateway.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wacspeakers/speakerdir/internal/metrics"
	"github.com/wacspeakers/speakerdir/internal/models"
)

// DefaultBaseURL is used when neither the caller nor SPEAKERDIR_BASE_URL
// provide a Gateway address.
const DefaultBaseURL = "http://localhost:8000"

// Gateway paths, relative to the base URL.
const (
	ProfilesPath             = "/api/v1/profiles"
	UsersPath                = "/api/v1/users/"
	RegistrationPath         = "/accounts/registration/"
	LoginPath                = "/accounts/login/"
	LogoutPath               = "/accounts/logout/"
	ResetPasswordPath        = "/accounts/password/reset/"
	ConfirmResetPasswordPath = "/accounts/password/reset/confirm/"
	ChangePasswordPath       = "/accounts/password/change/"
	VerifyTokenPath          = "/api-verify-token/"
)

// Client is a REST client for the Gateway.
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *metrics.Collector
}

// New creates a new Gateway client.
// If baseURL is empty, uses SPEAKERDIR_BASE_URL or defaults to localhost:8000.
// A zero timeout leaves the 30s default in place.
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("SPEAKERDIR_BASE_URL")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SetMetrics records the timing of every request in m. A nil m disables
// recording.
func (c *Client) SetMetrics(m *metrics.Collector) {
	c.metrics = m
}

// BaseURL returns the Gateway address requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// AuthResponse is returned by registration and login.
type AuthResponse struct {
	Token string        `json:"token"`
	User  models.Fields `json:"user"`
}

// Detail is the message envelope of the password endpoints.
type Detail struct {
	Detail string `json:"detail"`
}

// =============================================================================
// PROFILE OPERATIONS
// =============================================================================

// ListProfiles searches speaker profiles. query is an API-encoded query string.
func (c *Client) ListProfiles(ctx context.Context, query string) ([]models.Speaker, error) {
	path := ProfilesPath
	if query != "" {
		path += "?" + query
	}

	var speakers []models.Speaker
	if err := c.do(ctx, http.MethodGet, path, "", nil, &speakers); err != nil {
		return nil, err
	}
	return speakers, nil
}

// GetProfile fetches a single speaker profile.
func (c *Client) GetProfile(ctx context.Context, id int64) (models.Speaker, error) {
	var speaker models.Speaker
	path := ProfilesPath + "/" + strconv.FormatInt(id, 10)
	if err := c.do(ctx, http.MethodGet, path, "", nil, &speaker); err != nil {
		return models.Speaker{}, err
	}
	return speaker, nil
}

// =============================================================================
// USER OPERATIONS
// =============================================================================

// ListUsers returns the users visible to token; for a regular session that
// is the signed-in user only.
func (c *Client) ListUsers(ctx context.Context, token string) ([]models.Fields, error) {
	var users []models.Fields
	if err := c.do(ctx, http.MethodGet, UsersPath, token, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateUser replaces the user's fields.
func (c *Client) UpdateUser(ctx context.Context, token, id string, fields models.Fields) (models.Fields, error) {
	var user models.Fields
	if err := c.do(ctx, http.MethodPut, userPath(id), token, fields, &user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser deletes the user. The Gateway may answer with an empty body.
func (c *Client) DeleteUser(ctx context.Context, token, id string, fields models.Fields) (models.Fields, error) {
	var user models.Fields
	if err := c.do(ctx, http.MethodDelete, userPath(id), token, fields, &user); err != nil {
		return nil, err
	}
	return user, nil
}

func userPath(id string) string {
	return UsersPath + id + "/"
}

// =============================================================================
// AUTH OPERATIONS
// =============================================================================

// Register creates an account and returns its first session token.
func (c *Client) Register(ctx context.Context, fields models.Fields) (AuthResponse, error) {
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, RegistrationPath, "", fields, &resp); err != nil {
		return AuthResponse{}, err
	}
	return resp, nil
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, fields models.Fields) (AuthResponse, error) {
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, LoginPath, "", fields, &resp); err != nil {
		return AuthResponse{}, err
	}
	return resp, nil
}

// Logout ends the server-side session, best effort.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, LogoutPath, "", nil, nil)
}

// ResetPassword asks the Gateway to mail a reset link to email.
func (c *Client) ResetPassword(ctx context.Context, email string) (Detail, error) {
	var resp Detail
	payload := map[string]string{"email": email}
	if err := c.do(ctx, http.MethodPost, ResetPasswordPath, "", payload, &resp); err != nil {
		return Detail{}, err
	}
	return resp, nil
}

// ConfirmResetPassword sets a new password using the uid and token of a reset link.
func (c *Client) ConfirmResetPassword(ctx context.Context, fields models.Fields) (Detail, error) {
	var resp Detail
	if err := c.do(ctx, http.MethodPost, ConfirmResetPasswordPath, "", fields, &resp); err != nil {
		return Detail{}, err
	}
	return resp, nil
}

// ChangePassword changes the password of the signed-in user.
func (c *Client) ChangePassword(ctx context.Context, token string, fields models.Fields) (Detail, error) {
	var resp Detail
	if err := c.do(ctx, http.MethodPost, ChangePasswordPath, token, fields, &resp); err != nil {
		return Detail{}, err
	}
	return resp, nil
}

// VerifyToken checks that token is still accepted. The token travels in the
// body, not in the Authorization header.
func (c *Client) VerifyToken(ctx context.Context, token string) error {
	payload := map[string]string{"token": token}
	return c.do(ctx, http.MethodPost, VerifyTokenPath, "", payload, nil)
}

// =============================================================================
// TRANSPORT
// =============================================================================

// do sends one JSON request and records its timing.
func (c *Client) do(ctx context.Context, method, path, token string, payload, out any) error {
	start := time.Now()
	err := c.send(ctx, method, path, token, payload, out)
	if c.metrics != nil {
		c.metrics.RecordRequest(method+" "+operationPath(path), time.Since(start), err != nil)
	}
	return err
}

// operationPath drops the query and replaces numeric segments so requests
// to the same endpoint aggregate together.
func operationPath(path string) string {
	path, _, _ = strings.Cut(path, "?")
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if seg == "" {
			continue
		}
		if _, err := strconv.ParseInt(seg, 10, 64); err == nil {
			segments[i] = "{id}"
		}
	}
	return strings.Join(segments, "/")
}

// send performs the round trip. Every failure is returned as a *GatewayError.
func (c *Client) send(ctx context.Context, method, path, token string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return &GatewayError{Kind: KindNetwork, Err: fmt.Errorf("marshal request: %w", err)}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &GatewayError{Kind: KindNetwork, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "JWT "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &GatewayError{Kind: KindNetwork, Err: fmt.Errorf("execute request: %w", err)}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &GatewayError{Kind: KindNetwork, Status: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode >= 400 {
		return statusError(resp, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &GatewayError{Kind: KindNetwork, Status: resp.StatusCode, Err: fmt.Errorf("unmarshal response: %w", err)}
	}
	return nil
}

// statusError classifies a >= 400 response.
func statusError(resp *http.Response, data []byte) *GatewayError {
	if resp.StatusCode == http.StatusNotFound {
		return &GatewayError{Kind: KindNotFound, Status: resp.StatusCode}
	}
	if resp.StatusCode < 500 {
		var fields map[string]any
		if err := json.Unmarshal(data, &fields); err == nil && len(fields) > 0 {
			return &GatewayError{
				Kind:   KindValidation,
				Status: resp.StatusCode,
				Fields: validationFields(fields),
			}
		}
	}
	return &GatewayError{
		Kind:   KindNetwork,
		Status: resp.StatusCode,
		Err:    fmt.Errorf("server error: %s - %s", resp.Status, strings.TrimSpace(string(data))),
	}
}
