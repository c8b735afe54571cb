package backend

// Package backend is the HTTP client for the LTI backend's session
// endpoints. Wire shapes are owned by the backend; this adapter normalizes
// them into domain types and folds every failure into the session error
// taxonomy.

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sit-hvlab/session-gateway/internal/domain/session"
	"github.com/sit-hvlab/session-gateway/internal/ports"
)

// ClientConfig holds configuration for the backend client. Zero timeouts
// fall back to the defaults.
type ClientConfig struct {
	BaseURL         string
	ValidateTimeout time.Duration // default 10s
	ExchangeTimeout time.Duration // default 20s
	LogoutTimeout   time.Duration // default 5s
	HTTPClient      *http.Client
}

// Client implements ports.BackendClient over HTTP.
type Client struct {
	baseURL         string
	httpClient      *http.Client
	validateTimeout time.Duration
	exchangeTimeout time.Duration
	logoutTimeout   time.Duration
}

// NewClient validates the config and constructs a Client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("backend base URL is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	c := &Client{
		baseURL:         strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient:      httpClient,
		validateTimeout: cfg.ValidateTimeout,
		exchangeTimeout: cfg.ExchangeTimeout,
		logoutTimeout:   cfg.LogoutTimeout,
	}
	if c.validateTimeout <= 0 {
		c.validateTimeout = 10 * time.Second
	}
	if c.exchangeTimeout <= 0 {
		c.exchangeTimeout = 20 * time.Second
	}
	if c.logoutTimeout <= 0 {
		c.logoutTimeout = 5 * time.Second
	}
	return c, nil
}

// userPayload mirrors the backend's user record.
type userPayload struct {
	UserID  string `json:"user_id"`
	Sub     string `json:"sub"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

// coursePayload mirrors the backend's course record.
type coursePayload struct {
	CourseID    string `json:"course_id"`
	CourseTitle string `json:"course_title"`
}

type validateResponse struct {
	User   userPayload   `json:"user"`
	Course coursePayload `json:"course"`
}

type exchangeResponse struct {
	User   userPayload    `json:"user"`
	Claims map[string]any `json:"claims"`
}

// errorResponse carries the backend's human-readable failure detail.
type errorResponse struct {
	Detail string `json:"detail"`
}

func (c *Client) ValidateSession(ctx context.Context, token string) (ports.ValidateResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.validateTimeout)
	defer cancel()

	var payload validateResponse
	if err := c.getJSON(ctx, "/lti/session/validate", token, &payload); err != nil {
		return ports.ValidateResult{}, err
	}

	return ports.ValidateResult{
		User:   mapUser(payload.User),
		Course: session.Course{ID: payload.Course.CourseID, Title: payload.Course.CourseTitle},
	}, nil
}

func (c *Client) RefreshSession(ctx context.Context, token string) error {
	ctx, cancel := context.WithTimeout(ctx, c.validateTimeout)
	defer cancel()

	// Response body is ignored; any 2xx counts.
	return c.getJSON(ctx, "/lti/session/refresh", token, nil)
}

func (c *Client) ExchangeStaffCode(ctx context.Context, code, state string) (ports.ExchangeResult, error) {
	if code == "" || state == "" {
		return ports.ExchangeResult{}, session.ErrMissingCredential
	}

	ctx, cancel := context.WithTimeout(ctx, c.exchangeTimeout)
	defer cancel()

	body, err := json.Marshal(map[string]string{"code": code, "state": state})
	if err != nil {
		return ports.ExchangeResult{}, fmt.Errorf("marshal exchange request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/lti/staff/exchange", bytes.NewReader(body))
	if err != nil {
		return ports.ExchangeResult{}, fmt.Errorf("build exchange request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ports.ExchangeResult{}, fmt.Errorf("%w: %w", session.ErrValidationFailed, err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := readDetail(resp.Body)
		if detail == "" {
			detail = fmt.Sprintf("exchange failed with status %d", resp.StatusCode)
		}
		return ports.ExchangeResult{}, fmt.Errorf("%w: %s", session.ErrValidationFailed, detail)
	}

	var payload exchangeResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&payload); decodeErr != nil {
		return ports.ExchangeResult{}, fmt.Errorf("%w: decode exchange response: %w", session.ErrValidationFailed, decodeErr)
	}

	claims := payload.Claims
	if claims == nil {
		claims = map[string]any{}
	}
	return ports.ExchangeResult{User: session.NormalizeStaffUser(mapUser(payload.User)), Claims: claims}, nil
}

func (c *Client) LTILogout(ctx context.Context, token string) error {
	ctx, cancel := context.WithTimeout(ctx, c.logoutTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/lti/logout", http.NoBody)
	if err != nil {
		return fmt.Errorf("build logout request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend logout: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("backend logout: status %d", resp.StatusCode)
	}
	return nil
}

// getJSON performs a bearer-authenticated GET. A nil dst discards the body.
func (c *Client) getJSON(ctx context.Context, path, token string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", session.ErrValidationFailed, err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", session.ErrValidationFailed, resp.StatusCode)
	}
	if dst == nil {
		return nil
	}
	if decodeErr := json.NewDecoder(resp.Body).Decode(dst); decodeErr != nil {
		return fmt.Errorf("%w: decode response: %w", session.ErrValidationFailed, decodeErr)
	}
	return nil
}

func mapUser(p userPayload) session.User {
	return session.User{
		ID:      firstNonEmpty(p.UserID, p.Sub),
		Email:   p.Email,
		Name:    p.Name,
		Picture: p.Picture,
	}
}

func readDetail(body io.Reader) string {
	var payload errorResponse
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return ""
	}
	return payload.Detail
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 4096))
	_ = body.Close()
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
