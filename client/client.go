// Package client talks to the hosted authentication service. It implements
// session.RefreshInvoker over HTTP and provides a Connect interceptor that
// keeps outgoing RPC calls authenticated.
package client

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

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/sessionkit/session"
)

// ErrRejected is returned when the service rejects the presented token. Not
// retried, the caller needs a new session.
var ErrRejected = errors.New("token rejected by the authentication service")

const (
	defaultTimeout  = 30 * time.Second
	defaultMaxTries = 3

	refreshPath = "/v1/auth/refresh"
	logoutPath  = "/v1/auth/logout"
	mePath      = "/v1/auth/me"
)

// Config holds the client configuration.
type Config struct {
	// BaseURL of the authentication service, e.g. https://api.example.com
	BaseURL string

	// ProjectID prefixes every bearer credential and anchors which project
	// the call is issued against.
	ProjectID string

	// HTTPClient overrides the default client. Optional.
	HTTPClient *http.Client

	// Timeout for the default HTTP client. Ignored when HTTPClient is set.
	Timeout time.Duration

	// MaxTries bounds retries of transient failures. Defaults to 3.
	MaxTries uint
}

// Client is an HTTP client for the authentication service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	projectID  string
	maxTries   uint
}

var _ session.RefreshInvoker = (*Client)(nil)

// New creates a client for the given service and project.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}
	if cfg.ProjectID == "" {
		return nil, errors.New("project ID is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	maxTries := cfg.MaxTries
	if maxTries == 0 {
		maxTries = defaultMaxTries
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		projectID:  cfg.ProjectID,
		maxTries:   maxTries,
	}, nil
}

// refreshResponse is the refresh endpoint's wire format. refreshJwt is
// omitted when the refresh token was not rotated.
type refreshResponse struct {
	SessionJWT string `json:"sessionJwt"`
	RefreshJWT string `json:"refreshJwt,omitempty"`
}

// userResponse is the profile wire format returned by the me endpoint.
type userResponse struct {
	UserID           string         `json:"userId"`
	Name             string         `json:"name,omitempty"`
	Email            string         `json:"email,omitempty"`
	Phone            string         `json:"phone,omitempty"`
	VerifiedEmail    bool           `json:"verifiedEmail,omitempty"`
	VerifiedPhone    bool           `json:"verifiedPhone,omitempty"`
	CreatedTime      int64          `json:"createdTime,omitempty"`
	CustomAttributes map[string]any `json:"customAttributes,omitempty"`
}

// Refresh exchanges a refresh token for a new session token, implementing
// session.RefreshInvoker. Transient failures are retried with exponential
// backoff, a rejection is permanent and surfaces ErrRejected.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*session.RefreshResult, error) {
	var resp refreshResponse
	if err := c.call(ctx, http.MethodPost, refreshPath, refreshToken, &resp); err != nil {
		return nil, err
	}

	if resp.SessionJWT == "" {
		return nil, errors.New("refresh response is missing a session token")
	}

	return &session.RefreshResult{
		SessionToken: resp.SessionJWT,
		RefreshToken: resp.RefreshJWT,
	}, nil
}

// Logout revokes the refresh token server side. The caller still clears the
// local session afterwards.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	return c.call(ctx, http.MethodPost, logoutPath, refreshToken, nil)
}

// Me fetches a fresh user profile snapshot for the session token.
func (c *Client) Me(ctx context.Context, sessionToken string) (*session.User, error) {
	var resp userResponse
	if err := c.call(ctx, http.MethodGet, mePath, sessionToken, &resp); err != nil {
		return nil, err
	}

	user := &session.User{
		UserID:           resp.UserID,
		Name:             resp.Name,
		Email:            resp.Email,
		Phone:            resp.Phone,
		VerifiedEmail:    resp.VerifiedEmail,
		VerifiedPhone:    resp.VerifiedPhone,
		CustomAttributes: resp.CustomAttributes,
	}
	if resp.CreatedTime != 0 {
		user.CreatedAt = time.Unix(resp.CreatedTime, 0)
	}

	return user, nil
}

// call issues one request with the bearer credential and decodes the JSON
// response into out when non-nil. Network failures and 5xx responses are
// retried, 4xx is permanent.
func (c *Client) call(ctx context.Context, method, path, credential string, out any) error {
	requestID := uuid.New().String()
	started := time.Now()

	operation := func() ([]byte, error) {
		var body io.Reader
		if method != http.MethodGet {
			body = bytes.NewReader([]byte("{}"))
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
		if err != nil {
			return nil, backoff.Permanent(err)
		}

		req.Header.Set("Authorization", "Bearer "+c.projectID+":"+credential)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-request-id", requestID)

		res, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer res.Body.Close()

		data, err := io.ReadAll(res.Body)
		if err != nil {
			return nil, err
		}

		switch {
		case res.StatusCode == http.StatusOK:
			return data, nil
		case res.StatusCode >= http.StatusInternalServerError:
			return nil, fmt.Errorf("service error: HTTP %d", res.StatusCode)
		default:
			return nil, backoff.Permanent(fmt.Errorf("%w: HTTP %d", ErrRejected, res.StatusCode))
		}
	}

	data, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(c.maxTries))
	if err != nil {
		log.Debug().
			Err(err).
			Str("path", path).
			Str("requestID", requestID).
			Dur("duration", time.Since(started)).
			Msg("auth service call failed")

		return err
	}

	log.Debug().
		Str("path", path).
		Str("requestID", requestID).
		Dur("duration", time.Since(started)).
		Msg("auth service call")

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
