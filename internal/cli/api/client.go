package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Kawdoor/aizer/internal/failure"
	"github.com/Kawdoor/aizer/internal/identity"
)

// Client wraps HTTP calls to the aizer API. A request rejected with
// auth_expired triggers one token refresh and one retry.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	// OnRefresh is called with every rotated session so the caller can
	// persist the new tokens.
	OnRefresh func(*identity.Session) error

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

// NewClient creates a Client from a base URL (e.g. http://localhost:8080) and a token pair.
func NewClient(baseURL, accessToken, refreshToken string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/") + "/api",
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		accessToken:  accessToken,
		refreshToken: refreshToken,
	}
}

// Response is the standard { success, data, error, code } envelope.
type Response[T any] struct {
	Success    bool        `json:"success"`
	Data       T           `json:"data"`
	Error      string      `json:"error,omitempty"`
	Code       string      `json:"code,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// APIError is the raw non-2xx response. It is always wrapped in a
// *failure.Error carrying the kind the server reported.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

func (c *Client) Tokens() (access, refresh string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken, c.refreshToken
}

func (c *Client) SetTokens(access, refresh string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = access
	c.refreshToken = refresh
}

// kindForStatus covers responses that carry no code, such as body parse errors.
func kindForStatus(status int) failure.Kind {
	switch status {
	case http.StatusUnauthorized:
		return failure.KindAuthExpired
	case http.StatusForbidden:
		return failure.KindPermission
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return failure.KindValidation
	case http.StatusNotFound:
		return failure.KindNotFound
	case http.StatusConflict:
		return failure.KindConflict
	default:
		return failure.KindTransient
	}
}

func decodeError(op string, status int, data []byte) error {
	var errResp struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	apiErr := &APIError{Status: status, Message: strings.TrimSpace(string(data))}
	if json.Unmarshal(data, &errResp) == nil && errResp.Error != "" {
		apiErr.Message = errResp.Error
		apiErr.Code = errResp.Code
	}

	kind, ok := failure.KindFromCode(apiErr.Code)
	if !ok {
		kind = kindForStatus(status)
	}
	return &failure.Error{Kind: kind, Op: op, Message: apiErr.Message, Err: apiErr}
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, authenticated bool, out interface{}) error {
	op := method + " " + path

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated {
		if token, _ := c.Tokens(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return failure.Wrap(failure.KindTransient, op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return failure.Wrap(failure.KindTransient, op, fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode >= 400 {
		return decodeError(op, resp.StatusCode, data)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// refresh rotates the token pair. It reports false when there is nothing to
// refresh with or the server refused the refresh token.
func (c *Client) refresh(ctx context.Context) (bool, error) {
	_, refreshToken := c.Tokens()
	if refreshToken == "" {
		return false, nil
	}

	payload, err := json.Marshal(map[string]string{"refreshToken": refreshToken})
	if err != nil {
		return false, err
	}

	var resp Response[identity.Session]
	if err := c.send(ctx, http.MethodPost, "/auth/refresh", payload, false, &resp); err != nil {
		if failure.Is(err, failure.KindTransient) {
			return false, err
		}
		return false, nil
	}

	c.SetTokens(resp.Data.AccessToken, resp.Data.RefreshToken)
	if c.OnRefresh != nil {
		if err := c.OnRefresh(&resp.Data); err != nil {
			return false, fmt.Errorf("persisting refreshed session: %w", err)
		}
	}
	return true, nil
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = data
	}

	_, err := failure.RetryAfterRefresh(ctx, c.refresh, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.send(ctx, method, path, payload, true, out)
	})
	return err
}

// Get sends a GET request and decodes the JSON body into out.
func (c *Client) Get(ctx context.Context, path string, params url.Values, out interface{}) error {
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// Post sends a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body interface{}, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

// Put sends a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body interface{}, out interface{}) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

// Delete sends a DELETE.
func (c *Client) Delete(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodDelete, path, nil, out)
}

// SessionExpired reports whether err means the user has to sign in again.
func SessionExpired(err error) bool {
	var fe *failure.Error
	return errors.As(err, &fe) && fe.Kind == failure.KindAuthExpired
}
